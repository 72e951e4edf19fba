package ranking

import (
	"cmp"
	"slices"

	domrank "github.com/kailas-cloud/resumerank/internal/domain/ranking"
)

// Aggregate orders results by descending score. Ties keep their input order, nothing is
// dropped and the input slice is left untouched.
func Aggregate(results []domrank.Result) []domrank.Result {
	out := slices.Clone(results)
	slices.SortStableFunc(out, func(a, b domrank.Result) int {
		return cmp.Compare(b.Score(), a.Score())
	})
	return out
}
