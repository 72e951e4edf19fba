package ranking

import (
	"math"

	"github.com/kailas-cloud/resumerank/internal/domain"
)

// epsilon keeps the denominator positive for zero vectors.
const epsilon = 1e-10

// Cosine returns dot(q,d) / (|q|*|d| + epsilon). Vectors of different length belong to
// different spaces and score 0.
func Cosine(q, d domain.Vector) float64 {
	if len(q) != len(d) || len(q) == 0 {
		return 0
	}
	var dot, nq, nd float64
	for i := range q {
		dot += q[i] * d[i]
		nq += q[i] * q[i]
		nd += d[i] * d[i]
	}
	return dot / (math.Sqrt(nq)*math.Sqrt(nd) + epsilon)
}
