package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister_Idempotent(t *testing.T) {
	Register()
	Register()
}

func TestRankingsTotal(t *testing.T) {
	before := testutil.ToFloat64(RankingsTotal.WithLabelValues("tfidf", "ok"))
	RankingsTotal.WithLabelValues("tfidf", "ok").Inc()
	after := testutil.ToFloat64(RankingsTotal.WithLabelValues("tfidf", "ok"))
	if after-before != 1 {
		t.Errorf("expected counter to grow by 1, got %f", after-before)
	}
}
