package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockEmbeddingChecker{}).WithPostgres(&mockPinger{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, c := range []string{ComponentRedis, ComponentPostgres, ComponentEmbedding} {
		if r.Checks[c] != CheckOK {
			t.Errorf("expected %s %q, got %q", c, CheckOK, r.Checks[c])
		}
	}
}

func TestCheck_RedisErrorIsUnhealthy(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("conn refused")}, &mockEmbeddingChecker{})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks[ComponentRedis] != CheckError {
		t.Errorf("expected redis %q, got %q", CheckError, r.Checks[ComponentRedis])
	}
	if r.Checks[ComponentEmbedding] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks[ComponentEmbedding])
	}
}

func TestCheck_OptionalComponentsDegrade(t *testing.T) {
	tests := []struct {
		name      string
		postgres  error
		embedding error
		failed    string
	}{
		{"postgres down", errors.New("db down"), nil, ComponentPostgres},
		{"embedding down", nil, errors.New("timeout"), ComponentEmbedding},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&mockPinger{}, &mockEmbeddingChecker{err: tt.embedding}).
				WithPostgres(&mockPinger{err: tt.postgres})
			r := svc.Check(context.Background())

			if r.Status != Degraded {
				t.Errorf("expected %q, got %q", Degraded, r.Status)
			}
			if r.Checks[tt.failed] != CheckError {
				t.Errorf("expected %s error", tt.failed)
			}
			if r.Checks[ComponentRedis] != CheckOK {
				t.Error("expected redis ok")
			}
		})
	}
}

func TestCheck_OnlyRedis(t *testing.T) {
	r := New(&mockPinger{}, nil).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 1 {
		t.Errorf("expected only the redis check, got %v", r.Checks)
	}
}
