package health

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/resumerank/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a failing optional component: rankings still work,
	// persistence or the embedding strategy may not.
	Degraded Status = "degraded"
	// Unhealthy indicates the document store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names in the report.
const (
	ComponentRedis     = "redis"
	ComponentPostgres  = "postgres"
	ComponentEmbedding = "embedding"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	redis     Pinger
	postgres  Pinger
	embedding EmbeddingChecker
}

// New creates a Service. embedding can be nil.
func New(redis Pinger, embedding EmbeddingChecker) *Service {
	return &Service{redis: redis, embedding: embedding}
}

// WithPostgres adds the result sink database to the checks.
func (s *Service) WithPostgres(p Pinger) *Service {
	s.postgres = p
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	log := logger.FromContext(ctx)
	checks := make(map[string]CheckResult, 3)

	record := func(name string, err error) {
		if err != nil {
			log.Warn("Health check failed", zap.String("component", name), zap.Error(err))
			checks[name] = CheckError
			return
		}
		checks[name] = CheckOK
	}

	record(ComponentRedis, s.redis.Ping(ctx))
	if s.postgres != nil {
		record(ComponentPostgres, s.postgres.Ping(ctx))
	}
	if s.embedding != nil {
		record(ComponentEmbedding, s.embedding.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[ComponentRedis] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}
