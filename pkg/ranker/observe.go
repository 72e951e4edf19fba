package ranker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// rankerMetrics holds prometheus metrics registered for the library.
type rankerMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	documents  prometheus.Histogram
}

func newRankerMetrics(reg prometheus.Registerer) (*rankerMetrics, error) {
	m := &rankerMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "resumerank",
			Subsystem: "ranker",
			Name:      "operations_total",
			Help:      "Total ranker operations by strategy and status.",
		}, []string{"strategy", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "resumerank",
			Subsystem: "ranker",
			Name:      "operation_duration_seconds",
			Help:      "Ranker operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"strategy"}),
		documents: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "resumerank",
			Subsystem: "ranker",
			Name:      "documents",
			Help:      "Documents per ranker operation.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.documents); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("ranker: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("ranker: register metric: %w", err)
	}
	return nil
}

// observer provides logging and metrics for ranker operations.
type observer struct {
	logger  *slog.Logger
	metrics *rankerMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *rankerMetrics
	if reg != nil {
		var err error
		m, err = newRankerMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

func (o *observer) observe(strategy Strategy, documents int, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.operations.WithLabelValues(string(strategy), status).Inc()
		o.metrics.duration.WithLabelValues(string(strategy)).Observe(dur.Seconds())
		o.metrics.documents.Observe(float64(documents))
	}

	if o.logger != nil {
		if err != nil {
			o.logger.Warn("rank failed",
				"strategy", strategy,
				"documents", documents,
				"duration", dur,
				"error", err,
			)
		} else {
			o.logger.Debug("rank completed",
				"strategy", strategy,
				"documents", documents,
				"duration", dur,
			)
		}
	}
}
