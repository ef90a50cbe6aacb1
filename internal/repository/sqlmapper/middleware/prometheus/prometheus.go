package prometheus

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"userapi/internal/repository/sqlmapper"
)

type MiddlewareBuilder struct {
	Namespace string
	Subsystem string

	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// Build registers the collectors on reg and returns the middleware.
func (m *MiddlewareBuilder) Build(reg prometheus.Registerer) (sqlmapper.Middleware, error) {
	m.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.Namespace,
		Subsystem: m.Subsystem,
		Name:      "mapper_statement_duration_seconds",
		Help:      "Latency of statements issued by the mapper.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"type", "table"})
	m.errors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.Namespace,
		Subsystem: m.Subsystem,
		Name:      "mapper_statement_errors_total",
		Help:      "Statements issued by the mapper that returned an error.",
	}, []string{"type", "table"})

	for _, c := range []prometheus.Collector{m.duration, m.errors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return func(next sqlmapper.Handler) sqlmapper.Handler {
		return func(ctx context.Context, qc *sqlmapper.QueryContext) error {
			start := time.Now()
			err := next(ctx, qc)
			m.duration.WithLabelValues(qc.Type, qc.Table).Observe(time.Since(start).Seconds())
			// A missing row is a normal lookup outcome.
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				m.errors.WithLabelValues(qc.Type, qc.Table).Inc()
			}
			return err
		}
	}, nil
}
