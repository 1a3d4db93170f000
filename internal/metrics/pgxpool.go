package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterPgxPoolMetrics exposes pgx connection pool statistics as Prometheus
// gauges under the sentinel_pgxpool namespace.
func RegisterPgxPoolMetrics(pool *pgxpool.Pool) {
	opts := func(name, help string) prometheus.GaugeOpts {
		return prometheus.GaugeOpts{
			Namespace: "sentinel",
			Subsystem: "pgxpool",
			Name:      name,
			Help:      help,
		}
	}
	prometheus.MustRegister(
		prometheus.NewGaugeFunc(opts("acquired_conns", "Number of currently acquired connections in the pool"), func() float64 {
			return float64(pool.Stat().AcquiredConns())
		}),
		prometheus.NewGaugeFunc(opts("max_conns", "Maximum number of connections in the pool"), func() float64 {
			return float64(pool.Stat().MaxConns())
		}),
		prometheus.NewGaugeFunc(opts("total_conns", "Total number of connections in the pool"), func() float64 {
			return float64(pool.Stat().TotalConns())
		}),
		prometheus.NewGaugeFunc(opts("idle_conns", "Number of idle connections in the pool"), func() float64 {
			return float64(pool.Stat().IdleConns())
		}),
	)
}
