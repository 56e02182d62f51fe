package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DBPoolAcquiredConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_acquired_connections",
			Help: "Number of database connections in use",
		},
		[]string{"driver"},
	)

	DBPoolIdleConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_idle_connections",
			Help: "Number of idle database connections",
		},
		[]string{"driver"},
	)

	DBPoolMaxConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_max_connections",
			Help: "Maximum number of database connections",
		},
		[]string{"driver"},
	)

	DBPoolTotalConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_total_connections",
			Help: "Total number of open database connections",
		},
		[]string{"driver"},
	)

	DBQueryDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"driver", "operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of database query errors",
		},
		[]string{"driver", "operation", "table", "error_type"},
	)

	DBMigrationsApplied = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_migrations_version",
			Help: "Schema version after the last migration run",
		},
	)
)
