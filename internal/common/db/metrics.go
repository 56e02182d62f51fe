package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/kyodo/backend/internal/common/constants"
	"github.com/kyodo/backend/internal/observability/metrics"
)

// StartPoolMetrics samples pool gauges until ctx is done.
func StartPoolMetrics(ctx context.Context, pool *pgxpool.Pool, interval time.Duration) {
	startSampler(ctx, interval, func() {
		stats := pool.Stat()
		metrics.DBPoolAcquiredConnections.WithLabelValues(DriverPostgres).Set(float64(stats.AcquiredConns()))
		metrics.DBPoolIdleConnections.WithLabelValues(DriverPostgres).Set(float64(stats.IdleConns()))
		metrics.DBPoolMaxConnections.WithLabelValues(DriverPostgres).Set(float64(stats.MaxConns()))
		metrics.DBPoolTotalConnections.WithLabelValues(DriverPostgres).Set(float64(stats.TotalConns()))
	})
}

func StartSQLMetrics(ctx context.Context, sqlDB *sql.DB, interval time.Duration) {
	startSampler(ctx, interval, func() {
		stats := sqlDB.Stats()
		metrics.DBPoolAcquiredConnections.WithLabelValues(DriverSQLite).Set(float64(stats.InUse))
		metrics.DBPoolIdleConnections.WithLabelValues(DriverSQLite).Set(float64(stats.Idle))
		metrics.DBPoolMaxConnections.WithLabelValues(DriverSQLite).Set(float64(stats.MaxOpenConnections))
		metrics.DBPoolTotalConnections.WithLabelValues(DriverSQLite).Set(float64(stats.OpenConnections))
	})
}

func startSampler(ctx context.Context, interval time.Duration, sample func()) {
	if interval <= 0 {
		interval = constants.DBPoolMetricsInterval
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		sample()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sample()
			}
		}
	}()
}
