package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/kyodo/backend/internal/common/logger"
)

type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

var DefaultRetryConfig = RetryConfig{
	MaxAttempts:  3,
	InitialDelay: 100 * time.Millisecond,
	MaxDelay:     2 * time.Second,
	Multiplier:   2.0,
}

func (c RetryConfig) next(delay time.Duration) time.Duration {
	delay = time.Duration(float64(delay) * c.Multiplier)
	if delay > c.MaxDelay {
		return c.MaxDelay
	}
	return delay
}

// IsTransient reports connection loss, serialization conflicts and lock
// contention. Constraint violations and missing rows are never transient.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 is connection exception, class 40 transaction rollback.
		if strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "40") {
			return true
		}
		return pgErr.Code == "55P03" || pgErr.Code == "57P01"
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// RetryWithBackoff is meant for idempotent reads. Write paths that carry
// their own compensation must not be retried through it.
func RetryWithBackoff(ctx context.Context, log *logger.Logger, config RetryConfig, operation func(context.Context) error) error {
	attempts := max(config.MaxAttempts, 1)
	delay := config.InitialDelay

	timer := time.NewTimer(0)
	<-timer.C
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		err := operation(ctx)
		switch {
		case err == nil:
			if attempt > 1 {
				log.Infof("database operation succeeded after %d attempts", attempt)
			}
			return nil
		case !IsTransient(err):
			return err
		case attempt == attempts:
			return fmt.Errorf("database operation failed after %d attempts: %w", attempts, err)
		}

		log.WithFields(ctx, logger.Fields{
			"attempt": attempt,
			"action":  "db_retry",
		}).Warnf("transient database error, retrying in %v: %v", delay, err)

		timer.Reset(delay)
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-timer.C:
		}
		delay = config.next(delay)
	}
}
