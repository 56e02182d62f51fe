// Package audit reports groups left without members by a failed
// compensating delete. It only observes; nothing is removed.
package audit

import (
	"context"
	"time"

	"github.com/kyodo/backend/internal/common/constants"
	"github.com/kyodo/backend/internal/common/db"
	"github.com/kyodo/backend/internal/common/logger"
	"github.com/kyodo/backend/internal/observability/metrics"
)

type OrphanCounter interface {
	CountOrphans(ctx context.Context) (int64, error)
}

// StartOrphanAudit blocks, auditing once immediately and then every
// interval until ctx is done.
func StartOrphanAudit(ctx context.Context, counter OrphanCounter, log *logger.Logger, interval time.Duration) {
	if interval <= 0 {
		interval = constants.DefaultOrphanAuditInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		RunOnce(ctx, counter, log)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single audit and returns the orphan count, or -1 when
// the store could not be read.
func RunOnce(ctx context.Context, counter OrphanCounter, log *logger.Logger) int64 {
	var orphans int64
	err := db.RetryWithBackoff(ctx, log, db.DefaultRetryConfig, func(ctx context.Context) error {
		n, err := counter.CountOrphans(ctx)
		if err != nil {
			return err
		}
		orphans = n
		return nil
	})
	if err != nil {
		if ctx.Err() == nil {
			log.WithFields(ctx, logger.Fields{"action": "orphan_audit_failed"}).Errorf("orphan group audit failed: %v", err)
		}
		return -1
	}

	metrics.OrphanGroups.Set(float64(orphans))
	if orphans > 0 {
		log.WithFields(ctx, logger.Fields{
			"action":  "orphan_groups_found",
			"orphans": orphans,
		}).Warnf("%d groups have no members", orphans)
	}
	return orphans
}
