package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"
	"github.com/mattn/go-sqlite3"

	"github.com/kyodo/backend/internal/observability/metrics"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func extractTableFromOperation(operation string) string {
	operation = strings.ToLower(operation)
	switch {
	case strings.Contains(operation, "membership"):
		return "user_groups"
	case strings.Contains(operation, "group"):
		return "groups"
	case strings.Contains(operation, "user"):
		return "users"
	default:
		return "unknown"
	}
}

func observe(driver, operation string, startTime time.Time) string {
	table := extractTableFromOperation(operation)
	metrics.DBQueryDurationSeconds.WithLabelValues(driver, operation, table).Observe(time.Since(startTime).Seconds())
	return table
}

// HandleQueryError records the query and maps "no rows" from either driver to
// notFoundErr. Other errors are counted and wrapped with the operation name.
func HandleQueryError(driver string, err error, notFoundErr error, operation string, startTime time.Time) error {
	table := observe(driver, operation, startTime)

	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}
	metrics.DBQueryErrors.WithLabelValues(driver, operation, table, fmt.Sprintf("%T", err)).Inc()
	return fmt.Errorf("failed to %s: %w", operation, err)
}

// HandleExecError records the statement. Constraint violations are wrapped
// in the given sentinels, keeping the driver error in the chain.
func HandleExecError(driver string, err error, operation string, startTime time.Time, violations Violations) error {
	table := observe(driver, operation, startTime)

	if err == nil {
		return nil
	}
	metrics.DBQueryErrors.WithLabelValues(driver, operation, table, fmt.Sprintf("%T", err)).Inc()

	switch {
	case violations.Unique != nil && IsUniqueViolation(err):
		return fmt.Errorf("failed to %s: %w: %w", operation, violations.Unique, err)
	case violations.ForeignKey != nil && IsForeignKeyViolation(err):
		return fmt.Errorf("failed to %s: %w: %w", operation, violations.ForeignKey, err)
	}
	return fmt.Errorf("failed to %s: %w", operation, err)
}

// Violations names the sentinel errors a statement reports for constraint
// failures. A nil field leaves that failure unclassified.
type Violations struct {
	Unique     error
	ForeignKey error
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
