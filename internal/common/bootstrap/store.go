package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/kyodo/backend/internal/common/config"
	"github.com/kyodo/backend/internal/common/constants"
	"github.com/kyodo/backend/internal/common/db"
	commonhttp "github.com/kyodo/backend/internal/common/http"
	"github.com/kyodo/backend/internal/common/logger"
	grouprepo "github.com/kyodo/backend/internal/group/repository"
	userrepo "github.com/kyodo/backend/internal/user/repository"
)

// Store is the relationship store behind both repositories, backed by either
// a pgx pool or a single SQLite handle.
type Store struct {
	Driver string
	Users  userrepo.Repository
	Groups grouprepo.Repository

	pool  *pgxpool.Pool
	sqlDB *sql.DB
}

// OpenStore connects to the configured backend and applies pending
// migrations before any repository is handed out.
func OpenStore(ctx context.Context, cfg config.Config, log *logger.Logger) (*Store, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, log)
	case config.DriverSQLite:
		return openSQLite(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.Database.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.Config, log *logger.Logger) (*Store, error) {
	if _, err := Migrate(ctx, cfg, log); err != nil {
		return nil, err
	}

	pool, err := db.NewPool(ctx, log, db.PoolConfig{
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return nil, err
	}

	return &Store{
		Driver: db.DriverPostgres,
		Users:  userrepo.NewPgRepository(pool),
		Groups: grouprepo.NewPgRepository(pool),
		pool:   pool,
	}, nil
}

func openSQLite(ctx context.Context, cfg config.Config, log *logger.Logger) (*Store, error) {
	sqlDB, err := db.OpenSQLite(ctx, cfg.Database.SQLitePath)
	if err != nil {
		return nil, err
	}

	version, err := db.RunMigrations(ctx, sqlDB, db.DriverSQLite)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	log.Infof("sqlite store at %s, schema version %d", cfg.Database.SQLitePath, version)

	return &Store{
		Driver: db.DriverSQLite,
		Users:  userrepo.NewSQLiteRepository(sqlDB),
		Groups: grouprepo.NewSQLiteRepository(sqlDB),
		sqlDB:  sqlDB,
	}, nil
}

// Migrate applies pending migrations for the configured backend and returns
// the resulting schema version.
func Migrate(ctx context.Context, cfg config.Config, log *logger.Logger) (int64, error) {
	sqlDB, driver, err := openMigrationDB(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer sqlDB.Close()

	version, err := db.RunMigrations(ctx, sqlDB, driver)
	if err != nil {
		return 0, err
	}
	log.Infof("%s schema at version %d", driver, version)
	return version, nil
}

// MigrationStatus reports applied and pending migrations for the configured
// backend.
func MigrationStatus(ctx context.Context, cfg config.Config) error {
	sqlDB, driver, err := openMigrationDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return db.MigrationStatus(ctx, sqlDB, driver)
}

func openMigrationDB(ctx context.Context, cfg config.Config) (*sql.DB, string, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		sqlDB, err := db.OpenPostgresSQL(cfg.Database.URL)
		if err != nil {
			return nil, "", err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, "", fmt.Errorf("ping postgres: %w", err)
		}
		return sqlDB, db.DriverPostgres, nil
	case config.DriverSQLite:
		sqlDB, err := db.OpenSQLite(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return nil, "", err
		}
		return sqlDB, db.DriverSQLite, nil
	default:
		return nil, "", fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.Database.Driver)
	}
}

// Pinger exposes the backend's liveness check to the health endpoint.
func (s *Store) Pinger() commonhttp.Pinger {
	if s.pool != nil {
		return s.pool
	}
	return commonhttp.PingFunc(s.sqlDB.PingContext)
}

// StartMetrics samples connection pool gauges until ctx is done.
func (s *Store) StartMetrics(ctx context.Context) {
	if s.pool != nil {
		db.StartPoolMetrics(ctx, s.pool, constants.DBPoolMetricsInterval)
		return
	}
	db.StartSQLMetrics(ctx, s.sqlDB, constants.DBPoolMetricsInterval)
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
		return nil
	}
	return s.sqlDB.Close()
}
