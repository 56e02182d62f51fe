package constants

import "time"

const (
	DefaultBcryptCost = 12
	MinBcryptCost     = 4
	MaxBcryptCost     = 31

	DefaultMaxRequestSize = 1 << 20

	DefaultProjectionConcurrency = 8

	DBPoolMaxConns        = 25
	DBPoolMinConns        = 5
	DBPoolConnMaxLifetime = time.Hour
	DBPoolConnMaxIdleTime = 30 * time.Minute
	DBPoolHealthCheck     = 1 * time.Minute
	DBPoolConnectTimeout  = 5 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = 1 * time.Second
	DBPoolMetricsInterval = 30 * time.Second
	DBQueryTimeout        = 30 * time.Second

	CompensationTimeout = 10 * time.Second

	CircuitBreakerThreshold  = 5
	CircuitBreakerTimeout    = 5 * time.Second
	CircuitBreakerResetAfter = 30 * time.Second

	DefaultOrphanAuditInterval = 10 * time.Minute

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second
	ServerMaxHeaderBytes    = 1 << 16

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	DefaultHTTPPort       = "1234"
	DefaultRequestTimeout = 5 * time.Second
	DefaultLogDir         = "/var/log/kyodo"
	DefaultSQLitePath     = "kyodo.sqlite"

	RateLimitCleanupInterval           = 5 * time.Minute
	RateLimitLoginRequestsPerSecond    = 1
	RateLimitLoginBurst                = 5
	RateLimitRegisterRequestsPerSecond = 0.2
	RateLimitRegisterBurst             = 3
	RateLimitGeneralRequestsPerSecond  = 20
	RateLimitGeneralBurst              = 40

	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28
)

type TraceIDKeyType string

const TraceIDKey TraceIDKeyType = "trace_id"
