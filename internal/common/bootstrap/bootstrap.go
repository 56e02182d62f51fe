package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhttp "github.com/kyodo/backend/internal/auth/http"
	authservice "github.com/kyodo/backend/internal/auth/service"
	"github.com/kyodo/backend/internal/common/config"
	"github.com/kyodo/backend/internal/common/crypto"
	commonhttp "github.com/kyodo/backend/internal/common/http"
	"github.com/kyodo/backend/internal/common/httpmetrics"
	"github.com/kyodo/backend/internal/common/logger"
	"github.com/kyodo/backend/internal/group/audit"
	grouphttp "github.com/kyodo/backend/internal/group/http"
	groupservice "github.com/kyodo/backend/internal/group/service"
)

const serviceName = "kyodo"

type App struct {
	Log          *logger.Logger
	Config       config.Config
	Store        *Store
	AuthService  *authservice.AuthService
	GroupService *groupservice.GroupService

	limiter *commonhttp.PathRateLimiter
}

// InitializeLogger points the process-wide logger at the rotated file
// described by cfg.
func InitializeLogger(cfg config.Config) (*logger.Logger, error) {
	log := logger.GetInstance()
	if err := log.Initialize(cfg.Log.Dir, serviceName, cfg.Log.Level); err != nil {
		return nil, err
	}
	return log, nil
}

// New opens the store and assembles the services on top of it.
func New(ctx context.Context, cfg config.Config, log *logger.Logger) (*App, error) {
	hasher, err := crypto.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	store, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Database.Driver, err)
	}

	return &App{
		Log:          log,
		Config:       cfg,
		Store:        store,
		AuthService:  authservice.NewAuthService(store.Users, hasher, log),
		GroupService: groupservice.NewGroupService(store.Groups, store.Users, log, groupservice.DefaultOptions()),
		limiter:      commonhttp.NewPathRateLimiter(),
	}, nil
}

// Start launches the background jobs: pool metrics, the orphan audit and
// rate limiter eviction. All of them stop with ctx.
func (a *App) Start(ctx context.Context) {
	a.Store.StartMetrics(ctx)
	a.limiter.StartCleanup(ctx)
	go audit.StartOrphanAudit(ctx, a.Store.Groups, a.Log, a.Config.OrphanAuditInterval)
}

// Handler returns the full HTTP surface wrapped in the shared middleware.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(httpmetrics.Wrap)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.Config.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Trace-ID"},
		ExposedHeaders: []string{"X-Trace-ID"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		commonhttp.WriteErrorEnvelope(w, http.StatusNotFound, commonhttp.CodeNotFound, "not found", nil,
			commonhttp.TraceIDFromContext(r.Context()))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		commonhttp.WriteErrorEnvelope(w, http.StatusMethodNotAllowed, commonhttp.CodeMethodNotAllowed, "method not allowed", nil,
			commonhttp.TraceIDFromContext(r.Context()))
	})

	r.Get("/health", commonhttp.HealthHandler(a.Log, a.Store.Pinger()))
	r.Handle("/metrics", promhttp.Handler())

	auth := authhttp.NewHandler(a.AuthService, a.Log)
	groups := grouphttp.NewHandler(a.GroupService, a.Log)

	r.Route("/api", func(r chi.Router) {
		r.Use(a.limiter.Middleware)
		r.Use(commonhttp.TimeoutMiddleware(a.Config.RequestTimeout))

		r.Route("/auth", auth.Routes)
		groups.Routes(r)
	})

	return commonhttp.BuildBaseHandler(a.Log, r)
}

func (a *App) Close() error {
	return a.Store.Close()
}
