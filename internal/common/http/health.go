package http

import (
	"context"
	"net/http"
	"time"

	"github.com/kyodo/backend/internal/common/logger"
)

// Pinger is satisfied by *pgxpool.Pool and *sql.DB wrappers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

func HealthHandler(log *logger.Logger, store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if store != nil {
			if err := store.Ping(ctx); err != nil {
				log.WithFields(r.Context(), logger.Fields{
					"action": "health_store_unreachable",
				}).Warnf("health check: store unreachable: %v", err)
				WriteErrorEnvelope(w, http.StatusServiceUnavailable, CodeUnavailable, "store unreachable", nil,
					TraceIDFromContext(r.Context()))
				return
			}
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
