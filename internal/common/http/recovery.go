package http

import (
	"net/http"
	"runtime/debug"

	commonerrors "github.com/kyodo/backend/internal/common/errors"
	"github.com/kyodo/backend/internal/common/logger"
)

func RecoveryMiddleware(log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.WithFields(r.Context(), logger.Fields{
						"action": "panic_recovered",
						"path":   r.URL.Path,
					}).Criticalf("panic recovered: %v\n%s", rec, debug.Stack())
					WriteErrorEnvelope(w, http.StatusInternalServerError, CodeInternal, commonerrors.PublicInternalMessage, nil, TraceIDFromContext(r.Context()))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
