package http

import (
	"context"
	"net/http"
	"time"

	"github.com/kyodo/backend/internal/common/constants"
	"github.com/kyodo/backend/internal/common/logger"
)

// BuildBaseHandler wraps handler with the middleware every route shares.
// Request metrics are mounted inside the router so route patterns resolve.
func BuildBaseHandler(log *logger.Logger, handler http.Handler) http.Handler {
	recovery := RecoveryMiddleware(log)
	maxRequestSize := MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize)
	csp := ContentSecurityPolicyMiddleware("")

	return SecurityHeadersMiddleware(csp(TraceIDMiddleware(recovery(maxRequestSize(handler)))))
}

// TimeoutMiddleware bounds the context handed to the core for each request.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = constants.DefaultRequestTimeout
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
