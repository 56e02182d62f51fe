package server

import (
	"context"
	stdlog "log"
	"net"
	"net/http"
	"strings"

	"github.com/kyodo/backend/internal/common/constants"
	"github.com/kyodo/backend/internal/common/logger"
)

// New builds the API server on port. Errors net/http would print on its own
// (TLS handshakes, hijack failures) go through log instead.
func New(port string, handler http.Handler, log *logger.Logger) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort("", port),
		Handler:           handler,
		ReadHeaderTimeout: constants.ServerReadHeaderTimeout,
		ReadTimeout:       constants.ServerReadTimeout,
		WriteTimeout:      constants.ServerWriteTimeout,
		IdleTimeout:       constants.ServerIdleTimeout,
		MaxHeaderBytes:    constants.ServerMaxHeaderBytes,
		ErrorLog:          stdlog.New(errorLogWriter{log: log}, "", 0),
	}
}

type errorLogWriter struct {
	log *logger.Logger
}

func (w errorLogWriter) Write(p []byte) (int, error) {
	w.log.WithFields(context.Background(), logger.Fields{"action": "http_server_error"}).Warn(strings.TrimSpace(string(p)))
	return len(p), nil
}
