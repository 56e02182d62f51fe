package http

import (
	"net/http"
	"strconv"

	commonerrors "github.com/kyodo/backend/internal/common/errors"
	"github.com/kyodo/backend/internal/common/httpmetrics"
	"github.com/kyodo/backend/internal/common/logger"
	"github.com/kyodo/backend/internal/observability/metrics"
)

type ErrorHandler struct {
	log *logger.Logger
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	return &ErrorHandler{log: log}
}

// HandleError renders err. Domain errors use their own status and public
// message; internal ones share one outward code. The cause is only logged.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	ctx := r.Context()
	traceID := TraceIDFromContext(ctx)

	domainErr, ok := commonerrors.AsDomainError(err)
	if !ok {
		h.log.WithFields(ctx, logger.Fields{
			"error":  err.Error(),
			"action": "unhandled_error",
		}).Errorf("unhandled error: %v", err)

		h.count(r, http.StatusInternalServerError)
		WriteErrorEnvelope(w, http.StatusInternalServerError, CodeInternal, commonerrors.PublicInternalMessage, nil, traceID)
		return
	}

	status := domainErr.HTTPStatus()
	fields := logger.Fields{
		"error_code": domainErr.Code(),
		"category":   string(domainErr.Category()),
		"status":     status,
		"action":     "domain_error",
	}
	if status >= http.StatusInternalServerError {
		h.log.WithFields(ctx, fields).Errorf("domain error: %v", domainErr)
	} else if h.log.ShouldLog(logger.DEBUG) {
		h.log.WithFields(ctx, fields).Debugf("domain error: %v", domainErr)
	}

	metrics.DomainErrorsTotal.WithLabelValues(
		string(domainErr.Category()),
		domainErr.Code(),
		strconv.Itoa(status),
	).Inc()
	h.count(r, status)

	code := domainErr.Code()
	if domainErr.Category() == commonerrors.CategoryInternal {
		code = CodeInternal
	}
	WriteErrorEnvelope(w, status, code, domainErr.Message(), nil, traceID)
}

func (h *ErrorHandler) count(r *http.Request, status int) {
	metrics.HTTPErrorsTotal.WithLabelValues(
		strconv.Itoa(status),
		httpmetrics.RouteLabel(r),
		r.Method,
	).Inc()
}
