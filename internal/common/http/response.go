package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	commonerrors "github.com/kyodo/backend/internal/common/errors"
)

type ErrorEnvelope struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	TraceID string         `json:"trace_id,omitempty"`
}

var (
	ErrBodyTooLarge  = errors.New("request body too large")
	ErrMalformedJSON = errors.New("malformed JSON body")
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteErrorEnvelope(w http.ResponseWriter, status int, code, message string, details map[string]any, traceID string) {
	env := ErrorEnvelope{Code: code, Message: message}
	if len(details) > 0 {
		env.Details = details
	}
	if traceID != "" {
		env.TraceID = traceID
	}
	WriteJSON(w, status, env)
}

// WriteDomainError renders a client-facing domain error directly, for
// rejections raised before any service runs.
func WriteDomainError(w http.ResponseWriter, r *http.Request, err commonerrors.DomainError, details map[string]any) {
	WriteErrorEnvelope(w, err.HTTPStatus(), err.Code(), err.Message(), details, TraceIDFromContext(r.Context()))
}

// DecodeJSON reads exactly one JSON value from the body. Oversized bodies
// yield ErrBodyTooLarge, anything else unreadable yields ErrMalformedJSON.
func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return ErrBodyTooLarge
		}
		return fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after JSON value", ErrMalformedJSON)
	}
	return nil
}

// DecodeAndValidate decodes the body into v and runs struct validation. It
// writes the rejection itself and reports whether the handler may continue.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	traceID := TraceIDFromContext(r.Context())

	if err := DecodeJSON(r, v); err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			WriteErrorEnvelope(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "request body too large", nil, traceID)
			return false
		}
		WriteErrorEnvelope(w, http.StatusBadRequest, CodeInvalidJSON, "invalid JSON body", nil, traceID)
		return false
	}

	if details := ValidateStruct(v); details != nil {
		WriteDomainError(w, r, commonerrors.ErrInvalidPayload, details)
		return false
	}
	return true
}

func GetClientIP(r *http.Request) string {
	ip := r.Header.Get("X-Real-IP")
	if ip == "" {
		ip = r.Header.Get("X-Forwarded-For")
		if idx := strings.Index(ip, ","); idx != -1 {
			ip = ip[:idx]
		}
		ip = strings.TrimSpace(ip)
	}
	if ip == "" {
		ip = r.RemoteAddr
		if idx := strings.LastIndex(ip, ":"); idx != -1 {
			ip = ip[:idx]
		}
	}
	return ip
}
