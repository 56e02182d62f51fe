package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kyodo/backend/internal/common/constants"
	commonerrors "github.com/kyodo/backend/internal/common/errors"
	"github.com/kyodo/backend/internal/common/logger"
	"github.com/kyodo/backend/internal/observability/metrics"
)

type payload struct {
	Name  string `json:"name" validate:"required,max=10"`
	Login string `json:"login" validate:"required"`
}

func testLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.NewWithWriter(buf, "test", "DEBUG")
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var env ErrorEnvelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantStatus int
		wantCode   string
	}{
		{"valid", `{"name":"a","login":"b"}`, true, http.StatusOK, ""},
		{"malformed", `{"name":`, false, http.StatusBadRequest, CodeInvalidJSON},
		{"trailing data", `{"name":"a","login":"b"} {}`, false, http.StatusBadRequest, CodeInvalidJSON},
		{"missing field", `{"name":"a"}`, false, http.StatusBadRequest, commonerrors.ErrInvalidPayload.Code()},
		{"too long", `{"name":"aaaaaaaaaaaa","login":"b"}`, false, http.StatusBadRequest, commonerrors.ErrInvalidPayload.Code()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var p payload
			ok := DecodeAndValidate(rr, req, &p)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok {
				return
			}
			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if env := decodeEnvelope(t, rr); env.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, env.Code)
			}
		})
	}
}

func TestValidateStruct_UsesJSONFieldNames(t *testing.T) {
	details := ValidateStruct(&payload{Name: "a"})
	if details["login"] != "required" {
		t.Errorf("expected login=required, got %v", details)
	}
}

func TestMaxRequestSize(t *testing.T) {
	handler := MaxRequestSizeMiddleware(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p payload
		if DecodeAndValidate(w, r, &p) {
			w.WriteHeader(http.StatusOK)
		}
	}))

	t.Run("declared length", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64)))
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("expected 413, got %d", rr.Code)
		}
	})

	t.Run("streamed body", func(t *testing.T) {
		rr := httptest.NewRecorder()
		body := `{"name":"` + strings.Repeat("x", 64) + `","login":"b"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.ContentLength = -1
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("expected 413, got %d", rr.Code)
		}
	})
}

func TestErrorHandler_DomainErrorHidesCause(t *testing.T) {
	var logs bytes.Buffer
	h := NewErrorHandler(testLogger(&logs))

	failed := commonerrors.NewInternalError("GROUP_CREATE_FAILED").
		WithCause(errors.New(`pq: insert or update on table "user_groups" violates foreign key constraint`))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/groups", nil)
	req = req.WithContext(context.WithValue(req.Context(), constants.TraceIDKey, "t-1"))
	h.HandleError(rr, req, failed)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	body := rr.Body.String()
	if strings.Contains(body, "foreign key") || strings.Contains(body, "user_groups") {
		t.Errorf("store detail leaked into response: %s", body)
	}

	var env ErrorEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Code != CodeInternal || env.Message != commonerrors.PublicInternalMessage || env.TraceID != "t-1" {
		t.Errorf("unexpected envelope: %+v", env)
	}
	if !strings.Contains(logs.String(), "foreign key") {
		t.Error("expected the cause to be logged")
	}
}

func TestErrorHandler_PlainErrorIs500(t *testing.T) {
	h := NewErrorHandler(testLogger(&bytes.Buffer{}))

	rr := httptest.NewRecorder()
	h.HandleError(rr, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("dial tcp: refused"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if env := decodeEnvelope(t, rr); env.Code != CodeInternal || env.Message != "internal server error" {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(testLogger(&bytes.Buffer{}))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
}

func TestTraceIDMiddleware(t *testing.T) {
	var seen string
	handler := TraceIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Trace-ID", "given")
	handler.ServeHTTP(rr, req)
	if seen != "given" || rr.Header().Get("X-Trace-ID") != "given" {
		t.Errorf("expected propagated trace id, got ctx=%q header=%q", seen, rr.Header().Get("X-Trace-ID"))
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(seen); err != nil {
		t.Errorf("expected generated uuid trace id, got %q", seen)
	}
}

func TestPathRateLimiter_LoginIsStricter(t *testing.T) {
	limiter := NewPathRateLimiter()
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	blocked := false
	for i := 0; i < constants.RateLimitLoginBurst+1; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.Header.Set("X-Real-IP", "10.0.0.1")
		handler.ServeHTTP(rr, req)
		if rr.Code == http.StatusTooManyRequests {
			blocked = true
		}
	}
	if !blocked {
		t.Error("expected login burst to be exhausted")
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set("X-Real-IP", "10.0.0.2")
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("expected other client to pass, got %d", rr.Code)
	}
}

func TestPathRateLimiter_BlockedMetricUsesNormalizedPath(t *testing.T) {
	limiter := NewPathRateLimiter()
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	counter := metrics.RateLimitBlocked.WithLabelValues("/api/users/{id}/groups", "general")
	before := testutil.ToFloat64(counter)
	seriesBefore := testutil.CollectAndCount(metrics.RateLimitBlocked)

	for i := 0; i < constants.RateLimitGeneralBurst+3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/users/"+uuid.NewString()+"/groups", nil)
		req.Header.Set("X-Real-IP", "10.0.0.9")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := testutil.ToFloat64(counter) - before; got < 1 {
		t.Errorf("expected blocked requests under the normalized path, got %v", got)
	}
	if added := testutil.CollectAndCount(metrics.RateLimitBlocked) - seriesBefore; added > 0 {
		t.Errorf("expected no new series per user id, got %d", added)
	}
}

func TestRateLimiter_Evict(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.Allow("a")
	rl.Allow("b")

	if removed := rl.evict(-time.Second); removed != 2 {
		t.Errorf("expected 2 evicted, got %d", removed)
	}
	if rl.size() != 0 {
		t.Errorf("expected empty limiter map, got %d", rl.size())
	}
}

func TestHealthHandler(t *testing.T) {
	log := testLogger(&bytes.Buffer{})

	rr := httptest.NewRecorder()
	HealthHandler(log, PingFunc(func(context.Context) error { return nil })).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	HealthHandler(log, PingFunc(func(context.Context) error { return errors.New("down") })).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rr.Code)
	}
	if env := decodeEnvelope(t, rr); env.Code != CodeUnavailable {
		t.Errorf("expected %s, got %s", CodeUnavailable, env.Code)
	}
}

func TestValidateStruct_MaxBytesCountsEncodedLength(t *testing.T) {
	type secret struct {
		Password string `json:"password" validate:"maxbytes=4"`
	}

	if details := ValidateStruct(&secret{Password: "éé"}); details != nil {
		t.Errorf("4 bytes should pass, got %v", details)
	}
	details := ValidateStruct(&secret{Password: "ééé"})
	if details["password"] != "maxbytes" {
		t.Errorf("6 bytes should fail maxbytes, got %v", details)
	}
}

func TestParseID_RendersInvalidIDError(t *testing.T) {
	rr := httptest.NewRecorder()
	_, ok := ParseID[struct{}](rr, httptest.NewRequest(http.MethodGet, "/", nil), "group_id", "nope")
	if ok {
		t.Fatal("expected parse failure")
	}

	env := decodeEnvelope(t, rr)
	if rr.Code != commonerrors.ErrInvalidID.HTTPStatus() || env.Code != commonerrors.ErrInvalidID.Code() {
		t.Errorf("expected %s, got %d %s", commonerrors.ErrInvalidID.Code(), rr.Code, env.Code)
	}
	if env.Message != commonerrors.ErrInvalidID.Message() || env.Details["group_id"] != "uuid" {
		t.Errorf("unexpected envelope %+v", env)
	}
}
