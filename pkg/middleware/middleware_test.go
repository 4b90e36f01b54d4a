package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"staybook/pkg/logger"
)

func TestIdentity_ReadsGatewayHeaders(t *testing.T) {
	var got Caller
	handler := Identity(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = CallerFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	req.Header.Set(HeaderUserEmail, " Guest@Example.com ")
	req.Header.Set(HeaderUserName, "Guest")
	req.Header.Set(HeaderUserRole, "client")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got.Email != "guest@example.com" || got.Name != "Guest" || got.Role != RoleClient {
		t.Errorf("caller = %+v", got)
	}
	if !got.Owns("GUEST@example.com") {
		t.Error("caller should own its own e-mail regardless of case")
	}
	if got.IsStaff() {
		t.Error("client must not be staff")
	}
}

func TestIdentity_UnknownRoleIsIgnored(t *testing.T) {
	var got Caller
	handler := Identity(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = CallerFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserEmail, "a@b.c")
	req.Header.Set(HeaderUserRole, "superuser")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got.Role != "" {
		t.Errorf("role = %q, want empty", got.Role)
	}
}

func TestRateLimit_PerCaller(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute, nil, logger.Discard())
	defer limiter.Stop()

	handler := Identity(logger.Discard())(RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	send := func(email string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderUserEmail, email)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("a@example.com"); code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, code)
		}
	}
	if code := send("a@example.com"); code != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", code)
	}
	if code := send("b@example.com"); code != http.StatusOK {
		t.Errorf("other caller status = %d, want 200", code)
	}
}

func TestIdempotency_ReplaysPerCaller(t *testing.T) {
	store := NewResponseStore(time.Minute)
	defer store.Stop()

	var calls int32
	handler := Identity(logger.Discard())(Idempotency(store, "Idempotency-Key")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte{byte('0' + n)})
	})))

	send := func(email string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "k1")
		req.Header.Set(HeaderUserEmail, email)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := send("a@example.com")
	second := send("a@example.com")
	other := send("b@example.com")

	if first.Body.String() != "1" || second.Body.String() != "1" {
		t.Errorf("replay mismatch: first=%q second=%q", first.Body.String(), second.Body.String())
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("replayed response should be marked")
	}
	if other.Body.String() != "2" {
		t.Errorf("another caller reusing the key got %q, want a fresh response", other.Body.String())
	}
}

func TestContentTypeValidation(t *testing.T) {
	handler := ContentTypeValidation(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		want        int
	}{
		{name: "json body", method: http.MethodPost, body: `{}`, contentType: "application/json; charset=utf-8", want: http.StatusNoContent},
		{name: "form body", method: http.MethodPost, body: `a=b`, contentType: "application/x-www-form-urlencoded", want: http.StatusUnsupportedMediaType},
		{name: "bodyless put", method: http.MethodPut, want: http.StatusNoContent},
		{name: "get", method: http.MethodGet, want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, "/", strings.NewReader(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, "/", nil)
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequestLogging_HonoursRequestID(t *testing.T) {
	var seen string
	handler := RequestLogging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "abc-123" || rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Errorf("request id = %q, header = %q", seen, rec.Header().Get(RequestIDHeader))
	}
}

func TestRequestTimeout(t *testing.T) {
	handler := RequestTimeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}
}

func TestRecovery_CatchesPanicBehindTimeout(t *testing.T) {
	handler := Recovery(logger.Discard())(RequestTimeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
