package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/filmfriends/backend/internal/logging"
)

func TestScopedRateLimiter(t *testing.T) {
	limiter := NewScopedRateLimiter(Limit{PerSecond: 1, Burst: 2}, time.Minute)
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter.WithNowFunc(func() time.Time { return now })

	allow := func(scope, client string) bool {
		ok, _ := limiter.Allow(scope, client)
		return ok
	}

	if !allow("friends", "1.1.1.1") || !allow("friends", "1.1.1.1") {
		t.Fatal("burst should be allowed")
	}
	ok, retryAfter := limiter.Allow("friends", "1.1.1.1")
	if ok {
		t.Fatal("third request should be limited")
	}
	if retryAfter <= 0 || retryAfter > time.Second {
		t.Fatalf("retryAfter = %v", retryAfter)
	}
	if !allow("events", "1.1.1.1") {
		t.Fatal("scopes have their own bucket")
	}
	if !allow("friends", "2.2.2.2") {
		t.Fatal("clients have their own bucket")
	}

	now = now.Add(time.Second)
	if !allow("friends", "1.1.1.1") {
		t.Fatal("token should be refilled after a second")
	}

	if got := limiter.Buckets(); got != 3 {
		t.Fatalf("buckets = %d, want 3", got)
	}
	now = now.Add(2 * time.Minute)
	allow("likes", "3.3.3.3")
	if got := limiter.Buckets(); got != 1 {
		t.Fatalf("idle buckets should be swept, %d left", got)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewScopedRateLimiter(Limit{PerSecond: 0.5, Burst: 1}, time.Minute)
	handler := RateLimit(limiter, "likes")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		wantStatus int
	}{
		{name: "first request", remoteAddr: "10.0.0.1:5000", wantStatus: http.StatusNoContent},
		{name: "same client", remoteAddr: "10.0.0.1:6000", wantStatus: http.StatusTooManyRequests},
		{name: "forwarded client", remoteAddr: "10.0.0.1:5000", forwarded: "192.0.2.7, 10.0.0.1", wantStatus: http.StatusNoContent},
		{name: "forwarded client again", remoteAddr: "10.0.0.9:5000", forwarded: "192.0.2.7", wantStatus: http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPut, "/films/1/like/2", nil)
		req.RemoteAddr = tt.remoteAddr
		if tt.forwarded != "" {
			req.Header.Set("X-Forwarded-For", tt.forwarded)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != tt.wantStatus {
			t.Fatalf("%s: status = %d, want %d", tt.name, rec.Code, tt.wantStatus)
		}
		if tt.wantStatus != http.StatusTooManyRequests {
			continue
		}
		if got := rec.Header().Get("Retry-After"); got != "2" {
			t.Fatalf("%s: Retry-After = %q, want 2", tt.name, got)
		}
		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["error"] == "" {
			t.Fatalf("%s: body = %v, err %v", tt.name, body, err)
		}
	}

	passthrough := RateLimit(nil, "likes")(http.NotFoundHandler())
	rec := httptest.NewRecorder()
	passthrough.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("nil limiter status = %d", rec.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var seenID string
	r := chi.NewRouter()
	r.Use(RequestLogger(logger))
	r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		seenID = logging.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/users/7", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}
	if seenID != "abc-123" || rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("request id not propagated: ctx=%q header=%q", seenID, rec.Header().Get(RequestIDHeader))
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["msg"] != "request completed" || entry["status"] != float64(http.StatusTeapot) {
		t.Fatalf("unexpected log entry: %v", entry)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("panic status = %d", rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected a generated request id")
	}
}
