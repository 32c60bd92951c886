package rest

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(5)

	// Burst of 5 is allowed immediately.
	for i := 0; i < 5; i++ {
		if !rl.Allow() {
			t.Fatalf("request %d should have been allowed", i+1)
		}
	}

	if rl.Allow() {
		t.Fatal("6th request should have been denied")
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	rl := NewRateLimiter(10)

	for i := 0; i < 10; i++ {
		rl.Allow()
	}
	if rl.Allow() {
		t.Fatal("should be denied after draining tokens")
	}

	rl.mu.Lock()
	rl.lastRefill = time.Now().Add(-1 * time.Second)
	rl.mu.Unlock()

	if !rl.Allow() {
		t.Fatal("should be allowed after refill period")
	}
}

func TestRateLimiter_MaxTokensCapped(t *testing.T) {
	rl := NewRateLimiter(5)

	rl.mu.Lock()
	rl.lastRefill = time.Now().Add(-10 * time.Second)
	rl.mu.Unlock()

	allowed := 0
	for i := 0; i < 10; i++ {
		if rl.Allow() {
			allowed++
		}
	}
	if allowed != 5 {
		t.Fatalf("expected 5 allowed requests (capped at max), got %d", allowed)
	}
}

func TestRateLimitMiddleware_Rejects(t *testing.T) {
	handler := RateLimitMiddleware(NewRateLimiter(1))(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "rate limit exceeded") {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestPerClientRateLimiter_IsolatesClients(t *testing.T) {
	pcrl := NewPerClientRateLimiter(2)

	for i := 0; i < 2; i++ {
		if !pcrl.Allow("client-a") {
			t.Fatalf("client-a request %d should have been allowed", i+1)
		}
	}
	if pcrl.Allow("client-a") {
		t.Fatal("client-a 3rd request should have been denied")
	}
	if !pcrl.Allow("client-b") {
		t.Fatal("client-b should have been allowed (separate bucket)")
	}
}

func TestPerClientRateLimiter_SweepsIdleBuckets(t *testing.T) {
	pcrl := NewPerClientRateLimiter(1)
	pcrl.Allow("stale")

	pcrl.mu.Lock()
	pcrl.buckets["stale"].lastRefill = time.Now().Add(-time.Hour)
	pcrl.lastSweep = time.Now().Add(-time.Hour)
	pcrl.mu.Unlock()

	pcrl.Allow("fresh")

	pcrl.mu.Lock()
	defer pcrl.mu.Unlock()
	if _, ok := pcrl.buckets["stale"]; ok {
		t.Fatal("idle bucket should have been swept")
	}
	if _, ok := pcrl.buckets["fresh"]; !ok {
		t.Fatal("active bucket should be kept")
	}
}

func TestPerClientRateLimitMiddleware_KeysByIP(t *testing.T) {
	handler := PerClientRateLimitMiddleware(NewPerClientRateLimiter(1))(okHandler())

	req1 := httptest.NewRequest(http.MethodGet, "/", nil)
	req1.RemoteAddr = "10.0.0.1:12345"
	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected 200 for first request from 10.0.0.1, got %d", rec1.Code)
	}

	// Same host, different port: still the same client.
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.RemoteAddr = "10.0.0.1:23456"
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for second request from 10.0.0.1, got %d", rec2.Code)
	}

	req3 := httptest.NewRequest(http.MethodGet, "/", nil)
	req3.RemoteAddr = "10.0.0.2:12345"
	rec3 := httptest.NewRecorder()
	handler.ServeHTTP(rec3, req3)
	if rec3.Code != http.StatusOK {
		t.Fatalf("expected 200 for first request from 10.0.0.2, got %d", rec3.Code)
	}
}

func TestLoggingMiddleware_RecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/predict", nil))

	out := buf.String()
	for _, want := range []string{`"method":"POST"`, `"path":"/predict"`, `"status":418`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log line %q missing %s", out, want)
		}
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	handler := CORSMiddleware([]string{"*"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code >= 300 {
		t.Fatalf("preflight returned %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatal("missing Access-Control-Allow-Origin")
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("Access-Control-Allow-Credentials = %q, want true", got)
	}
}

func TestCORSMiddleware_ExposesPredictionID(t *testing.T) {
	handler := CORSMiddleware([]string{"https://console.example.com"})(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/predict", nil)
	req.Header.Set("Origin", "https://console.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://console.example.com" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(strings.ToLower(got), strings.ToLower(PredictionIDHeader)) {
		t.Fatalf("Access-Control-Expose-Headers = %q", got)
	}
}
