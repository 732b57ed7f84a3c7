package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLimiterConfig() *Config {
	return &Config{
		GlobalRPS:       1000,
		ClientRPS:       2,
		CleanupInterval: time.Minute,
		IdleTimeout:     time.Hour,
		MaxClients:      100,
	}
}

// TestInMemoryRateLimiterPerClient verifies the per-client tier exhausts its
// burst independently of other clients.
func TestInMemoryRateLimiterPerClient(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	limiter := NewInMemoryRateLimiter(testLimiterConfig())
	defer func() { _ = limiter.Close() }()

	// ClientRPS=2 with auto burst 2x gives a burst budget of 4.
	for i := 0; i < 4; i++ {
		if !limiter.Allow("10.0.0.1") {
			t.Fatalf("request %d should be within burst budget", i)
		}
	}

	if limiter.Allow("10.0.0.1") {
		t.Error("request beyond burst budget should be rejected")
	}

	// A different client has its own budget.
	if !limiter.Allow("10.0.0.2") {
		t.Error("distinct client should not share the exhausted budget")
	}
}

// TestInMemoryRateLimiterGlobalTier verifies the global tier applies before
// any per-client bucket.
func TestInMemoryRateLimiterGlobalTier(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	cfg := testLimiterConfig()
	cfg.GlobalRPS = 1
	cfg.GlobalBurst = 2

	limiter := NewInMemoryRateLimiter(cfg)
	defer func() { _ = limiter.Close() }()

	allowed := 0

	for i := 0; i < 10; i++ {
		if limiter.Allow("10.0.0.1") {
			allowed++
		}
	}

	if allowed != 2 {
		t.Errorf("expected exactly the global burst of 2 allowed, got %d", allowed)
	}
}

// TestComputeBurstCapacity verifies the override and auto-compute paths.
func TestComputeBurstCapacity(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name     string
		rate     int
		override int
		want     int
	}{
		{"auto-computes 2x rate", 20, 0, 40},
		{"explicit override wins", 20, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeBurstCapacity(tt.rate, tt.override); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

// TestRateLimitMiddleware verifies the 429 problem+json response shape.
func TestRateLimitMiddleware(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	cfg := testLimiterConfig()
	cfg.GlobalRPS = 1
	cfg.GlobalBurst = 1

	limiter := NewInMemoryRateLimiter(cfg)
	defer func() { _ = limiter.Close() }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := RateLimit(limiter, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// First request consumes the only token.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dimensions", nil)
	req.RemoteAddr = "10.0.0.1:54321"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rec.Code)
	}

	// Second request is limited.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("expected problem+json content type, got %q", ct)
	}

	var problem struct {
		Status int    `json:"status"`
		Title  string `json:"title"`
	}

	if err := json.NewDecoder(rec.Body).Decode(&problem); err != nil {
		t.Fatalf("failed to decode problem detail: %v", err)
	}

	if problem.Status != http.StatusTooManyRequests || problem.Title != "Too Many Requests" {
		t.Errorf("unexpected problem detail: %+v", problem)
	}
}

// TestClientHost verifies remote address keying.
func TestClientHost(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"10.0.0.1:54321", "10.0.0.1"},
		{"[::1]:8080", "::1"},
		{"no-port", "no-port"},
	}

	for _, tt := range tests {
		if got := clientHost(tt.remoteAddr); got != tt.want {
			t.Errorf("clientHost(%q): expected %q, got %q", tt.remoteAddr, tt.want, got)
		}
	}
}

// TestRateLimiterCleanup verifies idle clients are removed.
func TestRateLimiterCleanup(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	cfg := testLimiterConfig()
	cfg.IdleTimeout = time.Nanosecond

	limiter := NewInMemoryRateLimiter(cfg)
	defer func() { _ = limiter.Close() }()

	limiter.Allow("10.0.0.1")
	limiter.Allow("10.0.0.2")

	time.Sleep(time.Millisecond)
	limiter.cleanup()

	limiter.mu.RLock()
	remaining := len(limiter.perClient)
	limiter.mu.RUnlock()

	if remaining != 0 {
		t.Errorf("expected idle clients removed, %d remain", remaining)
	}
}
