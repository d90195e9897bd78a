package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitHandler_AllowsWithinLimit(t *testing.T) {
	rl := NewIPRateLimiter(rate.Every(time.Second), 5)
	defer rl.Close()
	handler := RateLimitHandler(rl, okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/cards/x/export", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
}

func TestRateLimitHandler_BlocksExcessRequests(t *testing.T) {
	rl := PerMinute(2)
	defer rl.Close()
	handler := RateLimitHandler(rl, okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/cards/x/export", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/cards/x/export", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "too many requests" {
		t.Fatalf("expected 'too many requests', got %q", body["error"])
	}
	if rec.Header().Get("Retry-After") != "30" {
		t.Fatalf("expected Retry-After: 30, got %q", rec.Header().Get("Retry-After"))
	}
}

func TestRateLimitHandler_PerIPIsolation(t *testing.T) {
	rl := NewIPRateLimiter(rate.Every(time.Second), 1)
	defer rl.Close()
	handler := rl.Middleware()(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "1.1.1.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("IP A first request: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("IP A second request: expected 429, got %d", rec.Code)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/", nil)
	req2.RemoteAddr = "2.2.2.2:1234"
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("IP B first request: expected 200, got %d", rec2.Code)
	}
}

func TestRateLimitHandler_SpoofedForwardedForStillLimited(t *testing.T) {
	rl := NewIPRateLimiter(rate.Every(time.Minute), 1)
	defer rl.Close()
	handler := RateLimitHandler(rl, okHandler())

	codes := make([]int, 0, 3)
	for _, spoofed := range []string{"1.2.3.4", "5.6.7.8", "9.9.9.9"} {
		req := httptest.NewRequest(http.MethodPost, "/api/cards/x/export", nil)
		req.RemoteAddr = "198.51.100.23:4000"
		req.Header.Set("X-Forwarded-For", spoofed)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected 200 then 429s, got %v", codes)
	}
}

func TestIPRateLimiter_Evict(t *testing.T) {
	rl := NewIPRateLimiter(rate.Every(time.Second), 1)
	defer rl.Close()
	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.getLimiter("1.1.1.1")

	rl.now = func() time.Time { return now.Add(limiterIdleTTL + time.Second) }
	rl.getLimiter("2.2.2.2")
	if removed := rl.evict(); removed != 1 {
		t.Fatalf("expected 1 eviction, got %d", removed)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded by private proxy", map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"}, "10.0.0.7:8080", "203.0.113.50"},
		{"real ip from loopback", map[string]string{"X-Real-IP": "198.51.100.10"}, "127.0.0.1:8080", "198.51.100.10"},
		{"forwarded from public peer ignored", map[string]string{"X-Forwarded-For": "203.0.113.50"}, "192.0.2.1:54321", "192.0.2.1"},
		{"real ip from public peer ignored", map[string]string{"X-Real-IP": "198.51.100.10"}, "192.0.2.1:54321", "192.0.2.1"},
		{"private proxy without headers", nil, "172.16.0.3:4000", "172.16.0.3"},
		{"remote addr", nil, "192.0.2.1:54321", "192.0.2.1"},
		{"ipv6", nil, "[2001:db8::1]:443", "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if tt.remote != "" {
				req.RemoteAddr = tt.remote
			}
			if got := getClientIP(req); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
