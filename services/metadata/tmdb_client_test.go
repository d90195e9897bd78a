package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		lang, region, want string
	}{
		{"", "US", "en-US"},
		{"en", "US", "en-US"},
		{"en_US", "ES", "en-US"},
		{"pt-br", "US", "pt-BR"},
		{"es-ES", "US", "es-ES"},
		{"es", "MX", "es-MX"},
		{"fr", "", "fr-US"},
	}
	for _, tt := range tests {
		if got := normalizeLanguage(tt.lang, tt.region); got != tt.want {
			t.Fatalf("normalizeLanguage(%q, %q) = %q, want %q", tt.lang, tt.region, got, tt.want)
		}
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*tmdbClient, *fileCache) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cache := newFileCache(afero.NewMemMapFs(), "cache", time.Hour)
	c := newTMDBClient("token", srv.URL, srv.Client(), cache)
	c.delay = time.Millisecond
	return c, cache
}

func TestTMDBClient_SendsBearerAndCaches(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Write([]byte(`{"id": 7}`))
	})

	for i := 0; i < 2; i++ {
		var out struct {
			ID int `json:"id"`
		}
		if err := c.get(context.Background(), "details", "/movie/7", nil, &out); err != nil {
			t.Fatalf("get: %v", err)
		}
		if out.ID != 7 {
			t.Fatalf("unexpected id %d", out.ID)
		}
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected one upstream hit, got %d", hits)
	}
}

func TestTMDBClient_RetriesServerErrors(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{}`))
	})

	var out map[string]any
	if err := c.get(context.Background(), "details", "/movie/1", nil, &out); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected 3 attempts, got %d", hits)
	}
}

func TestTMDBClient_DoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	var out map[string]any
	err := c.get(context.Background(), "details", "/movie/1", nil, &out)
	var serr *statusError
	if !errors.As(err, &serr) || serr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 status error, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected a single attempt, got %d", hits)
	}
	if !IsNotFound(err) {
		t.Fatalf("expected IsNotFound for %v", err)
	}
	if IsNotFound(ErrNotConfigured) {
		t.Fatal("ErrNotConfigured is not a 404")
	}
}

func TestTMDBClient_NotConfigured(t *testing.T) {
	c := newTMDBClient("  ", "http://invalid", nil, nil)
	var out map[string]any
	if err := c.get(context.Background(), "details", "/movie/1", nil, &out); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
