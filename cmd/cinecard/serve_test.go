package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinecard/config"
	"cinecard/models"
)

func testServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := config.Default()
	ctx, cancel := context.WithCancel(context.Background())
	handler, cleanup := newServer(ctx, &cfg, afero.NewMemMapFs())
	t.Cleanup(func() {
		cancel()
		cleanup()
	})
	return handler
}

func TestServer_Routes(t *testing.T) {
	h := testServer(t)

	tests := []struct {
		method string
		target string
		code   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/version", http.StatusOK},
		{http.MethodGet, "/api/tmdb?action=genres&type=movie", http.StatusOK},
		{http.MethodGet, "/api/tmdb?action=bogus", http.StatusBadRequest},
		{http.MethodGet, "/api/cards/00000000-0000-0000-0000-000000000000", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
		assert.Equal(t, tt.code, rec.Code, "%s %s", tt.method, tt.target)
	}
}

func TestServer_UnconfiguredMetadataDegrades(t *testing.T) {
	h := testServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tmdb?action=trending", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var items []models.MediaItem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&items))
	assert.Empty(t, items)

	rec = httptest.NewRecorder()
	body := strings.NewReader(`{"subjectId":27205,"type":"movie"}`)
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cards", body))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
