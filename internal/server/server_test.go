package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/syllabus/internal/app"
	"github.com/ternarybob/syllabus/internal/common"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Storage.Badger.Path = filepath.Join(t.TempDir(), "data")
	cfg.Embeddings.Dimension = 128
	cfg.Claude.APIKey = ""

	application, err := app.New(context.Background(), cfg, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { application.Close() })

	return New(application)
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		method string
		path   string
		status int
		body   string
	}{
		{http.MethodGet, "/api/health", http.StatusOK, `"status":"ok"`},
		{http.MethodGet, "/api/version", http.StatusOK, `"version"`},
		{http.MethodGet, "/api/courses", http.StatusOK, `"total_courses":0`},
		{http.MethodPost, "/api/courses", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/metrics", http.StatusOK, "go_goroutines"},
		{http.MethodGet, "/missing", http.StatusNotFound, "Not Found"},
		{http.MethodOptions, "/api/query", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Contains(t, rec.Body.String(), tt.body)
			}
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRoutes_MetricsDisabled(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Storage.Badger.Path = filepath.Join(t.TempDir(), "data")
	cfg.Embeddings.Dimension = 128
	cfg.Metrics.Enabled = false

	application, err := app.New(context.Background(), cfg, arbor.NewLogger())
	require.NoError(t, err)
	defer application.Close()

	rec := httptest.NewRecorder()
	New(application).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
