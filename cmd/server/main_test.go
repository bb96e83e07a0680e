package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-social/pkg/simplesocial/config"
)

func TestRoutes(t *testing.T) {
	registry := prometheus.NewRegistry()
	serverConfig, err := config.Load(config.WithMetricsRegisterer(registry), config.WithRateLimit(0, 0))
	require.NoError(t, err)

	runtime, err := serverConfig.Build(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = runtime.Close() })

	router := NewHTTPServer(runtime, serverConfig, registry, slog.Default()).Routes()

	tests := []struct {
		path string
		want int
	}{
		{"/health", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/api/v1/posts/recent", http.StatusOK},
		{"/api/v1/users/current", http.StatusUnauthorized},
		{"/api/v1/media/missing.jpg", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
