package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tendant/simple-social/pkg/simplesocial/api"
	"github.com/tendant/simple-social/pkg/simplesocial/config"
)

// developmentSecret signs session tokens when JWT_SECRET is unset outside production
const developmentSecret = "simple-social-development-secret"

func main() {
	help := flag.Bool("h", false, "print the supported environment variables")
	flag.Parse()
	if *help {
		config.Usage(os.Stdout)
		return
	}

	// A missing .env file is fine; the environment may already be set
	_ = godotenv.Load()

	logger := newLogger(os.Getenv("ENVIRONMENT"))
	slog.SetDefault(logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	serverConfig, err := config.Load(
		config.WithEnv(),
		config.WithMetricsRegisterer(registry),
		config.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to load server configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	runtime, err := serverConfig.Build(ctx)
	if err != nil {
		logger.Error("failed to build service", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := runtime.Close(); err != nil {
			logger.Error("failed to release stores", "err", err)
		}
	}()

	server := NewHTTPServer(runtime, serverConfig, registry, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", serverConfig.Port),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	database, _ := serverConfig.DatabaseKind()
	storage, _ := serverConfig.StorageKind()

	go func() {
		logger.Info("simple-social server starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"database", database,
			"storage", storage,
			"preview_strategy", serverConfig.PreviewStrategy,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "err", err)
	}
	logger.Info("server exiting")
}

func newLogger(environment string) *slog.Logger {
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// HTTPServer wires the API handler and operational endpoints over a runtime
type HTTPServer struct {
	runtime  *config.Runtime
	config   *config.ServerConfig
	registry *prometheus.Registry
	logger   *slog.Logger
}

// NewHTTPServer creates a new HTTP server wrapper
func NewHTTPServer(runtime *config.Runtime, serverConfig *config.ServerConfig, registry *prometheus.Registry, logger *slog.Logger) *HTTPServer {
	return &HTTPServer{
		runtime:  runtime,
		config:   serverConfig,
		registry: registry,
		logger:   logger,
	}
}

// Routes sets up the HTTP routes
func (s *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(api.CORS(s.config.CORSAllowedOrigins))
	if s.config.RateLimitRPS > 0 {
		r.Use(api.NewRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst).Middleware)
	}

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	secret := s.config.JWTSecret
	if secret == "" {
		s.logger.Warn("JWT_SECRET is not set, signing sessions with the development secret")
		secret = developmentSecret
	}

	opts := []api.HandlerOption{
		api.WithAuth(api.NewAuth(secret)),
		api.WithLogger(s.logger),
		api.WithMaxUploadBytes(s.config.MaxUploadBytes),
	}
	if media, ok := s.runtime.Blobs.(api.MediaSource); ok {
		opts = append(opts, api.WithMediaSource(media))
	}
	handler := api.NewHandler(s.runtime.Service, opts...)

	r.Route("/api/v1", func(r chi.Router) {
		if s.config.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.config.RequestTimeout))
		}
		r.Mount("/", handler.Routes())
	})

	return r
}

// Health check endpoint
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{
		"status":      "healthy",
		"environment": s.config.Environment,
	})
}
