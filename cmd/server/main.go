package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/handsomefox/cinemax/internal/handlers"
	"github.com/handsomefox/cinemax/internal/logger"
	"github.com/handsomefox/cinemax/internal/metrics"
	"github.com/handsomefox/cinemax/internal/proxy"
	"github.com/handsomefox/cinemax/internal/store"
	"github.com/handsomefox/cinemax/internal/tmdb"
	"github.com/handsomefox/cinemax/internal/web"

	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultPort   = "8080"
	defaultDBPath = "/app/data/cinemax.db"

	defaultRateLimitRPS   = 20.0
	defaultRateLimitBurst = 40
)

func main() {
	slog.SetDefault(logger.New(slog.LevelDebug))
	if err := run(); err != nil {
		fmt.Println("Error:", err.Error())
		os.Exit(1)
	}
}

func run() error {
	dbPath := envOr("DB_PATH", defaultDBPath)
	secret := os.Getenv("APP_SECRET")
	if secret == "" {
		return errors.New("APP_SECRET is required")
	}
	if os.Getenv("TMDB_API_KEY") == "" {
		// Not fatal: the aggregator reports the missing key per request, so
		// the key can arrive via the environment after deploy.
		slog.Warn("TMDB_API_KEY is not set, tmdb actions will fail")
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("Failed to close DB", logger.Error(err))
		}
	}()

	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	client := tmdb.New(func() string { return os.Getenv("TMDB_API_KEY") })
	aggregator := proxy.New(client)

	app, err := handlers.New(handlers.Config{
		Store:  st,
		Proxy:  aggregator,
		Secret: secret,
	})
	if err != nil {
		return fmt.Errorf("failed to init handlers: %w", err)
	}

	distFS, err := web.Dist()
	if err != nil {
		return fmt.Errorf("failed to load frontend assets: %w", err)
	}
	spa, err := handlers.SPA(distFS)
	if err != nil {
		return fmt.Errorf("failed to init spa handler: %w", err)
	}

	rps := envFloatOr("RATE_LIMIT_RPS", defaultRateLimitRPS)
	burst := envIntOr("RATE_LIMIT_BURST", defaultRateLimitBurst)

	r := chi.NewRouter()
	r.Use(handlers.MiddlewareMetrics)
	r.Use(httplog.RequestLogger(slog.Default(), &httplog.Options{
		Level:         slog.LevelInfo,
		RecoverPanics: true,
	}))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Client-Info", "Apikey"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(handlers.MiddlewareRateLimit(rps, burst))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/api", app.RegisterRoutes)
	r.NotFound(spa.ServeHTTP)

	addr := ":" + envOr("PORT", defaultPort)
	slog.Info("listening", slog.String("addr", addr))
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil && parsed > 0 {
			return parsed
		}
		slog.Warn("ignoring invalid env value", slog.String("key", key), slog.String("value", val))
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
		slog.Warn("ignoring invalid env value", slog.String("key", key), slog.String("value", val))
	}
	return fallback
}
