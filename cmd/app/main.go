package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"pipaura/configs"
	"pipaura/internal/app"
	"pipaura/internal/database"
	deliveryhttp "pipaura/internal/delivery/http"
	"pipaura/internal/infra"
	custommiddleware "pipaura/internal/middleware"
	"pipaura/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	// Load configuration
	cfg := configs.Load()

	log := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Pretty:  cfg.Log.Pretty,
		Service: "pipaura-sync",
	})
	logger.SetGlobalLogger(log)

	if envErr != nil {
		log.Warn().Msg(".env file not found, using environment variables")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	for _, name := range cfg.MissingSecrets() {
		log.Warn().Str("setting", name).Msg("Secret not set, dependent endpoints will fail")
	}

	// Initialize context
	ctx := context.Background()

	// Initialize database
	db, err := infra.NewDatabase(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	services := app.NewServices(cfg, db, log)

	// Initialize sweep scheduler
	scheduler := infra.NewScheduler(services.Sweep, cfg.MyFxBook.SyncSchedule, cfg.MyFxBook.SweepTimeout, log)
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start sweep scheduler")
	}

	// Initialize API
	api := deliveryhttp.NewEcho(&deliveryhttp.RouterConfig{
		MyFxBookHandler: deliveryhttp.NewMyFxBookHandler(services.Links, services.Sync, log),
		CronHandler:     deliveryhttp.NewCronHandler(services.Sweep),
		Verifier:        custommiddleware.NewSupabaseVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTAudience),
		CronSecret:      cfg.Auth.CronSecret,
		RequestTimeout:  cfg.Server.RequestTimeout,
		SweepTimeout:    cfg.MyFxBook.SweepTimeout,
		Logger:          log,
	})

	// Initialize HTTP router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Routes
	r.Get("/health", handleHealth(db, log))
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/api/*", api)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info().
		Str("addr", addr).
		Str("env", cfg.Server.Env).
		Bool("scheduler", scheduler.Enabled()).
		Msg("PipAura sync service starting")

	// The cron endpoint answers only after a full sweep, so the write timeout covers the longer deadline
	writeTimeout := cfg.Server.RequestTimeout
	if cfg.MyFxBook.SweepTimeout > writeTimeout {
		writeTimeout = cfg.MyFxBook.SweepTimeout
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	scheduler.Stop(shutdownCtx)

	log.Info().Msg("Server exited gracefully")
}

// HTTP Handlers

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

func handleHealth(db *sql.DB, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Check database
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{
			Status:    "healthy",
			Service:   "pipaura-sync",
			Database:  "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		status := http.StatusOK
		if err := db.PingContext(ctx); err != nil {
			log.Warn().Err(err).Msg("Health check database ping failed")
			resp.Status = "degraded"
			resp.Database = "unhealthy"
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
