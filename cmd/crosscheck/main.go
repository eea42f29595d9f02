package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/Crosscheck/internal/ahp"
	"github.com/MikeSquared-Agency/Crosscheck/internal/api"
	"github.com/MikeSquared-Agency/Crosscheck/internal/config"
	"github.com/MikeSquared-Agency/Crosscheck/internal/events"
	"github.com/MikeSquared-Agency/Crosscheck/internal/store"
	"github.com/MikeSquared-Agency/Crosscheck/internal/validation"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = newLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Engines
	opts, err := cfg.EngineOptions()
	if err != nil {
		logger.Error("invalid engine options", "error", err)
		os.Exit(1)
	}
	logger.Info("random index loaded", "sizes", opts.RandomIndex.Sizes(), "max_size", opts.RandomIndex.MaxSize())
	engine, err := ahp.NewEngine(cfg.Validation.Engine, opts)
	if err != nil {
		logger.Error("failed to build engine", "error", err)
		os.Exit(1)
	}
	var crossCheck ahp.PriorityEngine
	if cfg.Validation.CrossCheckEngine != "" {
		crossCheck, err = ahp.NewEngine(cfg.Validation.CrossCheckEngine, opts)
		if err != nil {
			logger.Error("failed to build cross-check engine", "error", err)
			os.Exit(1)
		}
	}

	svc := validation.NewService(
		ahp.NewValidator(cfg.Validation.ReciprocityTolerance),
		engine,
		crossCheck,
		validation.Options{
			Tolerance:          cfg.Validation.Tolerance,
			AgreementThreshold: cfg.Validation.MethodAgreementThreshold,
			Workers:            cfg.Validation.ProjectWorkers,
			SelfCheck:          cfg.Validation.SelfCheck,
		},
		logger,
	)
	oracleErr := svc.CheckOracle()

	// Database (optional)
	var runStore store.Store
	if cfg.Database.URL != "" {
		db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			logger.Warn("failed to connect to database, running without audit log", "error", err)
		} else if err := db.Migrate(ctx); err != nil {
			logger.Warn("failed to migrate database, running without audit log", "error", err)
			db.Close()
		} else {
			runStore = db
			defer db.Close()
			logger.Info("connected to database")
		}
	}

	// Events (optional)
	var publisher events.Publisher
	if cfg.Events.URL != "" {
		nc, err := events.NewNATSClient(ctx, cfg.Events.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to event bus, running without events", "error", err)
		} else {
			publisher = nc
			defer nc.Close()
			logger.Info("connected to event bus")
		}
	}
	if publisher != nil {
		status := events.OracleStatusEvent{
			Engine:    svc.EngineName(),
			Available: svc.Available(),
			Timestamp: time.Now().UTC(),
		}
		if oracleErr != nil {
			status.Error = oracleErr.Error()
		}
		if err := publisher.Publish(events.SubjectOracleStatus, status); err != nil {
			logger.Warn("failed to publish oracle status", "error", err)
		}
	}

	if runStore != nil && cfg.Server.AdminToken == "" {
		logger.Warn("audit endpoints are unauthenticated; set server.admin_token")
	}

	// API server
	router := api.NewRouter(svc, runStore, publisher, cfg.Server, version, logger)
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           api.NewMetricsRouter(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port, "engine", svc.EngineName(), "oracle_available", svc.Available())
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, handlerOpts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, handlerOpts))
}
