// cmd/glimpsed/main.go
// Package main implements the entry point for the Glimpse client daemon.
// It wires the sidecar store, the backend client, and the publish flow into
// the localhost facade the presentation layer talks to.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glimpselabs/glimpse-client-go/internal/api"
	"github.com/glimpselabs/glimpse-client-go/internal/backup"
	"github.com/glimpselabs/glimpse-client-go/internal/config"
	"github.com/glimpselabs/glimpse-client-go/internal/event"
	"github.com/glimpselabs/glimpse-client-go/internal/library"
	"github.com/glimpselabs/glimpse-client-go/internal/publish"
	"github.com/glimpselabs/glimpse-client-go/internal/server"
	"github.com/glimpselabs/glimpse-client-go/internal/telemetry"
)

// main initializes all components, starts the facade HTTP server, and
// handles graceful shutdown.
func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	// Configure structured logging for the application
	logLevel := slog.LevelInfo
	if cfg.Env == "dev" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Initialize OpenTelemetry
	_, err = telemetry.InitTracer(telemetry.ServiceName)
	if err != nil {
		logger.Error("failed to initialize OpenTelemetry tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		telemetry.ShutdownTracer(ctx)
	}()

	// Open the sidecar metadata store over the library root
	store, err := library.NewStore(cfg.LibraryRoot, logger)
	if err != nil {
		logger.Error("failed to open media library", "root", cfg.LibraryRoot, "error", err)
		os.Exit(1)
	}

	// Initialize event publisher (NATS JetStream or no-op)
	pub := event.NewPublisherFromEnv()
	defer pub.Close()

	// Backend client for the remote social API
	backend := api.New(cfg.BackendURL)

	// Optional S3 mirror of published media
	var mirror publish.Mirror
	if cfg.S3Endpoint != "" && cfg.S3Bucket != "" {
		s3Mirror, err := backup.NewS3Mirror(cfg.S3Endpoint, cfg.S3Region, cfg.S3Bucket, cfg.S3AccessKey, cfg.S3SecretKey)
		if err != nil {
			logger.Error("failed to initialize S3 mirror", "error", err)
			os.Exit(1)
		}
		mirror = s3Mirror
	}

	publisher := publish.New(store, backend, mirror, pub, logger)

	// Create the facade mux with all handlers and middleware
	mux := server.NewMux(cfg, store, publisher, backend, pub)

	// The facade serves the on-device presentation layer only.
	addr := fmt.Sprintf("127.0.0.1:%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	// Start server in a separate goroutine
	go func() {
		logger.Info("facade starting", "addr", addr, "env", cfg.Env, "library_root", cfg.LibraryRoot)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("facade failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Handle graceful shutdown
	logger.Info("shutting down facade")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("facade shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("facade exited")
}
