package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"huginn/internal/archive"
	"huginn/internal/config"
	"huginn/internal/http"
	"huginn/internal/ingest"
	"huginn/internal/logging"
	"huginn/internal/objectstore"
	"huginn/internal/service"
	"huginn/internal/storage"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, logCloser := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	defer func() {
		_ = logCloser.Close()
	}()
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat, "file", cfg.LogFile)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	noteRepo := storage.NewNoteRepo(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional raw payload mirror
	var mirror ingest.Mirror
	if cfg.MirrorEnabled() {
		m, err := objectstore.NewMirror(ctx, objectstore.Options{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		})
		if err != nil {
			log.Fatalf("Failed to connect to object storage: %v", err)
		}
		mirror = m
		slog.Info("Upload mirror ready", "endpoint", cfg.MinIOEndpoint, "bucket", m.Bucket())
	}

	extractor := archive.NewExtractor(cfg.UploadDir, cfg.MaxExtractBytes)
	pipeline := ingest.NewPipeline(extractor, noteRepo, mirror, cfg.IngestTimeout)
	slog.Info("Ingestion pipeline initialized", "upload_dir", cfg.UploadDir, "max_extract_bytes", cfg.MaxExtractBytes)

	deps := &http.Deps{
		UploadService:  service.NewUploadService(pipeline),
		SearchService:  service.NewSearchService(noteRepo),
		DB:             db,
		MaxUploadBytes: cfg.MaxUploadBytes,
		RequestTimeout: cfg.RequestTimeout,
	}

	srv := &nethttp.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: http.NewRouter(deps),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("API server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("Shutting down API server")
	}

	shutdownCtx := context.Background()
	if cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(shutdownCtx, cfg.ShutdownTimeout)
		defer cancel()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
		return
	}
	slog.Info("Server shutdown complete")
}
