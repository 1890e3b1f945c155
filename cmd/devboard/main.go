package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/arawak/devboard/internal/config"
	"github.com/arawak/devboard/internal/httpapi"
	"github.com/arawak/devboard/internal/media"
	"github.com/arawak/devboard/internal/metrics"
	"github.com/arawak/devboard/internal/session"
	"github.com/arawak/devboard/internal/store"
	"github.com/arawak/devboard/migrations"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})).With("version", version)

	var apiKeys *httpapi.APIKeyStore
	if cfg.APIKeysFile != "" {
		apiKeys, err = httpapi.LoadAPIKeys(cfg.APIKeysFile)
		if err != nil {
			logger.Error("failed to load api keys", "error", err)
			os.Exit(1)
		}
	}

	db, err := sqlx.Open("mysql", cfg.DBDSN)
	if err != nil {
		logger.Error("failed to open db", "error", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := migrations.Up(cfg.DBDSN); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	storage, err := newStorage(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to set up media storage", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}

	router := httpapi.NewRouter(cfg, httpapi.Deps{
		Store:   store.New(db),
		Uploads: media.NewUploader(storage, cfg.MaxUploadBytes, cfg.MaxAvatarPixels),
		Tokens:  session.NewTokens(cfg.SessionSecret, cfg.SessionTTL),
		APIKeys: apiKeys,
		Metrics: metrics.New(),
		Logger:  logger,
	})

	srv := &http.Server{Addr: cfg.Bind, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("server starting", "addr", cfg.Bind, "storage", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}
}

func newStorage(ctx context.Context, cfg *config.Config) (media.Storage, error) {
	if cfg.StorageBackend == config.StorageS3 {
		return media.NewS3Storage(ctx, media.S3Options{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicBaseURL:   cfg.S3PublicURL,
		})
	}
	return media.NewFSStorage(cfg.StorageRoot, cfg.PublicBaseURL+"/media"), nil
}
