package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fakturscan/internal/auth"
	"fakturscan/internal/config"
	"fakturscan/internal/extract"
	"fakturscan/internal/handler"
	"fakturscan/internal/logger"
	"fakturscan/internal/parser"
	"fakturscan/internal/port"
	"fakturscan/internal/repository/postgres"
	"fakturscan/internal/router"
	"fakturscan/internal/service"
	s3storage "fakturscan/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcCfg := service.ParseServiceConfig{
		Parser:        parser.New(cfg.Parser.Options()),
		PresignExpiry: cfg.S3.PresignExpiry,
	}

	chain, err := extract.NewChainFromNames(zl, cfg.Extract.Order)
	if err != nil {
		return fmt.Errorf("failed to build extraction chain: %w", err)
	}
	svcCfg.Extractor = chain

	var pinger handler.Pinger
	if cfg.DB.Enabled {
		db, err := postgres.NewDB(ctx, &cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		repo := postgres.NewParseResultRepo(db)
		svcCfg.Repo = repo
		pinger = repo
		zl.Info("persistence enabled", zap.String("db", cfg.DB.Name))
	}

	if cfg.S3.Enabled {
		if svcCfg.Repo == nil {
			zl.Warn("s3 archive needs the database to record keys; archive disabled")
		} else {
			var store port.ObjectStorage
			store, err = s3storage.NewS3Client(ctx, &cfg.S3)
			if err != nil {
				return fmt.Errorf("failed to initialize S3 client: %w", err)
			}
			svcCfg.Storage = store
			zl.Info("result archive enabled", zap.String("bucket", cfg.S3.Bucket))
		}
	}

	parseSvc := service.NewParseService(svcCfg, zl)
	tokens := auth.NewTokenManager(cfg.JWT)

	r := router.Setup(tokens, cfg.CORS.AllowedOrigins, zl, router.Handlers{
		Parse:  handler.NewParseHandler(parseSvc, cfg.Server.MaxUploadMB<<20, zl),
		Result: handler.NewResultHandler(parseSvc, zl),
		Health: handler.NewHealthHandler(pinger),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server starting",
			zap.String("addr", cfg.Server.Port),
			zap.Strings("extractors", cfg.Extract.Order),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
