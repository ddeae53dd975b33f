package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/medreport/internal/application"
	appai "github.com/bryanwahyu/medreport/internal/application/ai"
	appanalysis "github.com/bryanwahyu/medreport/internal/application/analysis"
	"github.com/bryanwahyu/medreport/internal/application/history"
	"github.com/bryanwahyu/medreport/internal/config"
	"github.com/bryanwahyu/medreport/internal/infra/ai/openai"
	"github.com/bryanwahyu/medreport/internal/infra/httpserver"
	"github.com/bryanwahyu/medreport/internal/infra/ingest"
	minioStore "github.com/bryanwahyu/medreport/internal/infra/storage"
	"github.com/bryanwahyu/medreport/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if err := cfg.LoadAPIKey(); err != nil {
		log.Fatal("missing OpenAI credential", zap.String("env", config.APIKeyEnv), zap.Error(err))
	}

	ctx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	required := map[string]middleware.HealthChecker{}
	optional := map[string]middleware.HealthChecker{}

	// history backend
	persister, closeBackend, err := openBackend(ctx, cfg, required)
	if err != nil {
		log.Fatal("history backend init error", zap.String("backend", cfg.History.Backend), zap.Error(err))
	}
	defer closeBackend()

	clock := application.SystemClock{}
	store := history.NewStore(persister, clock, log.Named("history"))
	store.Load(ctx)

	// openai
	client := openai.NewClient(openai.Config{
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.OpenAI.BaseURL,
		Model:        cfg.OpenAI.Model,
		CaptionModel: cfg.OpenAI.CaptionModel,
		Temperature:  cfg.OpenAI.Temperature,
		MaxTokens:    cfg.OpenAI.MaxTokens,
	})

	svc := &appanalysis.Service{
		History:  store,
		AI:       appai.NewService(client, store, log.Named("ai")),
		Ingestor: ingest.NewIngestor(client),
		Clock:    clock,
		Log:      log.Named("analysis"),
	}

	// optional upload archive
	if cfg.Minio.Enabled {
		archive, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatal("minio init error", zap.Error(err))
		}
		svc.Archive = archive
		optional["minio"] = archive
	}

	handler := httpserver.NewRouter(svc, httpserver.Options{
		MaxUploadBytes: cfg.MaxUploadBytes(),
		TempDir:        cfg.Server.TempDir,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateCapacity:   cfg.Server.RateLimit.Capacity,
		RateRefill:     cfg.Server.RateLimit.RefillPerSecond,
		Required:       required,
		Optional:       optional,
		Sessions:       store.Sessions,
		Logger:         log.Named("http"),
		Context:        ctx,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Info("server listening",
			zap.String("addr", addr),
			zap.String("history_backend", cfg.History.Backend),
			zap.String("model", client.Model))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down server")
	stopBackground()

	ctx2, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = lvl
	}
	return zcfg.Build()
}
