package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"contracttext/internal/app"
	"contracttext/internal/config"
	"contracttext/internal/dedup"
	"contracttext/internal/extract"
	"contracttext/internal/ocr"
	"contracttext/internal/server"
	"contracttext/internal/util"
	"contracttext/pkg/storage"
	"contracttext/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	contracts, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init contract store: %v", err)
	}

	blobs := &storage.Router{
		HTTP: storage.NewHTTPFetcher(time.Duration(cfg.DownloadTimeoutSeconds) * time.Second),
	}
	if cfg.MinioEndpoint != "" {
		objects, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("failed to init object storage: %v", err)
		}
		blobs.Objects = objects
	}

	var guard dedup.Guard
	if cfg.RedisAddr != "" {
		guard, err = dedup.NewRedisGuard(cfg.RedisAddr, cfg.RedisPassword, "", 0)
		if err != nil {
			log.Fatalf("failed to init dedup guard: %v", err)
		}
	} else {
		guard = dedup.NewMemoryGuard()
	}

	pipeline := extract.NewPipeline(
		extract.PDFOpener{},
		ocr.NewPopplerRenderer(cfg.PdftoppmPath, cfg.OCRDPI),
		ocr.NewTesseractEngine(cfg.OCRLanguage),
		extract.Config{
			MinPageRunes:  cfg.PDFMinPageRunes,
			OCRAttempts:   cfg.OCRAttempts,
			OCRRetryDelay: time.Duration(cfg.OCRRetryDelaySeconds) * time.Second,
		},
		logger,
	)

	appCore, err := app.New(app.Config{
		Store:      contracts,
		Blobs:      blobs,
		Pipeline:   pipeline,
		Guard:      guard,
		RunTimeout: time.Duration(cfg.RunTimeoutSeconds) * time.Second,
		Logger:     logger,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer := server.New(server.Config{
		App:          appCore,
		WebhookToken: cfg.WebhookToken,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:        addr,
		Handler:     httpServer.Router(),
		ReadTimeout: 15 * time.Second,
		// Extraction runs synchronously inside the request, so the write
		// timeout must outlive the run timeout.
		WriteTimeout: time.Duration(cfg.RunTimeoutSeconds+30) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("extractor listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
