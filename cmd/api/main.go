package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/your-org/tubefetch/internal/api"
	"github.com/your-org/tubefetch/internal/api/handlers"
	"github.com/your-org/tubefetch/internal/api/ws"
	"github.com/your-org/tubefetch/internal/config"
	"github.com/your-org/tubefetch/internal/engine"
	"github.com/your-org/tubefetch/internal/fetcher"
	"github.com/your-org/tubefetch/internal/observability"
	"github.com/your-org/tubefetch/internal/queue"
	"github.com/your-org/tubefetch/internal/stats"
	"github.com/your-org/tubefetch/internal/videourl"
	"github.com/your-org/tubefetch/internal/workspace"
	"github.com/your-org/tubefetch/pkg/dto"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	log.Info("starting tubefetch API service", "port", cfg.Server.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Workspaces
	workspaces := workspace.NewManager(afero.NewOsFs(), cfg.Workspace.Root, cfg.Workspace.Prefix, log)
	if n, err := workspaces.Sweep(cfg.Workspace.MaxAge); err != nil {
		log.Warn("initial workspace sweep", "error", err)
	} else if n > 0 {
		log.Info("removed stale workspaces", "count", n)
	}
	go workspaces.RunJanitor(ctx, cfg.Workspace.SweepInterval, cfg.Workspace.MaxAge)

	// Engine
	ytdlp := engine.NewYtDlp(engine.Config{
		Binary:      cfg.Engine.Binary,
		CookiesFile: cfg.Engine.CookiesFile,
		ExtraArgs:   cfg.Engine.ExtraArgs,
	}, log)
	if v, err := ytdlp.Version(ctx); err != nil {
		log.Warn("yt-dlp not usable, requests will fail until it is", "binary", cfg.Engine.Binary, "error", err)
	} else {
		log.Info("yt-dlp found", "version", v)
	}

	// WebSocket hub
	hub := ws.NewHub(log)
	go hub.Run(ctx)

	probes := map[string]handlers.Probe{
		"engine": func(ctx context.Context) error {
			_, err := ytdlp.Version(ctx)
			return err
		},
		"workspace": func(context.Context) error { return workspaces.Writable() },
	}

	// Progress goes through NATS when configured so any replica can serve a
	// client's socket; otherwise straight to the local hub.
	var publisher fetcher.ProgressPublisher = hub
	if cfg.NATS.URL != "" {
		producer, err := queue.NewProducer(cfg.NATS.URL)
		if err != nil {
			log.Error("connect to nats", "error", err)
			os.Exit(1)
		}
		defer producer.Close()

		if err := producer.EnsureStreams(ctx); err != nil {
			log.Warn("ensure nats streams", "error", err)
		}

		consumer, err := queue.NewConsumer(cfg.NATS.URL)
		if err != nil {
			log.Error("create progress consumer", "error", err)
			os.Exit(1)
		}
		defer consumer.Close()

		err = consumer.ConsumeProgress(ctx, "api-progress-"+uuid.NewString()[:8], func(ctx context.Context, ev dto.ProgressEvent) error {
			return hub.BroadcastProgress(ctx, ev)
		})
		if err != nil {
			log.Warn("start progress consumer", "error", err)
		}

		publisher = producer
		probes["nats"] = func(context.Context) error { return producer.Ping() }
	}

	// Download counters
	var (
		recorder fetcher.DownloadRecorder
		counts   handlers.CountReader
	)
	if cfg.Redis.URL != "" {
		counter, err := stats.Connect(ctx, cfg.Redis.URL, log)
		if err != nil {
			log.Error("connect to redis", "error", err)
			os.Exit(1)
		}
		defer counter.Close()

		recorder, counts = counter, counter
		probes["redis"] = counter.Ping
	}

	svc := fetcher.NewService(fetcher.Options{
		Engine:          ytdlp,
		Workspaces:      workspaces,
		Validator:       videourl.Validator{Strict: cfg.URLs.Strict},
		MetadataTimeout: cfg.Engine.MetadataTimeout,
		DownloadTimeout: cfg.Engine.DownloadTimeout,
		MaxConcurrent:   cfg.Downloads.MaxConcurrent,
		Publisher:       publisher,
		Recorder:        recorder,
		Logger:          log,
	})

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		APIKey:      cfg.Server.APIKey,
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimit:   cfg.RateLimit.RPS,
		RateBurst:   cfg.RateLimit.Burst,
		Videos:      svc,
		Counts:      counts,
		Probes:      probes,
		Hub:         hub,
		Logger:      log,
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// In-flight downloads finish streaming before background loops stop.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", "error", err)
	}
	cancel()

	log.Info("API server stopped")
}
