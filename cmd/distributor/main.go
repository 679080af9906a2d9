package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/doyensec/safeurl"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"autoshare/internal/api"
	"autoshare/internal/caption"
	"autoshare/internal/config"
	"autoshare/internal/destination/httpapi"
	"autoshare/internal/extract"
	"autoshare/internal/fanout"
	"autoshare/internal/lifecycle"
	"autoshare/internal/metrics"
	"autoshare/internal/notify"
	"autoshare/internal/quiethours"
	"autoshare/internal/scheduler"
	"autoshare/internal/service"
	"autoshare/internal/source/feed"
	"autoshare/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single pass over all enabled owners and exit")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	if err := postgres.RunMigrations(cfg.Database.URL()); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	var notifier interface {
		service.Notifier
		Close() error
	} = notify.Nop{}
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := notify.NewRabbitMQ(notify.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		notifier = rabbitMQ
	}
	defer notifier.Close()

	destinations, err := cfg.Destinations()
	if err != nil {
		logger.Error("invalid destinations", "error", err)
		os.Exit(1)
	}
	formatter, err := caption.NewFormatter(caption.DefaultRules, destinations)
	if err != nil {
		logger.Error("invalid formatting rules", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	shareStore := postgres.NewShareStore(db)
	ownerStore := postgres.NewOwnerStore(db)
	txManager := postgres.NewTransactionManager(db)

	feedSource := feed.New(newFetchClient(cfg.Feed.Timeout, cfg.Feed.AllowPrivateNetworks), feed.Config{
		MaxAttempts:    cfg.Feed.Retry.MaxAttempts,
		InitialBackoff: cfg.Feed.Retry.InitialBackoff,
		MaxBackoff:     cfg.Feed.Retry.MaxBackoff,
		MaxBodySize:    cfg.Feed.MaxBodySize,
		UserAgent:      cfg.Feed.UserAgent,
	}, logger)

	var extractor service.Extractor
	if cfg.Extractor.Enabled {
		extractor = extract.New(newFetchClient(cfg.Extractor.Timeout, cfg.Feed.AllowPrivateNetworks), extract.Config{
			Timeout:     cfg.Extractor.Timeout,
			CacheTTL:    cfg.Extractor.CacheTTL,
			MaxBodySize: cfg.Extractor.MaxBodySize,
			UserAgent:   cfg.Feed.UserAgent,
		}, logger)
	}

	var generator caption.Generator
	if cfg.Caption.Endpoint != "" {
		generator = caption.NewChatGenerator(caption.ChatConfig{
			Endpoint:  cfg.Caption.Endpoint,
			APIKey:    cfg.Caption.APIKey,
			Model:     cfg.Caption.Model,
			MaxTokens: cfg.Caption.MaxTokens,
			Timeout:   cfg.Caption.Timeout,
		}, logger)
	}
	composer := caption.NewComposer(generator, caption.Config{
		Timeout: cfg.Caption.Timeout,
		CTA:     cfg.Caption.CTA,
	}, logger)

	destinationClient := httpapi.New(&http.Client{Timeout: cfg.DestinationAPI.Timeout}, httpapi.Config{
		BaseURL: cfg.DestinationAPI.BaseURL,
		APIKey:  cfg.DestinationAPI.APIKey,
	}, logger)

	publisher := fanout.NewPublisher(destinationClient, formatter, collector, fanout.Config{
		MaxRetries:     cfg.Publisher.MaxRetries,
		BaseDelay:      cfg.Publisher.RetryBaseDelay,
		PacingDelay:    cfg.Publisher.PacingDelay,
		AttemptTimeout: cfg.Publisher.AttemptTimeout,
		Parallel:       cfg.Publisher.Parallel,
	}, logger)

	pipeline := service.NewPipeline(service.Deps{
		Owners:    ownerStore,
		Shares:    shareStore,
		Lifecycle: lifecycle.NewMachine(shareStore, txManager, logger),
		Source:    feedSource,
		Extractor: extractor,
		Composer:  composer,
		Publisher: publisher,
		Notifier:  notifier,
		Gate:      quiethours.NewGate(cfg.Location()),
		Metrics:   collector,

		Destinations: destinations,
	}, logger, cfg.Pipeline)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		summary, err := pipeline.RunAll(ctx)
		if err != nil {
			logger.Error("pass failed", "error", err)
			os.Exit(1)
		}
		if summary.TotalFailure() {
			logger.Error("every owner feed failed to fetch", "owners", summary.Owners)
			os.Exit(1)
		}
		return
	}

	sched, err := scheduler.NewScheduler(pipeline, cfg.Schedule.Cron, cfg.Pipeline.BatchTimeout, cfg.Location(), logger)
	if err != nil {
		logger.Error("invalid schedule", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: api.NewRouter(api.RouterDeps{
			Shares:  pipeline,
			Metrics: metrics.Handler(registry),
			Logger:  logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("admin server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin server error", "error", err)
			cancel()
		}
	}()

	logger.Info("starting distributor",
		"schedule", cfg.Schedule.Cron,
		"max_items_per_run", cfg.Pipeline.MaxItemsPerRun,
		"destinations", len(destinations),
	)

	schedErr := sched.Start(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down admin server", "error", err)
	}

	if schedErr != nil && !errors.Is(schedErr, context.Canceled) {
		logger.Error("scheduler error", "error", schedErr)
		os.Exit(1)
	}
}

// newFetchClient returns a client for owner-supplied URLs. Private and
// loopback addresses are refused unless allowPrivate is set.
func newFetchClient(timeout time.Duration, allowPrivate bool) *http.Client {
	if allowPrivate {
		return &http.Client{Timeout: timeout}
	}

	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()
	return safeurl.Client(config).Client
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
