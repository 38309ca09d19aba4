package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"dompet/internal/amqp"
	"dompet/internal/cache"
	"dompet/internal/cli"
	"dompet/internal/core"
	apphttp "dompet/internal/http"
	"dompet/internal/log"
	"dompet/internal/metrics"
	"dompet/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	stores := cli.OpenStore(logger, cfg)
	m := metrics.New()

	summaryCache := cache.NewLRUCache[core.HomeSummary](cfg.SummaryCacheSize, cfg.SummaryCacheTTL)
	caches := cache.NewManager()
	caches.Register(summaryCache)
	caches.StartCleanup(time.Minute)
	m.RegisterGauge("summary_cache_entries", "Cached home summaries.", func() float64 {
		return float64(summaryCache.Size())
	})
	m.RegisterCounter("summary_cache_hits_total", "Home summaries served from cache.", func() float64 {
		return float64(summaryCache.Stats().Hits)
	})
	m.RegisterCounter("summary_cache_misses_total", "Home summary cache misses.", func() float64 {
		return float64(summaryCache.Stats().Misses)
	})

	summary := services.NewSummaryService(stores).WithCache(summaryCache)

	// Ledger events are optional on the API side; without a broker the
	// ledger simply does not publish.
	var (
		publisher  services.EventPublisher
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
			os.Exit(1)
		}
		publisher = m.InstrumentPublisher(amqpClient)
		logger.Info("Ledger events enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("Ledger events disabled - no AMQP_URL provided")
	}

	ledger := services.NewLedger(stores, publisher, summary)
	ledger.OnMutation(m.ObserveMutation)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Stores:             stores,
		Transactions:       services.NewTransactionService(stores),
		Summary:            summary,
		Ledger:             ledger,
		Notifications:      services.NewNotificationService(stores),
		Metrics:            m,
		Logger:             logger,
		DefaultUserID:      cfg.DefaultUserID,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		caches.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err.Error())
			}
		}
		if err := stores.Close(); err != nil {
			logger.Warn("Store close error", log.FieldError, err.Error())
		}
	})

	logger.Info("Starting dompet server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
