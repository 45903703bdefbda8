package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"parkshare/config"
	"parkshare/pkg/api"
	"parkshare/pkg/bot"
	"parkshare/pkg/events"
	"parkshare/pkg/geocode"
	"parkshare/pkg/logger"
	"parkshare/service"
	"parkshare/storage/gateway"
)

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Initialize Logger
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 3. Storage: primary postgres, fallback url, then memory
	stg, err := gateway.Open(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to open storage", logger.Error(err))
		os.Exit(1)
	}
	defer stg.Close()

	// 4. Optional integrations
	rdb := config.NewRedisClient(ctx, cfg, log)
	if rdb != nil {
		defer rdb.Close()
	}

	resolver := geocode.New(geocode.Config{
		URL:         cfg.GeocoderURL,
		UserAgent:   cfg.GeocoderUserAgent,
		CountryHint: cfg.GeocoderCountryHint,
		Timeout:     cfg.GeocoderTimeout,
		CacheTTL:    cfg.GeocodeCacheTTL,
	}, rdb, stg.Geocode(), log)

	var publisher events.Publisher = events.Nop{}
	if cfg.RabbitMQURL != "" {
		publisher = events.NewAMQPPublisher(cfg.RabbitMQURL, log)
	}
	defer publisher.Close()

	deps := service.Deps{
		Billing:            cfg.Billing(),
		MinDurationMinutes: cfg.MinDurationMinutes,
		BcryptCost:         cfg.BcryptCost,
		Geocoder:           resolver,
		Publisher:          publisher,
	}
	if cfg.TelegramBotToken != "" {
		pusher, err := bot.New(cfg.TelegramBotToken, stg, log)
		if err != nil {
			log.Warning("Telegram push disabled", logger.Error(err))
		} else {
			deps.Pusher = pusher
		}
	}

	// 5. Services
	svc := service.New(stg, log, deps)

	// 6. Background sweeper and HTTP server
	go svc.Sweeper().Run(ctx, cfg.SweepInterval)

	errCh := make(chan error, 1)
	go func() {
		errCh <- api.RunServer(ctx, fmt.Sprintf(":%d", cfg.HTTPPort), svc, stg, log)
	}()

	log.Info("🚀 parkshare is running", logger.Int("port", cfg.HTTPPort))

	// 7. Graceful Shutdown
	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
		if err := <-errCh; err != nil {
			log.Error("HTTP server shutdown", logger.Error(err))
		}
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server stopped", logger.Error(err))
			cancel()
			os.Exit(1)
		}
	}
}
