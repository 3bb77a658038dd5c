package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/harune-dev/pipwatch/internal/alert"
	"github.com/harune-dev/pipwatch/internal/broker"
	"github.com/harune-dev/pipwatch/internal/config"
	"github.com/harune-dev/pipwatch/internal/logger"
	"github.com/harune-dev/pipwatch/internal/monitor"
	"github.com/harune-dev/pipwatch/internal/mt5"
	"github.com/harune-dev/pipwatch/internal/runtime"
	"github.com/harune-dev/pipwatch/internal/server"
	"github.com/harune-dev/pipwatch/internal/sim"
	"github.com/harune-dev/pipwatch/internal/telegram"
	"github.com/harune-dev/pipwatch/internal/tracker"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	store := runtime.NewStore(cfg.Runtime.FilePath)
	if err := store.Load(); err != nil {
		logger.Warn("Could not restore saved configuration, using defaults: %v", err)
	}
	rc := store.Snapshot()
	logger.Info("Watching %d symbols every %v (thresholds: %.1f/%.1f/%.1f pips)",
		len(rc.WatchSymbols), rc.Interval(),
		rc.SmallThreshold, rc.MediumThreshold, rc.LargeThreshold)

	trk := tracker.New()
	brk := broker.New(store)
	composer := alert.NewComposer(alert.Format(cfg.Server.AlertFormat))

	var source monitor.TickSource
	switch cfg.Source.Driver {
	case "sim":
		source = sim.New(cfg.Source.SimSeed)
		logger.Info("Using simulated tick source")
	default:
		source = mt5.NewClient(cfg.Source.BridgeURL, cfg.Source.Timeout)
		logger.Info("Using MT5 bridge at %s", cfg.Source.BridgeURL)
	}

	var notifier monitor.Notifier
	if cfg.Telegram.Enabled {
		tg, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		notifier = tg
		logger.Info("Telegram mirror enabled")
	}

	srv := server.New(brk, store, trk, composer, server.Options{
		Host:          cfg.Server.Host,
		AlertPort:     cfg.Server.AlertPort,
		TelemetryPort: cfg.Server.TelemetryPort,
	})
	if err := srv.Start(); err != nil {
		logger.Fatal("Failed to start websocket servers: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	loop := monitor.New(source, trk, brk, store, composer, notifier)
	if err := loop.Run(ctx); err != nil {
		_ = srv.Shutdown(context.Background())
		logger.Fatal("Monitoring failed to start: %v", err)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("Websocket shutdown: %v", err)
	}
	logger.Info("Service stopped")
}
