// Package monitor drives the polling loop: pull prices from the tick
// source, feed them through the tracker, and push alerts and telemetry
// through the broker.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jpillora/backoff"

	"github.com/harune-dev/pipwatch/internal/alert"
	"github.com/harune-dev/pipwatch/internal/broker"
	"github.com/harune-dev/pipwatch/internal/logger"
	"github.com/harune-dev/pipwatch/internal/models"
	"github.com/harune-dev/pipwatch/internal/runtime"
	"github.com/harune-dev/pipwatch/internal/tracker"
)

// TickSource is the external market-data collaborator. Connect filters the
// requested symbols down to the ones the source can quote; CurrentPrice
// returns models.ErrPriceUnavailable when a symbol has no quote this cycle.
type TickSource interface {
	Connect(ctx context.Context, symbols []string) ([]string, error)
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
	Close() error
}

// Notifier mirrors tier events to an out-of-band channel. Optional.
type Notifier interface {
	NotifyTier(ev models.TierEvent, spec models.SymbolSpec) error
}

// Loop is the driving control loop. It starts in a connecting state,
// announces once it is running, and then polls every active symbol each
// cycle until the context is cancelled.
type Loop struct {
	source   TickSource
	tracker  *tracker.Tracker
	broker   *broker.Broker
	store    *runtime.Store
	composer *alert.Composer
	notifier Notifier // may be nil

	symbols []string
}

func New(source TickSource, trk *tracker.Tracker, b *broker.Broker, store *runtime.Store, composer *alert.Composer, notifier Notifier) *Loop {
	return &Loop{
		source:   source,
		tracker:  trk,
		broker:   b,
		store:    store,
		composer: composer,
		notifier: notifier,
	}
}

// Start connects to the tick source and announces monitoring. Total loss of
// the source at startup is the one fatal condition: the error is returned
// for the bootstrap layer to decide on.
func (l *Loop) Start(ctx context.Context) error {
	cfg := l.store.Snapshot()

	active, err := l.source.Connect(ctx, cfg.Symbols())
	if err != nil {
		return fmt.Errorf("failed to connect to tick source: %w", err)
	}
	if len(active) == 0 {
		l.source.Close() //nolint:errcheck
		return errors.New("no watched symbol is available at the tick source")
	}
	l.symbols = active

	names := make([]string, 0, len(active))
	for _, symbol := range active {
		names = append(names, cfg.WatchSymbols[symbol].DisplayName)
	}
	logger.Info("Monitoring started for %d symbols: %v", len(active), active)
	return l.broker.Publish(broker.PoolAlert, l.composer.Startup(names))
}

// Run executes Start and then polls until ctx is cancelled. A failed cycle
// is logged and followed by a bounded backoff instead of the configured
// interval; the loop never terminates on its own.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := l.source.Close(); err != nil {
			logger.Warn("Failed to release tick source: %v", err)
		}
	}()

	retry := &backoff.Backoff{
		Min:    5 * time.Second,
		Max:    time.Minute,
		Factor: 2,
		Jitter: true,
	}

	for {
		wait := l.store.Snapshot().Interval()
		if err := l.Cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			wait = retry.Duration()
			logger.Error("Polling cycle failed: %v (retrying in %v)", err, wait)
		} else {
			retry.Reset()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// Cycle polls every active symbol once. A symbol without a quote is skipped
// for this cycle; any other source failure aborts the cycle and is returned
// to Run for backoff.
func (l *Loop) Cycle(ctx context.Context) error {
	cfg := l.store.Snapshot()

	for _, symbol := range l.symbols {
		price, err := l.source.CurrentPrice(ctx, symbol)
		if errors.Is(err, models.ErrPriceUnavailable) {
			logger.Debug("No quote for %s this cycle", symbol)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to fetch price for %s: %w", symbol, err)
		}

		obs, event, ok := l.tracker.Observe(cfg, symbol, price)
		if !ok {
			continue
		}

		if event != nil {
			spec := cfg.WatchSymbols[symbol]
			logger.Info("Tier %s fired: %s %.1f pips %s at %v",
				event.Tier, symbol, event.Pips, event.Direction, event.Price)
			payload := l.composer.Compose(*event, spec, cfg)
			if err := l.broker.Publish(broker.PoolAlert, payload); err != nil {
				logger.Error("Failed to publish alert: %v", err)
			}
			if l.notifier != nil && event.Tier == models.TierLarge {
				if err := l.notifier.NotifyTier(*event, spec); err != nil {
					logger.Warn("Failed to mirror alert: %v", err)
				}
			}
		}

		update := models.PriceUpdate{
			Type:        "price_update",
			Symbol:      obs.Symbol,
			DisplayName: obs.DisplayName,
			Price:       obs.Price,
			Baseline:    obs.Baseline,
			Pips:        obs.Pips,
		}
		if err := l.broker.Publish(broker.PoolTelemetry, update); err != nil {
			logger.Error("Failed to publish telemetry: %v", err)
		}
	}
	return nil
}
