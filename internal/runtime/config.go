// Package runtime holds the mutable runtime configuration: thresholds,
// message templates, tracked symbols, and the polling cadence. The
// configuration can be changed while the process runs and every successful
// change is persisted to a JSON file.
package runtime

import (
	"fmt"
	"sort"
	"time"

	"github.com/harune-dev/pipwatch/internal/models"
)

// Config is the runtime configuration entity. It mirrors the persisted JSON
// document one-to-one.
//
// The three thresholds are expressed in pips. They are not validated for
// ascending order: tier detection checks the large threshold first, then
// medium, then small, so out-of-order values silently behave as that scan
// implies.
type Config struct {
	UpdateInterval  float64                      `json:"update_interval"` // seconds
	SmallThreshold  float64                      `json:"small_threshold"`
	MediumThreshold float64                      `json:"medium_threshold"`
	LargeThreshold  float64                      `json:"large_threshold"`
	MsgSmall        string                       `json:"msg_small"`
	MsgMedium       string                       `json:"msg_medium"`
	MsgLarge        string                       `json:"msg_large"`
	WatchSymbols    map[string]models.SymbolSpec `json:"watch_symbols"`
}

// Default returns the shipped configuration.
func Default() Config {
	return Config{
		UpdateInterval:  1.0,
		SmallThreshold:  5.0,
		MediumThreshold: 16.0,
		LargeThreshold:  30.0,
		MsgSmall:        "📊 すこしのうごきがありましたです",
		MsgMedium:       "⚠️ ちゅうくらいのうごきがありましたです",
		MsgLarge:        "🚨 えええっ～びっくりです。大変です。",
		WatchSymbols: map[string]models.SymbolSpec{
			"USDJPY": {Digits: 3, DisplayName: "どるえん"},
			"EURUSD": {Digits: 5, DisplayName: "ユーロドル"},
			"GBPUSD": {Digits: 5, DisplayName: "ポンドル"},
			"EURJPY": {Digits: 3, DisplayName: "ユーロえん"},
			"GBPJPY": {Digits: 3, DisplayName: "ポンドえん"},
		},
	}
}

// Interval returns the polling interval as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.UpdateInterval * float64(time.Second))
}

// Symbols returns the tracked symbol identifiers in sorted order.
func (c Config) Symbols() []string {
	symbols := make([]string, 0, len(c.WatchSymbols))
	for s := range c.WatchSymbols {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Message returns the template configured for the given tier.
func (c Config) Message(tier models.Tier) string {
	switch tier {
	case models.TierLarge:
		return c.MsgLarge
	case models.TierMedium:
		return c.MsgMedium
	default:
		return c.MsgSmall
	}
}

// Validate checks configuration field constraints.
func (c Config) Validate() error {
	if c.UpdateInterval <= 0 {
		return fmt.Errorf("update_interval must be positive, got %v", c.UpdateInterval)
	}
	if c.SmallThreshold <= 0 || c.MediumThreshold <= 0 || c.LargeThreshold <= 0 {
		return fmt.Errorf("thresholds must be positive")
	}
	if len(c.WatchSymbols) == 0 {
		return fmt.Errorf("watch_symbols must not be empty")
	}
	for symbol, spec := range c.WatchSymbols {
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("symbol %s: %w", symbol, err)
		}
	}
	return nil
}

func (c Config) clone() Config {
	out := c
	out.WatchSymbols = make(map[string]models.SymbolSpec, len(c.WatchSymbols))
	for s, spec := range c.WatchSymbols {
		out.WatchSymbols[s] = spec
	}
	return out
}
