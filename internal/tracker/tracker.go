// Package tracker implements per-symbol movement detection against a
// rolling baseline. Each symbol's baseline resets to the current price
// whenever a tier fires, so subsequent movement is measured from the price
// that triggered the alert.
package tracker

import (
	"math"
	"sync"

	"github.com/harune-dev/pipwatch/internal/models"
	"github.com/harune-dev/pipwatch/internal/runtime"
)

type symbolState struct {
	baseline    float64
	lastPrice   float64
	initialized bool
}

// Observation is the telemetry result of feeding one price through the
// tracker. Baseline and Pips reflect the reference the price was measured
// against, before any reset caused by a tier firing.
type Observation struct {
	Symbol      string
	DisplayName string
	Price       float64
	Baseline    float64
	Pips        float64
}

// Tracker owns the per-symbol state. It is mutated only by the polling
// loop; the mutex exists for status reads from subscriber connections.
type Tracker struct {
	mu     sync.RWMutex
	states map[string]*symbolState
}

// New creates an empty tracker. Symbol state is created lazily on first
// observation and lives for the rest of the run.
func New() *Tracker {
	return &Tracker{states: make(map[string]*symbolState)}
}

// PipUnit returns the pip size for a quoting precision. Symbols quoted with
// 3 or 5 decimal digits carry a fractional pip digit, so the pip sits one
// place above the last digit; for other precisions it sits two places above.
func PipUnit(digits int) float64 {
	if digits == 3 || digits == 5 {
		return math.Pow(0.1, float64(digits-1))
	}
	return math.Pow(0.1, float64(digits-2))
}

// Pips converts a price delta into pip units for the given precision. The
// result is the magnitude of the move, rounded to the system's 0.1-pip
// granularity so that a move sitting exactly on a threshold compares as
// such despite float64 division error: Pips(d, x) == Pips(d, -x).
func Pips(digits int, delta float64) float64 {
	pips := math.Abs(delta) / PipUnit(digits)
	return math.Round(pips*10) / 10
}

// Observe feeds one price through the state machine. It returns the
// telemetry observation and, when a threshold was crossed, the tier event.
// The third return value is false when the symbol is not part of the active
// configuration or the price is not strictly positive; such inputs are
// ignored without touching any state.
//
// Tiers are checked from the large threshold down and the first match wins.
// No ordering of the configured thresholds is assumed.
func (t *Tracker) Observe(cfg runtime.Config, symbol string, price float64) (Observation, *models.TierEvent, bool) {
	spec, ok := cfg.WatchSymbols[symbol]
	if !ok || price <= 0 {
		return Observation{}, nil, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[symbol]
	if !ok {
		st = &symbolState{}
		t.states[symbol] = st
	}

	if !st.initialized {
		st.baseline = price
		st.lastPrice = price
		st.initialized = true
		return Observation{
			Symbol:      symbol,
			DisplayName: spec.DisplayName,
			Price:       price,
			Baseline:    price,
		}, nil, true
	}

	delta := price - st.baseline
	pips := Pips(spec.Digits, delta)

	obs := Observation{
		Symbol:      symbol,
		DisplayName: spec.DisplayName,
		Price:       price,
		Baseline:    st.baseline,
		Pips:        pips,
	}

	var tier models.Tier
	switch {
	case pips >= cfg.LargeThreshold:
		tier = models.TierLarge
	case pips >= cfg.MediumThreshold:
		tier = models.TierMedium
	case pips >= cfg.SmallThreshold:
		tier = models.TierSmall
	}

	var event *models.TierEvent
	if tier != "" {
		direction := models.DirectionUp
		if delta < 0 {
			direction = models.DirectionDown
		}
		event = &models.TierEvent{
			Symbol:    symbol,
			Tier:      tier,
			Direction: direction,
			Pips:      pips,
			Price:     price,
		}
		st.baseline = price
	}
	st.lastPrice = price

	return obs, event, true
}

// Status reports the tracked state of every configured symbol, in sorted
// symbol order, for the telemetry init snapshot. Price and Baseline are nil
// for symbols not yet observed.
func (t *Tracker) Status(cfg runtime.Config) []models.SymbolStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	status := make([]models.SymbolStatus, 0, len(cfg.WatchSymbols))
	for _, symbol := range cfg.Symbols() {
		spec := cfg.WatchSymbols[symbol]
		entry := models.SymbolStatus{
			Symbol:      symbol,
			DisplayName: spec.DisplayName,
		}
		if st, ok := t.states[symbol]; ok && st.initialized {
			price, baseline := st.lastPrice, st.baseline
			entry.Price = &price
			entry.Baseline = &baseline
		}
		status = append(status, entry)
	}
	return status
}
