// Package sim provides a random-walk tick source for running the system
// without a terminal attached.
package sim

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// basePrices seed the walk for the shipped symbol set. Symbols without an
// entry start at 1.0.
var basePrices = map[string]float64{
	"USDJPY": 150.000,
	"EURUSD": 1.08500,
	"GBPUSD": 1.26500,
	"EURJPY": 162.800,
	"GBPJPY": 189.700,
}

// Source generates a bounded random walk per symbol.
type Source struct {
	mu     sync.Mutex
	rnd    *rand.Rand
	prices map[string]float64
}

// New creates a simulated source. A zero seed derives one from the clock.
func New(seed int64) *Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Source{
		rnd:    rand.New(rand.NewSource(seed)),
		prices: make(map[string]float64),
	}
}

// Connect seeds a walk for every requested symbol. Every symbol is
// available in simulation.
func (s *Source) Connect(_ context.Context, symbols []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, symbol := range symbols {
		base, ok := basePrices[symbol]
		if !ok {
			base = 1.0
		}
		s.prices[symbol] = base
	}
	return append([]string(nil), symbols...), nil
}

// CurrentPrice advances the symbol's walk one step and returns the new
// price. Steps are bounded to ±0.02% of the current price so threshold
// crossings accumulate over several cycles, as they do on a real feed.
func (s *Source) CurrentPrice(_ context.Context, symbol string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	price := s.prices[symbol]
	if price == 0 {
		price = 1.0
	}
	fluctuation := (s.rnd.Float64()*2 - 1) * 0.0002 * price
	price += fluctuation
	s.prices[symbol] = price
	return price, nil
}

// Close is a no-op for the simulator.
func (s *Source) Close() error { return nil }
