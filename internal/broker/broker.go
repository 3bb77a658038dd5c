// Package broker fans out messages to the two subscriber pools and relays
// inbound configuration updates into the runtime store.
package broker

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/harune-dev/pipwatch/internal/logger"
	"github.com/harune-dev/pipwatch/internal/runtime"
)

// Pool names one of the two disjoint subscriber groups.
type Pool string

const (
	// PoolAlert receives natural-language alert messages.
	PoolAlert Pool = "alert"
	// PoolTelemetry receives structured telemetry and may push
	// configuration updates back.
	PoolTelemetry Pool = "telemetry"
)

// Subscriber is an opaque handle to a connected client. Send must be
// bounded: it either accepts the message, drops it, or reports the
// subscriber as gone with an error. It must never block on a slow peer.
type Subscriber interface {
	ID() string
	Send(data []byte) error
	Close()
}

// Broker maintains the subscriber registries. Broadcast and membership
// changes are serialized, so successive Publish calls on the same pool
// reach every subscriber in order.
type Broker struct {
	mu    sync.Mutex
	pools map[Pool]map[string]Subscriber
	store *runtime.Store
}

// New creates a broker with both pools empty.
func New(store *runtime.Store) *Broker {
	return &Broker{
		pools: map[Pool]map[string]Subscriber{
			PoolAlert:     {},
			PoolTelemetry: {},
		},
		store: store,
	}
}

// Join registers a subscriber in the named pool. Joining twice with the
// same handle is a no-op.
func (b *Broker) Join(sub Subscriber, pool Pool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	members, ok := b.pools[pool]
	if !ok {
		return
	}
	if _, exists := members[sub.ID()]; exists {
		return
	}
	members[sub.ID()] = sub
	logger.Info("Subscriber %s joined %s pool (total: %d)", sub.ID(), pool, len(members))
}

// Leave removes a subscriber from the named pool. Safe to call for a
// subscriber that is already gone.
func (b *Broker) Leave(sub Subscriber, pool Pool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	members, ok := b.pools[pool]
	if !ok {
		return
	}
	if _, exists := members[sub.ID()]; !exists {
		return
	}
	delete(members, sub.ID())
	logger.Info("Subscriber %s left %s pool (remaining: %d)", sub.ID(), pool, len(members))
}

// Count reports the number of registered subscribers in a pool.
func (b *Broker) Count(pool Pool) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pools[pool])
}

// Publish serializes the message once and delivers it to every current
// member of the pool. Members whose delivery attempt fails are collected
// during the sweep and removed afterwards, so one dead subscriber never
// affects delivery to the rest. When Publish returns, every reachable
// subscriber has the message queued and every unreachable one is pruned.
func (b *Broker) Publish(pool Pool, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize %s message: %w", pool, err)
	}

	b.mu.Lock()
	members := b.pools[pool]
	var dead []Subscriber
	for _, sub := range members {
		if err := sub.Send(data); err != nil {
			dead = append(dead, sub)
		}
	}
	for _, sub := range dead {
		delete(members, sub.ID())
	}
	remaining := len(members)
	b.mu.Unlock()

	for _, sub := range dead {
		sub.Close()
		logger.Info("Pruned unreachable subscriber %s from %s pool (remaining: %d)", sub.ID(), pool, remaining)
	}
	return nil
}

// ApplyConfigUpdate parses a sparse configuration document from a telemetry
// subscriber and applies it to the runtime store. The error reports
// malformed or invalid input; state is unchanged in that case.
func (b *Broker) ApplyConfigUpdate(raw json.RawMessage) (runtime.Config, error) {
	var u runtime.Update
	if err := json.Unmarshal(raw, &u); err != nil {
		return runtime.Config{}, fmt.Errorf("invalid config update: %w", err)
	}
	return b.store.Update(u)
}

// Shutdown closes every subscriber in both pools and empties the
// registries.
func (b *Broker) Shutdown() {
	b.mu.Lock()
	var all []Subscriber
	for pool, members := range b.pools {
		for _, sub := range members {
			all = append(all, sub)
		}
		b.pools[pool] = map[string]Subscriber{}
	}
	b.mu.Unlock()

	for _, sub := range all {
		sub.Close()
	}
}
