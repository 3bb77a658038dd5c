package runtime

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/harune-dev/pipwatch/internal/logger"
)

// Store owns the runtime configuration for the lifetime of the process.
// Reads return consistent snapshots; all mutation goes through Update, which
// persists the merged configuration to the backing file. A persistence
// failure is reported but never invalidates the in-memory configuration.
type Store struct {
	mu   sync.RWMutex
	path string
	cfg  Config
}

// NewStore creates a store seeded with the default configuration.
func NewStore(path string) *Store {
	return &Store{path: path, cfg: Default()}
}

// fileConfig mirrors Config with every field optional so that a partial or
// older persisted file falls back to defaults field-by-field.
type fileConfig struct {
	UpdateInterval  *float64                `json:"update_interval"`
	SmallThreshold  *float64                `json:"small_threshold"`
	MediumThreshold *float64                `json:"medium_threshold"`
	LargeThreshold  *float64                `json:"large_threshold"`
	MsgSmall        *string                 `json:"msg_small"`
	MsgMedium       *string                 `json:"msg_medium"`
	MsgLarge        *string                 `json:"msg_large"`
	WatchSymbols    map[string]SymbolUpdate `json:"watch_symbols"`
}

// Load restores persisted values over the defaults. A missing file is not an
// error: the defaults stay in effect. Symbols in the file are merged by
// identifier and may only refine descriptors of symbols already tracked.
// The merged result is validated before it takes effect; an invalid file is
// reported and leaves the defaults untouched.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		logger.Info("No saved configuration at %s, using defaults", s.path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read configuration: %w", err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.cfg.clone()
	if fc.UpdateInterval != nil {
		merged.UpdateInterval = *fc.UpdateInterval
	}
	if fc.SmallThreshold != nil {
		merged.SmallThreshold = *fc.SmallThreshold
	}
	if fc.MediumThreshold != nil {
		merged.MediumThreshold = *fc.MediumThreshold
	}
	if fc.LargeThreshold != nil {
		merged.LargeThreshold = *fc.LargeThreshold
	}
	if fc.MsgSmall != nil {
		merged.MsgSmall = *fc.MsgSmall
	}
	if fc.MsgMedium != nil {
		merged.MsgMedium = *fc.MsgMedium
	}
	if fc.MsgLarge != nil {
		merged.MsgLarge = *fc.MsgLarge
	}
	for symbol, su := range fc.WatchSymbols {
		spec, ok := merged.WatchSymbols[symbol]
		if !ok {
			continue
		}
		if su.Digits != nil {
			spec.Digits = *su.Digits
		}
		if su.DisplayName != nil {
			spec.DisplayName = *su.DisplayName
		}
		merged.WatchSymbols[symbol] = spec
	}

	// A hand-edited file must clear the same bar as a live update; on
	// failure the defaults stay in effect.
	if err := merged.Validate(); err != nil {
		return fmt.Errorf("saved configuration is invalid: %w", err)
	}
	s.cfg = merged

	logger.Info("Loaded saved configuration from %s", s.path)
	return nil
}

// Snapshot returns a consistent copy of the current configuration.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.clone()
}

// Update merges a sparse update into the configuration and persists the
// result. The returned error covers validation only: if the merge succeeds
// but the write fails, the in-memory configuration stays authoritative and
// the failure is logged.
func (s *Store) Update(u Update) (Config, error) {
	s.mu.Lock()
	merged, err := Merge(s.cfg, u)
	if err != nil {
		s.mu.Unlock()
		return Config{}, err
	}
	s.cfg = merged
	snapshot := merged.clone()
	s.mu.Unlock()

	if err := s.Save(); err != nil {
		logger.Error("Failed to persist configuration: %v", err)
	}
	return snapshot, nil
}

// Save writes the current configuration atomically: the document is written
// to a temporary file in the same directory and renamed over the target.
func (s *Store) Save() error {
	snapshot := s.Snapshot()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pipwatch-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write configuration: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace configuration file: %w", err)
	}
	return nil
}
