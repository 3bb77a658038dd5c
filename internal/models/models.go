// Package models defines the core domain entities: symbols, tier events, and outbound payloads.
package models

import (
	"errors"
	"fmt"
)

// ErrPriceUnavailable is returned by a tick source when a symbol has no
// quote this cycle. The monitor skips the symbol and continues.
var ErrPriceUnavailable = errors.New("price unavailable")

// Tier is one of the three ascending alert severities.
type Tier string

const (
	TierSmall  Tier = "small"
	TierMedium Tier = "medium"
	TierLarge  Tier = "large"
)

// Direction of a price move relative to the baseline.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// SymbolSpec describes a tracked symbol: its quoting precision and the
// display name used in outbound messages.
type SymbolSpec struct {
	Digits      int    `json:"digits"`
	DisplayName string `json:"display_name"`
}

// Validate checks that Digits maps to a defined pip-unit rule.
func (s SymbolSpec) Validate() error {
	if s.Digits < 2 || s.Digits > 5 {
		return fmt.Errorf("digits must be between 2 and 5, got %d", s.Digits)
	}
	if s.DisplayName == "" {
		return errors.New("display name must not be empty")
	}
	return nil
}

// TierEvent is emitted when a symbol's pip movement crosses a threshold.
type TierEvent struct {
	Symbol    string
	Tier      Tier
	Direction Direction
	Pips      float64
	Price     float64
}

// AlertPayload is the outbound message for the alert pool. The "message"
// variant carries role and emotion separately; the "chat" variant folds the
// emotion into the text as an inline tag and omits both fields.
type AlertPayload struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Role    string `json:"role,omitempty"`
	Emotion string `json:"emotion,omitempty"`
}

// PriceUpdate is the unconditional telemetry message sent on every tracker
// observation. Baseline is the reference the observation was measured
// against, before any reset caused by a tier firing.
type PriceUpdate struct {
	Type        string  `json:"type"`
	Symbol      string  `json:"symbol"`
	DisplayName string  `json:"display_name"`
	Price       float64 `json:"price"`
	Baseline    float64 `json:"baseline"`
	Pips        float64 `json:"pips"`
}

// SymbolStatus is one entry of the telemetry init snapshot. Price and
// Baseline are nil until the symbol has been observed at least once.
type SymbolStatus struct {
	Symbol      string   `json:"symbol"`
	DisplayName string   `json:"display_name"`
	Price       *float64 `json:"price"`
	Baseline    *float64 `json:"baseline"`
}
