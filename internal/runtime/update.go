package runtime

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// FlexFloat is a float64 that also unmarshals from a numeric JSON string,
// matching what dashboard form inputs tend to send. A non-numeric string is
// an unmarshal error, not a zero value.
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("malformed number %q", s)
		}
		*f = FlexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("malformed number %s", string(b))
	}
	*f = FlexFloat(v)
	return nil
}

// SymbolUpdate refines an existing symbol descriptor. It can never introduce
// a new tracked symbol.
type SymbolUpdate struct {
	Digits      *int    `json:"digits"`
	DisplayName *string `json:"display_name"`
}

// Update is a sparse set of configuration changes: only the fields present
// are applied, everything else is left unchanged.
type Update struct {
	UpdateInterval  *FlexFloat              `json:"update_interval"`
	SmallThreshold  *FlexFloat              `json:"small_threshold"`
	MediumThreshold *FlexFloat              `json:"medium_threshold"`
	LargeThreshold  *FlexFloat              `json:"large_threshold"`
	MsgSmall        *string                 `json:"msg_small"`
	MsgMedium       *string                 `json:"msg_medium"`
	MsgLarge        *string                 `json:"msg_large"`
	WatchSymbols    map[string]SymbolUpdate `json:"watch_symbols"`
}

// Merge applies a sparse update to a configuration and returns the result.
// It is a pure function: the input configuration is not modified, and an
// invalid update leaves no partial changes behind.
func Merge(cfg Config, u Update) (Config, error) {
	out := cfg.clone()

	if u.UpdateInterval != nil {
		out.UpdateInterval = float64(*u.UpdateInterval)
	}
	if u.SmallThreshold != nil {
		out.SmallThreshold = float64(*u.SmallThreshold)
	}
	if u.MediumThreshold != nil {
		out.MediumThreshold = float64(*u.MediumThreshold)
	}
	if u.LargeThreshold != nil {
		out.LargeThreshold = float64(*u.LargeThreshold)
	}
	if u.MsgSmall != nil {
		out.MsgSmall = *u.MsgSmall
	}
	if u.MsgMedium != nil {
		out.MsgMedium = *u.MsgMedium
	}
	if u.MsgLarge != nil {
		out.MsgLarge = *u.MsgLarge
	}

	for symbol, su := range u.WatchSymbols {
		spec, ok := out.WatchSymbols[symbol]
		if !ok {
			return Config{}, fmt.Errorf("unknown symbol %s: updates may only refine tracked symbols", symbol)
		}
		if su.Digits != nil {
			spec.Digits = *su.Digits
		}
		if su.DisplayName != nil {
			spec.DisplayName = *su.DisplayName
		}
		out.WatchSymbols[symbol] = spec
	}

	for _, field := range []float64{out.UpdateInterval, out.SmallThreshold, out.MediumThreshold, out.LargeThreshold} {
		if math.IsNaN(field) || math.IsInf(field, 0) {
			return Config{}, fmt.Errorf("numeric fields must be finite")
		}
	}
	if err := out.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return out, nil
}
