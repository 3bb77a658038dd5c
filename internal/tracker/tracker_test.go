package tracker

import (
	"math"
	"testing"

	"github.com/harune-dev/pipwatch/internal/models"
	"github.com/harune-dev/pipwatch/internal/runtime"
)

// testConfig returns the default configuration: thresholds 5/16/30 pips,
// USDJPY at 3 digits, EURUSD at 5 digits.
func testConfig() runtime.Config {
	return runtime.Default()
}

func observe(t *testing.T, trk *Tracker, cfg runtime.Config, symbol string, price float64) (Observation, *models.TierEvent) {
	t.Helper()
	obs, ev, ok := trk.Observe(cfg, symbol, price)
	if !ok {
		t.Fatalf("Observe(%s, %v) rejected a valid input", symbol, price)
	}
	return obs, ev
}

func TestPipUnit(t *testing.T) {
	cases := []struct {
		digits int
		want   float64
	}{
		{2, 1.0},
		{3, 0.01},
		{4, 0.01},
		{5, 0.0001},
	}
	for _, c := range cases {
		if got := PipUnit(c.digits); math.Abs(got-c.want) > 1e-12 {
			t.Errorf("PipUnit(%d) = %v, want %v", c.digits, got, c.want)
		}
	}
}

func TestPips_SignInvariant(t *testing.T) {
	for _, digits := range []int{2, 3, 4, 5} {
		for _, delta := range []float64{0.0003, 0.06, 1.2} {
			if Pips(digits, delta) != Pips(digits, -delta) {
				t.Errorf("Pips(%d, %v) != Pips(%d, %v)", digits, delta, digits, -delta)
			}
		}
	}
}

func TestPips_QuantizedToDisplayGranularity(t *testing.T) {
	// 150.060 - 149.900 is not exactly 0.160 in float64; the raw division
	// lands just under 16.0. The rounded result must sit exactly on the
	// boundary so threshold comparisons see the displayed value.
	if got := Pips(3, 149.900-150.060); got != 16.0 {
		t.Errorf("Pips(3, 149.900-150.060) = %v, want exactly 16.0", got)
	}
	if got := Pips(5, 1.08560-1.08500); got != 6.0 {
		t.Errorf("Pips(5, 1.08560-1.08500) = %v, want exactly 6.0", got)
	}
}

func TestObserve_FirstObservationSetsBaseline(t *testing.T) {
	trk := New()
	cfg := testConfig()

	obs, ev := observe(t, trk, cfg, "USDJPY", 150.000)
	if ev != nil {
		t.Errorf("First observation fired tier %s", ev.Tier)
	}
	if obs.Baseline != 150.000 || obs.Price != 150.000 {
		t.Errorf("First observation: baseline %v, price %v; want both 150.000", obs.Baseline, obs.Price)
	}
	if obs.Pips != 0 {
		t.Errorf("First observation pips = %v, want 0", obs.Pips)
	}

	// A large move right after initialization must fire against it.
	_, ev = observe(t, trk, cfg, "USDJPY", 150.500)
	if ev == nil || ev.Tier != models.TierLarge {
		t.Fatalf("Expected large tier after 50 pip move, got %+v", ev)
	}
}

func TestObserve_SmallTierAndBaselineReset(t *testing.T) {
	trk := New()
	cfg := testConfig()

	observe(t, trk, cfg, "USDJPY", 150.000)

	obs, ev := observe(t, trk, cfg, "USDJPY", 150.060)
	if ev == nil {
		t.Fatal("Expected a tier event at 6.0 pips")
	}
	if ev.Tier != models.TierSmall {
		t.Errorf("Tier = %s, want small", ev.Tier)
	}
	if ev.Direction != models.DirectionUp {
		t.Errorf("Direction = %s, want up", ev.Direction)
	}
	if math.Abs(ev.Pips-6.0) > 0.01 {
		t.Errorf("Pips = %v, want 6.0", ev.Pips)
	}
	if obs.Baseline != 150.000 {
		t.Errorf("Observation baseline = %v, want the pre-reset 150.000", obs.Baseline)
	}

	// Baseline reset: the next delta is measured from 150.060, not 150.000.
	// 150.060 → 149.900 is 16.0 pips, exactly on the medium boundary.
	_, ev = observe(t, trk, cfg, "USDJPY", 149.900)
	if ev == nil {
		t.Fatal("Expected a tier event at the 16.0 pip boundary")
	}
	if ev.Tier != models.TierMedium {
		t.Errorf("Tier = %s, want medium", ev.Tier)
	}
	if ev.Direction != models.DirectionDown {
		t.Errorf("Direction = %s, want down", ev.Direction)
	}
	if math.Abs(ev.Pips-16.0) > 0.01 {
		t.Errorf("Pips = %v, want 16.0", ev.Pips)
	}
}

func TestObserve_SubThresholdKeepsBaseline(t *testing.T) {
	trk := New()
	cfg := testConfig()

	observe(t, trk, cfg, "USDJPY", 150.000)

	// Repeated sub-threshold moves never shift the reference.
	for _, price := range []float64{150.010, 150.020, 150.030, 150.040} {
		obs, ev := observe(t, trk, cfg, "USDJPY", price)
		if ev != nil {
			t.Fatalf("Tier %s fired at %v pips, below threshold", ev.Tier, obs.Pips)
		}
		if obs.Baseline != 150.000 {
			t.Fatalf("Baseline moved to %v on a sub-threshold observation", obs.Baseline)
		}
	}

	// lastPrice tracked the drift even though the baseline did not.
	status := trk.Status(cfg)
	for _, st := range status {
		if st.Symbol != "USDJPY" {
			continue
		}
		if st.Price == nil || *st.Price != 150.040 {
			t.Errorf("Status price = %v, want 150.040", st.Price)
		}
		if st.Baseline == nil || *st.Baseline != 150.000 {
			t.Errorf("Status baseline = %v, want 150.000", st.Baseline)
		}
	}
}

func TestObserve_TierMonotonicity(t *testing.T) {
	cfg := testConfig()

	rank := map[models.Tier]int{"": 0, models.TierSmall: 1, models.TierMedium: 2, models.TierLarge: 3}
	prev := 0
	for _, deltaPips := range []float64{1, 4, 5, 10, 16, 20, 30, 50} {
		trk := New()
		observe(t, trk, cfg, "USDJPY", 150.000)
		_, ev := observe(t, trk, cfg, "USDJPY", 150.000+deltaPips*0.01)
		got := 0
		if ev != nil {
			got = rank[ev.Tier]
		}
		if got < prev {
			t.Errorf("Tier rank decreased at %v pips: %d < %d", deltaPips, got, prev)
		}
		prev = got
	}
}

func TestObserve_LargestThresholdWinsRegardlessOfOrder(t *testing.T) {
	trk := New()
	cfg := testConfig()
	// Out-of-order thresholds are not rejected; the largest-first scan
	// simply applies them as configured.
	cfg.SmallThreshold = 20.0
	cfg.MediumThreshold = 16.0
	cfg.LargeThreshold = 30.0

	observe(t, trk, cfg, "USDJPY", 150.000)
	_, ev := observe(t, trk, cfg, "USDJPY", 150.180) // 18 pips
	if ev == nil || ev.Tier != models.TierMedium {
		t.Errorf("Expected medium from the largest-first scan, got %+v", ev)
	}
}

func TestObserve_FiveDigitSymbol(t *testing.T) {
	trk := New()
	cfg := testConfig()

	observe(t, trk, cfg, "EURUSD", 1.08500)
	_, ev := observe(t, trk, cfg, "EURUSD", 1.08560) // 6.0 pips at 0.0001/pip
	if ev == nil || ev.Tier != models.TierSmall {
		t.Fatalf("Expected small tier for 6.0 pip EURUSD move, got %+v", ev)
	}
	if math.Abs(ev.Pips-6.0) > 0.01 {
		t.Errorf("Pips = %v, want 6.0", ev.Pips)
	}
}

func TestObserve_IgnoresUnknownSymbolAndBadPrice(t *testing.T) {
	trk := New()
	cfg := testConfig()

	if _, _, ok := trk.Observe(cfg, "XAUUSD", 2300.0); ok {
		t.Error("Observe accepted a symbol outside the active configuration")
	}
	if _, _, ok := trk.Observe(cfg, "USDJPY", 0); ok {
		t.Error("Observe accepted a non-positive price")
	}
	if _, _, ok := trk.Observe(cfg, "USDJPY", -1); ok {
		t.Error("Observe accepted a negative price")
	}
}

func TestStatus_UnobservedSymbolsAreNil(t *testing.T) {
	trk := New()
	cfg := testConfig()

	observe(t, trk, cfg, "USDJPY", 150.000)

	status := trk.Status(cfg)
	if len(status) != len(cfg.WatchSymbols) {
		t.Fatalf("Status has %d entries, want %d", len(status), len(cfg.WatchSymbols))
	}
	for _, st := range status {
		if st.Symbol == "USDJPY" {
			if st.Price == nil || st.Baseline == nil {
				t.Errorf("Observed symbol %s reported nil price/baseline", st.Symbol)
			}
			continue
		}
		if st.Price != nil || st.Baseline != nil {
			t.Errorf("Unobserved symbol %s reported non-nil price/baseline", st.Symbol)
		}
	}
}
