package alert

import (
	"testing"

	"github.com/harune-dev/pipwatch/internal/models"
	"github.com/harune-dev/pipwatch/internal/runtime"
)

func usdjpyEvent(tier models.Tier, direction models.Direction, pips float64) models.TierEvent {
	return models.TierEvent{
		Symbol:    "USDJPY",
		Tier:      tier,
		Direction: direction,
		Pips:      pips,
		Price:     150.060,
	}
}

func TestCompose_MessageFormat(t *testing.T) {
	c := NewComposer(FormatMessage)
	cfg := runtime.Default()
	spec := cfg.WatchSymbols["USDJPY"]

	got := c.Compose(usdjpyEvent(models.TierSmall, models.DirectionUp, 6.0), spec, cfg)

	want := models.AlertPayload{
		Type:    "message",
		Text:    "どるえん が 6.0 pips 上昇 しました\n📊 すこしのうごきがありましたです",
		Role:    "assistant",
		Emotion: "happy",
	}
	if got != want {
		t.Errorf("Compose = %+v, want %+v", got, want)
	}
}

func TestCompose_ChatFormat(t *testing.T) {
	c := NewComposer(FormatChat)
	cfg := runtime.Default()
	spec := cfg.WatchSymbols["USDJPY"]

	got := c.Compose(usdjpyEvent(models.TierSmall, models.DirectionUp, 6.0), spec, cfg)

	want := models.AlertPayload{
		Type: "chat",
		Text: "[happy] どるえん が 6.0 pips 上昇 した。📊 すこしのうごきがありましたです",
	}
	if got != want {
		t.Errorf("Compose = %+v, want %+v", got, want)
	}
}

func TestCompose_EmotionMapping(t *testing.T) {
	cases := []struct {
		tier      models.Tier
		direction models.Direction
		want      string
	}{
		{models.TierLarge, models.DirectionUp, "surprised"},
		{models.TierLarge, models.DirectionDown, "surprised"},
		{models.TierMedium, models.DirectionUp, "happy"},
		{models.TierMedium, models.DirectionDown, "sad"},
		{models.TierSmall, models.DirectionUp, "happy"},
		{models.TierSmall, models.DirectionDown, "sad"},
	}
	for _, tc := range cases {
		if got := Emotion(tc.tier, tc.direction); got != tc.want {
			t.Errorf("Emotion(%s, %s) = %q, want %q", tc.tier, tc.direction, got, tc.want)
		}
	}
}

func TestCompose_DownUsesDescentWordAndTemplate(t *testing.T) {
	c := NewComposer(FormatMessage)
	cfg := runtime.Default()
	cfg.MsgMedium = "custom medium"
	spec := cfg.WatchSymbols["USDJPY"]

	got := c.Compose(usdjpyEvent(models.TierMedium, models.DirectionDown, 16.0), spec, cfg)

	wantText := "どるえん が 16.0 pips 下降 しました\ncustom medium"
	if got.Text != wantText {
		t.Errorf("Text = %q, want %q", got.Text, wantText)
	}
	if got.Emotion != "sad" {
		t.Errorf("Emotion = %q, want sad", got.Emotion)
	}
}

func TestCompose_Deterministic(t *testing.T) {
	c := NewComposer(FormatMessage)
	cfg := runtime.Default()
	spec := cfg.WatchSymbols["EURUSD"]
	ev := models.TierEvent{Symbol: "EURUSD", Tier: models.TierLarge, Direction: models.DirectionDown, Pips: 31.4, Price: 1.082}

	first := c.Compose(ev, spec, cfg)
	for i := 0; i < 10; i++ {
		if got := c.Compose(ev, spec, cfg); got != first {
			t.Fatalf("Compose is not reproducible: %+v vs %+v", got, first)
		}
	}
}

func TestStartup(t *testing.T) {
	c := NewComposer(FormatMessage)
	got := c.Startup([]string{"どるえん", "ユーロドル"})

	want := models.AlertPayload{
		Type:    "message",
		Text:    "FX価格監視開始: どるえん, ユーロドル",
		Role:    "system",
		Emotion: "happy",
	}
	if got != want {
		t.Errorf("Startup = %+v, want %+v", got, want)
	}
}

func TestWelcome_ChatFormat(t *testing.T) {
	c := NewComposer(FormatChat)
	got := c.Welcome()
	if got.Type != "chat" || got.Role != "" || got.Emotion != "" {
		t.Errorf("Chat welcome carried message-format fields: %+v", got)
	}
	if got.Text != "[happy] FX価格監視システムに接続しました" {
		t.Errorf("Welcome text = %q", got.Text)
	}
}
