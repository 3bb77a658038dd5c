// Package alert turns tier events into outbound alert payloads.
package alert

import (
	"fmt"
	"strings"

	"github.com/harune-dev/pipwatch/internal/models"
	"github.com/harune-dev/pipwatch/internal/runtime"
)

// Format selects the wire shape of alert messages.
type Format string

const (
	// FormatMessage carries role and emotion as separate fields.
	FormatMessage Format = "message"
	// FormatChat is the plain-text variant for integrations that only
	// accept text; the emotion rides inline as a leading tag.
	FormatChat Format = "chat"
)

// Composer maps tier events to alert payloads using the current message
// templates. It holds no state beyond the chosen format: the same event and
// configuration snapshot always produce the same bytes.
type Composer struct {
	format Format
}

func NewComposer(format Format) *Composer {
	return &Composer{format: format}
}

// Emotion returns the sentiment tag for a tier crossing: large moves are
// always "surprised", smaller moves follow the direction.
func Emotion(tier models.Tier, direction models.Direction) string {
	if tier == models.TierLarge {
		return "surprised"
	}
	if direction == models.DirectionUp {
		return "happy"
	}
	return "sad"
}

// Compose builds the alert payload for a tier event.
func (c *Composer) Compose(ev models.TierEvent, spec models.SymbolSpec, cfg runtime.Config) models.AlertPayload {
	emotion := Emotion(ev.Tier, ev.Direction)
	direction := "上昇"
	if ev.Direction == models.DirectionDown {
		direction = "下降"
	}
	template := cfg.Message(ev.Tier)

	if c.format == FormatChat {
		return models.AlertPayload{
			Type: "chat",
			Text: fmt.Sprintf("[%s] %s が %.1f pips %s した。%s",
				emotion, spec.DisplayName, ev.Pips, direction, template),
		}
	}
	return models.AlertPayload{
		Type:    "message",
		Text:    fmt.Sprintf("%s が %.1f pips %s しました\n%s", spec.DisplayName, ev.Pips, direction, template),
		Role:    "assistant",
		Emotion: emotion,
	}
}

// Startup builds the one-time announcement emitted when monitoring begins,
// naming the display names of all active symbols.
func (c *Composer) Startup(displayNames []string) models.AlertPayload {
	text := "FX価格監視開始: " + strings.Join(displayNames, ", ")
	return c.system(text)
}

// Welcome builds the greeting sent to a newly connected alert subscriber.
func (c *Composer) Welcome() models.AlertPayload {
	return c.system("FX価格監視システムに接続しました")
}

func (c *Composer) system(text string) models.AlertPayload {
	if c.format == FormatChat {
		return models.AlertPayload{Type: "chat", Text: "[happy] " + text}
	}
	return models.AlertPayload{
		Type:    "message",
		Text:    text,
		Role:    "system",
		Emotion: "happy",
	}
}
