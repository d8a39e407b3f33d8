package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/sipeed/chatwarden/internal/detector"
	"github.com/sipeed/chatwarden/internal/logctl"
	"github.com/sipeed/chatwarden/internal/ytlive"
)

// DiscordSink posts flagged decisions to a Discord channel via
// webhook. Lifecycle events (NewChat/ChatClosed) are not forwarded —
// only actionable decisions are, to keep the channel from becoming
// noisy.
type DiscordSink struct {
	session      *discordgo.Session
	webhookID    string
	webhookToken string
}

// NewDiscordSink builds a sink from a Discord webhook URL of the form
// https://discord.com/api/webhooks/<id>/<token>.
func NewDiscordSink(webhookURL string) (*DiscordSink, error) {
	id, token, err := parseDiscordWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("notify: building discord session: %w", err)
	}
	return &DiscordSink{session: session, webhookID: id, webhookToken: token}, nil
}

func parseDiscordWebhookURL(raw string) (id, token string, err error) {
	parts := strings.Split(strings.TrimSuffix(raw, "/"), "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("notify: malformed discord webhook url %q", raw)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}

func (d *DiscordSink) NotifyNewChat(context.Context, detector.NewChat) {}

func (d *DiscordSink) NotifyResult(_ context.Context, event detector.DetectorResult) {
	for _, decision := range event.Decisions {
		if decision.Decision.Kind == ytlive.DecisionClear {
			continue
		}
		content := fmt.Sprintf("video `%s`: user `%s` flagged (%s, avg=%.2f)",
			event.VideoID, decision.ChannelID, decisionLabel(decision.Decision.Kind), decision.Decision.AvgValue)

		if _, err := d.session.WebhookExecute(d.webhookID, d.webhookToken, false, &discordgo.WebhookParams{
			Content: content,
		}); err != nil {
			logctl.Warn(component, "discord webhook failed", map[string]any{"error": err.Error()})
		}
	}
}

func (d *DiscordSink) NotifyChatClosed(context.Context, detector.ChatClosed) {}

func decisionLabel(kind ytlive.DecisionKind) string {
	switch kind {
	case ytlive.DecisionClear:
		return "clear"
	case ytlive.DecisionTooFast:
		return "too_fast"
	case ytlive.DecisionTooLong:
		return "too_long"
	case ytlive.DecisionTooManyDeleted:
		return "too_many_deleted"
	case ytlive.DecisionSimilar:
		return "similar"
	case ytlive.DecisionBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}
