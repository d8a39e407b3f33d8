package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/sipeed/chatwarden/internal/detector"
	"github.com/sipeed/chatwarden/internal/logctl"
	"github.com/sipeed/chatwarden/internal/ytlive"
)

// SlackSink posts flagged decisions to a Slack channel via an
// incoming webhook, the same restrained scope as DiscordSink.
type SlackSink struct {
	webhookURL string
}

// NewSlackSink builds a sink from an incoming webhook URL.
func NewSlackSink(webhookURL string) *SlackSink {
	return &SlackSink{webhookURL: webhookURL}
}

func (s *SlackSink) NotifyNewChat(context.Context, detector.NewChat) {}

func (s *SlackSink) NotifyResult(_ context.Context, event detector.DetectorResult) {
	for _, decision := range event.Decisions {
		if decision.Decision.Kind == ytlive.DecisionClear {
			continue
		}
		text := fmt.Sprintf("video `%s`: user `%s` flagged (%s, avg=%.2f)",
			event.VideoID, decision.ChannelID, decisionLabel(decision.Decision.Kind), decision.Decision.AvgValue)

		if err := slack.PostWebhook(s.webhookURL, &slack.WebhookMessage{Text: text}); err != nil {
			logctl.Warn(component, "slack webhook failed", map[string]any{"error": err.Error()})
		}
	}
}

func (s *SlackSink) NotifyChatClosed(context.Context, detector.ChatClosed) {}
