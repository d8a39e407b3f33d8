package notify

import (
	"context"

	"github.com/sipeed/chatwarden/internal/detector"
	"github.com/sipeed/chatwarden/internal/logctl"
)

// LogSink records every event through logctl. It is always registered
// regardless of which optional sinks are configured.
type LogSink struct{}

func (LogSink) NotifyNewChat(_ context.Context, event detector.NewChat) {
	logctl.Info(component, "chat opened", map[string]any{
		"channel":  string(event.Channel),
		"video_id": string(event.VideoID),
		"run_id":   event.RunID.String(),
	})
}

func (LogSink) NotifyResult(_ context.Context, event detector.DetectorResult) {
	for _, d := range event.Decisions {
		logctl.Info(component, "decision", map[string]any{
			"video_id":     string(event.VideoID),
			"run_id":       event.RunID.String(),
			"user_channel": string(d.ChannelID),
			"kind":         d.Decision.Kind,
			"avg_value":    d.Decision.AvgValue,
		})
	}
}

func (LogSink) NotifyChatClosed(_ context.Context, event detector.ChatClosed) {
	logctl.Info(component, "chat closed", map[string]any{"video_id": string(event.VideoID), "run_id": event.RunID.String()})
}
