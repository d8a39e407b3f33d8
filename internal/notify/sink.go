// Package notify fans Detector Manager output out to one or more
// sinks: an always-on log sink plus any optional sink the operator
// has configured (Discord, Slack, a SQLite audit log).
package notify

import (
	"context"

	"github.com/sipeed/chatwarden/internal/detector"
)

const component = "notify"

// Sink receives every Detector Manager event. Implementations must
// not block the dispatcher for long — a slow sink (a webhook call, a
// disk write) delays every other sink's delivery of the same event.
type Sink interface {
	NotifyNewChat(ctx context.Context, event detector.NewChat)
	NotifyResult(ctx context.Context, event detector.DetectorResult)
	NotifyChatClosed(ctx context.Context, event detector.ChatClosed)
}
