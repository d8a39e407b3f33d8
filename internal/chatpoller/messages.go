package chatpoller

import (
	"github.com/google/uuid"

	"github.com/sipeed/chatwarden/internal/ytlive"
)

// IncMessage is the sealed union of control messages one poller
// accepts.
type IncMessage interface {
	isIncMessage()
}

// UpdateUserAgent changes the outbound User-Agent, effective on the
// next poll's POST.
type UpdateUserAgent struct {
	UserAgent string
}

// UpdateBrowserVersion changes the browser version reported in the
// chat params body.
type UpdateBrowserVersion struct {
	Version string
}

// UpdateBrowserNameAndVersion changes both the browser name and
// version reported in the chat params body.
type UpdateBrowserNameAndVersion struct {
	Name    string
	Version string
}

// Ping is a no-op the Chat Manager broadcasts periodically; a poller
// that can no longer be reached fails the send, which is how the
// manager detects it has died.
type Ping struct{}

// Close asks the poller to stop after its current action, if any,
// and exit its run loop.
type Close struct{}

func (UpdateUserAgent) isIncMessage()             {}
func (UpdateBrowserVersion) isIncMessage()        {}
func (UpdateBrowserNameAndVersion) isIncMessage() {}
func (Ping) isIncMessage()                        {}
func (Close) isIncMessage()                       {}

// OutMessage is the sealed union of messages a poller emits. These
// flow directly to the Detector Manager (via a thin forwarding step
// in the controller), never back through the Chat Manager.
type OutMessage interface {
	isOutMessage()
}

// ChatInit announces that a poller has started tracking video, owned
// by channel. Always emitted before any NewBatch for the same video.
// RunID identifies this poller's run for correlating its later
// NewBatch/StreamEnded output (and whatever they become downstream)
// back to one another in logs and audit records.
type ChatInit struct {
	Channel ytlive.ChannelID
	VideoID ytlive.VideoID
	RunID   uuid.UUID
}

// NewBatch delivers one batch of chat actions extracted from the
// poller's most recent continuation response.
type NewBatch struct {
	VideoID ytlive.VideoID
	Actions []ytlive.ChatAction
}

// StreamEnded announces that video's chat has stopped; always
// emitted exactly once as the poller's last message, regardless of
// why it is exiting.
type StreamEnded struct {
	VideoID ytlive.VideoID
}

func (ChatInit) isOutMessage()    {}
func (NewBatch) isOutMessage()    {}
func (StreamEnded) isOutMessage() {}
