package detector

import (
	"github.com/google/uuid"

	"github.com/sipeed/chatwarden/internal/ytlive"
)

// IncMessage is the sealed union of messages the Detector Manager
// accepts.
type IncMessage interface {
	isIncMessage()
}

// ChatInit announces a newly opened chat for video, owned by channel.
// It must arrive before any NewBatch for the same video. RunID
// identifies the poller run that opened it, carried through to every
// OutMessage concerning video for correlation.
type ChatInit struct {
	Channel ytlive.ChannelID
	VideoID ytlive.VideoID
	RunID   uuid.UUID
}

// NewBatch delivers one batch of chat actions extracted from video's
// live chat poll.
type NewBatch struct {
	VideoID ytlive.VideoID
	Actions []ytlive.ChatAction
}

// StreamEnded announces that video's chat has closed; the detector
// drops all state for it.
type StreamEnded struct {
	VideoID ytlive.VideoID
}

// UpdateParams retroactively applies new thresholds to every tracked
// user across every active chat owned by channel, per spec's
// reanalysis rule. Chats for other channels are untouched.
type UpdateParams struct {
	Channel ytlive.ChannelID
	Params  ytlive.DetectorParams
}

// Close asks the manager to stop; it exits its run loop after
// draining nothing further.
type Close struct{}

func (ChatInit) isIncMessage()     {}
func (NewBatch) isIncMessage()     {}
func (StreamEnded) isIncMessage()  {}
func (UpdateParams) isIncMessage() {}
func (Close) isIncMessage()        {}

// OutMessage is the sealed union of messages the Detector Manager
// emits.
type OutMessage interface {
	isOutMessage()
}

// NewChat announces that the detector has started tracking video.
type NewChat struct {
	Channel ytlive.ChannelID
	VideoID ytlive.VideoID
	RunID   uuid.UUID
}

// UserDecision pairs a decision with the channel id it concerns.
type UserDecision struct {
	ChannelID ytlive.ChannelID
	Decision  ytlive.Decision
}

// DetectorResult reports every decision produced while processing one
// NewBatch (or one UpdateParams reanalysis pass) for video.
type DetectorResult struct {
	VideoID           ytlive.VideoID
	RunID             uuid.UUID
	ProcessedMessages int
	Decisions         []UserDecision
}

// ChatClosed announces that video's chat has stopped being tracked.
type ChatClosed struct {
	VideoID ytlive.VideoID
	RunID   uuid.UUID
}

func (NewChat) isOutMessage()        {}
func (DetectorResult) isOutMessage() {}
func (ChatClosed) isOutMessage()     {}
