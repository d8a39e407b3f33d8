package notify

import (
	"context"

	"github.com/sipeed/chatwarden/internal/detector"
	"github.com/sipeed/chatwarden/internal/fabric"
)

// Dispatcher drains one Detector Manager output stream and fans each
// event out to every registered Sink in turn.
type Dispatcher struct {
	sinks []Sink
}

// NewDispatcher builds a Dispatcher over sinks. The log sink is
// expected to always be present; callers append the optional sinks
// their configuration enables.
func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks}
}

// Run drains in until ctx is cancelled.
// The caller is responsible for calling in.Done() once Run returns,
// matching the same ownership rule every other actor's inbound Chan
// follows.
func (d *Dispatcher) Run(ctx context.Context, in *fabric.Chan[detector.OutMessage]) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-in.In():
			d.dispatch(ctx, msg)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, msg detector.OutMessage) {
	switch v := msg.(type) {
	case detector.NewChat:
		for _, s := range d.sinks {
			s.NotifyNewChat(ctx, v)
		}
	case detector.DetectorResult:
		for _, s := range d.sinks {
			s.NotifyResult(ctx, v)
		}
	case detector.ChatClosed:
		for _, s := range d.sinks {
			s.NotifyChatClosed(ctx, v)
		}
	}
}
