package detector

import (
	"context"

	"github.com/google/uuid"

	"github.com/sipeed/chatwarden/internal/fabric"
	"github.com/sipeed/chatwarden/internal/logctl"
	"github.com/sipeed/chatwarden/internal/ytlive"
)

const component = "detector"

// Manager is the Detector Manager actor: one spamDetector per active
// video, grouped by owning channel so that per-channel DetectorParams
// (active_channels in spec terms) can be updated and retroactively
// applied without disturbing other channels' thresholds.
type Manager struct {
	in           *fabric.Chan[IncMessage]
	out          *fabric.Sender[OutMessage]
	defaultParams ytlive.DetectorParams
	channelParams map[ytlive.ChannelID]ytlive.DetectorParams
	chats         map[ytlive.VideoID]*spamDetector
	owners        map[ytlive.VideoID]ytlive.ChannelID
	runIDs        map[ytlive.VideoID]uuid.UUID
}

// New constructs a Manager. defaultParams seeds any channel that has
// not yet received an UpdateParams. out is the Sender the manager
// publishes results to; the caller owns its lifecycle.
func New(defaultParams ytlive.DetectorParams, out *fabric.Sender[OutMessage]) *Manager {
	return &Manager{
		in:            fabric.New[IncMessage](),
		out:           out,
		defaultParams: defaultParams,
		channelParams: make(map[ytlive.ChannelID]ytlive.DetectorParams),
		chats:         make(map[ytlive.VideoID]*spamDetector),
		owners:        make(map[ytlive.VideoID]ytlive.ChannelID),
		runIDs:        make(map[ytlive.VideoID]uuid.UUID),
	}
}

func (m *Manager) paramsFor(channel ytlive.ChannelID) ytlive.DetectorParams {
	if p, ok := m.channelParams[channel]; ok {
		return p
	}
	return m.defaultParams
}

// Sender returns the Sender used to deliver IncMessages to this
// manager.
func (m *Manager) Sender() *fabric.Sender[IncMessage] {
	return m.in.Sender()
}

// Run services incoming messages until it receives Close or ctx is
// cancelled. It always leaves by closing its inbound Chan so any
// blocked Sender unblocks with ErrClosed.
func (m *Manager) Run(ctx context.Context) {
	defer m.in.Done()
	logctl.Info(component, "manager starting", nil)

	for {
		select {
		case <-ctx.Done():
			logctl.Info(component, "manager stopping: context cancelled", nil)
			return
		case msg, ok := <-m.in.In():
			if !ok {
				return
			}
			if m.handle(ctx, msg) {
				logctl.Info(component, "manager stopping: close received", nil)
				return
			}
		}
	}
}

// handle processes one IncMessage, returning true if the manager
// should stop.
func (m *Manager) handle(ctx context.Context, msg IncMessage) bool {
	switch v := msg.(type) {
	case Close:
		return true

	case ChatInit:
		m.chats[v.VideoID] = newSpamDetector()
		m.owners[v.VideoID] = v.Channel
		m.runIDs[v.VideoID] = v.RunID
		if _, ok := m.channelParams[v.Channel]; !ok {
			m.channelParams[v.Channel] = m.defaultParams
		}
		m.publish(ctx, NewChat{Channel: v.Channel, VideoID: v.VideoID, RunID: v.RunID})

	case NewBatch:
		sd, ok := m.chats[v.VideoID]
		if !ok {
			logctl.Warn(component, "batch received before chat init", map[string]any{
				"video_id": string(v.VideoID),
			})
			return false
		}
		decisions, processed := sd.processNewMessages(v.Actions, m.paramsFor(m.owners[v.VideoID]))
		if len(decisions) > 0 {
			m.publish(ctx, DetectorResult{
				VideoID:           v.VideoID,
				RunID:             m.runIDs[v.VideoID],
				ProcessedMessages: processed,
				Decisions:         decisions,
			})
		}

	case StreamEnded:
		channel := m.owners[v.VideoID]
		runID := m.runIDs[v.VideoID]
		delete(m.chats, v.VideoID)
		delete(m.owners, v.VideoID)
		delete(m.runIDs, v.VideoID)
		m.publish(ctx, ChatClosed{VideoID: v.VideoID, RunID: runID})
		m.dropChannelParamsIfOrphaned(channel)

	case UpdateParams:
		m.channelParams[v.Channel] = v.Params
		for videoID, sd := range m.chats {
			if m.owners[videoID] != v.Channel {
				continue
			}
			decisions := sd.reanalyzeAll(v.Params)
			if len(decisions) > 0 {
				m.publish(ctx, DetectorResult{VideoID: videoID, RunID: m.runIDs[videoID], Decisions: decisions})
			}
		}
	}
	return false
}

// dropChannelParamsIfOrphaned removes channel's params once it has no
// remaining tracked video, matching the rule that ChannelData is
// dropped when its stream map empties (params may live on externally,
// but this manager holds no other durable store for them).
func (m *Manager) dropChannelParamsIfOrphaned(channel ytlive.ChannelID) {
	if channel == "" {
		return
	}
	for _, owner := range m.owners {
		if owner == channel {
			return
		}
	}
	delete(m.channelParams, channel)
}

func (m *Manager) publish(ctx context.Context, msg OutMessage) {
	if _, err := m.out.Send(ctx, msg); err != nil {
		logctl.Warn(component, "failed to publish result", map[string]any{"error": err.Error()})
	}
}
