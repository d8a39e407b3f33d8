// Package chatmanager implements the Chat Manager actor: it turns the
// Stream Finder's per-channel video sets into a Chat Poller per new
// video, fans request-settings updates out to every poller it owns,
// and periodically pings them to detect ones that have silently died.
package chatmanager

import (
	"context"
	"sync"
	"time"

	"github.com/sipeed/chatwarden/internal/chatpoller"
	"github.com/sipeed/chatwarden/internal/fabric"
	"github.com/sipeed/chatwarden/internal/httpx"
	"github.com/sipeed/chatwarden/internal/logctl"
	"github.com/sipeed/chatwarden/internal/ytlive"
)

const component = "chatmanager"

// livenessPeriod is how often the manager pings every tracked poller
// to detect one that has died without a clean StreamEnded handoff.
const livenessPeriod = 60 * time.Second

type trackedPoller struct {
	sender *fabric.Sender[chatpoller.IncMessage]
}

// Manager is the Chat Manager actor.
type Manager struct {
	in       *fabric.Chan[IncMessage]
	http     *httpx.Client
	settings ytlive.RequestSettings
	// pollerOut is shared by every poller this manager spawns; its
	// receiving end is owned by the controller's forwarding step into
	// the Detector Manager, never by this manager.
	pollerOut *fabric.Sender[chatpoller.OutMessage]
	pollers   map[ytlive.VideoID]*trackedPoller
	wg        sync.WaitGroup
}

// New constructs a Manager. pollerOut is the Sender every spawned
// poller publishes ChatInit/NewBatch/StreamEnded to.
func New(client *httpx.Client, settings ytlive.RequestSettings, pollerOut *fabric.Sender[chatpoller.OutMessage]) *Manager {
	return &Manager{
		in:        fabric.New[IncMessage](),
		http:      client,
		settings:  settings,
		pollerOut: pollerOut,
		pollers:   make(map[ytlive.VideoID]*trackedPoller),
	}
}

// Sender returns the Sender used to deliver IncMessages to this
// manager.
func (m *Manager) Sender() *fabric.Sender[IncMessage] {
	return m.in.Sender()
}

// Run services incoming messages, spawning/removing pollers and
// pinging them for liveness every livenessPeriod, until it receives
// Close or ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	defer m.in.Done()
	logctl.Info(component, "manager starting", nil)

	ticker := time.NewTicker(livenessPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logctl.Info(component, "stopping: context cancelled", nil)
			return
		case <-ticker.C:
			m.broadcast(ctx, chatpoller.Ping{})
		case msg, ok := <-m.in.In():
			if !ok {
				return
			}
			if m.handle(ctx, msg) {
				m.closeAllPollers(ctx)
				logctl.Info(component, "stopping: close received", nil)
				return
			}
		}
	}
}

// handle processes one IncMessage, returning true if the manager
// should stop (after closing every poller it still owns).
func (m *Manager) handle(ctx context.Context, msg IncMessage) bool {
	switch v := msg.(type) {
	case Close:
		return true

	case FoundStreams:
		for videoID := range v.Streams {
			if _, tracked := m.pollers[videoID]; tracked {
				continue
			}
			m.startPoller(ctx, v.Channel, videoID)
		}

	case UpdateUserAgent:
		m.settings.UserAgent = v.UserAgent
		m.broadcast(ctx, chatpoller.UpdateUserAgent{UserAgent: v.UserAgent})

	case UpdateBrowserVersion:
		m.settings.BrowserVersion = v.Version
		m.broadcast(ctx, chatpoller.UpdateBrowserVersion{Version: v.Version})

	case UpdateBrowserNameAndVersion:
		m.settings.BrowserName = v.Name
		m.settings.BrowserVersion = v.Version
		m.broadcast(ctx, chatpoller.UpdateBrowserNameAndVersion{Name: v.Name, Version: v.Version})
	}
	return false
}

// startPoller extracts chat params for videoID and, if successful,
// spawns its poller goroutine. Init failures (including ChatDisabled)
// are logged and non-fatal to the manager.
func (m *Manager) startPoller(ctx context.Context, channel ytlive.ChannelID, videoID ytlive.VideoID) {
	poller, started, err := chatpoller.Init(ctx, m.http, m.settings, channel, videoID, m.pollerOut)
	if err != nil {
		logctl.Warn(component, "failed to initialize chat poller", map[string]any{
			"video_id": string(videoID),
			"error":    err.Error(),
		})
		return
	}
	if !started {
		logctl.Info(component, "chat disabled for video", map[string]any{"video_id": string(videoID)})
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		poller.Run(ctx)
	}()
	m.pollers[videoID] = &trackedPoller{sender: poller.Sender()}
}

// broadcast sends msg to every tracked poller. A failed send means
// the poller's Run has already returned (its inbound Chan.Done was
// called), so it is reaped immediately — no separate join is needed,
// since the Chan's close-on-exit guarantee means the goroutine has
// already finished by the time Send observes it.
func (m *Manager) broadcast(ctx context.Context, msg chatpoller.IncMessage) {
	var dead []ytlive.VideoID
	for videoID, tracked := range m.pollers {
		if _, err := tracked.sender.Send(ctx, msg); err != nil {
			dead = append(dead, videoID)
		}
	}
	for _, videoID := range dead {
		logctl.Info(component, "reaping dead poller", map[string]any{"video_id": string(videoID)})
		delete(m.pollers, videoID)
	}
}

func (m *Manager) closeAllPollers(ctx context.Context) {
	logctl.Info(component, "closing all pollers", map[string]any{"count": len(m.pollers)})
	m.broadcast(ctx, chatpoller.Close{})
	m.pollers = make(map[ytlive.VideoID]*trackedPoller)
	m.wg.Wait()
}
