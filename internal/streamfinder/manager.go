// Package streamfinder implements the Stream Finder actor: it polls
// every watched channel's discovery page on a fixed interval and
// reports the set of video ids currently live or scheduled.
package streamfinder

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sipeed/chatwarden/internal/fabric"
	"github.com/sipeed/chatwarden/internal/httpx"
	"github.com/sipeed/chatwarden/internal/logctl"
	"github.com/sipeed/chatwarden/internal/ytextract"
	"github.com/sipeed/chatwarden/internal/ytlive"
)

const component = "streamfinder"

func discoveryURL(channel ytlive.ChannelID) string {
	return fmt.Sprintf("https://www.youtube.com/channel/%s/videos?view=57", channel)
}

// Manager is the Stream Finder actor.
type Manager struct {
	in           *fabric.Chan[IncMessage]
	out          *fabric.Sender[OutMessage]
	http         *httpx.Client
	settings     ytlive.RequestSettings
	channels     map[ytlive.ChannelID]string
	pollInterval time.Duration
	nextPollTime time.Time
}

// New constructs a Manager. http is shared with every other actor
// that makes outbound requests; settings seeds the outbound identity.
func New(client *httpx.Client, settings ytlive.RequestSettings, pollInterval time.Duration, out *fabric.Sender[OutMessage]) *Manager {
	return &Manager{
		in:           fabric.New[IncMessage](),
		out:          out,
		http:         client,
		settings:     settings,
		channels:     make(map[ytlive.ChannelID]string),
		pollInterval: pollInterval,
		nextPollTime: time.Now(),
	}
}

// Sender returns the Sender used to deliver IncMessages to this
// finder.
func (m *Manager) Sender() *fabric.Sender[IncMessage] {
	return m.in.Sender()
}

// Run services control messages until the poll deadline, then fans
// out discovery GETs across every tracked channel concurrently. It
// exits on Close or context cancellation, always closing its inbound
// Chan so any blocked Sender unblocks with ErrClosed.
func (m *Manager) Run(ctx context.Context) {
	defer m.in.Done()
	logctl.Info(component, "starting", map[string]any{"poll_interval": m.pollInterval.String()})

	timer := time.NewTimer(time.Until(m.nextPollTime))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logctl.Info(component, "stopping: context cancelled", nil)
			return
		case msg, ok := <-m.in.In():
			if !ok {
				return
			}
			if m.handleControl(msg) {
				logctl.Info(component, "stopping: close received", nil)
				return
			}
			continue
		case <-timer.C:
		}

		m.pollChannels(ctx)
		m.nextPollTime = time.Now().Add(m.pollInterval)
		timer.Reset(time.Until(m.nextPollTime))
	}
}

// handleControl applies one control message, returning true if the
// finder should stop.
func (m *Manager) handleControl(msg IncMessage) bool {
	switch v := msg.(type) {
	case Close:
		return true

	case AddChannel:
		m.channels[v.Channel] = discoveryURL(v.Channel)

	case RemoveChannel:
		delete(m.channels, v.Channel)

	case UpdatePollInterval:
		m.pollInterval = time.Duration(v.Millis) * time.Millisecond

	case UpdateUserAgent:
		m.settings.UserAgent = v.UserAgent

	case UpdateBrowserVersion:
		m.settings.BrowserVersion = v.Version

	case UpdateBrowserNameAndVersion:
		m.settings.BrowserName = v.Name
		m.settings.BrowserVersion = v.Version
	}
	return false
}

// pollChannels performs one discovery round: every tracked channel is
// GET'd concurrently, and a FoundStreams is published per channel as
// each finishes.
func (m *Manager) pollChannels(ctx context.Context) {
	var wg sync.WaitGroup
	for channel, url := range m.channels {
		wg.Add(1)
		go func(channel ytlive.ChannelID, url string) {
			defer wg.Done()
			streams := m.loadStreams(ctx, channel, url)
			m.publish(ctx, FoundStreams{Channel: channel, Streams: streams})
		}(channel, url)
	}
	wg.Wait()
}

// loadStreams fetches and parses one channel's discovery page. Any
// failure is isolated: it is logged and an empty set is returned so
// one bad channel never blocks the others.
func (m *Manager) loadStreams(ctx context.Context, channel ytlive.ChannelID, url string) map[ytlive.VideoID]struct{} {
	page, err := m.http.Get(ctx, url, m.settings.UserAgent)
	if err != nil {
		logctl.Warn(component, "failed to load channel discovery page", map[string]any{
			"channel": string(channel),
			"error":   err.Error(),
		})
		return map[ytlive.VideoID]struct{}{}
	}

	rawList, ok := ytextract.ExtractVideoList(page)
	if !ok {
		// No scheduled or airing streams/premiers right now.
		return map[ytlive.VideoID]struct{}{}
	}

	ids, err := ytextract.ParseVideoList(rawList)
	if err != nil {
		dumpChannelPage(channel, page)
		logctl.Warn(component, "failed to parse video list", map[string]any{
			"channel": string(channel),
			"error":   err.Error(),
		})
		return map[ytlive.VideoID]struct{}{}
	}

	streams := make(map[ytlive.VideoID]struct{}, len(ids))
	for id := range ids {
		streams[ytlive.VideoID(id)] = struct{}{}
	}
	return streams
}

// dumpChannelPage writes the raw discovery page to <channel>.channel
// for offline investigation when the embedded video list fails to
// parse against the known shape.
func dumpChannelPage(channel ytlive.ChannelID, page string) {
	path := string(channel) + ".channel"
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		logctl.Warn(component, "failed to dump channel page", map[string]any{
			"channel": string(channel),
			"path":    path,
			"error":   err.Error(),
		})
	}
}

func (m *Manager) publish(ctx context.Context, msg OutMessage) {
	if _, err := m.out.Send(ctx, msg); err != nil {
		logctl.Warn(component, "failed to publish result", map[string]any{"error": err.Error()})
	}
}
