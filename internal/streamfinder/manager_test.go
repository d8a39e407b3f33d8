package streamfinder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sipeed/chatwarden/internal/fabric"
	"github.com/sipeed/chatwarden/internal/httpx"
	"github.com/sipeed/chatwarden/internal/ytlive"
)

const liveChannelPage = `ytInitialData = {"contents":{"twoColumnBrowseResultsRenderer":{"tabs":[{"tabRenderer":{"content":{"sectionListRenderer":{"contents":[{"itemSectionRenderer":{"contents":[{"shelfRenderer":{"content":{"verticalListRenderer":{"items":[{"videoRenderer":{"videoId":"live1"}}]}}}}]}}]}}}}]}}};</script>`

const noStreamsPage = `<html>nothing here</html>`

func newTestManager(t *testing.T, handler http.HandlerFunc) (*Manager, *fabric.Chan[OutMessage]) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	out := fabric.New[OutMessage]()
	t.Cleanup(out.Done)
	client := httpx.New(1000)
	m := New(client, ytlive.RequestSettings{UserAgent: "test-agent"}, time.Hour, out.Sender())
	m.channels[ytlive.ChannelID("UCtest")] = srv.URL
	return m, out
}

func TestLoadStreamsParsesLiveVideos(t *testing.T) {
	m, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(liveChannelPage))
	})

	streams := m.loadStreams(context.Background(), "UCtest", m.channels["UCtest"])
	if _, ok := streams[ytlive.VideoID("live1")]; !ok {
		t.Errorf("expected live1 in streams, got %+v", streams)
	}
}

func TestLoadStreamsReturnsEmptyWhenNoVideoList(t *testing.T) {
	m, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(noStreamsPage))
	})

	streams := m.loadStreams(context.Background(), "UCtest", m.channels["UCtest"])
	if len(streams) != 0 {
		t.Errorf("expected no streams, got %+v", streams)
	}
}

func TestLoadStreamsIsolatesHTTPFailure(t *testing.T) {
	m, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	streams := m.loadStreams(context.Background(), "UCtest", m.channels["UCtest"])
	if len(streams) != 0 {
		t.Errorf("expected empty set on HTTP failure, got %+v", streams)
	}
}

func TestManagerPollsOnDeadlineAndEmitsFoundStreams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(liveChannelPage))
	}))
	defer srv.Close()

	out := fabric.New[OutMessage]()
	defer out.Done()
	client := httpx.New(1000)
	m := New(client, ytlive.RequestSettings{UserAgent: "test-agent"}, 10*time.Millisecond, out.Sender())

	// Track the channel directly against the test server URL rather
	// than via AddChannel, which always builds a real youtube.com
	// discovery URL.
	m.channels[ytlive.ChannelID("UCtest")] = srv.URL

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	select {
	case <-out.In():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for FoundStreams")
	}
}

func TestManagerStopsOnClose(t *testing.T) {
	out := fabric.New[OutMessage]()
	defer out.Done()
	client := httpx.New(1000)
	m := New(client, ytlive.RequestSettings{UserAgent: "test-agent"}, time.Hour, out.Sender())

	done := make(chan struct{})
	go func() {
		m.Run(context.Background())
		close(done)
	}()

	sender := m.Sender()
	sender.Send(context.Background(), Close{})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("manager did not stop after Close")
	}
}

func TestRemoveChannelStopsTrackingIt(t *testing.T) {
	out := fabric.New[OutMessage]()
	defer out.Done()
	client := httpx.New(1000)
	m := New(client, ytlive.RequestSettings{UserAgent: "test-agent"}, time.Hour, out.Sender())

	m.handleControl(AddChannel{Channel: "UCtest"})
	if _, ok := m.channels["UCtest"]; !ok {
		t.Fatal("expected channel tracked after AddChannel")
	}
	m.handleControl(RemoveChannel{Channel: "UCtest"})
	if _, ok := m.channels["UCtest"]; ok {
		t.Error("expected channel untracked after RemoveChannel")
	}
}
