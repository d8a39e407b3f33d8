package chatmanager

import (
	"context"
	"testing"
	"time"

	"github.com/sipeed/chatwarden/internal/chatpoller"
	"github.com/sipeed/chatwarden/internal/fabric"
	"github.com/sipeed/chatwarden/internal/httpx"
	"github.com/sipeed/chatwarden/internal/ytlive"
)

func TestFoundStreamsSkipsAlreadyTrackedVideo(t *testing.T) {
	out := fabric.New[chatpoller.OutMessage]()
	defer out.Done()
	m := New(httpx.New(1000), ytlive.RequestSettings{UserAgent: "ua"}, out.Sender())
	m.pollers["v1"] = &trackedPoller{sender: fabric.New[chatpoller.IncMessage]().Sender()}

	m.handle(context.Background(), FoundStreams{
		Channel: "UC1",
		Streams: map[ytlive.VideoID]struct{}{"v1": {}},
	})

	if len(m.pollers) != 1 {
		t.Errorf("expected already-tracked video left untouched, pollers = %d", len(m.pollers))
	}
}

func TestBroadcastReapsDeadPoller(t *testing.T) {
	out := fabric.New[chatpoller.OutMessage]()
	defer out.Done()
	m := New(httpx.New(1000), ytlive.RequestSettings{UserAgent: "ua"}, out.Sender())

	deadChan := fabric.New[chatpoller.IncMessage]()
	deadChan.Done() // simulate a poller that has already exited
	m.pollers["v1"] = &trackedPoller{sender: deadChan.Sender()}

	m.broadcast(context.Background(), chatpoller.Ping{})

	if len(m.pollers) != 0 {
		t.Errorf("expected dead poller reaped, pollers = %d", len(m.pollers))
	}
}

func TestUpdateUserAgentUpdatesSettingsAndBroadcasts(t *testing.T) {
	out := fabric.New[chatpoller.OutMessage]()
	defer out.Done()
	m := New(httpx.New(1000), ytlive.RequestSettings{UserAgent: "old"}, out.Sender())

	pollerIn := fabric.New[chatpoller.IncMessage]()
	defer pollerIn.Done()
	m.pollers["v1"] = &trackedPoller{sender: pollerIn.Sender()}

	m.handle(context.Background(), UpdateUserAgent{UserAgent: "new"})

	select {
	case msg := <-pollerIn.In():
		ua, ok := msg.(chatpoller.UpdateUserAgent)
		if !ok || ua.UserAgent != "new" {
			t.Errorf("got %+v, want UpdateUserAgent{new}", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast UpdateUserAgent")
	}
	if m.settings.UserAgent != "new" {
		t.Errorf("settings.UserAgent = %q, want new", m.settings.UserAgent)
	}
}

func TestManagerStopsOnClose(t *testing.T) {
	out := fabric.New[chatpoller.OutMessage]()
	defer out.Done()
	m := New(httpx.New(1000), ytlive.RequestSettings{UserAgent: "ua"}, out.Sender())

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
