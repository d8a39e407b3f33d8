package controller

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sipeed/chatwarden/internal/chatmanager"
	"github.com/sipeed/chatwarden/internal/chatpoller"
	"github.com/sipeed/chatwarden/internal/detector"
	"github.com/sipeed/chatwarden/internal/fabric"
	"github.com/sipeed/chatwarden/internal/streamfinder"
	"github.com/sipeed/chatwarden/internal/ytlive"
)

func TestHandleRoutesAddChannelToStreamFinderOnly(t *testing.T) {
	sfChan := fabric.New[streamfinder.IncMessage]()
	defer sfChan.Done()
	cmChan := fabric.New[chatmanager.IncMessage]()
	defer cmChan.Done()

	c := &Controller{streamFinderTx: sfChan.Sender(), chatManagerTx: cmChan.Sender(), detectorTx: fabric.New[detector.IncMessage]().Sender()}

	c.handle(context.Background(), AddChannel{Channel: "UC1"})

	select {
	case msg := <-sfChan.In():
		add, ok := msg.(streamfinder.AddChannel)
		if !ok || add.Channel != "UC1" {
			t.Errorf("stream finder got %+v, want AddChannel{UC1}", msg)
		}
	default:
		t.Fatal("expected stream finder to receive AddChannel")
	}

	select {
	case msg := <-cmChan.In():
		t.Errorf("chat manager should not receive AddChannel, got %+v", msg)
	default:
	}
}

func TestHandleRoutesUpdateUserAgentToBothFinderAndChatManager(t *testing.T) {
	sfChan := fabric.New[streamfinder.IncMessage]()
	defer sfChan.Done()
	cmChan := fabric.New[chatmanager.IncMessage]()
	defer cmChan.Done()

	c := &Controller{streamFinderTx: sfChan.Sender(), chatManagerTx: cmChan.Sender(), detectorTx: fabric.New[detector.IncMessage]().Sender()}

	c.handle(context.Background(), UpdateUserAgent{UserAgent: "new-ua"})

	select {
	case msg := <-sfChan.In():
		ua, ok := msg.(streamfinder.UpdateUserAgent)
		if !ok || ua.UserAgent != "new-ua" {
			t.Errorf("stream finder got %+v", msg)
		}
	default:
		t.Fatal("expected stream finder to receive UpdateUserAgent")
	}

	select {
	case msg := <-cmChan.In():
		ua, ok := msg.(chatmanager.UpdateUserAgent)
		if !ok || ua.UserAgent != "new-ua" {
			t.Errorf("chat manager got %+v", msg)
		}
	default:
		t.Fatal("expected chat manager to receive UpdateUserAgent")
	}
}

func TestHandleRoutesUpdateDetectorParamsToDetectorOnly(t *testing.T) {
	detChan := fabric.New[detector.IncMessage]()
	defer detChan.Done()

	c := &Controller{
		streamFinderTx: fabric.New[streamfinder.IncMessage]().Sender(),
		chatManagerTx:  fabric.New[chatmanager.IncMessage]().Sender(),
		detectorTx:     detChan.Sender(),
	}

	params := ytlive.DefaultDetectorParams()
	params.DeletedMessagesThreshold = 99
	c.handle(context.Background(), UpdateDetectorParams{Channel: "UC1", Params: params})

	select {
	case msg := <-detChan.In():
		up, ok := msg.(detector.UpdateParams)
		if !ok || up.Channel != "UC1" || up.Params.DeletedMessagesThreshold != 99 {
			t.Errorf("detector got %+v", msg)
		}
	default:
		t.Fatal("expected detector to receive UpdateParams")
	}
}

func TestHandleCloseReturnsTrue(t *testing.T) {
	c := &Controller{}
	if !c.handle(context.Background(), Close{}) {
		t.Error("handle(Close{}) = false, want true")
	}
}

func TestForwardFinderToChatManagerTranslatesFoundStreams(t *testing.T) {
	finderOut := fabric.New[streamfinder.OutMessage]()
	cmChan := fabric.New[chatmanager.IncMessage]()
	defer cmChan.Done()

	c := &Controller{
		chatManagerTx:    cmChan.Sender(),
		finderToChatDone: make(chan struct{}),
		finderToChatStop: make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.forwardFinderToChatManager(ctx, finderOut)

	finderOut.Sender().Send(ctx, streamfinder.FoundStreams{
		Channel: "UC1",
		Streams: map[ytlive.VideoID]struct{}{"v1": {}},
	})

	select {
	case msg := <-cmChan.In():
		fs, ok := msg.(chatmanager.FoundStreams)
		if !ok || fs.Channel != "UC1" {
			t.Errorf("got %+v, want chatmanager.FoundStreams{UC1,...}", msg)
		}
		if _, tracked := fs.Streams["v1"]; !tracked {
			t.Errorf("expected v1 carried through, got %+v", fs.Streams)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for forwarded FoundStreams")
	}

	close(c.finderToChatStop)
	select {
	case <-c.finderToChatDone:
	case <-time.After(time.Second):
		t.Fatal("forwarder did not stop after finderToChatStop closed")
	}
}

func TestForwardPollersToDetectorTranslatesEveryVariant(t *testing.T) {
	pollerOut := fabric.New[chatpoller.OutMessage]()
	detChan := fabric.New[detector.IncMessage]()
	defer detChan.Done()

	c := &Controller{
		detectorTx:         detChan.Sender(),
		chatToDetectorDone: make(chan struct{}),
		chatToDetectorStop: make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.forwardPollersToDetector(ctx, pollerOut)

	runID := uuid.New()
	sender := pollerOut.Sender()
	sender.Send(ctx, chatpoller.ChatInit{Channel: "UC1", VideoID: "v1", RunID: runID})
	sender.Send(ctx, chatpoller.NewBatch{VideoID: "v1", Actions: []ytlive.ChatAction{ytlive.DeleteMessage{MessageID: "m1"}}})
	sender.Send(ctx, chatpoller.StreamEnded{VideoID: "v1"})

	want := []func(detector.IncMessage) bool{
		func(m detector.IncMessage) bool {
			v, ok := m.(detector.ChatInit)
			return ok && v.Channel == "UC1" && v.VideoID == "v1" && v.RunID == runID
		},
		func(m detector.IncMessage) bool { v, ok := m.(detector.NewBatch); return ok && v.VideoID == "v1" && len(v.Actions) == 1 },
		func(m detector.IncMessage) bool { v, ok := m.(detector.StreamEnded); return ok && v.VideoID == "v1" },
	}
	for i, check := range want {
		select {
		case msg := <-detChan.In():
			if !check(msg) {
				t.Errorf("message %d: got %+v, did not match expected shape", i, msg)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for forwarded message %d", i)
		}
	}

	close(c.chatToDetectorStop)
	select {
	case <-c.chatToDetectorDone:
	case <-time.After(time.Second):
		t.Fatal("forwarder did not stop after chatToDetectorStop closed")
	}
}

func TestControllerCloseRunsShutdownSequence(t *testing.T) {
	out := fabric.New[detector.OutMessage]()
	defer out.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// No channel is added, so the Stream Finder's immediate first poll
	// makes no request, and a one-hour poll interval keeps it from
	// polling again during this test.
	c := New(ctx, ytlive.RequestSettings{UserAgent: "ua"}, ytlive.DefaultDetectorParams(), time.Hour, 5, out.Sender())

	c.Sender().Send(ctx, Close{})

	done := make(chan struct{})
	go func() {
		c.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("controller did not fully stop after Close")
	}
}
