package chatpoller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sipeed/chatwarden/internal/fabric"
	"github.com/sipeed/chatwarden/internal/httpx"
	"github.com/sipeed/chatwarden/internal/ytextract"
	"github.com/sipeed/chatwarden/internal/ytlive"
)

func newTestPoller(t *testing.T, handler http.HandlerFunc) (*Poller, *fabric.Chan[OutMessage]) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	out := fabric.New[OutMessage]()
	t.Cleanup(out.Done)

	p := &Poller{
		channel:      "UC1",
		videoID:      "v1",
		http:         httpx.New(1000),
		settings:     ytlive.RequestSettings{UserAgent: "test-agent"},
		refererURL:   srv.URL,
		endpointURL:  srv.URL,
		nextPollTime: time.Now(),
		params:       ytextract.NewChatParams(ytextract.ChatParamsInput{VideoID: "v1", Continuation: "cont-0"}),
		in:           fabric.New[IncMessage](),
		out:          out.Sender(),
	}
	return p, out
}

func TestPollOnceEmitsNewBatchAndAdvancesContinuation(t *testing.T) {
	p, out := newTestPoller(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"continuationContents":{"liveChatContinuation":{
			"continuations":[{"timedContinuationData":{"timeoutMs":"5000","continuation":"cont-1"}}],
			"actions":[{"markChatItemAsDeletedAction":{"targetItemId":"m1"}}]
		}}}`))
	})

	ended, err := p.pollOnce(context.Background())
	if err != nil {
		t.Fatalf("pollOnce error = %v", err)
	}
	if ended {
		t.Fatal("expected ended = false")
	}
	if p.params.Continuation != "cont-1" {
		t.Errorf("continuation = %q, want cont-1", p.params.Continuation)
	}

	select {
	case msg := <-out.In():
		batch, ok := msg.(NewBatch)
		if !ok || batch.VideoID != "v1" || len(batch.Actions) != 1 {
			t.Errorf("got %+v, want NewBatch{v1, 1 action}", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for NewBatch")
	}
}

func TestPollOnceDetectsStreamEnded(t *testing.T) {
	p, _ := newTestPoller(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	ended, err := p.pollOnce(context.Background())
	if err != nil {
		t.Fatalf("pollOnce error = %v", err)
	}
	if !ended {
		t.Error("expected ended = true when continuationContents is absent")
	}
}

func TestPostWithRetryFailsAfterThreeAttempts(t *testing.T) {
	attempts := 0
	p, _ := newTestPoller(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := p.postWithRetry(context.Background())
	if err == nil {
		t.Fatal("expected error after repeated failures")
	}
	if attempts != maxConsecutivePollErrors {
		t.Errorf("attempts = %d, want %d", attempts, maxConsecutivePollErrors)
	}
}

func TestRunEmitsStreamEndedOnClose(t *testing.T) {
	p, out := newTestPoller(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	p.nextPollTime = time.Now().Add(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	if _, err := p.Sender().Send(ctx, Close{}); err != nil {
		t.Fatalf("Send Close error = %v", err)
	}

	select {
	case msg := <-out.In():
		if _, ok := msg.(StreamEnded); !ok {
			t.Errorf("got %+v, want StreamEnded", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for StreamEnded")
	}
}

func TestHandleControlUpdatesSettings(t *testing.T) {
	p, _ := newTestPoller(t, func(w http.ResponseWriter, r *http.Request) {})

	if p.handleControl(UpdateUserAgent{UserAgent: "new-agent"}) {
		t.Fatal("UpdateUserAgent should not stop the poller")
	}
	if p.settings.UserAgent != "new-agent" {
		t.Errorf("UserAgent = %q, want new-agent", p.settings.UserAgent)
	}
	if !p.handleControl(Close{}) {
		t.Error("Close should stop the poller")
	}
}
