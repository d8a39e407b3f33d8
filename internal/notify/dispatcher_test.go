package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sipeed/chatwarden/internal/detector"
	"github.com/sipeed/chatwarden/internal/fabric"
	"github.com/sipeed/chatwarden/internal/ytlive"
)

type recordingSink struct {
	mu         sync.Mutex
	newChats   []detector.NewChat
	results    []detector.DetectorResult
	chatClosed []detector.ChatClosed
}

func (r *recordingSink) NotifyNewChat(_ context.Context, event detector.NewChat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.newChats = append(r.newChats, event)
}

func (r *recordingSink) NotifyResult(_ context.Context, event detector.DetectorResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, event)
}

func (r *recordingSink) NotifyChatClosed(_ context.Context, event detector.ChatClosed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chatClosed = append(r.chatClosed, event)
}

func (r *recordingSink) snapshot() (int, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.newChats), len(r.results), len(r.chatClosed)
}

func TestDispatcherFansOutToEverySink(t *testing.T) {
	in := fabric.New[detector.OutMessage]()
	defer in.Done()

	a, b := &recordingSink{}, &recordingSink{}
	d := NewDispatcher(a, b)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx, in)

	sender := in.Sender()
	sender.Send(ctx, detector.NewChat{Channel: "UC1", VideoID: "v1"})
	sender.Send(ctx, detector.DetectorResult{VideoID: "v1", Decisions: []detector.UserDecision{
		{ChannelID: "UC2", Decision: ytlive.Decision{Kind: ytlive.DecisionTooFast}},
	}})
	sender.Send(ctx, detector.ChatClosed{VideoID: "v1"})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		nc, res, cc := a.snapshot()
		nc2, res2, cc2 := b.snapshot()
		if nc == 1 && res == 1 && cc == 1 && nc2 == 1 && res2 == 1 && cc2 == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for both sinks to receive all three events")
}
