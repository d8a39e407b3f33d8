// Package controller wires the four actors (Stream Finder, Chat
// Manager, Chat Poller, Detector Manager) into one running pipeline,
// routes external commands to whichever actor owns them, and joins
// every task on shutdown leaves-first.
package controller

import (
	"context"
	"time"

	"github.com/sipeed/chatwarden/internal/chatmanager"
	"github.com/sipeed/chatwarden/internal/chatpoller"
	"github.com/sipeed/chatwarden/internal/detector"
	"github.com/sipeed/chatwarden/internal/fabric"
	"github.com/sipeed/chatwarden/internal/httpx"
	"github.com/sipeed/chatwarden/internal/logctl"
	"github.com/sipeed/chatwarden/internal/streamfinder"
	"github.com/sipeed/chatwarden/internal/ytlive"
)

const component = "controller"

// Controller is the top-level supervisor. It is already running once
// New returns: every actor and forwarding goroutine has been started.
type Controller struct {
	in      *fabric.Chan[IncMessage]
	stopped chan struct{}

	streamFinderTx *fabric.Sender[streamfinder.IncMessage]
	chatManagerTx  *fabric.Sender[chatmanager.IncMessage]
	detectorTx     *fabric.Sender[detector.IncMessage]

	streamFinderDone chan struct{}
	chatManagerDone  chan struct{}
	detectorDone     chan struct{}

	finderToChatDone chan struct{}
	finderToChatStop chan struct{}

	chatToDetectorDone chan struct{}
	chatToDetectorStop chan struct{}
}

// New builds the pipeline and starts it. settings and defaultParams
// seed the Stream Finder/Chat Manager's outbound identity and the
// Detector Manager's stock thresholds, respectively. out receives
// every Detector Manager result; the caller owns out's lifecycle and
// must keep draining it for the life of the Controller.
func New(
	ctx context.Context,
	settings ytlive.RequestSettings,
	defaultParams ytlive.DetectorParams,
	streamPollInterval time.Duration,
	requestsPerSecond float64,
	out *fabric.Sender[detector.OutMessage],
) *Controller {
	client := httpx.New(requestsPerSecond)

	det := detector.New(defaultParams, out)

	pollerOut := fabric.New[chatpoller.OutMessage]()
	cm := chatmanager.New(client, settings, pollerOut.Sender())

	finderOut := fabric.New[streamfinder.OutMessage]()
	sf := streamfinder.New(client, settings, streamPollInterval, finderOut.Sender())

	c := &Controller{
		in:      fabric.New[IncMessage](),
		stopped: make(chan struct{}),

		streamFinderTx: sf.Sender(),
		chatManagerTx:  cm.Sender(),
		detectorTx:     det.Sender(),

		streamFinderDone: make(chan struct{}),
		chatManagerDone:  make(chan struct{}),
		detectorDone:     make(chan struct{}),

		finderToChatDone: make(chan struct{}),
		finderToChatStop: make(chan struct{}),

		chatToDetectorDone: make(chan struct{}),
		chatToDetectorStop: make(chan struct{}),
	}

	go func() { defer close(c.streamFinderDone); sf.Run(ctx) }()
	go func() { defer close(c.chatManagerDone); cm.Run(ctx) }()
	go func() { defer close(c.detectorDone); det.Run(ctx) }()

	go c.forwardFinderToChatManager(ctx, finderOut)
	go c.forwardPollersToDetector(ctx, pollerOut)

	go c.run(ctx)

	return c
}

// Sender returns the Sender used to deliver external commands to the
// controller.
func (c *Controller) Sender() *fabric.Sender[IncMessage] {
	return c.in.Sender()
}

// Wait blocks until the controller and every actor it owns has fully
// stopped, which only happens after a Close command or ctx
// cancellation runs the shutdown sequence to completion.
func (c *Controller) Wait() {
	<-c.stopped
}

// forwardFinderToChatManager carries every FoundStreams the Stream
// Finder produces into the Chat Manager's inbound queue, translating
// the message type across the package boundary. It stops once told
// to via finderToChatStop (after the Stream Finder itself has been
// closed) or once the Chat Manager is no longer reachable.
func (c *Controller) forwardFinderToChatManager(ctx context.Context, finderOut *fabric.Chan[streamfinder.OutMessage]) {
	defer close(c.finderToChatDone)
	defer finderOut.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.finderToChatStop:
			return
		case msg := <-finderOut.In():
			fs, ok := msg.(streamfinder.FoundStreams)
			if !ok {
				continue
			}
			if _, err := c.chatManagerTx.Send(ctx, chatmanager.FoundStreams{
				Channel: fs.Channel,
				Streams: fs.Streams,
			}); err != nil {
				logctl.Warn(component, "chat manager unreachable, stopping forwarder", map[string]any{"error": err.Error()})
				return
			}
		}
	}
}

// forwardPollersToDetector carries every message a Chat Poller
// produces — shared across all pollers via pollerOut — into the
// Detector Manager's inbound queue. It stops once told to via
// chatToDetectorStop (after the Chat Manager has closed every
// poller) or once the Detector Manager is no longer reachable.
func (c *Controller) forwardPollersToDetector(ctx context.Context, pollerOut *fabric.Chan[chatpoller.OutMessage]) {
	defer close(c.chatToDetectorDone)
	defer pollerOut.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.chatToDetectorStop:
			return
		case msg := <-pollerOut.In():
			var out detector.IncMessage
			switch v := msg.(type) {
			case chatpoller.ChatInit:
				out = detector.ChatInit{Channel: v.Channel, VideoID: v.VideoID, RunID: v.RunID}
			case chatpoller.NewBatch:
				out = detector.NewBatch{VideoID: v.VideoID, Actions: v.Actions}
			case chatpoller.StreamEnded:
				out = detector.StreamEnded{VideoID: v.VideoID}
			default:
				continue
			}
			if _, err := c.detectorTx.Send(ctx, out); err != nil {
				logctl.Warn(component, "detector unreachable, stopping forwarder", map[string]any{"error": err.Error()})
				return
			}
		}
	}
}

// run services external commands until Close or ctx cancellation,
// then runs the shutdown sequence before closing stopped.
func (c *Controller) run(ctx context.Context) {
	defer close(c.stopped)
	logctl.Info(component, "starting", nil)

	for {
		select {
		case <-ctx.Done():
			logctl.Info(component, "stopping: context cancelled", nil)
			c.shutdown(ctx)
			return
		case msg, ok := <-c.in.In():
			if !ok {
				c.shutdown(ctx)
				return
			}
			if c.handle(ctx, msg) {
				c.shutdown(ctx)
				return
			}
		}
	}
}

// handle routes one external command, returning true if the
// controller should begin shutting down.
func (c *Controller) handle(ctx context.Context, msg IncMessage) bool {
	switch v := msg.(type) {
	case Close:
		return true

	case AddChannel:
		route(ctx, c.streamFinderTx, streamfinder.AddChannel{Channel: v.Channel}, "stream_finder")

	case RemoveChannel:
		route(ctx, c.streamFinderTx, streamfinder.RemoveChannel{Channel: v.Channel}, "stream_finder")

	case UpdateStreamPollInterval:
		route(ctx, c.streamFinderTx, streamfinder.UpdatePollInterval{Millis: v.Millis}, "stream_finder")

	case UpdateUserAgent:
		route(ctx, c.streamFinderTx, streamfinder.UpdateUserAgent{UserAgent: v.UserAgent}, "stream_finder")
		route(ctx, c.chatManagerTx, chatmanager.UpdateUserAgent{UserAgent: v.UserAgent}, "chat_manager")

	case UpdateBrowserVersion:
		route(ctx, c.streamFinderTx, streamfinder.UpdateBrowserVersion{Version: v.Version}, "stream_finder")
		route(ctx, c.chatManagerTx, chatmanager.UpdateBrowserVersion{Version: v.Version}, "chat_manager")

	case UpdateBrowserNameAndVersion:
		route(ctx, c.streamFinderTx, streamfinder.UpdateBrowserNameAndVersion{Name: v.Name, Version: v.Version}, "stream_finder")
		route(ctx, c.chatManagerTx, chatmanager.UpdateBrowserNameAndVersion{Name: v.Name, Version: v.Version}, "chat_manager")

	case UpdateDetectorParams:
		route(ctx, c.detectorTx, detector.UpdateParams{Channel: v.Channel, Params: v.Params}, "detector")
	}
	return false
}

// shutdown closes every actor leaves-first, awaiting each one (and
// the forwarder that depends on it) before moving on to the next, so
// no actor is closed while something can still be enqueuing work for
// it.
func (c *Controller) shutdown(ctx context.Context) {
	closeTask(ctx, c.streamFinderTx, streamfinder.Close{}, c.streamFinderDone, "stream_finder")
	close(c.finderToChatStop)
	awaitTask(c.finderToChatDone, "finder_to_chat_manager")

	closeTask(ctx, c.chatManagerTx, chatmanager.Close{}, c.chatManagerDone, "chat_manager")
	close(c.chatToDetectorStop)
	awaitTask(c.chatToDetectorDone, "chat_poller_to_detector")

	closeTask(ctx, c.detectorTx, detector.Close{}, c.detectorDone, "detector")

	logctl.Info(component, "closed", nil)
}

// route delivers msg to an actor's Sender, logging (not failing) if
// the actor is no longer reachable — a dead actor should never bring
// the controller itself down.
func route[T any](ctx context.Context, tx *fabric.Sender[T], msg T, target string) {
	if _, err := tx.Send(ctx, msg); err != nil {
		logctl.Warn(component, "failed to route command", map[string]any{"target": target, "error": err.Error()})
	}
}

// closeTask sends an actor its Close message and waits for its Run to
// return. A failed send (the actor already stopped on its own) is
// logged, not fatal: done is awaited regardless.
func closeTask[T any](ctx context.Context, tx *fabric.Sender[T], closeMsg T, done <-chan struct{}, name string) {
	if _, err := tx.Send(ctx, closeMsg); err != nil {
		logctl.Warn(component, "failed to send close, actor may have already stopped", map[string]any{"target": name, "error": err.Error()})
	}
	awaitTask(done, name)
}

func awaitTask(done <-chan struct{}, name string) {
	<-done
	logctl.Info(component, "task stopped", map[string]any{"target": name})
}
