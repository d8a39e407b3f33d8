// Package chatpoller implements the per-video Chat Poller actor: it
// extracts the fixed chat-params request body from a video's live
// chat page once, then long-polls the continuation endpoint until the
// stream ends, is closed, or fails.
package chatpoller

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/sipeed/chatwarden/internal/fabric"
	"github.com/sipeed/chatwarden/internal/httpx"
	"github.com/sipeed/chatwarden/internal/logctl"
	"github.com/sipeed/chatwarden/internal/ytextract"
	"github.com/sipeed/chatwarden/internal/ytlive"
)

const component = "chatpoller"

// maxConsecutivePollErrors is how many POST failures in a row a
// poller tolerates before giving up: two retries after the first
// failure, then fatal on the third.
const maxConsecutivePollErrors = 3

// ErrMissingField reports that a required field could not be
// extracted from a video's live chat page.
type ErrMissingField struct {
	Field string
}

func (e *ErrMissingField) Error() string {
	return fmt.Sprintf("chatpoller: could not extract %s from chat page", e.Field)
}

// Poller is the Chat Poller actor for a single video.
type Poller struct {
	channel      ytlive.ChannelID
	videoID      ytlive.VideoID
	runID        uuid.UUID
	http         *httpx.Client
	settings     ytlive.RequestSettings
	refererURL   string
	endpointURL  string
	nextPollTime time.Time
	params       ytextract.ChatParams
	in           *fabric.Chan[IncMessage]
	out          *fabric.Sender[OutMessage]
	pollErrors   int
}

// Init extracts chat params from video's live chat page and, if chat
// is enabled, emits ChatInit and returns a Poller ready to Run in its
// own goroutine. started is false with a nil error when the video has
// chat disabled (not a failure — the caller simply skips it).
func Init(ctx context.Context, client *httpx.Client, settings ytlive.RequestSettings, channel ytlive.ChannelID, videoID ytlive.VideoID, out *fabric.Sender[OutMessage]) (poller *Poller, started bool, err error) {
	chatURL := fmt.Sprintf("https://www.youtube.com/live_chat?is_popout=1&v=%s", videoID)

	page, err := client.Get(ctx, chatURL, settings.UserAgent)
	if err != nil {
		return nil, false, fmt.Errorf("chatpoller: load chat page for %s: %w", videoID, err)
	}
	if !ytextract.IsChatEnabled(page) {
		return nil, false, nil
	}

	gl, ok := ytextract.ExtractGL(page)
	if !ok {
		return nil, false, &ErrMissingField{Field: "gl"}
	}
	remoteHost, ok := ytextract.ExtractRemoteHost(page)
	if !ok {
		return nil, false, &ErrMissingField{Field: "remoteHost"}
	}
	visitorData, ok := ytextract.ExtractVisitorData(page)
	if !ok {
		return nil, false, &ErrMissingField{Field: "visitorData"}
	}
	clientVersion, ok := ytextract.ExtractClientVersion(page)
	if !ok {
		return nil, false, &ErrMissingField{Field: "clientVersion"}
	}
	continuation, ok := ytextract.ExtractLastContinuation(page)
	if !ok {
		return nil, false, &ErrMissingField{Field: "continuation"}
	}
	chatKey, ok := ytextract.ExtractChatKey(page)
	if !ok {
		return nil, false, &ErrMissingField{Field: "chatKey"}
	}

	timeZone, ok := ytextract.ExtractTimeZone(page)
	if !ok {
		timeZone = "Asia/Tokyo"
	}

	now := time.Now()
	_, offsetSeconds := now.Zone()
	params := ytextract.NewChatParams(ytextract.ChatParamsInput{
		GL:             gl,
		RemoteHost:     remoteHost,
		VisitorData:    visitorData,
		UserAgent:      settings.UserAgent,
		ClientVersion:  clientVersion,
		VideoID:        string(videoID),
		TimeZone:       timeZone,
		BrowserName:    settings.BrowserName,
		BrowserVersion: settings.BrowserVersion,
		TimestampUnix:  now.UnixMilli(),
		UTCOffsetMin:   int32(offsetSeconds / 60),
		Continuation:   continuation,
	})

	endpointURL := fmt.Sprintf("https://www.youtube.com/youtubei/v1/live_chat/get_live_chat?key=%s", chatKey)
	runID := uuid.New()

	p := &Poller{
		channel:      channel,
		videoID:      videoID,
		runID:        runID,
		http:         client,
		settings:     settings,
		refererURL:   chatURL,
		endpointURL:  endpointURL,
		nextPollTime: time.Now(),
		params:       params,
		in:           fabric.New[IncMessage](),
		out:          out,
	}

	if _, err := out.Send(ctx, ChatInit{Channel: channel, VideoID: videoID, RunID: runID}); err != nil {
		return nil, false, fmt.Errorf("chatpoller: emit ChatInit for %s: %w", videoID, err)
	}

	return p, true, nil
}

// Sender returns the Sender used to deliver IncMessages to this
// poller.
func (p *Poller) Sender() *fabric.Sender[IncMessage] {
	return p.in.Sender()
}

// Run services control messages until the poll deadline, then POSTs
// the continuation request and processes its response. It always
// emits StreamEnded exactly once as its last act, whether it exits by
// Close, a closed chat room, or a fatal polling error.
func (p *Poller) Run(ctx context.Context) {
	defer p.in.Done()
	defer p.emitStreamEnded(ctx)
	logctl.Info(component, "poller starting", map[string]any{"video_id": string(p.videoID), "run_id": p.runID.String()})

	timer := time.NewTimer(time.Until(p.nextPollTime))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-p.in.In():
			if !ok {
				return
			}
			if p.handleControl(msg) {
				return
			}
			continue
		case <-timer.C:
		}

		ended, err := p.pollOnce(ctx)
		if err != nil {
			logctl.Warn(component, "poller failing", map[string]any{
				"video_id": string(p.videoID),
				"error":    err.Error(),
			})
			return
		}
		if ended {
			return
		}

		timer.Reset(time.Until(p.nextPollTime))
	}
}

func (p *Poller) handleControl(msg IncMessage) bool {
	switch v := msg.(type) {
	case Close:
		return true
	case Ping:
		// No-op; its purpose is only to let the manager detect a dead
		// poller via a failed send.
	case UpdateUserAgent:
		p.settings.UserAgent = v.UserAgent
	case UpdateBrowserVersion:
		p.settings.BrowserVersion = v.Version
		p.params.Context.Client.BrowserVersion = v.Version
	case UpdateBrowserNameAndVersion:
		p.settings.BrowserName = v.Name
		p.settings.BrowserVersion = v.Version
		p.params.Context.Client.BrowserName = v.Name
		p.params.Context.Client.BrowserVersion = v.Version
	}
	return false
}

// pollOnce performs one POST/parse/advance round. ended is true when
// the chat room has closed and the poller should stop.
func (p *Poller) pollOnce(ctx context.Context) (ended bool, err error) {
	raw, err := p.postWithRetry(ctx)
	if err != nil {
		return false, err
	}

	resp, err := ytextract.ParseChatResponse(raw)
	if err != nil {
		dumpResponse(p.videoID, raw)
		return false, fmt.Errorf("parse chat response for %s: %w", p.videoID, err)
	}
	if resp.Ended {
		return true, nil
	}

	p.params.Continuation = resp.Continuation
	p.nextPollTime = time.Now().Add(time.Duration(resp.TimeoutMillis) * time.Millisecond)

	if len(resp.Actions) > 0 {
		if _, err := p.out.Send(ctx, NewBatch{VideoID: p.videoID, Actions: resp.Actions}); err != nil {
			return false, fmt.Errorf("emit NewBatch for %s: %w", p.videoID, err)
		}
	}
	return false, nil
}

// postWithRetry POSTs the chat params body, retrying any failed POST
// (transport error or HTTP error status) with a short sleep up to
// maxConsecutivePollErrors-1 times before giving up.
func (p *Poller) postWithRetry(ctx context.Context) (string, error) {
	body, err := marshalParams(p.params)
	if err != nil {
		return "", fmt.Errorf("marshal chat params for %s: %w", p.videoID, err)
	}

	var lastErr error
	for attempt := 0; attempt < maxConsecutivePollErrors; attempt++ {
		resp, err := p.http.Post(ctx, p.endpointURL, p.settings.UserAgent, p.refererURL, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if attempt < maxConsecutivePollErrors-1 {
			logctl.Warn(component, "poll attempt failed, retrying", map[string]any{
				"video_id": string(p.videoID),
				"attempt":  attempt + 1,
				"error":    err.Error(),
			})
			select {
			case <-time.After(100 * time.Millisecond):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", fmt.Errorf("chatpoller: %s failed %d consecutive polls: %w", p.videoID, maxConsecutivePollErrors, lastErr)
}

func (p *Poller) emitStreamEnded(ctx context.Context) {
	if _, err := p.out.Send(ctx, StreamEnded{VideoID: p.videoID}); err != nil {
		logctl.Warn(component, "failed to emit StreamEnded", map[string]any{
			"video_id": string(p.videoID),
			"error":    err.Error(),
		})
	}
}

func dumpResponse(videoID ytlive.VideoID, raw string) {
	path := string(videoID) + ".rsp"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		logctl.Warn(component, "failed to dump chat response", map[string]any{
			"video_id": string(videoID),
			"path":     path,
			"error":    err.Error(),
		})
	}
}

func marshalParams(params ytextract.ChatParams) (string, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
