package ytextract

import (
	"encoding/json"
	"errors"

	"github.com/sipeed/chatwarden/internal/ytlive"
)

// ErrNoContinuation is returned when continuationContents is present
// but carries no continuation entry, which the live API never sends
// during normal operation.
var ErrNoContinuation = errors.New("ytextract: continuationContents has no continuation entry")

// ErrUnknownContinuationShape is returned when the sole continuation
// entry matches none of the three known renderer kinds.
var ErrUnknownContinuationShape = errors.New("ytextract: unrecognized continuation renderer")

// ChatResponse is one decoded get_live_chat continuation response.
type ChatResponse struct {
	// Ended is true when continuationContents is absent, meaning the
	// stream's chat room has closed.
	Ended         bool
	Continuation  string
	TimeoutMillis int
	Actions       []ytlive.ChatAction
}

// ParseChatResponse decodes one get_live_chat POST response body.
func ParseChatResponse(raw string) (ChatResponse, error) {
	var outer struct {
		ContinuationContents *struct {
			LiveChatContinuation json.RawMessage `json:"liveChatContinuation"`
		} `json:"continuationContents"`
	}
	if err := json.Unmarshal([]byte(raw), &outer); err != nil {
		return ChatResponse{}, err
	}
	if outer.ContinuationContents == nil {
		return ChatResponse{Ended: true}, nil
	}

	var inner struct {
		Continuations []json.RawMessage `json:"continuations"`
	}
	if err := json.Unmarshal(outer.ContinuationContents.LiveChatContinuation, &inner); err != nil {
		return ChatResponse{}, err
	}
	if len(inner.Continuations) == 0 {
		return ChatResponse{}, ErrNoContinuation
	}

	timeoutMillis, continuation, err := parseContinuationEntry(inner.Continuations[0])
	if err != nil {
		return ChatResponse{}, err
	}

	actions, err := ParseActions(outer.ContinuationContents.LiveChatContinuation)
	if err != nil {
		return ChatResponse{}, err
	}

	return ChatResponse{
		Continuation:  continuation,
		TimeoutMillis: timeoutMillis,
		Actions:       actions,
	}, nil
}

func parseContinuationEntry(raw json.RawMessage) (timeoutMillis int, continuation string, err error) {
	var env struct {
		TimedContinuationData *struct {
			TimeoutMs    json.RawMessage `json:"timeoutMs"`
			Continuation string          `json:"continuation"`
		} `json:"timedContinuationData"`
		InvalidationContinuationData *struct {
			TimeoutMs    json.RawMessage `json:"timeoutMs"`
			Continuation string          `json:"continuation"`
		} `json:"invalidationContinuationData"`
		ReloadContinuationData *struct {
			Continuation string `json:"continuation"`
		} `json:"reloadContinuationData"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return 0, "", err
	}

	switch {
	case env.TimedContinuationData != nil:
		return flexibleInt(env.TimedContinuationData.TimeoutMs), env.TimedContinuationData.Continuation, nil
	case env.InvalidationContinuationData != nil:
		return flexibleInt(env.InvalidationContinuationData.TimeoutMs), env.InvalidationContinuationData.Continuation, nil
	case env.ReloadContinuationData != nil:
		return 0, env.ReloadContinuationData.Continuation, nil
	}
	return 0, "", ErrUnknownContinuationShape
}
