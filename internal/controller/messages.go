package controller

import "github.com/sipeed/chatwarden/internal/ytlive"

// IncMessage is the sealed union of external commands the controller
// accepts and routes to the owning actor.
type IncMessage interface {
	isIncMessage()
}

// AddChannel starts discovery polling for channel.
type AddChannel struct {
	Channel ytlive.ChannelID
}

// RemoveChannel stops discovery polling for channel.
type RemoveChannel struct {
	Channel ytlive.ChannelID
}

// UpdateStreamPollInterval changes the Stream Finder's poll interval.
type UpdateStreamPollInterval struct {
	Millis int64
}

// UpdateUserAgent is routed to both the Stream Finder and the Chat
// Manager, so every future discovery poll and chat poller shares the
// same outbound identity.
type UpdateUserAgent struct {
	UserAgent string
}

// UpdateBrowserVersion is routed to both the Stream Finder and the
// Chat Manager.
type UpdateBrowserVersion struct {
	Version string
}

// UpdateBrowserNameAndVersion is routed to both the Stream Finder and
// the Chat Manager.
type UpdateBrowserNameAndVersion struct {
	Name    string
	Version string
}

// UpdateDetectorParams replaces channel's thresholds and triggers a
// retroactive reanalysis of every chat it currently owns.
type UpdateDetectorParams struct {
	Channel ytlive.ChannelID
	Params  ytlive.DetectorParams
}

// Close shuts every actor down, leaves first: Stream Finder, then
// Chat Manager (and its pollers), then Detector Manager.
type Close struct{}

func (AddChannel) isIncMessage()                  {}
func (RemoveChannel) isIncMessage()               {}
func (UpdateStreamPollInterval) isIncMessage()    {}
func (UpdateUserAgent) isIncMessage()             {}
func (UpdateBrowserVersion) isIncMessage()        {}
func (UpdateBrowserNameAndVersion) isIncMessage() {}
func (UpdateDetectorParams) isIncMessage()        {}
func (Close) isIncMessage()                       {}
