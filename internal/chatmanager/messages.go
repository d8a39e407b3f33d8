package chatmanager

import "github.com/sipeed/chatwarden/internal/ytlive"

// IncMessage is the sealed union of messages the Chat Manager
// accepts.
type IncMessage interface {
	isIncMessage()
}

// FoundStreams reports channel's current live/scheduled video set, as
// produced by one Stream Finder discovery poll. Video ids already
// being polled are skipped; the rest get a new poller each.
type FoundStreams struct {
	Channel ytlive.ChannelID
	Streams map[ytlive.VideoID]struct{}
}

// UpdateUserAgent updates the manager's own request settings (so
// future pollers inherit it) and is broadcast to every live poller.
type UpdateUserAgent struct {
	UserAgent string
}

// UpdateBrowserVersion updates the manager's own request settings and
// is broadcast to every live poller.
type UpdateBrowserVersion struct {
	Version string
}

// UpdateBrowserNameAndVersion updates the manager's own request
// settings and is broadcast to every live poller.
type UpdateBrowserNameAndVersion struct {
	Name    string
	Version string
}

// Close asks the manager to close every live poller, await them, and
// then stop itself.
type Close struct{}

func (FoundStreams) isIncMessage()                {}
func (UpdateUserAgent) isIncMessage()              {}
func (UpdateBrowserVersion) isIncMessage()         {}
func (UpdateBrowserNameAndVersion) isIncMessage()  {}
func (Close) isIncMessage()                       {}
