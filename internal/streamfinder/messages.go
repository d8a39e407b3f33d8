package streamfinder

import "github.com/sipeed/chatwarden/internal/ytlive"

// IncMessage is the sealed union of control messages the Stream
// Finder accepts.
type IncMessage interface {
	isIncMessage()
}

// AddChannel starts discovery polling for channel.
type AddChannel struct {
	Channel ytlive.ChannelID
}

// RemoveChannel stops discovery polling for channel. A channel not
// currently tracked is a no-op.
type RemoveChannel struct {
	Channel ytlive.ChannelID
}

// UpdatePollInterval changes the discovery poll interval, effective
// at the next poll boundary.
type UpdatePollInterval struct {
	Millis int64
}

// UpdateUserAgent changes the outbound User-Agent, effective
// immediately for the next poll.
type UpdateUserAgent struct {
	UserAgent string
}

// UpdateBrowserVersion changes the finder's tracked browser version
// string. Discovery GETs send only the User-Agent, so it does not
// change them.
type UpdateBrowserVersion struct {
	Version string
}

// UpdateBrowserNameAndVersion changes both the browser name and
// version together.
type UpdateBrowserNameAndVersion struct {
	Name    string
	Version string
}

// Close asks the finder to stop after its current poll (if any) and
// exit its run loop.
type Close struct{}

func (AddChannel) isIncMessage()                 {}
func (RemoveChannel) isIncMessage()               {}
func (UpdatePollInterval) isIncMessage()          {}
func (UpdateUserAgent) isIncMessage()             {}
func (UpdateBrowserVersion) isIncMessage()        {}
func (UpdateBrowserNameAndVersion) isIncMessage() {}
func (Close) isIncMessage()                       {}

// OutMessage is the sealed union of messages the Stream Finder emits
// downstream to the Chat Manager.
type OutMessage interface {
	isOutMessage()
}

// FoundStreams reports the current live/scheduled video set for one
// channel's most recent discovery poll. An empty Streams map may mean
// the channel has nothing live, or that the poll failed — failures
// are logged, not distinguished in the output.
type FoundStreams struct {
	Channel ytlive.ChannelID
	Streams map[ytlive.VideoID]struct{}
}

func (FoundStreams) isOutMessage() {}
