// Package ytlive holds the data model shared across chatwarden's
// actors: channel/video identifiers, the chat-action tagged union
// produced by the poller, the per-message classification fed to the
// detector, and the detector's threshold parameters and decisions.
package ytlive

import "sync"

// ChannelID identifies a YouTube channel being watched for live
// broadcasts.
type ChannelID string

// VideoID identifies a single live broadcast/video.
type VideoID string

// RequestSettings carries the outbound HTTP identity used for every
// request chatwarden makes, shared by the Stream Finder and every
// Chat Poller so they all present the same browser fingerprint.
type RequestSettings struct {
	UserAgent      string
	BrowserName    string
	BrowserVersion string
}

// Channel is a single watched channel: its id and the URL used to
// discover whether it currently has a live broadcast.
type Channel struct {
	ID           ChannelID
	DiscoveryURL string
}

// UserBadges records the author badges YouTube attaches to a chat
// message; any of these marks a user Immune to spam analysis.
type UserBadges struct {
	Verified  bool
	Owner     bool
	Moderator bool
	Member    bool
}

// Any reports whether at least one badge is set.
func (b UserBadges) Any() bool {
	return b.Verified || b.Owner || b.Moderator || b.Member
}

// Author identifies the poster of a chat message.
type Author struct {
	Name      string
	ChannelID ChannelID
	Badges    UserBadges
}

// MessageBody is the sealed union of renderable chat message
// contents. Each concrete type corresponds to one YouTube live chat
// renderer kind.
type MessageBody interface {
	isMessageBody()
}

// SimpleMessage is a plain text chat message.
type SimpleMessage struct {
	Text string
}

// Membership is a new/renewed channel membership announcement.
type Membership struct {
	Text string
}

// Superchat is a paid highlighted message.
type Superchat struct {
	Text   string
	Amount string
}

// Sticker is a paid sticker message (no text body, only an alt text).
type Sticker struct {
	AltText string
	Amount  string
}

// Fundraiser is a donation/fundraiser progress announcement.
type Fundraiser struct {
	Text string
}

// ChatModeNotice announces a chat mode change (e.g. slow mode,
// members-only).
type ChatModeNotice struct {
	Text string
}

// PollResult announces the outcome of a chat poll.
type PollResult struct {
	Question string
	Options  []string
}

func (SimpleMessage) isMessageBody()  {}
func (Membership) isMessageBody()     {}
func (Superchat) isMessageBody()      {}
func (Sticker) isMessageBody()        {}
func (Fundraiser) isMessageBody()     {}
func (ChatModeNotice) isMessageBody() {}
func (PollResult) isMessageBody()     {}

// ChatAction is the sealed union of actions a Chat Poller can extract
// from one live chat batch.
type ChatAction interface {
	isChatAction()
}

// NewMessage is a freshly posted chat message.
type NewMessage struct {
	MessageID string
	Author    Author
	Body      MessageBody
	// TimestampMillis is the message's client-reported unix
	// millisecond timestamp, the same clock the detector's avg-delay
	// calculation keys off of.
	TimestampMillis uint64
}

// ReplaceMessage swaps the body of an existing message in place
// (YouTube uses this for e.g. superchat fade-in replacement). It is
// analyzed exactly like NewMessage: the replacement carries its own
// author and timestamp, not the original message's.
type ReplaceMessage struct {
	MessageID       string
	Author          Author
	Body            MessageBody
	TimestampMillis uint64
}

// DeleteMessage marks a single message as removed by a moderator.
type DeleteMessage struct {
	MessageID string
}

// BlockUser marks every message from a channel id as removed; the
// user is banned from the chat.
type BlockUser struct {
	ChannelID ChannelID
}

// StartPoll announces a new chat poll.
type StartPoll struct {
	Question string
	Options  []string
}

// FinishPoll announces a poll's final tally.
type FinishPoll struct {
	Question string
	Options  []string
}

// ChannelNotice is a generic streamer/channel-level banner.
type ChannelNotice struct {
	Text string
}

// FundraiserProgress updates an in-progress fundraiser's tally.
type FundraiserProgress struct {
	Text string
}

// ClosePanel closes whatever action panel (poll, etc.) is open.
type ClosePanel struct{}

// CloseBanner dismisses the current channel banner.
type CloseBanner struct{}

func (NewMessage) isChatAction()         {}
func (ReplaceMessage) isChatAction()     {}
func (DeleteMessage) isChatAction()      {}
func (BlockUser) isChatAction()          {}
func (StartPoll) isChatAction()          {}
func (FinishPoll) isChatAction()         {}
func (ChannelNotice) isChatAction()      {}
func (FundraiserProgress) isChatAction() {}
func (ClosePanel) isChatAction()         {}
func (CloseBanner) isChatAction()        {}

// UserMessageKind classifies what happened to a user for the purpose
// of the detector's per-user state machine.
type UserMessageKind int

const (
	// UserMessageRegular is a normal chat message requiring analysis.
	UserMessageRegular UserMessageKind = iota
	// UserMessageSupport marks the user as having sent a superchat,
	// sticker, or membership event — behavior that grants Immune
	// status.
	UserMessageSupport
	// UserMessageDelete marks one of the user's prior messages as
	// having been deleted by a moderator.
	UserMessageDelete
	// UserMessageBlocked marks the user as banned from the chat.
	UserMessageBlocked
)

// UserMessage is the detector's view of one chat event attributable
// to a single user.
type UserMessage struct {
	Kind            UserMessageKind
	Text            string
	TimestampMillis uint64
	AuthorHasBadges bool
}

// MessageIndex tracks which channel id authored which still-live
// message id, so a later DeleteMessage (which only carries a message
// id) can be attributed back to its author.
type MessageIndex struct {
	mu      sync.Mutex
	authors map[string]ChannelID
}

// NewMessageIndex returns an empty index.
func NewMessageIndex() *MessageIndex {
	return &MessageIndex{authors: make(map[string]ChannelID)}
}

// Record remembers that messageID was authored by channelID.
func (idx *MessageIndex) Record(messageID string, channelID ChannelID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.authors[messageID] = channelID
}

// Lookup returns the channel id that authored messageID, if still
// tracked.
func (idx *MessageIndex) Lookup(messageID string) (ChannelID, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	id, ok := idx.authors[messageID]
	return id, ok
}

// Forget drops messageID from the index once it can no longer be
// referenced (e.g. after a delete has been processed).
func (idx *MessageIndex) Forget(messageID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.authors, messageID)
}
