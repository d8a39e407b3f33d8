package detector

import "github.com/sipeed/chatwarden/internal/ytlive"

// spamDetector tracks every user seen in one chat's live stream and
// turns raw ChatActions into UserMessage events for the state
// machine, using a MessageIndex to resolve which channel id authored
// the message a later DeleteMessage refers to.
type spamDetector struct {
	users *ytlive.MessageIndex
	state map[ytlive.ChannelID]*userData
}

func newSpamDetector() *spamDetector {
	return &spamDetector{
		users: ytlive.NewMessageIndex(),
		state: make(map[ytlive.ChannelID]*userData),
	}
}

func (d *spamDetector) userFor(id ytlive.ChannelID) *userData {
	u, ok := d.state[id]
	if !ok {
		u = newUserData()
		d.state[id] = u
	}
	return u
}

// processNewMessages converts one batch of ChatActions into
// UserMessage events, feeds each through the owning user's state
// machine, and returns every non-nil decision produced along with the
// count of actions that carried a per-user UserMessage (NewMessage,
// ReplaceMessage, DeleteMessage, BlockUser) regardless of whether that
// message produced a decision.
func (d *spamDetector) processNewMessages(actions []ytlive.ChatAction, params ytlive.DetectorParams) ([]UserDecision, int) {
	var decisions []UserDecision
	var processed int

	emit := func(channelID ytlive.ChannelID, msg ytlive.UserMessage) {
		if channelID == "" {
			return
		}
		if d := d.userFor(channelID).analyzeNewMessage(msg, params); d != nil {
			decisions = append(decisions, UserDecision{ChannelID: channelID, Decision: *d})
		}
	}

	for _, action := range actions {
		switch a := action.(type) {
		case ytlive.NewMessage:
			processed++
			d.users.Record(a.MessageID, a.Author.ChannelID)
			dispatchMessageBody(a.Author, a.Body, a.TimestampMillis, emit)

		case ytlive.ReplaceMessage:
			// A replacement (e.g. superchat fade-in) carries its own
			// author and body; analyze it exactly like a NewMessage.
			processed++
			d.users.Record(a.MessageID, a.Author.ChannelID)
			dispatchMessageBody(a.Author, a.Body, a.TimestampMillis, emit)

		case ytlive.DeleteMessage:
			processed++
			if channelID, ok := d.users.Lookup(a.MessageID); ok {
				emit(channelID, ytlive.UserMessage{Kind: ytlive.UserMessageDelete})
				d.users.Forget(a.MessageID)
			}

		case ytlive.BlockUser:
			processed++
			emit(a.ChannelID, ytlive.UserMessage{Kind: ytlive.UserMessageBlocked})

		default:
			// StartPoll, FinishPoll, ChannelNotice, FundraiserProgress,
			// ClosePanel, CloseBanner: channel-level events, not
			// attributable to a single user.
		}
	}

	return decisions, processed
}

// dispatchMessageBody turns one authored message body into the
// UserMessage it represents and emits it, shared by NewMessage and
// ReplaceMessage handling since both carry the same author/body/
// timestamp shape.
func dispatchMessageBody(author ytlive.Author, body ytlive.MessageBody, timestampMillis uint64, emit func(ytlive.ChannelID, ytlive.UserMessage)) {
	hasBadges := author.Badges.Any()
	switch b := body.(type) {
	case ytlive.Superchat, ytlive.Sticker, ytlive.Membership:
		emit(author.ChannelID, ytlive.UserMessage{
			Kind:            ytlive.UserMessageSupport,
			TimestampMillis: timestampMillis,
			AuthorHasBadges: hasBadges,
		})
	case ytlive.SimpleMessage:
		emit(author.ChannelID, ytlive.UserMessage{
			Kind:            ytlive.UserMessageRegular,
			Text:            b.Text,
			TimestampMillis: timestampMillis,
			AuthorHasBadges: hasBadges,
		})
	default:
		// Channel notices, poll/fundraiser announcements, and other
		// non-authored content carry no per-user signal.
	}
}

// reanalyzeAll re-runs every tracked user's history under updated
// params and returns every non-nil decision produced.
func (d *spamDetector) reanalyzeAll(params ytlive.DetectorParams) []UserDecision {
	var decisions []UserDecision
	for channelID, u := range d.state {
		if d := u.reanalyze(params); d != nil {
			decisions = append(decisions, UserDecision{ChannelID: channelID, Decision: *d})
		}
	}
	return decisions
}
