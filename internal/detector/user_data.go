package detector

import "github.com/sipeed/chatwarden/internal/ytlive"

// userStatus is the phase of the per-user state machine.
//
//	Immune     - members, moderators, verified users, and anyone who
//	             has supported the stream; never analyzed again.
//	Blocked    - banned by a moderator; still collects history in
//	             case the ban gets lifted and the user returns.
//	Suspicious - already flagged; keeps collecting history but does
//	             not run make_decision again until cleared.
//	Regular    - default phase; collects history and evaluates it on
//	             every new message.
type userStatus int

const (
	statusImmune userStatus = iota
	statusBlocked
	statusSuspicious
	statusRegular
)

type historyEntry struct {
	timestampMillis uint64
	text            string
}

// userData is one user's spam-detection state within a single chat.
type userData struct {
	status              userStatus
	history             []historyEntry
	deleteMessagesCount int
}

func newUserData() *userData {
	return &userData{status: statusRegular}
}

// analyzeNewMessage feeds one UserMessage event through the state
// machine, returning the decision to emit, if any.
func (u *userData) analyzeNewMessage(msg ytlive.UserMessage, params ytlive.DetectorParams) *ytlive.Decision {
	return u.doAnalysis(msg, params)
}

func (u *userData) doAnalysis(msg ytlive.UserMessage, params ytlive.DetectorParams) *ytlive.Decision {
	switch u.status {
	case statusImmune:
		return nil

	case statusBlocked:
		// A blocked user might have been unbanned by mistake; give
		// them a chance to clear by re-running the regular path.
		u.status = statusRegular
		decision := u.doAnalysis(msg, params)
		if decision != nil {
			return decision
		}
		return clear()

	case statusSuspicious:
		switch msg.Kind {
		case ytlive.UserMessageSupport:
			u.status = statusImmune
			return clear()
		case ytlive.UserMessageBlocked:
			u.status = statusBlocked
			return decision(ytlive.DecisionBlocked, 0)
		case ytlive.UserMessageDelete:
			u.deleteMessagesCount++
			return nil
		case ytlive.UserMessageRegular:
			if msg.AuthorHasBadges {
				u.status = statusImmune
				return clear()
			}
			u.history = append(u.history, historyEntry{msg.TimestampMillis, msg.Text})
			return nil
		}

	case statusRegular:
		switch msg.Kind {
		case ytlive.UserMessageSupport:
			u.status = statusImmune
			return nil
		case ytlive.UserMessageBlocked:
			u.status = statusBlocked
			return decision(ytlive.DecisionBlocked, 0)
		case ytlive.UserMessageDelete:
			u.deleteMessagesCount++
			if params.IsTooManyDeletedMessages(u.deleteMessagesCount) {
				u.status = statusSuspicious
				return decision(ytlive.DecisionTooManyDeleted, 0)
			}
			return nil
		case ytlive.UserMessageRegular:
			if msg.AuthorHasBadges {
				u.status = statusImmune
				return nil
			}
			u.history = append(u.history, historyEntry{msg.TimestampMillis, msg.Text})
			d := makeDecision(u.history, u.deleteMessagesCount, params)
			if d != nil {
				u.status = statusSuspicious
				return d
			}
			return nil
		}
	}
	return nil
}

// reanalyze re-runs make_decision against the user's existing history
// under updated params, used when the channel's thresholds change
// retroactively. Immune and Blocked users are untouched: immunity and
// bans are not threshold-sensitive.
func (u *userData) reanalyze(params ytlive.DetectorParams) *ytlive.Decision {
	switch u.status {
	case statusImmune, statusBlocked:
		return nil

	case statusSuspicious:
		if d := makeDecision(u.history, u.deleteMessagesCount, params); d != nil {
			return d
		}
		u.status = statusRegular
		return clear()

	case statusRegular:
		if d := makeDecision(u.history, u.deleteMessagesCount, params); d != nil {
			u.status = statusSuspicious
			return d
		}
		return nil
	}
	return nil
}

func clear() *ytlive.Decision {
	return decision(ytlive.DecisionClear, 0)
}

func decision(kind ytlive.DecisionKind, avgValue float32) *ytlive.Decision {
	return &ytlive.Decision{Kind: kind, AvgValue: avgValue}
}

// makeDecision is the pure threshold/similarity evaluation run over a
// user's full message history. Order of checks matters: deleted-count
// is checked first, then length, then delay, then pairwise
// similarity, mirroring the upstream evaluation order exactly.
//
// TooFast's payload is the current average message length, not the
// average delay — an inherited quirk preserved deliberately (see
// ytlive.Decision's doc comment).
func makeDecision(history []historyEntry, deleteCount int, params ytlive.DetectorParams) *ytlive.Decision {
	if params.IsTooManyDeletedMessages(deleteCount) {
		return decision(ytlive.DecisionTooManyDeleted, 0)
	}

	n := len(history)
	if n == 0 {
		return nil
	}

	var lastTimestamp uint64
	var sumDelays uint64
	var sumLengths int
	for _, e := range history {
		if lastTimestamp != 0 && e.timestampMillis >= lastTimestamp {
			sumDelays += e.timestampMillis - lastTimestamp
		}
		lastTimestamp = e.timestampMillis
		sumLengths += len([]rune(e.text))
	}

	avgLength := float32(sumLengths) / float32(n)
	avgDelay := float32(sumDelays) / float32(n)

	if params.AreMessagesTooLong(avgLength, n) {
		return decision(ytlive.DecisionTooLong, avgLength)
	}

	if params.IsTooFast(avgDelay, n) {
		return decision(ytlive.DecisionTooFast, avgLength)
	}

	if params.ShouldCheckSimilarity(n) {
		similarCount := 0
		for i := 0; i < n; i++ {
			matched := false
			for j := i + 1; j < n; j++ {
				if params.AreMessagesSimilar(ytlive.Jaro(history[i].text, history[j].text)) {
					matched = true
					break
				}
			}
			if matched {
				similarCount++
			}
			if params.TooManySimilarMessages(similarCount) {
				return decision(ytlive.DecisionSimilar, 0)
			}
		}
	}

	return nil
}
