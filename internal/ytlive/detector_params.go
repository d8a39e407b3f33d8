package ytlive

import "github.com/xrash/smetrics"

// DetectorParams holds the per-channel thresholds the detector
// evaluates a user's message history against. Field names and
// defaults mirror the upstream implementation this system is based
// on, including one inherited naming quirk: SimilarityMinMessageLength
// does not gate on a single message's character length, it gates on
// how many messages are in the user's history so far (see
// ShouldCheckSimilarity). Renaming it would diverge from the
// convention its tuning operators already know, so it is kept as-is.
type DetectorParams struct {
	DeletedMessagesThreshold  int
	AvgDelayThreshold         float32
	AvgDelayMinMessageCount   int
	AvgLengthThreshold        float32
	AvgLengthMinMessageCount  int
	SimilarityThreshold       float32
	SimilarityCountThreshold  int
	SimilarityMinMessageLength int
}

// DefaultDetectorParams returns the stock threshold set new channels
// start with.
func DefaultDetectorParams() DetectorParams {
	return DetectorParams{
		DeletedMessagesThreshold:  4,
		AvgDelayThreshold:         5000,
		AvgDelayMinMessageCount:   5,
		AvgLengthThreshold:        30,
		AvgLengthMinMessageCount:  5,
		SimilarityThreshold:       0.85,
		SimilarityCountThreshold:  3,
		SimilarityMinMessageLength: 10,
	}
}

// IsTooManyDeletedMessages reports whether deleteCount has crossed
// the deleted-messages threshold.
func (p DetectorParams) IsTooManyDeletedMessages(deleteCount int) bool {
	return deleteCount >= p.DeletedMessagesThreshold
}

// IsTooFast reports whether avgDelay (milliseconds between messages)
// is suspiciously low, gated on having seen enough messages to trust
// the average.
func (p DetectorParams) IsTooFast(avgDelay float32, sentCount int) bool {
	return sentCount >= p.AvgDelayMinMessageCount && avgDelay < p.AvgDelayThreshold
}

// AreMessagesTooLong reports whether avgLength (characters) is
// suspiciously high, gated the same way as IsTooFast.
func (p DetectorParams) AreMessagesTooLong(avgLength float32, sentCount int) bool {
	return sentCount >= p.AvgLengthMinMessageCount && avgLength >= p.AvgLengthThreshold
}

// ShouldCheckSimilarity reports whether the user's history is large
// enough to bother running the pairwise similarity scan. Despite its
// name, historyLen is a message *count*, not a character length.
func (p DetectorParams) ShouldCheckSimilarity(historyLen int) bool {
	return historyLen >= p.SimilarityMinMessageLength
}

// AreMessagesSimilar reports whether a Jaro similarity score counts
// as a match.
func (p DetectorParams) AreMessagesSimilar(similarity float32) bool {
	return similarity > p.SimilarityThreshold
}

// TooManySimilarMessages reports whether the running count of
// similar-message pairs has crossed the threshold.
func (p DetectorParams) TooManySimilarMessages(similarCount int) bool {
	return similarCount >= p.SimilarityCountThreshold
}

// Jaro computes the Jaro string similarity between a and b, used by
// the detector's near-duplicate-message scan.
func Jaro(a, b string) float32 {
	return float32(smetrics.Jaro(a, b))
}

// DecisionKind enumerates the outcomes the detector can report for a
// user.
type DecisionKind int

const (
	// DecisionClear reports that a previously-flagged user now looks
	// fine again.
	DecisionClear DecisionKind = iota
	// DecisionTooFast reports messages arriving faster than the
	// average-delay threshold allows.
	DecisionTooFast
	// DecisionTooLong reports messages averaging longer than the
	// length threshold allows.
	DecisionTooLong
	// DecisionTooManyDeleted reports too many of the user's messages
	// having been moderator-deleted.
	DecisionTooManyDeleted
	// DecisionSimilar reports too many near-duplicate messages in the
	// user's history.
	DecisionSimilar
	// DecisionBlocked reports the user was banned from the chat.
	DecisionBlocked
)

// Decision is one verdict the detector emits for a single user.
// AvgValue carries the current average message length for both
// TooLong and — matching an inherited quirk in the upstream
// implementation — TooFast, whose payload is the average *length*
// that accompanied the fast-posting pattern, not the average delay
// itself. Downstream consumers wanting the delay must recompute it
// from the raw history; this quirk is preserved deliberately rather
// than "fixed", since changing the payload would be a silent
// behavior change for any consumer already parsing it.
type Decision struct {
	Kind     DecisionKind
	AvgValue float32
}
