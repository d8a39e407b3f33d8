// Package ytextract implements chatwarden's YouTube-specific wire
// protocol: the regex extraction used against scraped HTML pages, the
// exact ChatParams JSON body the innertube live-chat endpoint expects,
// and the conversion of a raw chat-action JSON payload into
// ytlive.ChatAction values.
package ytextract

import "regexp"

var (
	videoListPattern         = regexp.MustCompile(`ytInitialData[ =]+(.+?});</script>`)
	chatExistsPattern        = regexp.MustCompile(`liveChatRenderer`)
	glPattern                = regexp.MustCompile(`gl\W+([\w.]+)`)
	remoteHostPattern        = regexp.MustCompile(`remoteHost\W+([\d.]+)`)
	visitorDataPattern       = regexp.MustCompile(`visitorData\W+([\w%]+)`)
	timeZonePattern          = regexp.MustCompile(`timeZone\W+([\w/]+)`)
	reloadContinuationPattern = regexp.MustCompile(`reloadContinuationData\W+([\w: %,\-"]+)`)
	continuationPattern      = regexp.MustCompile(`continuation\W+([\w%\-]+)`)
	clientVersionPattern     = regexp.MustCompile(`clientVersion\W+([\w.]+)`)
	chatKeyPattern           = regexp.MustCompile(`INNERTUBE_API_KEY\W+(\w+)\W`)
)

// ExtractVideoList returns the last ytInitialData JSON blob embedded
// in a channel's video-list HTML page, if any. YouTube embeds the
// same script more than once on some layouts; the last match is the
// one that carries the fully hydrated page state.
func ExtractVideoList(page string) (string, bool) {
	return lastCapture(videoListPattern, page)
}

// IsChatEnabled reports whether a live broadcast's watch page embeds
// a liveChatRenderer, meaning it currently has a chat to poll.
func IsChatEnabled(page string) bool {
	return chatExistsPattern.MatchString(page)
}

// ExtractGL returns the gl (geolocation) field embedded in a chat
// page.
func ExtractGL(page string) (string, bool) { return firstCapture(glPattern, page) }

// ExtractRemoteHost returns the remoteHost field embedded in a chat
// page.
func ExtractRemoteHost(page string) (string, bool) { return firstCapture(remoteHostPattern, page) }

// ExtractVisitorData returns the visitorData field embedded in a chat
// page.
func ExtractVisitorData(page string) (string, bool) {
	return firstCapture(visitorDataPattern, page)
}

// ExtractTimeZone returns the timeZone field embedded in a chat page.
func ExtractTimeZone(page string) (string, bool) { return firstCapture(timeZonePattern, page) }

// ExtractClientVersion returns the clientVersion field embedded in a
// chat page.
func ExtractClientVersion(page string) (string, bool) {
	return firstCapture(clientVersionPattern, page)
}

// ExtractLastContinuation returns the chat continuation token from
// the last reloadContinuationData block on the page.
func ExtractLastContinuation(page string) (string, bool) {
	block, ok := lastCapture(reloadContinuationPattern, page)
	if !ok {
		return "", false
	}
	return firstCapture(continuationPattern, block)
}

// ExtractChatKey returns the innertube API key embedded in a chat
// page.
func ExtractChatKey(page string) (string, bool) { return firstCapture(chatKeyPattern, page) }

func firstCapture(pattern *regexp.Regexp, text string) (string, bool) {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func lastCapture(pattern *regexp.Regexp, text string) (string, bool) {
	matches := pattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return "", false
	}
	last := matches[len(matches)-1]
	return last[1], true
}
