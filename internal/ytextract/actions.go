package ytextract

import (
	"encoding/json"

	"github.com/sipeed/chatwarden/internal/ytlive"
)

// ParseActions decodes one continuation response's actions array into
// ytlive.ChatAction values. Tooltips, ticker items, placeholders and
// any action kind not decoded here are omitted from the result,
// matching the upstream converter's behavior of mapping those to
// None rather than an error; banner removals and panel closes are
// kept as CloseBanner and ClosePanel.
func ParseActions(raw json.RawMessage) ([]ytlive.ChatAction, error) {
	var wrapper struct {
		Actions []json.RawMessage `json:"actions"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, err
	}

	var out []ytlive.ChatAction
	for _, rawAction := range wrapper.Actions {
		action, err := parseOneAction(rawAction)
		if err != nil {
			return nil, err
		}
		if action != nil {
			out = append(out, action)
		}
	}
	return out, nil
}

func parseOneAction(raw json.RawMessage) (ytlive.ChatAction, error) {
	var env struct {
		AddChatItemAction struct {
			Item json.RawMessage `json:"item"`
		} `json:"addChatItemAction"`
		MarkChatItemAsDeletedAction struct {
			TargetItemID string `json:"targetItemId"`
		} `json:"markChatItemAsDeletedAction"`
		MarkChatItemsByAuthorAsDeletedAction struct {
			ExternalChannelID string `json:"externalChannelId"`
		} `json:"markChatItemsByAuthorAsDeletedAction"`
		ReplaceChatItemAction struct {
			TargetItemID    string          `json:"targetItemId"`
			ReplacementItem json.RawMessage `json:"replacementItem"`
		} `json:"replaceChatItemAction"`
		RemoveBannerForLiveChatCommand struct {
			TargetActionID string `json:"targetActionId"`
		} `json:"removeBannerForLiveChatCommand"`
		CloseLiveChatActionPanelAction struct {
			TargetPanelID string `json:"targetPanelId"`
		} `json:"closeLiveChatActionPanelAction"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	if len(env.AddChatItemAction.Item) > 0 {
		_, body, msgID, ts, author, ok := parseMessageItem(env.AddChatItemAction.Item)
		if !ok {
			return nil, nil
		}
		return ytlive.NewMessage{MessageID: msgID, Author: author, Body: body, TimestampMillis: ts}, nil
	}
	if env.MarkChatItemAsDeletedAction.TargetItemID != "" {
		return ytlive.DeleteMessage{MessageID: env.MarkChatItemAsDeletedAction.TargetItemID}, nil
	}
	if env.MarkChatItemsByAuthorAsDeletedAction.ExternalChannelID != "" {
		return ytlive.BlockUser{ChannelID: ytlive.ChannelID(env.MarkChatItemsByAuthorAsDeletedAction.ExternalChannelID)}, nil
	}
	if len(env.ReplaceChatItemAction.ReplacementItem) > 0 {
		_, body, msgID, ts, author, ok := parseMessageItem(env.ReplaceChatItemAction.ReplacementItem)
		if !ok {
			return nil, nil
		}
		if msgID == "" {
			msgID = env.ReplaceChatItemAction.TargetItemID
		}
		return ytlive.ReplaceMessage{MessageID: msgID, Author: author, Body: body, TimestampMillis: ts}, nil
	}
	if env.RemoveBannerForLiveChatCommand.TargetActionID != "" {
		return ytlive.CloseBanner{}, nil
	}
	if env.CloseLiveChatActionPanelAction.TargetPanelID != "" {
		return ytlive.ClosePanel{}, nil
	}

	// Banner additions, poll start/finish, tooltips, ticker items and
	// any other action kind are not decoded here; they fall through to
	// "no per-user signal" like the upstream
	// ShowLiveChatTooltipCommand/AddLiveChatTickerItemAction cases.
	return nil, nil
}

type renderedAuthorBadge struct {
	LiveChatAuthorBadgeRenderer struct {
		Icon struct {
			IconType string `json:"iconType"`
		} `json:"icon"`
		CustomThumbnail json.RawMessage `json:"customThumbnail"`
	} `json:"liveChatAuthorBadgeRenderer"`
}

func parseAuthorBadges(raw []renderedAuthorBadge) ytlive.UserBadges {
	var badges ytlive.UserBadges
	for _, b := range raw {
		r := b.LiveChatAuthorBadgeRenderer
		if len(r.CustomThumbnail) > 0 {
			badges.Member = true
			continue
		}
		switch r.Icon.IconType {
		case "VERIFIED":
			badges.Verified = true
		case "OWNER":
			badges.Owner = true
		case "MODERATOR":
			badges.Moderator = true
		}
	}
	return badges
}

func runsToText(runs json.RawMessage) string {
	var simple string
	if json.Unmarshal(runs, &simple) == nil {
		return simple
	}

	var structured struct {
		Runs []struct {
			Text string `json:"text"`
		} `json:"runs"`
	}
	if json.Unmarshal(runs, &structured) != nil {
		return ""
	}
	text := ""
	for _, r := range structured.Runs {
		text += r.Text
	}
	return text
}

// parseMessageItem decodes one "item" payload (from addChatItemAction
// or a replaceChatItemAction's replacementItem) into a chat action
// body. ok is false for renderer kinds that carry no per-user signal
// (placeholders, the youtube-round engagement icon).
func parseMessageItem(raw json.RawMessage) (kind string, body ytlive.MessageBody, messageID string, timestampMillis uint64, author ytlive.Author, ok bool) {
	var env struct {
		LiveChatTextMessageRenderer *struct {
			ID            string          `json:"id"`
			TimestampUsec string          `json:"timestampUsec"`
			Message       json.RawMessage `json:"message"`
			AuthorName    json.RawMessage `json:"authorName"`
			ChannelID     string          `json:"authorExternalChannelId"`
			AuthorBadges  []renderedAuthorBadge `json:"authorBadges"`
		} `json:"liveChatTextMessageRenderer"`
		LiveChatMembershipItemRenderer *struct {
			ID              string                `json:"id"`
			TimestampUsec   string                `json:"timestampUsec"`
			AuthorName      json.RawMessage       `json:"authorName"`
			ChannelID       string                `json:"authorExternalChannelId"`
			AuthorBadges    []renderedAuthorBadge `json:"authorBadges"`
			HeaderSubtext   json.RawMessage       `json:"headerSubtext"`
			HeaderPrimaryText json.RawMessage     `json:"headerPrimaryText"`
		} `json:"liveChatMembershipItemRenderer"`
		LiveChatPaidMessageRenderer *struct {
			ID                  string                `json:"id"`
			TimestampUsec       string                `json:"timestampUsec"`
			Message             json.RawMessage       `json:"message"`
			AuthorName          json.RawMessage       `json:"authorName"`
			ChannelID           string                `json:"authorExternalChannelId"`
			AuthorBadges        []renderedAuthorBadge `json:"authorBadges"`
			PurchaseAmountText  json.RawMessage       `json:"purchaseAmountText"`
		} `json:"liveChatPaidMessageRenderer"`
		LiveChatPaidStickerRenderer *struct {
			ID                 string                `json:"id"`
			TimestampUsec      string                `json:"timestampUsec"`
			AuthorName         json.RawMessage       `json:"authorName"`
			ChannelID          string                `json:"authorExternalChannelId"`
			AuthorBadges       []renderedAuthorBadge `json:"authorBadges"`
			PurchaseAmountText json.RawMessage       `json:"purchaseAmountText"`
			Sticker            struct {
				Accessibility struct {
					AccessibilityData struct {
						Label string `json:"label"`
					} `json:"accessibilityData"`
				} `json:"accessibility"`
			} `json:"sticker"`
		} `json:"liveChatPaidStickerRenderer"`
		LiveChatViewerEngagementMessageRenderer *struct {
			ID            string          `json:"id"`
			TimestampUsec string          `json:"timestampUsec"`
			Message       json.RawMessage `json:"message"`
			Icon          struct {
				IconType string `json:"iconType"`
			} `json:"icon"`
		} `json:"liveChatViewerEngagementMessageRenderer"`
		LiveChatPlaceholderItemRenderer *struct{} `json:"liveChatPlaceholderItemRenderer"`
		LiveChatModeChangeMessageRenderer *struct {
			ID            string          `json:"id"`
			TimestampUsec string          `json:"timestampUsec"`
			Text          json.RawMessage `json:"text"`
		} `json:"liveChatModeChangeMessageRenderer"`
	}
	if json.Unmarshal(raw, &env) != nil {
		return "", nil, "", 0, ytlive.Author{}, false
	}

	switch {
	case env.LiveChatTextMessageRenderer != nil:
		r := env.LiveChatTextMessageRenderer
		a := ytlive.Author{
			Name:      runsToText(r.AuthorName),
			ChannelID: ytlive.ChannelID(r.ChannelID),
			Badges:    parseAuthorBadges(r.AuthorBadges),
		}
		return "text", ytlive.SimpleMessage{Text: runsToText(r.Message)}, r.ID, parseTimestampUsec(r.TimestampUsec), a, true

	case env.LiveChatMembershipItemRenderer != nil:
		r := env.LiveChatMembershipItemRenderer
		a := ytlive.Author{
			Name:      runsToText(r.AuthorName),
			ChannelID: ytlive.ChannelID(r.ChannelID),
			Badges:    parseAuthorBadges(r.AuthorBadges),
		}
		text := runsToText(r.HeaderPrimaryText)
		if text == "" {
			text = runsToText(r.HeaderSubtext)
		}
		return "membership", ytlive.Membership{Text: text}, r.ID, parseTimestampUsec(r.TimestampUsec), a, true

	case env.LiveChatPaidMessageRenderer != nil:
		r := env.LiveChatPaidMessageRenderer
		a := ytlive.Author{
			Name:      runsToText(r.AuthorName),
			ChannelID: ytlive.ChannelID(r.ChannelID),
			Badges:    parseAuthorBadges(r.AuthorBadges),
		}
		return "superchat", ytlive.Superchat{Text: runsToText(r.Message), Amount: runsToText(r.PurchaseAmountText)}, r.ID, parseTimestampUsec(r.TimestampUsec), a, true

	case env.LiveChatPaidStickerRenderer != nil:
		r := env.LiveChatPaidStickerRenderer
		a := ytlive.Author{
			Name:      runsToText(r.AuthorName),
			ChannelID: ytlive.ChannelID(r.ChannelID),
			Badges:    parseAuthorBadges(r.AuthorBadges),
		}
		return "sticker", ytlive.Sticker{AltText: r.Sticker.Accessibility.AccessibilityData.Label, Amount: runsToText(r.PurchaseAmountText)}, r.ID, parseTimestampUsec(r.TimestampUsec), a, true

	case env.LiveChatViewerEngagementMessageRenderer != nil:
		r := env.LiveChatViewerEngagementMessageRenderer
		if r.Icon.IconType == "YOUTUBE_ROUND" {
			return "", nil, "", 0, ytlive.Author{}, false
		}
		return "poll_result", ytlive.PollResult{Question: runsToText(r.Message)}, r.ID, parseTimestampUsec(r.TimestampUsec), ytlive.Author{}, true

	case env.LiveChatModeChangeMessageRenderer != nil:
		r := env.LiveChatModeChangeMessageRenderer
		return "chat_mode", ytlive.ChatModeNotice{Text: runsToText(r.Text)}, r.ID, parseTimestampUsec(r.TimestampUsec), ytlive.Author{}, true

	case env.LiveChatPlaceholderItemRenderer != nil:
		return "", nil, "", 0, ytlive.Author{}, false
	}

	return "", nil, "", 0, ytlive.Author{}, false
}

func parseTimestampUsec(s string) uint64 {
	if s == "" {
		return 0
	}
	var v uint64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		v = v*10 + uint64(r-'0')
	}
	return v / 1000
}
