package notify

import (
	"testing"

	"github.com/sipeed/chatwarden/internal/ytlive"
)

func TestParseDiscordWebhookURL(t *testing.T) {
	id, token, err := parseDiscordWebhookURL("https://discord.com/api/webhooks/123456789/abcDEF-token_value")
	if err != nil {
		t.Fatalf("parseDiscordWebhookURL() error = %v", err)
	}
	if id != "123456789" {
		t.Errorf("id = %q, want 123456789", id)
	}
	if token != "abcDEF-token_value" {
		t.Errorf("token = %q, want abcDEF-token_value", token)
	}
}

func TestParseDiscordWebhookURLRejectsMalformed(t *testing.T) {
	if _, _, err := parseDiscordWebhookURL("not-a-url"); err == nil {
		t.Fatal("expected error for malformed webhook url")
	}
}

func TestDecisionLabelCoversEveryKind(t *testing.T) {
	kinds := []ytlive.DecisionKind{
		ytlive.DecisionClear,
		ytlive.DecisionTooFast,
		ytlive.DecisionTooLong,
		ytlive.DecisionTooManyDeleted,
		ytlive.DecisionSimilar,
		ytlive.DecisionBlocked,
	}
	for _, kind := range kinds {
		if label := decisionLabel(kind); label == "unknown" {
			t.Errorf("decisionLabel(%v) = unknown, want a named label", kind)
		}
	}
}
