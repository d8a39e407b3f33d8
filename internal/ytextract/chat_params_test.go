package ytextract

import (
	"encoding/json"
	"testing"
)

func TestNewChatParamsAdSignalParamOrder(t *testing.T) {
	cp := NewChatParams(ChatParamsInput{
		GL: "US", RemoteHost: "1.2.3.4", VisitorData: "vd", UserAgent: "ua",
		ClientVersion: "2.1", VideoID: "vid123", TimeZone: "Asia/Tokyo",
		BrowserName: "Chrome", BrowserVersion: "124.0", TimestampUnix: 1700000000,
		UTCOffsetMin: 540, Continuation: "cont-token",
	})

	wantOrder := []string{
		"dt", "flash", "frm", "u_tz", "u_his", "u_java", "u_h", "u_w",
		"u_ah", "u_aw", "u_cd", "u_nplug", "u_nmime", "bc", "bih", "biw",
		"brdim", "vis", "wgl", "ca_type",
	}
	params := cp.Context.AdSignalsInfo.Params
	if len(params) != len(wantOrder) {
		t.Fatalf("got %d ad-signal params, want %d", len(params), len(wantOrder))
	}
	for i, key := range wantOrder {
		if params[i].Key != key {
			t.Errorf("params[%d].Key = %q, want %q", i, params[i].Key, key)
		}
	}
}

func TestNewChatParamsMarshalsCamelCase(t *testing.T) {
	cp := NewChatParams(ChatParamsInput{Continuation: "cont-token"})
	data, err := json.Marshal(cp)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if _, ok := generic["webClientInfo"]; !ok {
		t.Error("expected camelCase webClientInfo key")
	}
	if generic["continuation"] != "cont-token" {
		t.Errorf("continuation = %v, want cont-token", generic["continuation"])
	}
}

func TestNewChatParamsGraftURLIncludesVideoID(t *testing.T) {
	cp := NewChatParams(ChatParamsInput{VideoID: "abc123", Continuation: "c"})
	want := "https://www.youtube.com/live_chat?is_popout=1&v=abc123"
	if cp.Context.Client.MainAppWebInfo.GraftURL != want {
		t.Errorf("GraftURL = %q, want %q", cp.Context.Client.MainAppWebInfo.GraftURL, want)
	}
	if cp.Context.Client.OriginalURL != want {
		t.Errorf("OriginalURL = %q, want %q", cp.Context.Client.OriginalURL, want)
	}
}
