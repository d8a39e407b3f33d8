package eventfeed

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sipeed/chatwarden/internal/detector"
	"github.com/sipeed/chatwarden/internal/fabric"
	"github.com/sipeed/chatwarden/internal/ytlive"
)

func httpGet(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("finding a free port: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func TestHubBroadcastsDetectorEventsToClients(t *testing.T) {
	addr := freeAddr(t)
	in := fabric.New[detector.OutMessage]()
	defer in.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(addr)
	go hub.Run(ctx, in)

	var conn *websocket.Conn
	var err error
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, _, err = websocket.DefaultDialer.Dial("ws://"+addr+"/events", nil)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("dialing event feed: %v", err)
	}
	defer conn.Close()

	sender := in.Sender()
	if _, err := sender.Send(ctx, detector.DetectorResult{
		VideoID: "v1",
		Decisions: []detector.UserDecision{
			{ChannelID: "UC2", Decision: ytlive.Decision{Kind: ytlive.DecisionBlocked, AvgValue: 2.5}},
		},
	}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading from event feed: %v", err)
	}

	var got event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshalling event: %v", err)
	}
	if got.Type != "detector_result" {
		t.Errorf("event.Type = %q, want detector_result", got.Type)
	}
}

func TestHubHealthEndpointReportsConnectedClients(t *testing.T) {
	addr := freeAddr(t)
	in := fabric.New[detector.OutMessage]()
	defer in.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(addr)
	go hub.Run(ctx, in)

	var conn *websocket.Conn
	var err error
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, _, err = websocket.DefaultDialer.Dial("ws://"+addr+"/events", nil)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("dialing event feed: %v", err)
	}
	defer conn.Close()

	var resp struct {
		Status  string `json:"status"`
		Clients int    `json:"clients"`
	}
	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		r, err := httpGet("http://" + addr + "/health")
		if err == nil {
			if jsonErr := json.Unmarshal(r, &resp); jsonErr == nil && resp.Clients == 1 {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("health endpoint never reported 1 client, last = %+v", resp)
}
