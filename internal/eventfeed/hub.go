// Package eventfeed exposes chatwarden's detector events over a
// WebSocket endpoint so an external consumer (a dashboard, a second
// process, a log shipper) can watch decisions as they happen.
// chatwarden itself renders nothing; this is the transport only.
package eventfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sipeed/chatwarden/internal/detector"
	"github.com/sipeed/chatwarden/internal/fabric"
	"github.com/sipeed/chatwarden/internal/logctl"
)

const component = "eventfeed"

// Hub runs a WebSocket server and broadcasts every detector.OutMessage
// it receives to all currently connected clients. Clients are written
// to one after another with no write deadline, so a slow client delays
// delivery to the clients after it; a client whose write fails is
// dropped. A client that misses an event because it wasn't connected
// yet never sees it replayed.
type Hub struct {
	addr     string
	upgrader websocket.Upgrader
	server   *http.Server

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]bool
}

// NewHub builds a Hub that will listen on addr once Run is called.
func NewHub(addr string) *Hub {
	return &Hub{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]bool),
	}
}

// Run starts the HTTP server and consumes in until ctx is cancelled.
// It blocks until shutdown completes.
func (h *Hub) Run(ctx context.Context, in *fabric.Chan[detector.OutMessage]) {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", h.handleWS)
	mux.HandleFunc("/health", h.handleHealth)

	h.server = &http.Server{Addr: h.addr, Handler: mux}

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logctl.Error(component, "http server error", map[string]any{"error": err.Error()})
		}
	}()
	logctl.Info(component, "event feed listening", map[string]any{"addr": h.addr})

	h.consume(ctx, in)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h.server.Shutdown(shutdownCtx)

	h.clientsMu.Lock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
	h.clientsMu.Unlock()
}

func (h *Hub) consume(ctx context.Context, in *fabric.Chan[detector.OutMessage]) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in.In():
			if !ok {
				return
			}
			h.broadcast(msg)
		}
	}
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logctl.Error(component, "websocket upgrade failed", map[string]any{"error": err.Error()})
		return
	}

	h.clientsMu.Lock()
	h.clients[conn] = true
	total := len(h.clients)
	h.clientsMu.Unlock()
	logctl.Info(component, "client connected", map[string]any{"total_clients": total})

	go h.readPump(conn)
}

func (h *Hub) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.clientsMu.RLock()
	total := len(h.clients)
	h.clientsMu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "clients": total})
}

// readPump discards anything a client sends; the feed is one-way, but
// the read keeps the connection's control frames (ping/close) flowing
// and detects when the client has gone away.
func (h *Hub) readPump(conn *websocket.Conn) {
	defer func() {
		h.clientsMu.Lock()
		delete(h.clients, conn)
		total := len(h.clients)
		h.clientsMu.Unlock()
		conn.Close()
		logctl.Info(component, "client disconnected", map[string]any{"total_clients": total})
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// event is the wire shape delivered to every client: a type tag plus
// the underlying detector payload, so a consumer can discriminate
// without knowing chatwarden's internal Go types.
type event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (h *Hub) broadcast(msg detector.OutMessage) {
	var e event
	switch m := msg.(type) {
	case detector.NewChat:
		e = event{Type: "new_chat", Payload: m}
	case detector.DetectorResult:
		e = event{Type: "detector_result", Payload: m}
	case detector.ChatClosed:
		e = event{Type: "chat_closed", Payload: m}
	default:
		logctl.Warn(component, "unhandled out message type", map[string]any{"type": fmt.Sprintf("%T", msg)})
		return
	}

	data, err := json.Marshal(e)
	if err != nil {
		logctl.Error(component, "failed to marshal event", map[string]any{"error": err.Error()})
		return
	}

	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	var dead []*websocket.Conn
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			dead = append(dead, conn)
		}
	}
	for _, conn := range dead {
		conn.Close()
		delete(h.clients, conn)
	}
}
