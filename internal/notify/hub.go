package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	ws "github.com/coder/websocket"

	"github.com/vladimiradmaev/carbclarity/internal/domain"
)

// ActionRefreshWidgets tells clients to re-fetch and redraw
const ActionRefreshWidgets = "refreshWidgets"

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

// Signal is the JSON message pushed to websocket clients after each write.
type Signal struct {
	Action    string `json:"action"`
	Timestamp int64  `json:"timestamp"`
	Kind      string `json:"kind"`
	ID        string `json:"id,omitempty"`
	Owner     int64  `json:"owner"`
}

// NewSignal builds the refresh signal for a change
func NewSignal(change domain.Change) Signal {
	return Signal{
		Action:    ActionRefreshWidgets,
		Timestamp: change.At.Unix(),
		Kind:      string(change.Kind),
		ID:        change.EntryID,
		Owner:     change.Owner,
	}
}

// Client represents a single WebSocket connection.
// A client with a nil owner receives the signals of every owner.
type Client struct {
	hub   *Hub
	conn  *ws.Conn
	send  chan []byte
	owner *int64
}

// NewClient creates a Client tied to the given hub and connection.
func NewClient(hub *Hub, conn *ws.Conn, owner *int64) *Client {
	return &Client{
		hub:   hub,
		conn:  conn,
		send:  make(chan []byte, sendBufferSize),
		owner: owner,
	}
}

func (c *Client) wants(owner int64) bool {
	return c.owner == nil || *c.owner == owner
}

// Run registers the client, starts the write pump, and runs the read pump.
// It blocks until the connection is closed, then unregisters.
func (c *Client) Run(ctx context.Context) {
	defer c.conn.CloseNow()

	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// readPump discards incoming messages and returns when the connection closes
func (c *Client) readPump(ctx context.Context) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Hub maintains the set of active WebSocket clients and broadcasts signals.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("sync client connected", "clients", h.ClientCount())
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a signal to every interested client. Full buffers drop it.
func (h *Hub) Broadcast(sig Signal) {
	data, err := json.Marshal(sig)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.wants(sig.Owner) {
			continue
		}
		select {
		case c.send <- data:
		default:
		}
	}
}

// Publish implements domain.ChangePublisher
func (h *Hub) Publish(change domain.Change) {
	h.Broadcast(NewSignal(change))
}

// Follow broadcasts changes until ctx is done or the channel closes.
func (h *Hub) Follow(ctx context.Context, changes <-chan domain.Change) {
	for {
		select {
		case change, ok := <-changes:
			if !ok {
				return
			}
			h.Publish(change)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades connections and runs them as Hub clients.
// The optional "owner" query parameter restricts signals to one owner.
func HandleWebSocket(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var owner *int64
		if raw := r.URL.Query().Get("owner"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				http.Error(w, "invalid owner", http.StatusBadRequest)
				return
			}
			owner = &id
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			hub.logger.Warn("websocket accept failed", "error", err)
			return
		}

		NewClient(hub, conn, owner).Run(r.Context())
	}
}

// NewServeMux exposes the hub on /ws
func NewServeMux(hub *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", HandleWebSocket(hub))
	return mux
}
