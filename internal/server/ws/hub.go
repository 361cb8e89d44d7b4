// Package ws streams simulation progress to WebSocket clients.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256

	replayPage    = 200
	replayTimeout = 10 * time.Second
)

// Message types sent to clients. Each maps to one signal bus channel.
const (
	TypeDay    = "day"
	TypeStatus = "status"
)

var channelTypes = map[string]string{
	domain.ChannelDay:    TypeDay,
	domain.ChannelStatus: TypeStatus,
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// envelope is the frame format: {"type": "day", "payload": {...}}.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// StatusFunc reports the current run status for the greeting frame.
type StatusFunc func() any

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	subs map[string]bool
	mu   sync.RWMutex
}

// clientMsg is a request from a client. "subscribe" and "unsubscribe" change
// which message types it receives; "replay" resends the recorded days of
// RunID (every run when empty) from the day stream.
type clientMsg struct {
	Action string   `json:"action"`
	Types  []string `json:"types,omitempty"`
	RunID  string   `json:"run_id,omitempty"`
}

// Hub fans day snapshots and status changes out to connected clients. With
// a SignalBus it relays the bus channels, so any replica can serve clients;
// without one, the simulation feeds it directly through Record.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan envelopeMsg
	register   chan *client
	unregister chan *client
	direct     chan directMsg
	done       chan struct{}
	bus        domain.SignalBus
	status     StatusFunc
	mu         sync.RWMutex
	logger     *slog.Logger
}

type envelopeMsg struct {
	typ  string
	data []byte
}

// directMsg is a frame for one client only.
type directMsg struct {
	c    *client
	data []byte
}

// NewHub creates a hub. bus and status may be nil.
func NewHub(bus domain.SignalBus, status StatusFunc, logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan envelopeMsg, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		direct:     make(chan directMsg),
		done:       make(chan struct{}),
		bus:        bus,
		status:     status,
		logger:     logger.With(slog.String("component", "ws")),
	}
}

// Run is the hub event loop. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	if h.bus != nil {
		for ch, typ := range channelTypes {
			go h.relay(ctx, ch, typ)
		}
	}

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return ctx.Err()

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client connected", slog.Int("total_clients", n))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client disconnected", slog.Int("total_clients", n))

		case m := <-h.direct:
			h.mu.RLock()
			if h.clients[m.c] {
				select {
				case m.c.send <- m.data:
				default:
					h.logger.Warn("dropping replay frame for slow client")
				}
			}
			h.mu.RUnlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				if !c.isSubscribed(msg.typ) {
					continue
				}
				select {
				case c.send <- msg.data:
				default:
					h.logger.Warn("dropping message for slow client", slog.String("type", msg.typ))
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues payload for every client subscribed to typ.
func (h *Hub) Broadcast(ctx context.Context, typ string, payload []byte) error {
	frame, err := json.Marshal(envelope{Type: typ, Payload: payload})
	if err != nil {
		return fmt.Errorf("ws: encode %s frame: %w", typ, err)
	}
	select {
	case h.broadcast <- envelopeMsg{typ: typ, data: frame}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Record implements simulation.Recorder for in-process streaming.
func (h *Hub) Record(ctx context.Context, snap domain.DaySnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("ws: encode day %d: %w", snap.Day, err)
	}
	return h.Broadcast(ctx, TypeDay, payload)
}

// relay forwards one bus channel to clients.
func (h *Hub) relay(ctx context.Context, channel, typ string) {
	msgs, err := h.bus.Subscribe(ctx, channel)
	if err != nil {
		h.logger.Error("subscribe failed", slog.String("channel", channel), slog.String("error", err.Error()))
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-msgs:
			if !ok {
				h.logger.Warn("channel subscription closed", slog.String("channel", channel))
				return
			}
			if err := h.Broadcast(ctx, typ, data); err != nil {
				return
			}
		}
	}
}

// replay sends c the day snapshots recorded on the day stream, oldest first.
// It needs a SignalBus; without one it does nothing.
func (h *Hub) replay(c *client, runID string) {
	if h.bus == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), replayTimeout)
	defer cancel()

	sent := 0
	lastID := "0"
	for {
		msgs, err := h.bus.StreamRead(ctx, domain.StreamDays, lastID, replayPage)
		if err != nil {
			h.logger.Warn("replay read failed", slog.String("error", err.Error()))
			return
		}
		for _, m := range msgs {
			lastID = m.ID
			if runID != "" && snapshotRun(m.Payload) != runID {
				continue
			}
			frame, err := json.Marshal(envelope{Type: TypeDay, Payload: m.Payload})
			if err != nil {
				continue
			}
			select {
			case h.direct <- directMsg{c: c, data: frame}:
				sent++
			case <-h.done:
				return
			}
		}
		if len(msgs) < replayPage {
			break
		}
	}
	h.logger.Debug("replay sent", slog.String("run_id", runID), slog.Int("days", sent))
}

func snapshotRun(payload []byte) string {
	var head struct {
		RunID string `json:"run_id"`
	}
	_ = json.Unmarshal(payload, &head)
	return head.RunID
}

// HandleWS upgrades the request and registers the client, subscribed to
// every message type.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("upgrade failed", slog.String("error", err.Error()))
		return
	}
	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		subs: map[string]bool{TypeDay: true, TypeStatus: true},
	}
	c.greet()
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// greet queues the current status so clients can render before the next day.
func (c *client) greet() {
	if c.hub.status == nil {
		return
	}
	payload, err := json.Marshal(c.hub.status())
	if err != nil {
		return
	}
	frame, err := json.Marshal(envelope{Type: TypeStatus, Payload: payload})
	if err != nil {
		return
	}
	c.send <- frame
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("unexpected close", slog.String("error", err.Error()))
			}
			return
		}
		var msg clientMsg
		if json.Unmarshal(message, &msg) != nil {
			continue
		}
		if msg.Action == "replay" {
			c.hub.replay(c, msg.RunID)
			continue
		}
		c.handleSubscription(msg)
	}
}

func (c *client) handleSubscription(msg clientMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch msg.Action {
	case "subscribe":
		for _, t := range msg.Types {
			c.subs[t] = true
		}
	case "unsubscribe":
		for _, t := range msg.Types {
			delete(c.subs, t)
		}
	}
}

func (c *client) isSubscribed(typ string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subs[typ]
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
