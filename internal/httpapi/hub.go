package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"marketclock/internal/dashboard"
	"marketclock/internal/store"
	"marketclock/internal/util"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum size of an incoming message.
	maxMessageSize = 4096

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 16

	// Inbound filter messages allowed per client.
	filterPerMinute = 240
	filterBurst     = 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// themeNotifier is implemented by preference stores that publish changes.
type themeNotifier interface {
	Subscribe(bufSize int) (int, <-chan store.Theme)
	Unsubscribe(id int)
}

// client is a single WebSocket connection with its own market filter.
type client struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	limiter *util.RateLimiter

	mu     sync.Mutex
	filter dashboard.Filter
}

func (c *client) currentFilter() dashboard.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

func (c *client) setFilter(f dashboard.Filter) {
	c.mu.Lock()
	c.filter = f
	c.mu.Unlock()
}

// Hub owns the connected clients and the single refresh ticker. Every tick
// each client receives a snapshot built with its own filter.
type Hub struct {
	build    func(dashboard.Filter) dashboard.Snapshot
	interval time.Duration
	notifier themeNotifier
	logger   *slog.Logger

	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	refresh    chan *client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a hub that refreshes clients every interval using build.
// notifier may be nil.
func NewHub(build func(dashboard.Filter) dashboard.Snapshot, interval time.Duration, notifier themeNotifier, logger *slog.Logger) *Hub {
	return &Hub{
		build:      build,
		interval:   interval,
		notifier:   notifier,
		logger:     logger,
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		refresh:    make(chan *client, 64),
		done:       make(chan struct{}),
	}
}

// Run drives the hub until ctx is cancelled. The ticker is stopped and every
// client's send channel closed before it returns.
func (h *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	defer close(h.done)

	var themes <-chan store.Theme
	if h.notifier != nil {
		id, ch := h.notifier.Subscribe(8)
		defer h.notifier.Unsubscribe(id)
		themes = ch
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
			h.mu.Unlock()
			h.logger.Info("ws: client connected", slog.String("client", c.id), slog.Int("total_clients", h.ClientCount()))
			h.push(c)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.logger.Info("ws: client disconnected", slog.String("client", c.id), slog.Int("total_clients", h.ClientCount()))

		case c := <-h.refresh:
			h.mu.RLock()
			ok := h.clients[c]
			h.mu.RUnlock()
			if ok {
				h.push(c)
			}

		case <-ticker.C:
			h.mu.RLock()
			for c := range h.clients {
				h.push(c)
			}
			h.mu.RUnlock()

		case t, ok := <-themes:
			if !ok {
				themes = nil
				continue
			}
			msg, err := encodeEnvelope(MsgTheme, newThemeResponse(t, true))
			if err != nil {
				continue
			}
			h.mu.RLock()
			for c := range h.clients {
				h.deliver(c, msg)
			}
			h.mu.RUnlock()
		}
	}
}

// push builds and queues a snapshot for c. Only called from Run.
func (h *Hub) push(c *client) {
	msg, err := encodeEnvelope(MsgSnapshot, h.build(c.currentFilter()))
	if err != nil {
		h.logger.Error("ws: encoding snapshot", slog.String("error", err.Error()))
		return
	}
	h.deliver(c, msg)
}

func (h *Hub) deliver(c *client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		// Client's send buffer is full; drop the message.
		h.logger.Warn("ws: dropping message for slow client", slog.String("client", c.id))
	}
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS upgrades an HTTP request to a WebSocket connection and registers
// the client with the hub.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	f, err := dashboard.ParseFilter(
		r.URL.Query().Get("search"),
		r.URL.Query().Get("country"),
		r.URL.Query().Get("status"),
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws: upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{
		id:      uuid.NewString(),
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		limiter: util.NewRateLimiter(filterPerMinute, filterBurst),
		filter:  f,
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump reads filter updates from the connection.
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
				c.hub.logger.Warn("ws: unexpected close error", slog.String("error", err.Error()))
			}
			return
		}

		if !c.limiter.Allow() {
			c.hub.logger.Warn("ws: client message rate exceeded", slog.String("client", c.id))
			continue
		}

		var msg FilterMessage
		if err := json.Unmarshal(message, &msg); err != nil || msg.Type != MsgFilter {
			continue
		}
		f, err := dashboard.ParseFilter(msg.Search, msg.Country, msg.Status)
		if err != nil {
			c.replyError(err)
			continue
		}
		c.setFilter(f)

		select {
		case c.hub.refresh <- c:
		case <-c.hub.done:
			return
		default:
			// Refresh queue is full; the next tick catches up.
		}
	}
}

func (c *client) replyError(err error) {
	msg, encErr := encodeEnvelope(MsgError, ErrorResponse{Error: err.Error()})
	if encErr != nil {
		return
	}
	// The hub lock keeps c.send open while we queue on it.
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.hub.clients[c] {
		c.hub.deliver(c, msg)
	}
}

// writePump pumps messages from the hub to the WebSocket connection and
// sends periodic pings.
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
				// The hub closed the channel.
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
