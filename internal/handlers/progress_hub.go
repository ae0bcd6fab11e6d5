package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ProgressEvent is one upload lifecycle event pushed to connected clients
type ProgressEvent struct {
	Type      string      `json:"type"`
	Content   interface{} `json:"content,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ProgressHub fans upload lifecycle events out to connected websocket clients. A nil
// hub is valid and drops every event, which is how the feature is disabled.
type ProgressHub struct {
	allowedOrigins []string

	clients    map[*progressClient]bool
	register   chan *progressClient
	unregister chan *progressClient
	broadcast  chan ProgressEvent

	shutdown     chan struct{}
	shutdownOnce sync.Once
}

type progressClient struct {
	conn *websocket.Conn
	send chan ProgressEvent
}

// NewProgressHub creates a new progress hub
func NewProgressHub(allowedOrigins []string) *ProgressHub {
	return &ProgressHub{
		allowedOrigins: allowedOrigins,
		clients:        make(map[*progressClient]bool),
		register:       make(chan *progressClient),
		unregister:     make(chan *progressClient),
		broadcast:      make(chan ProgressEvent, 64),
		shutdown:       make(chan struct{}),
	}
}

// Run processes register/unregister/broadcast events until Shutdown is called.
// Callers run it in its own goroutine.
func (h *ProgressHub) Run() {
	for {
		select {
		case <-h.shutdown:
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case event := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- event:
				default:
					// Slow client, drop it
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// Broadcast queues an event for delivery to every connected client. Events are dropped
// when the hub is nil, stopped or saturated; progress delivery is best-effort.
func (h *ProgressHub) Broadcast(eventType string, content interface{}) {
	if h == nil {
		return
	}

	event := ProgressEvent{
		Type:      eventType,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	}

	select {
	case h.broadcast <- event:
	case <-h.shutdown:
	default:
	}
}

// Shutdown stops the hub and disconnects every client
func (h *ProgressHub) Shutdown() {
	if h == nil {
		return
	}
	h.shutdownOnce.Do(func() {
		close(h.shutdown)
	})
}

// ServeWs upgrades the request and registers the client with the hub
func (h *ProgressHub) ServeWs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			log.Printf("Rejected WebSocket connection from origin: %s", origin)
			return false
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading connection: %v", err)
		return
	}

	client := &progressClient{
		conn: conn,
		send: make(chan ProgressEvent, 64),
	}
	h.register <- client

	go client.writePump()
	go client.readPump(h)
}

// readPump drains client messages until the connection closes. Clients only listen;
// anything they send is discarded.
func (c *progressClient) readPump(h *ProgressHub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.shutdown:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}

// writePump pushes events from the hub to the websocket
func (c *progressClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
