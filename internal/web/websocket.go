package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/machenxing/bionic/core/bionic"
	"github.com/machenxing/bionic/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	// maxMessageSize bounds inbound frames; whole documents travel in
	// set_text messages, so allow a few megabytes.
	maxMessageSize = 8 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The preview server binds locally; cross-origin pages on the
		// same host are fine.
		return true
	},
}

// clientMessage is what the reader page sends over the socket.
type clientMessage struct {
	Type  string   `json:"type"` // "set_text", "set_ratio", "load_document"
	Text  string   `json:"text,omitempty"`
	Ratio *float64 `json:"ratio,omitempty"`
	ID    string   `json:"id,omitempty"` // library entry for load_document
}

// serverMessage is what the server sends back.
type serverMessage struct {
	Type      string  `json:"type"` // "session", "render", "error"
	Session   string  `json:"session,omitempty"`
	HTML      string  `json:"html,omitempty"`
	Ratio     float64 `json:"ratio,omitempty"`
	Title     string  `json:"title,omitempty"`
	Message   string  `json:"message,omitempty"`
	Timestamp string  `json:"timestamp"`
}

// Client is one reader page connection. Each client carries its own text
// and ratio, so two tabs can preview different documents side by side.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	session string

	server *Server
	text   string
	ratio  float64
}

// Hub tracks connected preview clients and fans out broadcast frames.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run dispatches registration and broadcast events until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			logging.WebSocketEvent("client_connected", n, "session", client.session)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			logging.WebSocketEvent("client_disconnected", n, "session", client.session)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a message for every connected client. Used for notices
// that concern all tabs, like recent-list changes.
func (h *Hub) Broadcast(msg serverMessage) {
	if msg.Timestamp == "" {
		msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		logging.Error("marshaling broadcast message", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		logging.Warn("broadcast channel full, dropping message")
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// handleWebSocket upgrades the connection and starts the client pumps.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:     s.hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		session: uuid.NewString(),
		server:  s,
		ratio:   s.cfg.Settings.Ratio(),
	}
	s.hub.register <- client

	go client.writePump()
	go client.readPump()

	client.reply(serverMessage{Type: "session", Session: client.session, Ratio: client.ratio})
}

// reply queues a message for this client only.
func (c *Client) reply(msg serverMessage) {
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	if msg.Session == "" {
		msg.Session = c.session
	}
	data, err := json.Marshal(msg)
	if err != nil {
		logging.Error("marshaling websocket message", "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		logging.Warn("client send buffer full, dropping message", "session", c.session)
	}
}

// render re-renders the client's current text and queues the result.
func (c *Client) render(title string) {
	start := time.Now()
	html := c.server.cache.Render(c.text, c.ratio, previewMarkup, "html")
	logging.RenderEvent("html", c.ratio, len(c.text), time.Since(start), "session", c.session)
	c.reply(serverMessage{Type: "render", HTML: html, Ratio: c.ratio, Title: title})
}

// handleMessage applies one client message to the session state.
func (c *Client) handleMessage(data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply(serverMessage{Type: "error", Message: "invalid message: " + err.Error()})
		return
	}

	switch msg.Type {
	case "set_text":
		c.text = msg.Text
		if msg.Ratio != nil {
			c.ratio = bionic.ClampRatio(*msg.Ratio)
		}
		c.render("")

	case "set_ratio":
		if msg.Ratio == nil {
			c.reply(serverMessage{Type: "error", Message: "set_ratio requires a ratio"})
			return
		}
		c.ratio = bionic.ClampRatio(*msg.Ratio)
		c.render("")

	case "load_document":
		c.loadDocument(msg.ID)

	default:
		c.reply(serverMessage{Type: "error", Message: "unknown message type: " + msg.Type})
	}
}

// loadDocument pulls a library entry, re-extracts its source file and makes
// it the session's text.
func (c *Client) loadDocument(id string) {
	store := c.server.cfg.Library
	if store == nil {
		c.reply(serverMessage{Type: "error", Message: "no document library configured"})
		return
	}
	entry, err := store.Get(id)
	if err != nil {
		c.reply(serverMessage{Type: "error", Message: err.Error()})
		return
	}
	doc, err := c.server.extract(entry.Path)
	if err != nil {
		c.reply(serverMessage{Type: "error", Message: err.Error()})
		return
	}
	if err := store.Touch(entry.ID); err != nil {
		logging.Warn("updating last-opened time", "id", entry.ID, "error", err)
	}
	c.text = doc.Text
	c.render(entry.Title)

	// The touch reordered the recent list for every tab.
	c.hub.Broadcast(serverMessage{Type: "recent_updated"})
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error("websocket unexpected close", "error", err)
			}
			break
		}
		c.handleMessage(data)
	}
}

func (c *Client) writePump() {
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
