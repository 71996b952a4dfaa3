package realtime

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
	maxMessageSize = 512
	sendBuffer     = 16
)

// Client is one websocket session. Clients only receive; anything they send
// is read and discarded to keep the connection's control frames flowing.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// NewUpgrader returns an upgrader that accepts browser origins listed in
// allowed. An empty list or "*" accepts any origin. Requests without an
// Origin header, and same-host requests, are always accepted.
func NewUpgrader(allowed []string) *websocket.Upgrader {
	return &websocket.Upgrader{CheckOrigin: CheckOrigin(allowed)}
}

// CheckOrigin builds the origin check used by NewUpgrader.
func CheckOrigin(allowed []string) func(*http.Request) bool {
	wildcard := len(allowed) == 0
	for _, o := range allowed {
		if o == "*" {
			wildcard = true
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if wildcard || origin == "" {
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(strings.TrimSuffix(o, "/"), origin) {
				return true
			}
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// ServeWS upgrades the request and blocks until the session ends.
func ServeWS(w http.ResponseWriter, r *http.Request, hub *Hub, upgrader *websocket.Upgrader, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Warn("Websocket upgrade failed", "user_id", userID, "error", err)
		return
	}
	client := &Client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	hub.Register(userID, client)
	hub.logger.Debug("Websocket connected", "user_id", userID)

	go client.writePump(hub, userID)
	client.readPump(hub, userID)
}

func (c *Client) readPump(hub *Hub, userID string) {
	defer func() {
		hub.Unregister(userID, c)
		close(c.done)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump(hub *Hub, userID string) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		hub.Unregister(userID, c)
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
