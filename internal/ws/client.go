package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Client is one live connection. Its room set is guarded by the hub's
// lock; the send channel is drained by exactly one writer goroutine.
type Client struct {
	ID          string
	UserID      int
	ConnectedAt time.Time

	conn  *websocket.Conn
	send  chan []byte
	rooms map[int]struct{}

	mu     sync.Mutex
	closed bool
}

// NewClient wraps an upgraded connection for the user.
func NewClient(conn *websocket.Conn, userID int) *Client {
	return &Client{
		ID:          uuid.NewString(),
		UserID:      userID,
		ConnectedAt: time.Now(),
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		rooms:       make(map[int]struct{}),
	}
}

// enqueue hands a payload to the writer goroutine without blocking.
// Returns false once closeSend has run, so a stale room snapshot can
// never send on the closed channel.
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound channel exactly once, terminating the
// writer goroutine. Shares a lock with enqueue so in-flight fan-out
// sees the closed flag before the channel goes away.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Close tears down the underlying socket; the read loop observes the
// error and runs the usual unregister path.
func (c *Client) Close() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// WritePump drains the send channel onto the socket and keeps the
// connection alive with pings. Runs as the connection's only writer.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
