package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"medaware/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 20 // one encoded camera frame
	sendBufferSize = 16
)

type outbound struct {
	data  []byte
	close bool
}

// Client is one streaming connection. All writes go through its write pump;
// reads stay with the handler goroutine.
type Client struct {
	ID string

	conn   *websocket.Conn
	send   chan outbound
	done   chan struct{}
	once   sync.Once
	logger *logger.Logger

	// waitTimeout bounds SendReliable and SendAndClose on a full buffer.
	waitTimeout time.Duration
}

// NewClient wraps conn and applies read limits and keepalive deadlines.
func NewClient(conn *websocket.Conn, logger *logger.Logger) *Client {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	return &Client{
		ID:     uuid.NewString(),
		conn:   conn,
		send:   make(chan outbound, sendBufferSize),
		done:   make(chan struct{}),
		logger: logger,

		waitTimeout: writeWait,
	}
}

// Conn returns the underlying connection for reading.
func (c *Client) Conn() *websocket.Conn {
	return c.conn
}

// Send queues a text message. It returns false when the client is gone or
// its buffer is full; the message is dropped in both cases. Use it for
// messages a newer one supersedes, such as annotated frames.
func (c *Client) Send(message []byte) bool {
	if c.closed() {
		return false
	}

	select {
	case c.send <- outbound{data: message}:
		return true
	case <-c.done:
		return false
	default:
		c.logger.Warning("Send buffer full for client %s, dropping message", c.ID)
		return false
	}
}

// SendReliable queues a message that must not be dropped while the client is
// alive. On a full buffer it waits for the write pump, up to writeWait; a
// client that stays stuck that long is closed.
func (c *Client) SendReliable(message []byte) bool {
	return c.enqueueWait(outbound{data: message})
}

// SendAndClose queues a final message, after which the connection is closed.
func (c *Client) SendAndClose(message []byte) bool {
	return c.enqueueWait(outbound{data: message, close: true})
}

func (c *Client) enqueueWait(msg outbound) bool {
	if c.closed() {
		return false
	}

	timer := time.NewTimer(c.waitTimeout)
	defer timer.Stop()

	select {
	case c.send <- msg:
		return true
	case <-c.done:
		return false
	case <-timer.C:
		c.logger.Error("Client %s did not drain its send buffer in %s, closing", c.ID, c.waitTimeout)
		c.Close()
		return false
	}
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Done is closed once the client is closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close stops the write pump and closes the connection. Safe to call repeatedly.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// WritePump writes queued messages and keepalive pings until the client closes.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return

		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
				c.logger.Error("Error sending message to client %s: %v", c.ID, err)
				return
			}
			if msg.close {
				c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ""),
					time.Now().Add(writeWait))
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
