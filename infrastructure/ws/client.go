package ws

import (
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 256
)

type ClientConfig struct {
	MaxMessageSize    int64
	RateLimitBurst    int
	RateLimitInterval time.Duration
}

// UserClient is one authenticated websocket connection.
type UserClient struct {
	UserId    int64
	SessionId string

	conn    *websocket.Conn
	send    chan []byte
	limiter *rateLimiter
	log     zerolog.Logger

	mu     sync.Mutex
	closed bool
}

// NewClient wraps conn for userId. conn may be nil for clients that are only
// fed and drained in-process.
func NewClient(userId int64, conn *websocket.Conn, cfg ClientConfig, log zerolog.Logger) *UserClient {
	if conn != nil && cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	sessionId := uuid.NewString()
	return &UserClient{
		UserId:    userId,
		SessionId: sessionId,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		limiter:   newRateLimiter(cfg.RateLimitBurst, cfg.RateLimitInterval),
		log: log.With().
			Int64("user_id", userId).
			Str("session_id", sessionId).
			Logger(),
	}
}

// Send queues message without blocking. It reports false when the client is
// closed or its buffer is full.
func (c *UserClient) Send(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *UserClient) SendChan() <-chan []byte {
	return c.send
}

// Close stops outgoing delivery. The write pump flushes a close frame and
// shuts the connection down. Safe to call more than once.
func (c *UserClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *UserClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// ReadPump reads frames until the connection ends, passing each allowed frame
// to handle in arrival order. Frames over the rate limit are dropped and
// reported to throttled, which may be nil.
func (c *UserClient) ReadPump(handle func(data []byte), throttled func()) {
	defer c.closeConn()

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn().Err(err).Msg("set read deadline")
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		if !c.limiter.allow() {
			c.log.Warn().Msg("rate limit exceeded; frame dropped")
			if throttled != nil {
				throttled()
			}
			continue
		}

		handle(data)
	}
}

// WritePump drains the send channel onto the connection and keeps it alive
// with pings.
func (c *UserClient) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConn()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
					c.log.Debug().Err(err).Msg("write close frame")
				}
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				if !isExpectedCloseError(err) {
					c.log.Warn().Err(err).Msg("write message")
				}
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *UserClient) closeConn() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.log.Debug().Err(err).Msg("close connection")
	}
}

func (c *UserClient) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.log.Warn().Msg("frame exceeded maximum size")
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		c.log.Debug().Msg("client disconnected")
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.log.Debug().Err(err).Msg("connection closed")
	default:
		c.log.Warn().Err(err).Msg("read error")
	}
}

func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "websocket: close sent") ||
		strings.Contains(msg, "broken pipe")
}
