package realtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/mcoot/triviaduel/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed for the close frame once the client is closed
	closeGracePeriod = time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size
	maxMessageSize = 4096

	// Buffer size for outgoing messages
	sendBufferSize = 256

	// Inbound message budget per connection
	messagesPerSecond = 20
	messageBurst      = 40
)

// Client is one websocket connection. Its id is the player's identity for
// as long as the connection lives.
type Client struct {
	id          model.PlayerID
	conn        *websocket.Conn
	send        chan []byte
	done        chan struct{}
	closeOnce   sync.Once
	limiter     *rate.Limiter
	connectedAt time.Time
	logger      *slog.Logger
}

// NewClient wraps an upgraded connection with a fresh player id
func NewClient(conn *websocket.Conn, logger *slog.Logger) *Client {
	return newClient(model.PlayerID(uuid.NewString()), conn, logger)
}

func newClient(id model.PlayerID, conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		id:          id,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		done:        make(chan struct{}),
		limiter:     rate.NewLimiter(rate.Limit(messagesPerSecond), messageBurst),
		connectedAt: time.Now(),
		logger:      logger.With(slog.String("player_id", string(id))),
	}
}

// ID returns the player id bound to this connection
func (c *Client) ID() model.PlayerID {
	return c.id
}

// Allow reports whether another inbound message fits the rate budget
func (c *Client) Allow() bool {
	return c.limiter.Allow()
}

// Done is closed once the client has been closed
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// ConnectedFor returns how long the connection has been open
func (c *Client) ConnectedFor() time.Duration {
	return time.Since(c.connectedAt)
}

// enqueue queues data for the write pump without blocking. It returns
// false when the client is closed or its buffer is full.
func (c *Client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
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

// Close stops both pumps and closes the underlying connection. It never
// blocks and is safe to call more than once from any goroutine.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn == nil {
			return
		}
		// WriteControl and Close are the only Conn methods safe to call
		// alongside the write pump. A pending write is aborted by Close.
		go func() {
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(closeGracePeriod))
			_ = c.conn.Close()
		}()
	})
}

// ReadPump reads inbound frames and hands each to handle until the
// connection fails or the client is closed
func (c *Client) ReadPump(handle func(data []byte)) {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) && !c.closed() {
				c.logger.Warn("websocket read error", slog.Any("error", err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		handle(data)
	}
}

// WritePump drains the send buffer to the connection and keeps it alive with pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("websocket write failed", slog.Any("error", err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}
