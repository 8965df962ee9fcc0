package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ConnLike is the part of a websocket connection the client pumps use.
type ConnLike interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(int, []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	Close() error
}

type ClientConfig struct {
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
}

// Client is the websocket-backed Channel. Outbound events go through a
// bounded queue drained by WritePump.
type Client struct {
	id   string
	conn ConnLike
	cfg  ClientConfig
	log  zerolog.Logger

	send    chan []byte
	done    chan struct{}
	stopped chan struct{} // closed when WritePump returns

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

func NewClient(conn ConnLike, cfg ClientConfig, log zerolog.Logger) *Client {
	if cfg.SendBuffer < 1 {
		cfg.SendBuffer = 16
	}
	id := uuid.NewString()
	return &Client{
		id:      id,
		conn:    conn,
		cfg:     cfg,
		log:     log.With().Str("conn_id", id).Logger(),
		send:    make(chan []byte, cfg.SendBuffer),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) Send(ev OutboundEvent) error {
	data, err := json.Marshal(&ev)
	if err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrChannelClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close marks the client closed, fires Done and closes the socket. Safe to
// call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// ReadPump blocks until the connection fails, handing every text frame to
// onMessage. The client is closed on return.
func (c *Client) ReadPump(onMessage func([]byte)) {
	defer c.Close()

	if c.cfg.MaxMessageSize > 0 {
		c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	}
	if c.cfg.PongWait > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		c.conn.SetPongHandler(func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		})
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.log.Debug().Err(err).Msg("read loop finished")
			return
		}
		onMessage(data)
	}
}

// WritePump drains the send queue until the client closes. It must be
// started at most once; Stopped fires when it returns.
func (c *Client) WritePump() {
	defer close(c.stopped)

	var tick <-chan time.Time
	if c.cfg.PingPeriod > 0 {
		ticker := time.NewTicker(c.cfg.PingPeriod)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			if c.isClosed() {
				return
			}
			c.setWriteDeadline()
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Debug().Err(err).Msg("write failed")
				_ = c.Close()
				return
			}
		case <-tick:
			if c.isClosed() {
				return
			}
			c.setWriteDeadline()
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}

// Stopped is closed once WritePump has returned. The socket must not be
// handed back to the transport before that.
func (c *Client) Stopped() <-chan struct{} { return c.stopped }

func (c *Client) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) setWriteDeadline() {
	if c.cfg.WriteWait > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
	}
}
