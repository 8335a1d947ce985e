// game/ws/client.go
package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Ftotnem/AIRCARGO-SERVICES/game/events"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Heartbeat frames are plain text, outside the event envelope.
const (
	pingFrame = "ping"
	pongFrame = "pong"
)

var (
	ErrConnClosed    = errors.New("connection closed")
	ErrSendQueueFull = errors.New("send queue full")
)

// hello is the first frame of every accepted connection.
type hello struct {
	PingInterval        int64 `json:"ping_interval"`
	MaxPongAwaitingTime int64 `json:"max_pong_awaiting_time"`
}

// client is one accepted WebSocket. Send never blocks: frames go through a
// buffered queue drained by writePump, and a full queue closes the
// connection.
type client struct {
	id     uuid.UUID
	conn   *websocket.Conn
	cfg    Config
	log    *slog.Logger
	send   chan []byte
	pong   chan struct{}
	closed chan struct{}

	closeOnce sync.Once
	closeCode int
	closeText string
}

func newClient(conn *websocket.Conn, cfg Config, logger *slog.Logger) *client {
	id := uuid.New()
	return &client{
		id:        id,
		conn:      conn,
		cfg:       cfg,
		log:       logger.With(slog.String("conn_id", id.String())),
		send:      make(chan []byte, cfg.SendBuffer),
		pong:      make(chan struct{}, 1),
		closed:    make(chan struct{}),
		closeCode: websocket.CloseNormalClosure,
	}
}

func (c *client) ID() uuid.UUID { return c.id }

func (c *client) Send(msg events.Message) error {
	frame, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", msg.Type, err)
	}
	select {
	case <-c.closed:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	default:
		c.closeWith(websocket.ClosePolicyViolation, "send queue full")
		return ErrSendQueueFull
	}
}

// Close asks writePump to send a normal close frame and drop the socket.
func (c *client) Close() error {
	c.closeWith(websocket.CloseNormalClosure, "")
	return nil
}

func (c *client) closeWith(code int, text string) {
	c.closeOnce.Do(func() {
		c.closeCode, c.closeText = code, text
		close(c.closed)
	})
}

// writeHello sends the heartbeat parameters before any event.
func (c *client) writeHello() error {
	c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return c.conn.WriteJSON(hello{
		PingInterval:        c.cfg.PingInterval.Milliseconds(),
		MaxPongAwaitingTime: c.cfg.MaxPongWait.Milliseconds(),
	})
}

// writePump owns every write to the socket after the hello. It sends a text
// ping each PingInterval and closes with 1001 when the pong does not arrive
// within MaxPongWait.
func (c *client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	var pongDeadline <-chan time.Time
	for {
		select {
		case frame := <-c.send:
			if err := c.write(websocket.TextMessage, frame); err != nil {
				c.log.Debug("write failed", slog.Any("error", err))
				c.closeWith(websocket.CloseAbnormalClosure, "")
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.TextMessage, []byte(pingFrame)); err != nil {
				c.closeWith(websocket.CloseAbnormalClosure, "")
				return
			}
			if pongDeadline == nil {
				pongDeadline = time.After(c.cfg.MaxPongWait)
			}
		case <-c.pong:
			pongDeadline = nil
		case <-pongDeadline:
			c.log.Info("heartbeat lost")
			c.closeWith(websocket.CloseGoingAway, "heartbeat timeout")
			c.writeClose()
			return
		case <-c.closed:
			c.flush()
			c.writeClose()
			return
		}
	}
}

// flush writes frames queued before the close was requested.
func (c *client) flush() {
	for {
		select {
		case frame := <-c.send:
			if c.write(websocket.TextMessage, frame) != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *client) writeClose() {
	if c.closeCode == websocket.CloseAbnormalClosure {
		return
	}
	msg := websocket.FormatCloseMessage(c.closeCode, c.closeText)
	if err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		c.log.Debug("close frame not sent", slog.Any("error", err))
	}
}

func (c *client) write(messageType int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return c.conn.WriteMessage(messageType, data)
}

// gotPong records a heartbeat answer without blocking the read loop.
func (c *client) gotPong() {
	select {
	case c.pong <- struct{}{}:
	default:
	}
}
