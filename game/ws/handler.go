// game/ws/handler.go
package ws

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Ftotnem/AIRCARGO-SERVICES/game/core"
	"github.com/Ftotnem/AIRCARGO-SERVICES/game/dispatch"
	"github.com/Ftotnem/AIRCARGO-SERVICES/game/events"
	"github.com/Ftotnem/AIRCARGO-SERVICES/game/service"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Config tunes the transport.
type Config struct {
	PingInterval time.Duration
	MaxPongWait  time.Duration // must not exceed PingInterval
	SendBuffer   int
	WriteTimeout time.Duration
	ReadLimit    int64
}

func (c Config) withDefaults() Config {
	if c.PingInterval <= 0 {
		c.PingInterval = time.Second
	}
	if c.MaxPongWait <= 0 || c.MaxPongWait > c.PingInterval {
		c.MaxPongWait = c.PingInterval
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 256
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = 4096
	}
	return c
}

// Engine is the part of the game session the transport drives.
type Engine interface {
	LookupToken(token string) (uuid.UUID, error)
	AttachSession(playerID uuid.UUID, conn service.Conn) error
	DetachSession(connID uuid.UUID)
	HandleEvent(playerID uuid.UUID, req events.Request) error
}

// Handler upgrades authenticated requests to game connections. The player's
// token travels as the Sec-WebSocket-Protocol value and is echoed back.
type Handler struct {
	engine     Engine
	dispatcher *dispatch.Dispatcher
	cfg        Config
	log        *slog.Logger
	upgrader   websocket.Upgrader

	mu      sync.Mutex
	clients map[uuid.UUID]*client
}

func NewHandler(engine Engine, dispatcher *dispatch.Dispatcher, cfg Config, logger *slog.Logger) *Handler {
	return &Handler{
		engine:     engine,
		dispatcher: dispatcher,
		cfg:        cfg.withDefaults(),
		log:        logger.With(slog.String("component", "ws")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[uuid.UUID]*client),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	protocols := websocket.Subprotocols(r)
	if len(protocols) == 0 {
		http.Error(w, "missing token", http.StatusForbidden)
		return
	}
	token := protocols[0]
	playerID, err := h.engine.LookupToken(token)
	if err != nil {
		h.log.Info("handshake rejected", slog.String("remote_addr", r.RemoteAddr), slog.Any("error", err))
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, http.Header{"Sec-Websocket-Protocol": {token}})
	if err != nil {
		h.log.Warn("upgrade failed", slog.Any("error", err))
		return
	}
	c := newClient(conn, h.cfg, h.log.With(slog.String("player_id", playerID.String())))
	if err := c.writeHello(); err != nil {
		c.log.Debug("hello not delivered", slog.Any("error", err))
		conn.Close()
		return
	}

	h.track(c)
	defer h.untrack(c)
	go c.writePump()

	if err := h.engine.AttachSession(playerID, c); err != nil {
		c.log.Info("attach rejected", slog.Any("error", err))
		c.closeWith(websocket.ClosePolicyViolation, "attach rejected")
		<-c.closed
		return
	}
	h.readLoop(c, playerID)
}

// readLoop decodes client frames and hands them to the dispatcher lane of this
// connection, which keeps them ordered. A client whose requests fill its lane
// is closed with 1008 policy violation. readLoop returns when the socket fails
// or closes, detaching the session.
func (h *Handler) readLoop(c *client, playerID uuid.UUID) {
	defer func() {
		c.closeWith(websocket.CloseNormalClosure, "")
		h.engine.DetachSession(c.id)
	}()

	c.conn.SetReadLimit(h.cfg.ReadLimit)
	for {
		messageType, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				c.log.Debug("read failed", slog.Any("error", err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if string(frame) == pongFrame {
			c.gotPong()
			continue
		}

		req, err := events.DecodeRequest(frame)
		if err != nil {
			c.log.Warn("dropping client message", slog.Any("error", err))
			continue
		}
		err = h.dispatcher.TrySubmit(c.id.String(), func() {
			if err := h.engine.HandleEvent(playerID, req); err != nil {
				c.log.Warn("request rejected",
					slog.String("type", string(req.Type())),
					slog.String("kind", string(core.KindOf(err))),
					slog.Any("error", err))
			}
		})
		switch {
		case errors.Is(err, dispatch.ErrLaneFull):
			c.log.Warn("client is flooding its lane, closing")
			c.closeWith(websocket.ClosePolicyViolation, "too many requests")
			return
		case err != nil:
			c.log.Warn("dispatch failed", slog.Any("error", err))
			return
		}
	}
}

func (h *Handler) track(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

func (h *Handler) untrack(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c.id)
}

// CloseAll closes every open connection with 1001 going away.
func (h *Handler) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		c.closeWith(websocket.CloseGoingAway, "server shutting down")
	}
	h.log.Info("closing connections", slog.Int("count", len(h.clients)))
}
