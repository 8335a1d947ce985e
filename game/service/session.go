// game/service/session.go
package service

import (
	"cmp"
	"context"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Ftotnem/AIRCARGO-SERVICES/game/core"
	"github.com/Ftotnem/AIRCARGO-SERVICES/game/events"
	"github.com/Ftotnem/AIRCARGO-SERVICES/shared/config"
	"github.com/Ftotnem/AIRCARGO-SERVICES/shared/models"
	"github.com/google/uuid"
)

// Conn is the outbound half of a client connection. Send must not block:
// it is called while the session lock is held.
type Conn interface {
	ID() uuid.UUID
	Send(msg events.Message) error
	Close() error
}

// Recorder persists the outcome of finished games.
type Recorder interface {
	RecordGame(ctx context.Context, rec models.GameRecord) error
}

// Registration is what a client needs to open its game connection.
type Registration struct {
	PlayerID uuid.UUID `json:"id"`
	Nickname string    `json:"nickname"`
	Token    string    `json:"token"`
}

type clientSession struct {
	conn     Conn
	playerID uuid.UUID
}

// GameSession is the authoritative in-memory game. Every exported method takes
// the session lock, so each operation and the events it emits form one
// critical section.
type GameSession struct {
	mu sync.Mutex

	rules          config.GameRules
	log            *slog.Logger
	now            func() int64
	rng            *rand.Rand
	recorder       Recorder
	persistTimeout time.Duration

	players     map[uuid.UUID]*core.Player
	sessions    map[uuid.UUID]*clientSession // by connection id
	airports    map[uuid.UUID]*core.Airport
	airportList []*core.Airport
	shipments   map[uuid.UUID]*core.Shipment
	bots        map[uuid.UUID]*bot
	refueling   map[uuid.UUID]*refuelJob
	botSeq      uint64

	// ctx parents bot loops and refueling jobs; cancelled on shutdown.
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopping bool
}

// Option customizes a GameSession.
type Option func(*GameSession)

// WithClock replaces the wall clock (unix ms).
func WithClock(now func() int64) Option {
	return func(s *GameSession) { s.now = now }
}

// WithRand seeds the session's randomness.
func WithRand(rng *rand.Rand) Option {
	return func(s *GameSession) { s.rng = rng }
}

// WithPersistTimeout bounds a single RecordGame call.
func WithPersistTimeout(d time.Duration) Option {
	return func(s *GameSession) { s.persistTimeout = d }
}

// NewGameSession creates a game with the airport catalogue loaded. recorder may
// be nil, in which case finished games are only logged.
func NewGameSession(rules config.GameRules, recorder Recorder, logger *slog.Logger, opts ...Option) *GameSession {
	ctx, cancel := context.WithCancel(context.Background())
	s := &GameSession{
		rules:          rules,
		log:            logger.With(slog.String("component", "game-session")),
		now:            func() int64 { return time.Now().UnixMilli() },
		rng:            rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
		recorder:       recorder,
		persistTimeout: 5 * time.Second,
		players:        make(map[uuid.UUID]*core.Player),
		sessions:       make(map[uuid.UUID]*clientSession),
		airports:       make(map[uuid.UUID]*core.Airport),
		shipments:      make(map[uuid.UUID]*core.Shipment),
		bots:           make(map[uuid.UUID]*bot),
		refueling:      make(map[uuid.UUID]*refuelJob),
		ctx:            ctx,
		cancel:         cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.airportList = core.NewAirports(rules.FuelPriceFactor)
	for _, a := range s.airportList {
		s.airports[a.ID] = a
	}
	return s
}

// Rules returns the rules the session was created with.
func (s *GameSession) Rules() config.GameRules {
	return s.rules
}

// RegisterPlayer seats a new human player. An empty token gets a generated one.
func (s *GameSession) RegisterPlayer(nickname, token string) (Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.players) >= s.rules.MaxPlayers {
		return Registration{}, core.ErrPlayerLimitExceeded
	}
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return Registration{}, core.ErrPlayerInvalidNickname
	}
	for _, p := range s.players {
		if p.IsBot {
			continue
		}
		if token != "" && p.Token == token {
			return Registration{}, core.ErrDuplicatedGameSession
		}
		if strings.EqualFold(strings.TrimSpace(p.Nickname), nickname) {
			return Registration{}, core.ErrPlayerDuplicateNickname
		}
	}
	if token == "" {
		token = newToken()
	}

	now := s.now()
	pos := core.RandomPosition(s.rng, now, s.rules.StartVelocity, s.rules.MaxVelocity, s.rules.FuelTankSize)
	p := core.NewPlayer(nickname, token, s.pickColorLocked(), false, pos)
	s.players[p.ID] = p

	s.broadcastLocked(events.PlayerRegistered(p, now), p.ID)
	s.log.Info("player registered", slog.String("player_id", p.ID.String()), slog.String("nickname", p.Nickname))
	return Registration{PlayerID: p.ID, Nickname: p.Nickname, Token: p.Token}, nil
}

// LookupToken resolves a connection token to a seated human player that has
// no live connection yet.
func (s *GameSession) LookupToken(token string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.players {
		if p.IsBot || p.Token != token {
			continue
		}
		if p.Connected() {
			return uuid.Nil, core.ErrPlayerAlreadyConnected
		}
		return p.ID, nil
	}
	return uuid.Nil, core.ErrPlayerNotFound
}

// AttachSession binds conn to the player and sends it the full game state.
func (s *GameSession) AttachSession(playerID uuid.UUID, conn Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.playerLocked(playerID)
	if err != nil {
		return err
	}
	if p.Connected() {
		return core.ErrPlayerAlreadyConnected
	}

	s.sessions[conn.ID()] = &clientSession{conn: conn, playerID: p.ID}
	p.SessionID = conn.ID()

	now := s.now()
	s.broadcastLocked(events.PlayerConnected(p, now), p.ID)
	s.sendLocked(p, events.PlayerList(s.playerListLocked(), now))
	s.sendLocked(p, events.AirportList(s.airportList, now))
	s.log.Info("session attached", slog.String("player_id", p.ID.String()), slog.String("conn_id", conn.ID().String()))
	return nil
}

// DetachSession unbinds and closes a connection. Unknown connections are ignored.
func (s *GameSession) DetachSession(connID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detachLocked(connID)
}

func (s *GameSession) detachLocked(connID uuid.UUID) {
	sess, ok := s.sessions[connID]
	if !ok {
		return
	}
	delete(s.sessions, connID)
	if err := sess.conn.Close(); err != nil {
		s.log.Debug("closing connection", slog.String("conn_id", connID.String()), slog.Any("error", err))
	}

	p, ok := s.players[sess.playerID]
	if !ok || p.SessionID != connID {
		return
	}
	p.SessionID = uuid.Nil
	p.DisconnectedSince = s.now()
	s.broadcastLocked(events.PlayerDisconnected(p, p.DisconnectedSince), p.ID)
	s.log.Info("session detached", slog.String("player_id", p.ID.String()), slog.String("conn_id", connID.String()))
}

// RemovePlayer takes a player out of the game.
func (s *GameSession) RemovePlayer(playerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.playerLocked(playerID)
	if err != nil {
		return err
	}
	s.removeLocked(p)
	return nil
}

func (s *GameSession) removeLocked(p *core.Player) {
	if p.SessionID != uuid.Nil {
		s.detachLocked(p.SessionID)
	}
	now := s.now()
	if a, ok := s.airports[p.AirportID]; ok {
		a.Evict(p)
		s.broadcastLocked(events.AirportUpdated(a, now))
	}
	s.stopRefuelingLocked(p.ID)
	if p.Shipment != nil {
		delete(s.shipments, p.Shipment.ID)
		p.Shipment = nil
	}
	if b, ok := s.bots[p.ID]; ok {
		delete(s.bots, p.ID)
		b.cancel()
	}

	delete(s.players, p.ID)
	s.broadcastLocked(events.PlayerRemoved(p, now), p.ID)
	s.log.Info("player removed", slog.String("player_id", p.ID.String()), slog.String("nickname", p.Nickname))
}

// pronounceDeadLocked ends a player's game. Bots leave the bot pool and their
// loop tears them down; humans are removed at once and their record is stored
// in the background.
func (s *GameSession) pronounceDeadLocked(p *core.Player, cause core.DeathCause) {
	now := s.now()
	p.DeathCause = cause
	s.broadcastLocked(events.PlayerUpdated(p, now))
	s.log.Info("player died", slog.String("player_id", p.ID.String()), slog.String("cause", string(cause)), slog.Int("score", p.Score))

	if p.IsBot {
		if b, ok := s.bots[p.ID]; ok {
			delete(s.bots, p.ID)
			b.cancel()
		}
		return
	}

	rec := models.GameRecord{
		Nickname:           p.Nickname,
		Timestamp:          now,
		Score:              p.Score,
		ShipmentsDelivered: p.ShipmentsDelivered,
		TimeAlive:          now - p.Joined,
		DeathCause:         string(cause),
	}
	s.removeLocked(p)
	s.persistLocked(rec)
}

func (s *GameSession) persistLocked(rec models.GameRecord) {
	if s.recorder == nil {
		s.log.Info("game finished", slog.String("nickname", rec.Nickname), slog.Int("score", rec.Score))
		return
	}
	if s.stopping {
		s.log.Warn("game record dropped during shutdown", slog.String("nickname", rec.Nickname), slog.Int("score", rec.Score))
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		defer cancel()
		if err := s.recorder.RecordGame(ctx, rec); err != nil {
			s.log.Error("failed to record game", slog.String("nickname", rec.Nickname), slog.Any("error", err))
		}
	}()
}

// Players returns a snapshot of everyone in the game, oldest first.
func (s *GameSession) Players() []events.PlayerData {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.playerListLocked()
	out := make([]events.PlayerData, 0, len(list))
	for _, p := range list {
		out = append(out, events.NewPlayerData(p))
	}
	return out
}

// Airports returns a snapshot of the airport catalogue.
func (s *GameSession) Airports() []events.AirportData {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]events.AirportData, 0, len(s.airportList))
	for _, a := range s.airportList {
		out = append(out, events.NewAirportData(a))
	}
	return out
}

// Counts reports seated humans and active bots.
func (s *GameSession) Counts() (humans, bots int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.humanCountLocked(), len(s.bots)
}

func (s *GameSession) playerLocked(id uuid.UUID) (*core.Player, error) {
	p, ok := s.players[id]
	if !ok {
		return nil, core.ErrPlayerNotFound
	}
	return p, nil
}

func (s *GameSession) playerListLocked() []*core.Player {
	list := make([]*core.Player, 0, len(s.players))
	for _, p := range s.players {
		list = append(list, p)
	}
	slices.SortFunc(list, func(a, b *core.Player) int {
		if c := cmp.Compare(a.Joined, b.Joined); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return list
}

func (s *GameSession) humanCountLocked() int {
	n := 0
	for _, p := range s.players {
		if !p.IsBot {
			n++
		}
	}
	return n
}

// pickColorLocked prefers palette colors no seated player wears.
func (s *GameSession) pickColorLocked() string {
	used := make(map[string]bool, len(s.players))
	for _, p := range s.players {
		used[p.Color] = true
	}
	free := make([]string, 0, len(core.Colors))
	for _, c := range core.Colors {
		if !used[c] {
			free = append(free, c)
		}
	}
	if len(free) == 0 {
		return core.Colors[s.rng.IntN(len(core.Colors))]
	}
	return free[s.rng.IntN(len(free))]
}

// sendLocked delivers msg to p's connection, if any.
func (s *GameSession) sendLocked(p *core.Player, msg events.Message) {
	if p.IsBot || p.SessionID == uuid.Nil {
		return
	}
	sess, ok := s.sessions[p.SessionID]
	if !ok {
		return
	}
	if err := sess.conn.Send(msg); err != nil {
		s.log.Debug("send failed", slog.String("player_id", p.ID.String()), slog.String("type", string(msg.Type)), slog.Any("error", err))
	}
}

// broadcastLocked delivers msg to every connection except those of the
// listed players.
func (s *GameSession) broadcastLocked(msg events.Message, except ...uuid.UUID) {
	for connID, sess := range s.sessions {
		if slices.Contains(except, sess.playerID) {
			continue
		}
		if err := sess.conn.Send(msg); err != nil {
			s.log.Debug("broadcast failed", slog.String("conn_id", connID.String()), slog.String("type", string(msg.Type)), slog.Any("error", err))
		}
	}
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func ms(d time.Duration) int64 {
	return d.Milliseconds()
}
