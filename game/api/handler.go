// game/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/Ftotnem/AIRCARGO-SERVICES/game/core"
	"github.com/Ftotnem/AIRCARGO-SERVICES/game/events"
	"github.com/Ftotnem/AIRCARGO-SERVICES/game/geo"
	"github.com/Ftotnem/AIRCARGO-SERVICES/game/service"
	"github.com/Ftotnem/AIRCARGO-SERVICES/game/store"
	"github.com/Ftotnem/AIRCARGO-SERVICES/shared/api"
	"github.com/Ftotnem/AIRCARGO-SERVICES/shared/config"
	"github.com/Ftotnem/AIRCARGO-SERVICES/shared/models"
	"github.com/Ftotnem/AIRCARGO-SERVICES/shared/registry"
	"github.com/gorilla/mux"
)

const (
	defaultPageLimit = 10
	requestTimeout   = 5 * time.Second
)

// Game is the part of the running game session exposed over HTTP.
type Game interface {
	RegisterPlayer(nickname, token string) (service.Registration, error)
	Players() []events.PlayerData
	Rules() config.GameRules
}

// Registry lists the live game-service instances.
type Registry interface {
	GetActiveServices(ctx context.Context, serviceType string) (map[string]registry.ServiceInfo, error)
}

// GameAPIHandlers serves the leaderboard and lobby endpoints.
type GameAPIHandlers struct {
	Leaderboard store.Leaderboard
	Game        Game
	Registry    Registry // optional
	log         *slog.Logger
}

func NewGameAPIHandlers(lb store.Leaderboard, game Game, reg Registry, logger *slog.Logger) *GameAPIHandlers {
	return &GameAPIHandlers{
		Leaderboard: lb,
		Game:        game,
		Registry:    reg,
		log:         logger.With(slog.String("component", "api")),
	}
}

// NewPlayerRequest is the body of POST /api/players.
type NewPlayerRequest struct {
	Nickname string `json:"nickname"`
}

// NewPlayerResponse hands out the account token, which is shown only once.
type NewPlayerResponse struct {
	Nickname string `json:"nickname"`
	Token    string `json:"token"`
}

// JoinGameRequest is the body of POST /api/game/players. A known token joins
// with its account, a bare nickname creates the account first.
type JoinGameRequest struct {
	Token    string `json:"token,omitempty"`
	Nickname string `json:"nickname,omitempty"`
}

// ServerResponse is one entry of GET /api/servers.
type ServerResponse struct {
	ID       string            `json:"id"`
	Address  string            `json:"address"`
	LastSeen int64             `json:"last_seen"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CreatePlayer registers a leaderboard account.
// POST /api/players
func (h *GameAPIHandlers) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req NewPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, err := h.Leaderboard.RegisterNewPlayer(ctx, req.Nickname)
	if err != nil {
		h.writeErr(w, "creating player", err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, NewPlayerResponse{Nickname: p.Nickname, Token: p.Token})
}

// ListPlayers pages through the leaderboard.
// GET /api/players?limit=10&offset=0
func (h *GameAPIHandlers) ListPlayers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultPageLimit)
	if err != nil {
		api.WriteBadRequest(w, "limit must be an integer")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		api.WriteBadRequest(w, "offset must be an integer")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	page, err := h.Leaderboard.ListPlayers(ctx, limit, offset)
	if err != nil {
		h.writeErr(w, "listing players", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, page)
}

// GetPlayer returns one leaderboard entry with its rank.
// GET /api/players/{nickname}
func (h *GameAPIHandlers) GetPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, err := h.Leaderboard.GetPlayer(ctx, mux.Vars(r)["nickname"])
	if err != nil {
		h.writeErr(w, "loading player", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, p)
}

// GET /api/players/{nickname}/games
func (h *GameAPIHandlers) GetPlayerGames(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	games, err := h.Leaderboard.RecentGames(ctx, mux.Vars(r)["nickname"])
	if err != nil {
		h.writeErr(w, "loading games", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, games)
}

// JoinGame seats a player in the running game.
// POST /api/game/players
func (h *GameAPIHandlers) JoinGame(w http.ResponseWriter, r *http.Request) {
	var req JoinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.Token == "" && req.Nickname == "" {
		api.WriteBadRequest(w, "token or nickname is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var (
		account models.LeaderboardPlayer
		err     error
	)
	if req.Token != "" {
		account, err = h.Leaderboard.FindPlayerByToken(ctx, req.Token)
	} else {
		account, err = h.Leaderboard.RegisterNewPlayer(ctx, req.Nickname)
	}
	if err != nil {
		h.writeErr(w, "resolving account", err)
		return
	}

	reg, err := h.Game.RegisterPlayer(account.Nickname, account.Token)
	if err != nil {
		h.writeErr(w, "joining game", err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, reg)
}

// GET /api/game/players
func (h *GameAPIHandlers) ListGamePlayers(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, h.Game.Players())
}

// GetConfig exposes the rules clients need to predict flight.
// GET /api/game/config
func (h *GameAPIHandlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	rules := h.Game.Rules()
	api.WriteJSON(w, http.StatusOK, map[string]any{
		"MAX_PLAYERS":                      rules.MaxPlayers,
		"PLAYER_TIME_TO_CONNECT":           rules.PlayerTimeToConnect.Milliseconds(),
		"MAX_SHIPMENTS_IN_GAME":            rules.MaxShipmentsInGame,
		"MIN_VELOCITY":                     rules.MinVelocity,
		"MAX_VELOCITY":                     rules.MaxVelocity,
		"FLYING_VELOCITY":                  rules.FlyingVelocity,
		"AIRPORT_MAXIMUM_DISTANCE_TO_LAND": rules.AirportMaxDistanceToLand,
		"EARTH_RADIUS":                     geo.EarthRadius,
		"FLIGHT_ALTITUDE":                  geo.FlightAltitude,
		"FUEL_TANK_SIZE":                   rules.FuelTankSize,
		"REFUELING_RATE":                   rules.RefuelingRate,
	})
}

// ListServers returns the live game-service instances sorted by id.
// GET /api/servers
func (h *GameAPIHandlers) ListServers(w http.ResponseWriter, r *http.Request) {
	if h.Registry == nil {
		api.WriteJSON(w, http.StatusOK, []ServerResponse{})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	services, err := h.Registry.GetActiveServices(ctx, registry.GameServiceType)
	if err != nil {
		h.writeErr(w, "listing servers", err)
		return
	}
	out := make([]ServerResponse, 0, len(services))
	for id, info := range services {
		out = append(out, ServerResponse{
			ID:       id,
			Address:  info.IP + ":" + strconv.Itoa(info.Port),
			LastSeen: info.LastSeen,
			Metadata: info.Metadata,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	api.WriteJSON(w, http.StatusOK, out)
}

// writeErr maps store and game errors to HTTP statuses. Game errors carry
// their code in the details field.
func (h *GameAPIHandlers) writeErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidNickname), errors.Is(err, store.ErrInvalidPaging):
		api.WriteBadRequest(w, err.Error())
		return
	case errors.Is(err, store.ErrPlayerNotFound):
		api.WriteNotFound(w, err.Error())
		return
	}

	var ge *core.GameError
	if errors.As(err, &ge) {
		status := http.StatusConflict
		switch ge.Kind {
		case core.KindCapacity:
			status = http.StatusServiceUnavailable
		case core.KindMalformed:
			status = http.StatusBadRequest
		case core.KindIdentity:
			if errors.Is(err, core.ErrPlayerNotFound) {
				status = http.StatusNotFound
			}
		}
		api.WriteErrorDetails(w, status, ge.Error(), ge.Code)
		return
	}

	h.log.Error(op+" failed", slog.Any("error", err))
	api.WriteInternalServerError(w, "Internal server error")
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, key string, def int64) (int64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

// RegisterRoutes mounts the API under /api.
func (h *GameAPIHandlers) RegisterRoutes(router *mux.Router) {
	r := router.PathPrefix("/api").Subrouter()
	r.HandleFunc("/players", h.CreatePlayer).Methods(http.MethodPost)
	r.HandleFunc("/players", h.ListPlayers).Methods(http.MethodGet)
	r.HandleFunc("/players/{nickname}", h.GetPlayer).Methods(http.MethodGet)
	r.HandleFunc("/players/{nickname}/games", h.GetPlayerGames).Methods(http.MethodGet)

	r.HandleFunc("/game/players", h.JoinGame).Methods(http.MethodPost)
	r.HandleFunc("/game/players", h.ListGamePlayers).Methods(http.MethodGet)
	r.HandleFunc("/game/config", h.GetConfig).Methods(http.MethodGet)

	r.HandleFunc("/servers", h.ListServers).Methods(http.MethodGet)

	// Preflight requests only need a matching route; CORSMiddleware answers them.
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})
}
