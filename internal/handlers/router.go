// Package handlers routes inbound client events: it validates preconditions
// against the registry and room directory, applies the mutation, and fans the
// resulting events out to the right subset of connections.
package handlers

import (
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"github.com/bloxcoop/relay/internal/models"
)

// Emitter delivers one event to one connection, best-effort. A send to a
// connection that is gone is silently skipped; delivery is never reported
// back to the sender.
type Emitter interface {
	Emit(connID, event string, data interface{})
}

// Defaults are applied when a client omits optional registration or room
// creation fields.
type Defaults struct {
	MaxPlayers int
	Level      int
	Berries    int
}

// Stats is the point-in-time aggregate exposed at /api/stats.
type Stats struct {
	TotalPlayers int     `json:"totalPlayers"`
	ActiveRooms  int     `json:"activeRooms"`
	Uptime       float64 `json:"uptime"`
}

// Router owns the registry and directory. Every handler and introspection
// read is serialised behind one lock, so a handler never observes a
// half-mutated room or participant.
type Router struct {
	mu        sync.RWMutex
	registry  *models.Registry
	directory *models.Directory
	emitter   Emitter
	defaults  Defaults
	logger    *zap.Logger
	startedAt time.Time
}

func NewRouter(registry *models.Registry, directory *models.Directory, emitter Emitter, defaults Defaults, logger *zap.Logger) *Router {
	return &Router{
		registry:  registry,
		directory: directory,
		emitter:   emitter,
		defaults:  defaults,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// HandleRegisterPlayer creates or overwrites the sender's participant record.
func (r *Router) HandleRegisterPlayer(connID string, data map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	username := stringField(data, "username")
	level := intField(data, "level", r.defaults.Level)
	if level < 1 {
		level = r.defaults.Level
	}
	berries := intField(data, "berries", r.defaults.Berries)

	p := r.registry.Register(connID, username, level, berries, mapField(data, "gameData"))

	r.logger.Info("player registered",
		zap.String("conn_id", connID),
		zap.String("username", p.Username),
		zap.Int("level", p.Level))

	r.emitter.Emit(connID, "playerRegistered", map[string]interface{}{
		"success": true,
	})
}

// HandleCreateRoom creates a waiting room owned by the sender.
func (r *Router) HandleCreateRoom(connID string, data map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.registry.Get(connID)
	if !ok {
		r.emitError(connID, models.ErrNotRegistered)
		return
	}

	maxPlayers := intField(data, "maxPlayers", r.defaults.MaxPlayers)
	if maxPlayers < 1 {
		maxPlayers = r.defaults.MaxPlayers
	}
	settings := models.Settings{
		PvPEnabled:    boolField(data, "pvpEnabled", false),
		SharedEnemies: boolField(data, "sharedEnemies", true),
		SyncBattles:   boolField(data, "syncBattles", true),
	}

	room := r.directory.Create(connID, maxPlayers, settings)
	p.CurrentRoom = room.Code

	r.logger.Info("room created",
		zap.String("room", room.Code),
		zap.String("username", p.Username),
		zap.Int("max_players", room.MaxPlayers))

	r.emitter.Emit(connID, "roomCreated", map[string]interface{}{
		"roomCode": room.Code,
		"room":     room,
		"isAdmin":  true,
	})
}

// HandleJoinRoom appends the sender to an existing waiting room.
func (r *Router) HandleJoinRoom(connID string, data map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.registry.Get(connID)
	if !ok {
		r.emitError(connID, models.ErrNotRegistered)
		return
	}

	room, err := r.directory.Join(stringField(data, "roomCode"), connID)
	if err != nil {
		r.emitError(connID, err)
		return
	}
	p.CurrentRoom = room.Code

	r.logger.Info("player joined room",
		zap.String("room", room.Code),
		zap.String("username", p.Username))

	r.emitter.Emit(connID, "joinedRoom", map[string]interface{}{
		"roomCode": room.Code,
		"room":     room,
		"isAdmin":  connID == room.Admin,
	})

	r.broadcastOthers(room, connID, "playerJoined", map[string]interface{}{
		"player": map[string]interface{}{
			"id":       connID,
			"username": p.Username,
			"level":    p.Level,
		},
		"room": room,
	})

	r.emitter.Emit(connID, "roomPlayers", map[string]interface{}{
		"players": r.roster(room),
	})
}

// HandleStartGame transitions the sender's room to playing; admin only.
func (r *Router) HandleStartGame(connID string, data map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, err := r.directory.Start(stringField(data, "roomCode"), connID)
	if err != nil {
		r.emitError(connID, err)
		return
	}

	r.logger.Info("game started", zap.String("room", room.Code))

	r.broadcastRoom(room, "gameStarted", map[string]interface{}{
		"room":    room,
		"message": "Jogo iniciado! Boa sorte piratas!",
	})
}

// HandleSyncGameData merges a game-data delta into the sender's record and
// relays the delta to the rest of the room. Silently dropped when the sender
// is unregistered or roomless.
func (r *Router) HandleSyncGameData(connID string, data map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, room, ok := r.senderRoom(connID)
	if !ok {
		return
	}

	partial := mapField(data, "gameData")
	r.registry.MergeGameData(connID, partial)

	r.broadcastOthers(room, connID, "playerDataUpdate", map[string]interface{}{
		"playerId": connID,
		"username": p.Username,
		"gameData": partial,
	})
}

// HandleBattleStart relays a battle opening to the rest of the room.
func (r *Router) HandleBattleStart(connID string, data map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, room, ok := r.senderRoom(connID)
	if !ok {
		return
	}

	r.broadcastOthers(room, connID, "playerBattleStart", map[string]interface{}{
		"playerId": connID,
		"username": p.Username,
		"enemy":    data["enemy"],
	})
}

// HandleBattleAction relays one battle action to the rest of the room.
func (r *Router) HandleBattleAction(connID string, data map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, room, ok := r.senderRoom(connID)
	if !ok {
		return
	}

	r.broadcastOthers(room, connID, "playerBattleAction", map[string]interface{}{
		"playerId": connID,
		"username": p.Username,
		"action":   data["action"],
		"damage":   data["damage"],
		"result":   data["result"],
	})
}

// HandleBattleEnd relays a battle outcome to the rest of the room.
func (r *Router) HandleBattleEnd(connID string, data map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, room, ok := r.senderRoom(connID)
	if !ok {
		return
	}

	r.broadcastOthers(room, connID, "playerBattleEnd", map[string]interface{}{
		"playerId": connID,
		"username": p.Username,
		"victory":  data["victory"],
		"rewards":  data["rewards"],
	})
}

// HandleChatMessage relays a chat line to the whole room, sender included,
// with a server-assigned id and timestamp.
func (r *Router) HandleChatMessage(connID string, data map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, room, ok := r.senderRoom(connID)
	if !ok {
		return
	}

	r.broadcastRoom(room, "chatMessage", map[string]interface{}{
		"id":        uuid.Must(uuid.NewV4()).String(),
		"playerId":  connID,
		"username":  p.Username,
		"message":   stringField(data, "message"),
		"timestamp": time.Now(),
	})
}

// HandleLeaveRoom removes the sender from their current room, if any.
func (r *Router) HandleLeaveRoom(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leaveCurrentRoom(connID)
}

// HandleDisconnect runs the leave teardown and drops the registration.
func (r *Router) HandleDisconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leaveCurrentRoom(connID)
	r.registry.Remove(connID)
}

// ListRooms projects every live room for the read-only HTTP API.
func (r *Router) ListRooms() []models.RoomSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.directory.Snapshot()
}

// Snapshot returns the current player and room counts.
func (r *Router) Snapshot() (players, rooms int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.registry.Count(), r.directory.Count()
}

// CurrentStats returns the aggregate exposed at /api/stats.
func (r *Router) CurrentStats() Stats {
	players, rooms := r.Snapshot()
	return Stats{
		TotalPlayers: players,
		ActiveRooms:  rooms,
		Uptime:       time.Since(r.startedAt).Seconds(),
	}
}

// leaveCurrentRoom removes connID from its room, handling admin succession
// and delete-on-empty. Callers must hold the write lock.
func (r *Router) leaveCurrentRoom(connID string) {
	p, ok := r.registry.Get(connID)
	if !ok || p.CurrentRoom == "" {
		return
	}

	code := p.CurrentRoom
	room, adminChanged, deleted := r.directory.Leave(code, connID)

	if adminChanged {
		r.logger.Info("admin succession",
			zap.String("room", code),
			zap.String("new_admin", room.Admin))
		r.broadcastRoom(room, "newAdmin", map[string]interface{}{
			"newAdminId": room.Admin,
			"message":    "Novo administrador da sala!",
		})
	}

	if deleted {
		r.logger.Info("room deleted", zap.String("room", code))
	} else if room != nil {
		r.broadcastRoom(room, "playerLeft", map[string]interface{}{
			"playerId": connID,
			"username": p.Username,
			"room":     room,
		})
	}

	p.CurrentRoom = ""
}

// senderRoom resolves the sender and their current room for gameplay events.
// Callers must hold the lock.
func (r *Router) senderRoom(connID string) (*models.Participant, *models.Room, bool) {
	p, ok := r.registry.Get(connID)
	if !ok || p.CurrentRoom == "" {
		return nil, nil, false
	}
	room, ok := r.directory.Get(p.CurrentRoom)
	if !ok {
		return nil, nil, false
	}
	return p, room, true
}

func (r *Router) roster(room *models.Room) []map[string]interface{} {
	players := make([]map[string]interface{}, 0, len(room.Players))
	for _, id := range room.Players {
		m, ok := r.registry.Get(id)
		if !ok {
			continue
		}
		players = append(players, map[string]interface{}{
			"id":       id,
			"username": m.Username,
			"level":    m.Level,
			"isAdmin":  id == room.Admin,
		})
	}
	return players
}

func (r *Router) broadcastRoom(room *models.Room, event string, data interface{}) {
	for _, id := range room.Players {
		r.emitter.Emit(id, event, data)
	}
}

func (r *Router) broadcastOthers(room *models.Room, senderID, event string, data interface{}) {
	for _, id := range room.Players {
		if id != senderID {
			r.emitter.Emit(id, event, data)
		}
	}
}

func (r *Router) emitError(connID string, err error) {
	r.logger.Debug("rejected event",
		zap.String("conn_id", connID),
		zap.String("reason", err.Error()))
	r.emitter.Emit(connID, "error", map[string]interface{}{
		"message": err.Error(),
	})
}

// Payload fields arrive as decoded JSON, so numbers are float64.

func stringField(data map[string]interface{}, key string) string {
	s, _ := data[key].(string)
	return s
}

func intField(data map[string]interface{}, key string, fallback int) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

func boolField(data map[string]interface{}, key string, fallback bool) bool {
	b, ok := data[key].(bool)
	if !ok {
		return fallback
	}
	return b
}

func mapField(data map[string]interface{}, key string) map[string]interface{} {
	m, ok := data[key].(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return m
}
