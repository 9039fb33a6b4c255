package models

import (
	"errors"
	"time"
)

// RoomState is the lifecycle state of a room. Only waiting → playing is ever
// taken; finished is reserved for future use.
type RoomState string

const (
	StateWaiting  RoomState = "waiting"
	StatePlaying  RoomState = "playing"
	StateFinished RoomState = "finished"
)

// Sentinel errors carry the client-facing messages emitted on failed
// room-administration events.
var (
	ErrNotRegistered      = errors.New("Jogador não registrado")
	ErrRoomNotFound       = errors.New("Sala não encontrada")
	ErrRoomFull           = errors.New("Sala lotada")
	ErrRoomAlreadyPlaying = errors.New("Jogo já iniciado")
	ErrNotAdmin           = errors.New("Apenas o admin pode iniciar o jogo")
)

// Settings are fixed at room creation.
type Settings struct {
	PvPEnabled    bool `json:"pvpEnabled"`
	SharedEnemies bool `json:"sharedEnemies"`
	SyncBattles   bool `json:"syncBattles"`
}

// Room is a bounded group of participants sharing broadcast scope. Players
// holds connection ids in join order; that order doubles as the admin
// succession queue, so it must stay a slice.
type Room struct {
	Code       string    `json:"code"`
	Admin      string    `json:"admin"`
	Players    []string  `json:"players"`
	MaxPlayers int       `json:"maxPlayers"`
	GameState  RoomState `json:"gameState"`
	CreatedAt  time.Time `json:"createdAt"`
	Settings   Settings  `json:"settings"`
}

// RoomSummary is the projection exposed by the rooms listing; member
// identities are deliberately omitted.
type RoomSummary struct {
	Code       string    `json:"code"`
	Players    int       `json:"players"`
	MaxPlayers int       `json:"maxPlayers"`
	GameState  RoomState `json:"gameState"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Directory maps room codes to live rooms and owns the room lifecycle.
type Directory struct {
	rooms map[string]*Room
	codes *CodeGenerator
}

func NewDirectory(codes *CodeGenerator) *Directory {
	return &Directory{
		rooms: make(map[string]*Room),
		codes: codes,
	}
}

// Create makes a new waiting room owned by ownerID. Codes are regenerated
// until unique among live rooms; a deleted room's code may be reused later.
func (d *Directory) Create(ownerID string, maxPlayers int, settings Settings) *Room {
	var code string
	for {
		code = d.codes.Generate()
		if _, exists := d.rooms[code]; !exists {
			break
		}
	}

	room := &Room{
		Code:       code,
		Admin:      ownerID,
		Players:    []string{ownerID},
		MaxPlayers: maxPlayers,
		GameState:  StateWaiting,
		CreatedAt:  time.Now(),
		Settings:   settings,
	}
	d.rooms[code] = room
	return room
}

// Get returns the room for code, or false when none exists.
func (d *Directory) Get(code string) (*Room, bool) {
	room, ok := d.rooms[code]
	return room, ok
}

// Join appends connID to the room's membership, preserving join order.
func (d *Directory) Join(code, connID string) (*Room, error) {
	room, ok := d.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if len(room.Players) >= room.MaxPlayers {
		return nil, ErrRoomFull
	}
	if room.GameState != StateWaiting {
		return nil, ErrRoomAlreadyPlaying
	}

	room.Players = append(room.Players, connID)
	return room, nil
}

// Start transitions the room to playing. Only the admin may start; starting
// an already playing room is an idempotent no-op.
func (d *Directory) Start(code, requesterID string) (*Room, error) {
	room, ok := d.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if room.Admin != requesterID {
		return nil, ErrNotAdmin
	}

	room.GameState = StatePlaying
	return room, nil
}

// Leave removes connID from the room. The last member leaving deletes the
// room (deleted=true, room nil). If the departing member was admin and
// members remain, the earliest-joined remaining member becomes admin
// (adminChanged=true). Removing an unknown code or non-member is a no-op.
func (d *Directory) Leave(code, connID string) (room *Room, adminChanged, deleted bool) {
	room, ok := d.rooms[code]
	if !ok {
		return nil, false, false
	}

	found := false
	for i, id := range room.Players {
		if id == connID {
			room.Players = append(room.Players[:i], room.Players[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return room, false, false
	}

	if len(room.Players) == 0 {
		delete(d.rooms, code)
		return nil, false, true
	}

	if room.Admin == connID {
		room.Admin = room.Players[0]
		adminChanged = true
	}
	return room, adminChanged, false
}

// Count returns the number of live rooms.
func (d *Directory) Count() int {
	return len(d.rooms)
}

// Snapshot projects every live room into its public summary.
func (d *Directory) Snapshot() []RoomSummary {
	summaries := make([]RoomSummary, 0, len(d.rooms))
	for _, room := range d.rooms {
		summaries = append(summaries, RoomSummary{
			Code:       room.Code,
			Players:    len(room.Players),
			MaxPlayers: room.MaxPlayers,
			GameState:  room.GameState,
			CreatedAt:  room.CreatedAt,
		})
	}
	return summaries
}
