// Package models holds the relay server's in-memory session state: the
// connection registry and the room directory. Neither collection locks
// internally; the event router serialises all access behind a single
// coordination boundary.
package models

// Participant is the server-side record of one connected client.
type Participant struct {
	ID          string                 `json:"id"`
	Username    string                 `json:"username"`
	Level       int                    `json:"level"`
	Berries     int                    `json:"berries"`
	CurrentRoom string                 `json:"currentRoom,omitempty"`
	GameData    map[string]interface{} `json:"gameData"`
}

// Registry maps connection ids to Participants. It is the authoritative
// source of who is online and which room they are in.
type Registry struct {
	participants map[string]*Participant
}

func NewRegistry() *Registry {
	return &Registry{participants: make(map[string]*Participant)}
}

// Register creates or overwrites the entry for connID. A re-registration
// resets CurrentRoom; membership is reconciled only by leave/disconnect.
func (r *Registry) Register(connID, username string, level, berries int, gameData map[string]interface{}) *Participant {
	if gameData == nil {
		gameData = make(map[string]interface{})
	}
	p := &Participant{
		ID:       connID,
		Username: username,
		Level:    level,
		Berries:  berries,
		GameData: gameData,
	}
	r.participants[connID] = p
	return p
}

// Get returns the Participant for connID, or false when none is registered.
func (r *Registry) Get(connID string) (*Participant, bool) {
	p, ok := r.participants[connID]
	return p, ok
}

// Remove deletes the entry for connID. Removing an absent id is a no-op.
func (r *Registry) Remove(connID string) {
	delete(r.participants, connID)
}

// MergeGameData shallow-merges partial into the participant's game data:
// new keys are added, existing keys overwritten, unspecified keys retained.
// A no-op when connID is not registered.
func (r *Registry) MergeGameData(connID string, partial map[string]interface{}) {
	p, ok := r.participants[connID]
	if !ok {
		return
	}
	for k, v := range partial {
		p.GameData[k] = v
	}
}

// Count returns the number of registered participants.
func (r *Registry) Count() int {
	return len(r.participants)
}
