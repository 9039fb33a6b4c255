package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDirectory() *Directory {
	return NewDirectory(NewCodeGenerator())
}

func requireInvariants(t *testing.T, room *Room) {
	t.Helper()
	assert.LessOrEqual(t, len(room.Players), room.MaxPlayers)
	assert.Contains(t, room.Players, room.Admin)
}

func TestCreateRoom(t *testing.T) {
	d := newTestDirectory()

	room := d.Create("conn-1", 4, Settings{SharedEnemies: true, SyncBattles: true})

	assert.Regexp(t, `^ROOM_[A-Z0-9]{6}$`, room.Code)
	assert.Equal(t, "conn-1", room.Admin)
	assert.Equal(t, []string{"conn-1"}, room.Players)
	assert.Equal(t, StateWaiting, room.GameState)
	assert.False(t, room.CreatedAt.IsZero())
	assert.True(t, room.Settings.SharedEnemies)
	assert.Equal(t, 1, d.Count())
	requireInvariants(t, room)

	got, ok := d.Get(room.Code)
	require.True(t, ok)
	assert.Same(t, room, got)
}

func TestJoinPreservesOrder(t *testing.T) {
	d := newTestDirectory()
	room := d.Create("a", 4, Settings{})

	_, err := d.Join(room.Code, "b")
	require.NoError(t, err)
	_, err = d.Join(room.Code, "c")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, room.Players)
	requireInvariants(t, room)
}

func TestJoinUnknownRoom(t *testing.T) {
	d := newTestDirectory()

	_, err := d.Join("ROOM_ZZZZZZ", "b")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestJoinFullRoom(t *testing.T) {
	d := newTestDirectory()
	room := d.Create("a", 2, Settings{})
	_, err := d.Join(room.Code, "b")
	require.NoError(t, err)

	_, err = d.Join(room.Code, "c")

	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, []string{"a", "b"}, room.Players, "membership must be unchanged")
}

func TestJoinPlayingRoom(t *testing.T) {
	d := newTestDirectory()
	room := d.Create("a", 4, Settings{})
	_, err := d.Start(room.Code, "a")
	require.NoError(t, err)

	_, err = d.Join(room.Code, "b")
	assert.ErrorIs(t, err, ErrRoomAlreadyPlaying)
}

func TestStartGame(t *testing.T) {
	d := newTestDirectory()
	room := d.Create("a", 4, Settings{})
	_, err := d.Join(room.Code, "b")
	require.NoError(t, err)

	_, err = d.Start(room.Code, "b")
	assert.ErrorIs(t, err, ErrNotAdmin)
	assert.Equal(t, StateWaiting, room.GameState, "state must be unchanged")

	_, err = d.Start(room.Code, "a")
	require.NoError(t, err)
	assert.Equal(t, StatePlaying, room.GameState)

	// Re-entry is idempotent.
	_, err = d.Start(room.Code, "a")
	require.NoError(t, err)
	assert.Equal(t, StatePlaying, room.GameState)
}

func TestStartUnknownRoom(t *testing.T) {
	d := newTestDirectory()

	_, err := d.Start("ROOM_ZZZZZZ", "a")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestLeaveAdminSuccession(t *testing.T) {
	d := newTestDirectory()
	room := d.Create("a", 4, Settings{})
	_, err := d.Join(room.Code, "b")
	require.NoError(t, err)
	_, err = d.Join(room.Code, "c")
	require.NoError(t, err)

	got, adminChanged, deleted := d.Leave(room.Code, "a")

	require.NotNil(t, got)
	assert.True(t, adminChanged)
	assert.False(t, deleted)
	assert.Equal(t, "b", got.Admin, "earliest remaining member becomes admin")
	assert.Equal(t, []string{"b", "c"}, got.Players)
	requireInvariants(t, got)
}

func TestLeaveNonAdmin(t *testing.T) {
	d := newTestDirectory()
	room := d.Create("a", 4, Settings{})
	_, err := d.Join(room.Code, "b")
	require.NoError(t, err)

	got, adminChanged, deleted := d.Leave(room.Code, "b")

	require.NotNil(t, got)
	assert.False(t, adminChanged)
	assert.False(t, deleted)
	assert.Equal(t, "a", got.Admin)
}

func TestLastLeaveDeletesRoom(t *testing.T) {
	d := newTestDirectory()
	room := d.Create("a", 4, Settings{})

	got, adminChanged, deleted := d.Leave(room.Code, "a")

	assert.Nil(t, got)
	assert.False(t, adminChanged)
	assert.True(t, deleted)
	assert.Equal(t, 0, d.Count())

	_, err := d.Join(room.Code, "b")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestLeaveUnknownMemberIsNoop(t *testing.T) {
	d := newTestDirectory()
	room := d.Create("a", 4, Settings{})

	got, adminChanged, deleted := d.Leave(room.Code, "ghost")

	require.NotNil(t, got)
	assert.False(t, adminChanged)
	assert.False(t, deleted)
	assert.Equal(t, []string{"a"}, got.Players)

	got, adminChanged, deleted = d.Leave("ROOM_ZZZZZZ", "a")
	assert.Nil(t, got)
	assert.False(t, adminChanged)
	assert.False(t, deleted)
}

func TestSnapshotOmitsIdentities(t *testing.T) {
	d := newTestDirectory()
	room := d.Create("a", 3, Settings{})
	_, err := d.Join(room.Code, "b")
	require.NoError(t, err)

	summaries := d.Snapshot()

	require.Len(t, summaries, 1)
	assert.Equal(t, room.Code, summaries[0].Code)
	assert.Equal(t, 2, summaries[0].Players)
	assert.Equal(t, 3, summaries[0].MaxPlayers)
	assert.Equal(t, StateWaiting, summaries[0].GameState)
	assert.Equal(t, room.CreatedAt, summaries[0].CreatedAt)
}
