package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoom(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	room, err := repo.CreateRoom(ctx, "alice", "  General ")
	require.NoError(t, err)
	assert.Equal(t, "General", room.Name)
	assert.NotZero(t, room.ID)

	_, err = repo.CreateRoom(ctx, "alice", "General")
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = repo.CreateRoom(ctx, "alice", "   ")
	assert.ErrorIs(t, err, ErrEmptyName)

	// names are unique per owner only
	_, err = repo.CreateRoom(ctx, "bob", "General")
	assert.NoError(t, err)
}

func TestListRooms(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	for _, n := range []string{"b", "a", "c"} {
		_, err := repo.CreateRoom(ctx, "alice", n)
		require.NoError(t, err)
	}
	_, err := repo.CreateRoom(ctx, "bob", "z")
	require.NoError(t, err)

	first, err := repo.ListRooms(ctx, "alice")
	require.NoError(t, err)
	second, err := repo.ListRooms(ctx, "alice")
	require.NoError(t, err)

	require.Len(t, first, 3)
	assert.Equal(t, first, second)
	assert.Equal(t, "b", first[0].Name)
	assert.Equal(t, "c", first[2].Name)

	none, err := repo.ListRooms(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetRoom_Ownership(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	room, err := repo.CreateRoom(ctx, "alice", "r")
	require.NoError(t, err)

	_, err = repo.GetRoom(ctx, "bob", room.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	got, err := repo.GetRoom(ctx, "alice", room.ID)
	require.NoError(t, err)
	assert.Equal(t, room.ID, got.ID)
}

func TestDeleteRoom_Cascades(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	keep, err := repo.CreateRoom(ctx, "alice", "keep")
	require.NoError(t, err)
	gone, err := repo.CreateRoom(ctx, "alice", "gone")
	require.NoError(t, err)

	_, err = repo.AppendMessage(ctx, "alice", gone.ID, "m", "p1", "r1")
	require.NoError(t, err)
	_, err = repo.AppendMessage(ctx, "alice", keep.ID, "m", "p2", "r2")
	require.NoError(t, err)

	require.NoError(t, repo.DeleteRoom(ctx, gone.ID))

	rooms, err := repo.ListRooms(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, keep.ID, rooms[0].ID)

	hist, err := repo.History(ctx, "alice", gone.ID)
	require.NoError(t, err)
	assert.Empty(t, hist)

	hist, err = repo.History(ctx, "alice", keep.ID)
	require.NoError(t, err)
	assert.Len(t, hist, 1)

	assert.ErrorIs(t, repo.DeleteRoom(ctx, gone.ID), ErrRoomNotFound)

	// the name is free again
	_, err = repo.CreateRoom(ctx, "alice", "gone")
	assert.NoError(t, err)
}

func TestAppendHistoryClear(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	room, err := repo.CreateRoom(ctx, "alice", "r")
	require.NoError(t, err)

	for _, p := range []string{"one", "two", "three"} {
		_, err := repo.AppendMessage(ctx, "alice", room.ID, "m", p, "re:"+p)
		require.NoError(t, err)
	}
	// another user's row in the same room id is not part of alice's history
	_, err = repo.AppendMessage(ctx, "bob", room.ID, "m", "x", "y")
	require.NoError(t, err)

	hist, err := repo.History(ctx, "alice", room.ID)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, "one", hist[0].Prompt)
	assert.Equal(t, "three", hist[2].Prompt)
	assert.Equal(t, "re:two", hist[1].Reply)

	ts, err := hist[0].Time()
	require.NoError(t, err)
	assert.True(t, fixed.Equal(ts))

	n, err := repo.ClearHistory(ctx, "alice", room.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	hist, err = repo.History(ctx, "alice", room.ID)
	require.NoError(t, err)
	assert.Empty(t, hist)

	// clearing again is a no-op
	n, err = repo.ClearHistory(ctx, "alice", room.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	rooms, err := repo.ListRooms(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
}
