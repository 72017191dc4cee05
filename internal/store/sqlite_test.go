package store

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lokalebooking/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := zerolog.New(io.Discard)
	st, err := Open(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestInsertAndFetch(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	room := "Lokale 308 (6 personer)"
	require.NoError(t, st.Insert(ctx, model.Booking{Room: room, Date: "2025-03-11", StartMinutes: 600, Name: "Jonas"}))
	require.NoError(t, st.Insert(ctx, model.Booking{Room: room, Date: "2025-03-10", StartMinutes: 480, Name: "Ida"}))
	require.NoError(t, st.Insert(ctx, model.Booking{Room: room, Date: "2025-03-10", StartMinutes: 960, Name: "Mette"}))
	require.NoError(t, st.Insert(ctx, model.Booking{Room: "Lokale 110", Date: "2025-03-10", StartMinutes: 480, Name: "Lars"}))

	got, err := st.FetchByRoom(ctx, room)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Ordered by date, then slot; other rooms excluded.
	assert.Equal(t, "Ida", got[0].Name)
	assert.Equal(t, "Mette", got[1].Name)
	assert.Equal(t, "Jonas", got[2].Name)
	for _, b := range got {
		assert.Equal(t, room, b.Room)
		assert.False(t, b.CreatedAt.IsZero())
	}
}

func TestInsertConflict(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	b := model.Booking{Room: "Lokale 110", Date: "2025-03-10", StartMinutes: 600, Name: "Ida"}
	require.NoError(t, st.Insert(ctx, b))

	// Same key, different booker: the second insert loses.
	loser := b
	loser.Name = "Jonas"
	err := st.Insert(ctx, loser)
	assert.ErrorIs(t, err, ErrConflict)

	got, err := st.FetchByRoom(ctx, b.Room)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ida", got[0].Name)
}

func TestDeleteIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	b := model.Booking{Room: "Lokale 110", Date: "2025-03-10", StartMinutes: 600, Name: "Ida"}
	require.NoError(t, st.Insert(ctx, b))

	require.NoError(t, st.Delete(ctx, b.Key()))
	got, err := st.FetchByRoom(ctx, b.Room)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Deleting an absent key succeeds.
	assert.NoError(t, st.Delete(ctx, b.Key()))
	assert.NoError(t, st.Delete(ctx, model.SlotKey("Lokale 110", "2099-01-04", 480)))
}

func TestChangeNotifications(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	got := make(chan change, 8)
	sub := st.Subscribe(func(room string, kind ChangeKind) {
		got <- change{room, kind}
	})
	defer sub.Close()

	b := model.Booking{Room: "Lokale 110", Date: "2025-03-10", StartMinutes: 600, Name: "Ida"}
	require.NoError(t, st.Insert(ctx, b))

	select {
	case c := <-got:
		assert.Equal(t, b.Room, c.room)
		assert.Equal(t, ChangeInsert, c.kind)
	case <-time.After(time.Second):
		t.Fatal("insert notification never delivered")
	}

	require.NoError(t, st.Delete(ctx, b.Key()))

	select {
	case c := <-got:
		assert.Equal(t, b.Room, c.room)
		assert.Equal(t, ChangeDelete, c.kind)
	case <-time.After(time.Second):
		t.Fatal("delete notification never delivered")
	}

	// Deleting an absent key emits nothing.
	require.NoError(t, st.Delete(ctx, b.Key()))
	select {
	case c := <-got:
		t.Fatalf("unexpected notification %+v", c)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPing(t *testing.T) {
	st := newTestStore(t)
	assert.NoError(t, st.Ping(context.Background()))
}
