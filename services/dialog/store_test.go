package dialog

import (
	"context"
	"testing"
	"time"

	"aerovoice/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCopiesOnGet(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	sess := newTestSession(models.StageCollectingOrigin)
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, sess.SessionID)
	require.NoError(t, err)
	got.Record.Trip.Origin = models.SlotValue{Value: "Boston", Confidence: 0.9}

	// Mutating the returned copy must not leak into the stored session.
	again, err := store.Get(ctx, sess.SessionID)
	require.NoError(t, err)
	assert.False(t, again.Record.Trip.Origin.Filled())
}

func TestMemoryStoreGetUnknown(t *testing.T) {
	store := NewMemorySessionStore()
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreStale(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	now := time.Now()

	idle := newTestSession(models.StageCollectingDates)
	idle.SessionID = "idle"
	idle.LastActivityAt = now.Add(-2 * time.Hour)
	require.NoError(t, store.Save(ctx, idle))

	active := newTestSession(models.StageCollectingDates)
	active.SessionID = "active"
	active.LastActivityAt = now
	require.NoError(t, store.Save(ctx, active))

	finished := newTestSession(models.StageBookingComplete)
	finished.SessionID = "finished"
	finished.LastActivityAt = now.Add(-2 * time.Hour)
	require.NoError(t, store.Save(ctx, finished))

	stale, err := store.Stale(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "idle", stale[0].SessionID)
}
