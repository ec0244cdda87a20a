package studio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apresai/podcastr/internal/store"
)

func TestRegistryOwnership(t *testing.T) {
	r := NewRegistry(Deps{})

	id, f, err := r.Create(store.Identity{UserID: "alice"})
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Len(t, id, 26)

	got, rec, err := r.Get(id, "alice")
	require.NoError(t, err)
	assert.Same(t, f, got)
	require.NotNil(t, rec)

	_, _, err = r.Get(id, "mallory")
	assert.ErrorIs(t, err, ErrDraftNotFound)
	assert.ErrorIs(t, r.Delete(id, "mallory"), ErrDraftNotFound)

	require.NoError(t, r.Delete(id, "alice"))
	_, _, err = r.Get(id, "alice")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestRegistryDraftsRecordNotifications(t *testing.T) {
	r := NewRegistry(Deps{})
	id, f, err := r.Create(store.Identity{UserID: "alice"})
	require.NoError(t, err)

	_ = f.GenerateImage(context.Background())

	_, rec, err := r.Get(id, "alice")
	require.NoError(t, err)
	notes, path := rec.Drain()
	require.Len(t, notes, 1)
	assert.Equal(t, VariantDestructive, notes[0].Variant)
	assert.Empty(t, path)

	notes, _ = rec.Drain()
	assert.Empty(t, notes)
}

func TestRegistrySweep(t *testing.T) {
	r := NewRegistry(Deps{})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	oldID, _, err := r.Create(store.Identity{UserID: "a"})
	require.NoError(t, err)
	now = now.Add(2 * time.Hour)
	freshID, _, err := r.Create(store.Identity{UserID: "a"})
	require.NoError(t, err)

	assert.Equal(t, 1, r.Sweep(time.Hour))
	assert.Equal(t, 1, r.Len())
	_, _, err = r.Get(oldID, "a")
	assert.ErrorIs(t, err, ErrDraftNotFound)
	_, _, err = r.Get(freshID, "a")
	assert.NoError(t, err)
}
