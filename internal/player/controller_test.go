package player

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	epOne = "https://cdn.example.com/audio/ep1.mp3"
	epTwo = "https://cdn.example.com/audio/ep2.mp3"
)

func newTestPlayer(t *testing.T) (*Controller, *MemoryMedia, *TrackSlot) {
	t.Helper()
	media := NewMemoryMedia(map[string]float64{epOne: 120, epTwo: 30})
	slot := NewTrackSlot()
	return NewController(media, slot, nil), media, slot
}

// startPlaying selects a track and lets its metadata arrive.
func startPlaying(t *testing.T, c *Controller, media *MemoryMedia, slot *TrackSlot, src string) {
	t.Helper()
	require.NoError(t, slot.Set(context.Background(), &Track{PodcastID: "p", Title: "Ep", AudioURL: src}))
	require.Equal(t, StateLoading, c.State())
	media.Ready()
	c.Sync()
	require.Equal(t, StatePlaying, c.State())
}

func TestNewControllerIsIdleAndHidden(t *testing.T) {
	c, _, _ := newTestPlayer(t)
	s := c.Snapshot()
	assert.Equal(t, StateIdle, c.State())
	assert.False(t, s.Visible)
	assert.Zero(t, s.Position)
}

func TestLoadEntersLoadingThenPlaying(t *testing.T) {
	c, media, slot := newTestPlayer(t)

	require.NoError(t, slot.Set(context.Background(), &Track{Title: "Ep 1", AudioURL: epOne}))
	s := c.Snapshot()
	assert.Equal(t, StateLoading, c.State())
	assert.True(t, s.Visible)
	assert.Equal(t, epOne, s.Source)
	assert.Zero(t, s.Duration)
	assert.True(t, media.Playing(), "autoplay starts output while loading")

	c.MetadataLoaded(120)
	s = c.Snapshot()
	assert.Equal(t, StatePlaying, c.State())
	assert.True(t, s.Playing)
	assert.Equal(t, 120.0, s.Duration)
}

func TestLoadResetsPositionRegardlessOfPrior(t *testing.T) {
	c, media, slot := newTestPlayer(t)
	startPlaying(t, c, media, slot, epOne)

	media.Advance(47)
	c.Sync()
	require.Equal(t, 47.0, c.Snapshot().Position)

	require.NoError(t, slot.Set(context.Background(), &Track{AudioURL: epTwo}))
	s := c.Snapshot()
	assert.Zero(t, s.Position)
	assert.Zero(t, s.Duration, "duration is recomputed for the new source")
	assert.Equal(t, epTwo, s.Source)

	media.Ready()
	c.Sync()
	assert.Equal(t, 30.0, c.Snapshot().Duration)
}

func TestLoadFailureReturnsToIdle(t *testing.T) {
	c, media, slot := newTestPlayer(t)
	media.LoadErr = errors.New("404")

	err := slot.Set(context.Background(), &Track{AudioURL: epOne})
	require.Error(t, err)
	assert.Equal(t, StateIdle, c.State())
	assert.False(t, c.Snapshot().Visible)
}

func TestNilTrackHidesPlayer(t *testing.T) {
	c, media, slot := newTestPlayer(t)
	startPlaying(t, c, media, slot, epOne)

	require.NoError(t, slot.Set(context.Background(), nil))
	assert.Equal(t, StateIdle, c.State())
	assert.False(t, c.Snapshot().Visible)
	assert.False(t, media.Playing())
}

func TestTogglePlayPause(t *testing.T) {
	c, media, slot := newTestPlayer(t)
	startPlaying(t, c, media, slot, epOne)

	require.NoError(t, c.TogglePlayPause())
	assert.Equal(t, StatePaused, c.State())
	assert.False(t, media.Playing())

	require.NoError(t, c.TogglePlayPause())
	assert.Equal(t, StatePlaying, c.State())
	assert.True(t, media.Playing())

	require.NoError(t, c.Pause())
	require.NoError(t, c.Pause())
	assert.Equal(t, StatePaused, c.State())
	require.NoError(t, c.Play())
	assert.Equal(t, StatePlaying, c.State())
}

func TestTransportRejectedOutsideLoadedStates(t *testing.T) {
	c, _, slot := newTestPlayer(t)

	assert.ErrorIs(t, c.TogglePlayPause(), ErrInvalidState)
	assert.ErrorIs(t, c.Forward(), ErrInvalidState)
	assert.ErrorIs(t, c.ToggleMute(), ErrInvalidState)

	require.NoError(t, slot.Set(context.Background(), &Track{AudioURL: epOne}))
	assert.ErrorIs(t, c.Rewind(), ErrInvalidState, "no seeking before metadata")
	assert.ErrorIs(t, c.TogglePlayPause(), ErrInvalidState)
	assert.NoError(t, c.ToggleMute(), "mute is allowed while loading")
}

func TestSeekClampsToTrack(t *testing.T) {
	c, media, slot := newTestPlayer(t)
	startPlaying(t, c, media, slot, epTwo) // 30s

	require.NoError(t, c.Rewind())
	assert.Zero(t, c.Snapshot().Position)

	for i := 0; i < 10; i++ {
		require.NoError(t, c.Forward())
		pos := c.Snapshot().Position
		assert.GreaterOrEqual(t, pos, 0.0)
		assert.LessOrEqual(t, pos, 30.0)
	}
	assert.Equal(t, 30.0, c.Snapshot().Position)
	assert.Equal(t, 30.0, media.Position())

	require.NoError(t, c.Seek(12))
	require.NoError(t, c.Rewind())
	assert.Equal(t, 7.0, c.Snapshot().Position)

	require.NoError(t, c.Seek(-100))
	assert.Zero(t, c.Snapshot().Position)
}

func TestSeekKeepsPlayState(t *testing.T) {
	c, media, slot := newTestPlayer(t)
	startPlaying(t, c, media, slot, epOne)

	require.NoError(t, c.Pause())
	require.NoError(t, c.Forward())
	assert.Equal(t, StatePaused, c.State())

	require.NoError(t, c.Play())
	require.NoError(t, c.Rewind())
	assert.Equal(t, StatePlaying, c.State())
}

func TestToggleMuteTwiceIsIdentity(t *testing.T) {
	c, media, slot := newTestPlayer(t)
	startPlaying(t, c, media, slot, epOne)

	before := c.Snapshot().Muted
	require.NoError(t, c.ToggleMute())
	assert.NotEqual(t, before, c.Snapshot().Muted)
	assert.True(t, media.Muted())
	assert.Equal(t, StatePlaying, c.State())

	require.NoError(t, c.ToggleMute())
	assert.Equal(t, before, c.Snapshot().Muted)
	assert.False(t, media.Muted())
}

func TestEndOfMediaPausesAtEnd(t *testing.T) {
	c, media, slot := newTestPlayer(t)
	startPlaying(t, c, media, slot, epTwo)

	media.Advance(45)
	c.Sync()

	s := c.Snapshot()
	assert.Equal(t, StatePaused, c.State())
	assert.False(t, s.Playing)
	assert.Equal(t, 30.0, s.Position)
	assert.Equal(t, 100.0, c.Progress())

	// Resuming a finished track starts over.
	require.NoError(t, c.Play())
	assert.Zero(t, c.Snapshot().Position)
	assert.Equal(t, StatePlaying, c.State())
}

func TestCloseReturnsToIdleAndClearsSlot(t *testing.T) {
	for _, setup := range []string{"loading", "playing", "paused", "idle"} {
		t.Run(setup, func(t *testing.T) {
			c, media, slot := newTestPlayer(t)
			switch setup {
			case "loading":
				require.NoError(t, slot.Set(context.Background(), &Track{AudioURL: epOne}))
			case "playing":
				startPlaying(t, c, media, slot, epOne)
				media.Advance(20)
				c.Sync()
			case "paused":
				startPlaying(t, c, media, slot, epOne)
				require.NoError(t, c.Forward())
				require.NoError(t, c.Pause())
			}

			require.NoError(t, c.Close(context.Background()))

			s := c.Snapshot()
			assert.Equal(t, StateIdle, c.State())
			assert.Zero(t, s.Position)
			assert.False(t, s.Visible)
			assert.False(t, s.Playing)
			assert.Nil(t, slot.Current())
			assert.False(t, media.Playing())
		})
	}
}

func TestReselectAfterCloseReloads(t *testing.T) {
	c, media, slot := newTestPlayer(t)
	track := &Track{PodcastID: "p1", AudioURL: epOne}

	require.NoError(t, slot.Set(context.Background(), track))
	media.Ready()
	c.Sync()
	require.NoError(t, c.Close(context.Background()))

	require.NoError(t, slot.Set(context.Background(), track))
	assert.Equal(t, StateLoading, c.State())
	assert.Equal(t, "p1", c.Snapshot().Track.PodcastID)
}

func TestTimeUpdateIgnoredWhileIdle(t *testing.T) {
	c, _, _ := newTestPlayer(t)
	c.TimeUpdate(10)
	c.MetadataLoaded(99)
	assert.Zero(t, c.Snapshot().Position)
	assert.Zero(t, c.Snapshot().Duration)
	assert.Equal(t, StateIdle, c.State())
}
