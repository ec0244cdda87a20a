package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
)

// SeekStep is how far Forward and Rewind move the playhead, in seconds.
const SeekStep = 5.0

// ErrInvalidState is returned when a transport control is not permitted in
// the controller's current state.
var ErrInvalidState = errors.New("invalid player state")

// Controller is the audio playback state machine. All transport mutations
// of the shared media go through it.
type Controller struct {
	mu      sync.Mutex
	media   Media
	slot    *TrackSlot
	state   State
	session Session
	log     *slog.Logger
}

// NewController wires a controller to media and subscribes it to slot, so
// setting the active track loads it and clearing it closes the player.
func NewController(media Media, slot *TrackSlot, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Controller{
		media: media,
		slot:  slot,
		log:   logger,
	}
	if slot != nil {
		slot.Subscribe(c.Load)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a copy of the playback session.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session
	if s.Track != nil {
		t := *s.Track
		s.Track = &t
	}
	return s
}

// Progress returns the playhead as a percentage of the duration.
func (c *Controller) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Duration <= 0 {
		return 0
	}
	return c.session.Position / c.session.Duration * 100
}

// Load reacts to an active-track change. A non-nil track resets the session
// and starts loading it; nil hides the player.
func (c *Controller) Load(ctx context.Context, t *Track) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t == nil || t.AudioURL == "" {
		c.resetLocked()
		return nil
	}

	if c.state != StateIdle {
		c.media.Pause()
	}

	cp := *t
	muted := c.session.Muted
	c.session = Session{
		Track:   &cp,
		Source:  t.AudioURL,
		Muted:   muted,
		Visible: true,
	}
	c.state = StateLoading

	if err := c.media.Load(ctx, t.AudioURL); err != nil {
		c.resetLocked()
		return fmt.Errorf("load track: %w", err)
	}
	c.media.SetMuted(muted)
	if err := c.media.Play(); err != nil {
		c.resetLocked()
		return fmt.Errorf("start playback: %w", err)
	}

	c.log.DebugContext(ctx, "Track loaded", "podcast_id", t.PodcastID, "src", t.AudioURL)
	return nil
}

// MetadataLoaded records the media duration. In Loading it completes the
// transition to Playing.
func (c *Controller) MetadataLoaded(duration float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metadataLoadedLocked(duration)
}

func (c *Controller) metadataLoadedLocked(duration float64) {
	if c.state == StateIdle || duration <= 0 {
		return
	}
	c.session.Duration = duration
	c.session.Position = clamp(c.session.Position, 0, duration)
	if c.state == StateLoading {
		c.state = StatePlaying
		c.session.Playing = true
	}
}

// TimeUpdate records a sample of the media clock.
func (c *Controller) TimeUpdate(pos float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeUpdateLocked(pos)
}

func (c *Controller) timeUpdateLocked(pos float64) {
	if c.state == StateIdle {
		return
	}
	c.session.Position = clamp(pos, 0, c.session.Duration)
}

// Ended handles natural completion: Playing becomes Paused and the playhead
// stays at the end.
func (c *Controller) Ended() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endedLocked()
}

func (c *Controller) endedLocked() {
	if c.state != StatePlaying {
		return
	}
	c.state = StatePaused
	c.session.Playing = false
	c.session.Position = c.session.Duration
}

// Sync polls the media for metadata, clock and completion. Backends without
// event callbacks are driven by calling Sync on a timer.
func (c *Controller) Sync() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateIdle {
		return
	}
	if d := c.media.Duration(); d > 0 && (c.state == StateLoading || d != c.session.Duration) {
		c.metadataLoadedLocked(d)
	}
	if c.state == StateLoading {
		return
	}
	c.timeUpdateLocked(c.media.Position())
	if c.state == StatePlaying && c.media.Ended() {
		c.endedLocked()
	}
}

// TogglePlayPause flips between Playing and Paused.
func (c *Controller) TogglePlayPause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StatePlaying:
		return c.pauseLocked()
	case StatePaused:
		return c.playLocked()
	default:
		return fmt.Errorf("%w: cannot toggle playback while %s", ErrInvalidState, c.state)
	}
}

// Play resumes a paused track. It is a no-op while already playing.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StatePaused:
		return c.playLocked()
	case StatePlaying:
		return nil
	default:
		return fmt.Errorf("%w: cannot play while %s", ErrInvalidState, c.state)
	}
}

// Pause stops output of a playing track. It is a no-op while already paused.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StatePlaying:
		return c.pauseLocked()
	case StatePaused:
		return nil
	default:
		return fmt.Errorf("%w: cannot pause while %s", ErrInvalidState, c.state)
	}
}

func (c *Controller) playLocked() error {
	// A finished track restarts from the beginning.
	if c.session.Duration > 0 && c.session.Position >= c.session.Duration {
		if err := c.media.Seek(0); err != nil {
			return fmt.Errorf("rewind finished track: %w", err)
		}
		c.session.Position = 0
	}
	if err := c.media.Play(); err != nil {
		return fmt.Errorf("resume playback: %w", err)
	}
	c.state = StatePlaying
	c.session.Playing = true
	return nil
}

func (c *Controller) pauseLocked() error {
	c.media.Pause()
	c.state = StatePaused
	c.session.Playing = false
	return nil
}

// Forward moves the playhead SeekStep seconds ahead, stopping at the end.
func (c *Controller) Forward() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seekLocked(c.session.Position + SeekStep)
}

// Rewind moves the playhead SeekStep seconds back, stopping at zero.
func (c *Controller) Rewind() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seekLocked(c.session.Position - SeekStep)
}

// Seek moves the playhead to pos, clamped to the track.
func (c *Controller) Seek(pos float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seekLocked(pos)
}

func (c *Controller) seekLocked(pos float64) error {
	if c.state != StatePlaying && c.state != StatePaused {
		return fmt.Errorf("%w: cannot seek while %s", ErrInvalidState, c.state)
	}
	target := clamp(pos, 0, c.session.Duration)
	if err := c.media.Seek(target); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	c.session.Position = target
	return nil
}

// ToggleMute flips the muted flag. Play state is unaffected.
func (c *Controller) ToggleMute() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateIdle {
		return fmt.Errorf("%w: nothing loaded", ErrInvalidState)
	}
	c.session.Muted = !c.session.Muted
	c.media.SetMuted(c.session.Muted)
	return nil
}

// Close stops playback, hides the player and clears the active track so
// that selecting the same track again reloads it.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()

	if c.slot != nil && c.slot.Current() != nil {
		// The slot calls back into Load(nil), which is a no-op by now.
		return c.slot.Clear(ctx)
	}
	return nil
}

func (c *Controller) resetLocked() {
	if c.state != StateIdle {
		c.media.Pause()
		if err := c.media.Seek(0); err != nil {
			c.log.Debug("Rewind on close failed", "error", err)
		}
	}
	if c.session.Muted {
		c.media.SetMuted(false)
	}
	c.state = StateIdle
	c.session = Session{}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Max(lo, math.Min(v, hi))
}
