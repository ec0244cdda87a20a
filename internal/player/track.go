package player

import (
	"context"
	"errors"
	"sync"
)

// Track is what the rest of the application hands the player: an audio
// source plus the metadata shown next to the transport controls.
type Track struct {
	PodcastID string
	Title     string
	Author    string
	AudioURL  string
	ImageURL  string
}

// TrackSlot holds the application's active-track reference. Listeners are
// notified synchronously on every Set or Clear, so re-setting the same
// track reloads it.
type TrackSlot struct {
	mu        sync.Mutex
	current   *Track
	listeners []func(ctx context.Context, t *Track) error
}

// NewTrackSlot returns an empty slot.
func NewTrackSlot() *TrackSlot {
	return &TrackSlot{}
}

// Subscribe registers fn to run whenever the active track changes.
func (s *TrackSlot) Subscribe(fn func(ctx context.Context, t *Track) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Current returns a copy of the active track, or nil.
func (s *TrackSlot) Current() *Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	t := *s.current
	return &t
}

// Set makes t the active track and notifies listeners.
func (s *TrackSlot) Set(ctx context.Context, t *Track) error {
	s.mu.Lock()
	if t != nil {
		cp := *t
		t = &cp
	}
	s.current = t
	listeners := append([]func(context.Context, *Track) error(nil), s.listeners...)
	s.mu.Unlock()

	var errs []error
	for _, fn := range listeners {
		if err := fn(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear removes the active track and notifies listeners with nil.
func (s *TrackSlot) Clear(ctx context.Context) error {
	return s.Set(ctx, nil)
}
