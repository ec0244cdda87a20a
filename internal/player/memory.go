package player

import (
	"context"
	"errors"
	"sync"
)

// MemoryMedia is a Media without audio output. The clock only moves when
// Advance is called, which makes it suitable for tests and headless use.
type MemoryMedia struct {
	mu        sync.Mutex
	src       string
	durations map[string]float64
	duration  float64
	position  float64
	playing   bool
	muted     bool
	loaded    bool

	// LoadErr, when set, fails the next Load.
	LoadErr error
}

// NewMemoryMedia returns media whose sources have the given durations.
// Sources missing from the map load with an unknown duration.
func NewMemoryMedia(durations map[string]float64) *MemoryMedia {
	if durations == nil {
		durations = map[string]float64{}
	}
	return &MemoryMedia{durations: durations}
}

func (m *MemoryMedia) Load(_ context.Context, src string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		err := m.LoadErr
		m.LoadErr = nil
		return err
	}
	m.src = src
	m.duration = 0
	m.position = 0
	m.playing = false
	m.loaded = true
	return nil
}

// Ready publishes the duration of the loaded source, as if its metadata
// had just arrived.
func (m *MemoryMedia) Ready() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = m.durations[m.src]
}

// Advance moves the clock forward while playing.
func (m *MemoryMedia) Advance(secs float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.playing {
		return
	}
	m.position += secs
	if m.duration > 0 && m.position >= m.duration {
		m.position = m.duration
		m.playing = false
	}
}

func (m *MemoryMedia) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return errors.New("no source loaded")
	}
	m.playing = true
	return nil
}

func (m *MemoryMedia) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
}

func (m *MemoryMedia) Seek(pos float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return errors.New("no source loaded")
	}
	m.position = pos
	return nil
}

func (m *MemoryMedia) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
}

// Muted reports the output mute state.
func (m *MemoryMedia) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

// Playing reports whether output is running.
func (m *MemoryMedia) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *MemoryMedia) Position() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *MemoryMedia) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *MemoryMedia) Ended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded && m.duration > 0 && m.position >= m.duration && !m.playing
}

func (m *MemoryMedia) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = false
	m.playing = false
	return nil
}
