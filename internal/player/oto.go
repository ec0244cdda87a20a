//go:build !nocgo

package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/hajimehoshi/go-mp3"

	"github.com/apresai/podcastr/internal/audio"
)

// OtoMedia plays MP3 sources through the system audio device. The oto
// context can only be created once per process, so an application should
// hold a single OtoMedia.
type OtoMedia struct {
	mu         sync.Mutex
	fetch      Fetcher
	otoCtx     *oto.Context
	sampleRate int
	player     *oto.Player
	src        *trackedSource
	duration   float64
	paused     bool
}

// NewOtoMedia creates speaker-backed media. The audio device is opened on
// the first Load, using that source's sample rate.
func NewOtoMedia(fetch Fetcher) *OtoMedia {
	if fetch == nil {
		fetch = HTTPFetcher(nil)
	}
	return &OtoMedia{fetch: fetch, paused: true}
}

func (m *OtoMedia) Load(ctx context.Context, src string) error {
	data, err := m.fetch(ctx, src)
	if err != nil {
		return err
	}
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode mp3: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureContext(dec.SampleRate()); err != nil {
		return err
	}
	m.closePlayer()

	m.src = &trackedSource{dec: dec}
	m.player = m.otoCtx.NewPlayer(m.src)
	m.paused = true
	m.duration = 0
	if n := dec.Length(); n > 0 {
		m.duration = float64(n) / float64(audio.BytesPerFrame*m.sampleRate)
	}
	return nil
}

func (m *OtoMedia) ensureContext(sampleRate int) error {
	if m.otoCtx != nil {
		if sampleRate != m.sampleRate {
			return fmt.Errorf("sample rate %d does not match audio device rate %d", sampleRate, m.sampleRate)
		}
		return nil
	}
	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	<-ready
	m.otoCtx = otoCtx
	m.sampleRate = sampleRate
	return nil
}

func (m *OtoMedia) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.player == nil {
		return errors.New("no source loaded")
	}
	m.player.Play()
	m.paused = false
	return nil
}

func (m *OtoMedia) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.player != nil {
		m.player.Pause()
	}
	m.paused = true
}

func (m *OtoMedia) Seek(pos float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.player == nil {
		return errors.New("no source loaded")
	}
	offset := int64(pos*float64(m.sampleRate)) * audio.BytesPerFrame
	if _, err := m.player.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek audio: %w", err)
	}
	return nil
}

func (m *OtoMedia) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.player == nil {
		return
	}
	if muted {
		m.player.SetVolume(0)
	} else {
		m.player.SetVolume(1)
	}
}

func (m *OtoMedia) Position() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.player == nil || m.sampleRate == 0 {
		return 0
	}
	played := m.src.offset() - int64(m.player.BufferedSize())
	if played < 0 {
		played = 0
	}
	return float64(played) / float64(audio.BytesPerFrame*m.sampleRate)
}

func (m *OtoMedia) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *OtoMedia) Ended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.player != nil && !m.paused && m.src.drained() && !m.player.IsPlaying()
}

func (m *OtoMedia) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closePlayer()
}

func (m *OtoMedia) closePlayer() error {
	if m.player == nil {
		return nil
	}
	err := m.player.Close()
	m.player = nil
	m.src = nil
	return err
}

// trackedSource counts decoded bytes handed to the audio device so the
// playhead can be derived from it.
type trackedSource struct {
	mu  sync.Mutex
	dec *mp3.Decoder
	n   int64
	eof bool
}

func (s *trackedSource) Read(p []byte) (int, error) {
	n, err := s.dec.Read(p)
	s.mu.Lock()
	s.n += int64(n)
	if errors.Is(err, io.EOF) {
		s.eof = true
	}
	s.mu.Unlock()
	return n, err
}

func (s *trackedSource) Seek(offset int64, whence int) (int64, error) {
	pos, err := s.dec.Seek(offset, whence)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.n = pos
	s.eof = false
	s.mu.Unlock()
	return pos, nil
}

func (s *trackedSource) offset() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

func (s *trackedSource) drained() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eof
}

var _ Media = (*OtoMedia)(nil)
