// Package audio inspects rendered MP3 audio.
package audio

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/hajimehoshi/go-mp3"

	"github.com/apresai/podcastr/internal/failure"
)

// BytesPerFrame is the size of one decoded sample frame: go-mp3 always
// emits 16-bit little-endian stereo PCM.
const BytesPerFrame = 4

// Duration returns the playback length of an MP3 payload in seconds.
func Duration(data []byte) (float64, error) {
	if len(data) == 0 {
		return 0, failure.New(failure.DecodeFailure, "measure audio", errors.New("empty audio"))
	}

	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return 0, failure.New(failure.DecodeFailure, "measure audio", fmt.Errorf("decode mp3: %w", err))
	}

	length := dec.Length()
	if length <= 0 || dec.SampleRate() <= 0 {
		return 0, failure.New(failure.DecodeFailure, "measure audio", errors.New("unknown stream length"))
	}

	return float64(length) / float64(BytesPerFrame*dec.SampleRate()), nil
}

// FormatDuration renders seconds as M:SS, or H:MM:SS past the hour.
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
