//go:build nocgo

package player

import (
	"context"
	"errors"
)

var errNoAudioDevice = errors.New("audio output is not available in nocgo builds")

// OtoMedia is a stand-in for builds without the system audio libraries.
// Every Load fails, so the controller reports the error and stays idle.
type OtoMedia struct{}

func NewOtoMedia(Fetcher) *OtoMedia { return &OtoMedia{} }

func (m *OtoMedia) Load(context.Context, string) error { return errNoAudioDevice }
func (m *OtoMedia) Play() error                        { return errNoAudioDevice }
func (m *OtoMedia) Pause()                             {}
func (m *OtoMedia) Seek(float64) error                 { return errNoAudioDevice }
func (m *OtoMedia) SetMuted(bool)                      {}
func (m *OtoMedia) Position() float64                  { return 0 }
func (m *OtoMedia) Duration() float64                  { return 0 }
func (m *OtoMedia) Ended() bool                        { return false }
func (m *OtoMedia) Close() error                       { return nil }

var _ Media = (*OtoMedia)(nil)
