package player

import "context"

// Media is the audio resource the controller drives. Times are in seconds.
// Implementations do not track transport state themselves beyond what the
// underlying output needs; the controller is the source of truth.
type Media interface {
	// Load replaces the current source. Playback does not start until Play.
	Load(ctx context.Context, src string) error
	Play() error
	Pause()
	Seek(pos float64) error
	SetMuted(muted bool)
	// Position is the current media clock.
	Position() float64
	// Duration is 0 until the source's metadata is known.
	Duration() float64
	// Ended reports natural completion of the loaded source.
	Ended() bool
	Close() error
}
