// Package progress reports the steps of a podcast creation run.
package progress

import "time"

// Stage identifies which creation step is active.
type Stage string

const (
	StageAudio     Stage = "audio"
	StageThumbnail Stage = "thumbnail"
	StagePublish   Stage = "publish"
	StageComplete  Stage = "complete"
)

// Event carries progress information from the creation run to the renderer.
type Event struct {
	Stage   Stage
	Message string
	Percent float64 // 0.0–1.0
	Elapsed time.Duration
	Error   error
	// PodcastID and Duration are set on StageComplete.
	PodcastID string
	Duration  string
}

// Callback is the function signature for progress event handlers.
type Callback func(Event)

// NopCallback is a no-op progress callback for tests and silent mode.
func NopCallback(Event) {}

// NewEvent creates an Event with common fields populated.
func NewEvent(stage Stage, msg string, pct float64, start time.Time) Event {
	return Event{
		Stage:   stage,
		Message: msg,
		Percent: pct,
		Elapsed: time.Since(start),
	}
}
