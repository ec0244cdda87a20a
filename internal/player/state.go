// Package player owns the single shared audio resource of the application
// and exposes transport controls over it as explicit state transitions.
package player

// State is the controller's position in the playback state machine.
type State int

const (
	// StateIdle means no track is loaded and the player is hidden.
	StateIdle State = iota
	// StateLoading means a source is set but its metadata is not known yet.
	StateLoading
	// StatePlaying means audio is being output.
	StatePlaying
	// StatePaused means a track is loaded but output is stopped.
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Session is the playback state visible to the rest of the application.
type Session struct {
	Track    *Track
	Source   string
	Position float64 // seconds
	Duration float64 // seconds, 0 until metadata loads
	Playing  bool
	Muted    bool
	Visible  bool
}
