package player

import "github.com/apresai/podcastr/internal/audio"

// FormatTime renders a position for the player bar.
func FormatTime(seconds float64) string {
	return audio.FormatDuration(seconds)
}
