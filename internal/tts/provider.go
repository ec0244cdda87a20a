package tts

import (
	"context"
	"fmt"
	"strings"
)

// Synthesizer turns text into rendered speech audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// VoiceInfo describes an available voice for display in the registry.
type VoiceInfo struct {
	ID          string
	Name        string
	Gender      string // "male" or "female"
	Description string
	PreviewPath string // sample clip served to the browser on selection
}

var voiceCatalog = []VoiceInfo{
	{ID: "Scarlett", Name: "Scarlett", Gender: "female", Description: "Bright American female, upbeat host"},
	{ID: "Liv", Name: "Liv", Gender: "female", Description: "Calm American female, warm storyteller"},
	{ID: "Dan", Name: "Dan", Gender: "male", Description: "Steady American male, clear narrator"},
	{ID: "Will", Name: "Will", Gender: "male", Description: "Relaxed American male, conversational"},
	{ID: "Amy", Name: "Amy", Gender: "female", Description: "Soft British female, friendly and engaging"},
}

// AvailableVoices returns the fixed voice catalog in display order.
func AvailableVoices() []VoiceInfo {
	out := make([]VoiceInfo, len(voiceCatalog))
	for i, v := range voiceCatalog {
		v.PreviewPath = "/voices/" + v.ID + ".mp3"
		out[i] = v
	}
	return out
}

// VoiceIDs returns the catalog IDs in display order.
func VoiceIDs() []string {
	ids := make([]string, len(voiceCatalog))
	for i, v := range voiceCatalog {
		ids[i] = v.ID
	}
	return ids
}

// LookupVoice resolves a voice name case-insensitively to its catalog entry.
func LookupVoice(name string) (VoiceInfo, error) {
	name = strings.TrimSpace(name)
	for _, v := range AvailableVoices() {
		if strings.EqualFold(v.ID, name) {
			return v, nil
		}
	}
	return VoiceInfo{}, fmt.Errorf("unknown voice %q: choose %s", name, strings.Join(VoiceIDs(), ", "))
}
