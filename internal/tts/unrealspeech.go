package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/apresai/podcastr/internal/failure"
)

const (
	unrealSpeechBaseURL = "https://api.v7.unrealspeech.com"
	unrealSpeechBitrate = "192k"

	opSynthesize = "synthesize speech"
)

type unrealSpeechRequest struct {
	Text          string `json:"Text"`
	VoiceID       string `json:"VoiceId"`
	Bitrate       string `json:"Bitrate"`
	Speed         string `json:"Speed"`
	Pitch         string `json:"Pitch"`
	TimestampType string `json:"TimestampType"`
}

type unrealSpeechResponse struct {
	OutputURI string `json:"OutputUri"`
	TaskID    string `json:"TaskId,omitempty"`
}

// Client calls the Unreal Speech API. Each Synthesize makes exactly one
// attempt: a render request followed by a fetch of the rendered audio.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a speech client. An empty baseURL selects the public API;
// a nil httpClient gets a 60s timeout client.
func NewClient(apiKey, baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = unrealSpeechBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        logger,
	}
}

// Synthesize renders text with the given catalog voice and returns the audio bytes.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, failure.New(failure.ValidationFailure, opSynthesize, errors.New("text is required"))
	}
	voice, err := LookupVoice(voiceID)
	if err != nil {
		return nil, failure.New(failure.ValidationFailure, opSynthesize, err)
	}

	outputURI, err := c.render(ctx, text, voice.ID)
	if err != nil {
		return nil, err
	}

	c.log.DebugContext(ctx, "Speech rendered", "voice", voice.ID, "chars", len(text))

	return c.fetch(ctx, outputURI)
}

func (c *Client) render(ctx context.Context, text, voiceID string) (string, error) {
	bodyBytes, err := json.Marshal(unrealSpeechRequest{
		Text:          text,
		VoiceID:       voiceID,
		Bitrate:       unrealSpeechBitrate,
		Speed:         "0",
		Pitch:         "1.0",
		TimestampType: "sentence",
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/speech", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", failure.New(failure.NetworkFailure, opSynthesize, fmt.Errorf("send request: %w", err))
	}
	defer res.Body.Close()

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", failure.New(failure.NetworkFailure, opSynthesize, fmt.Errorf("read response: %w", err))
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", failure.Newf(failure.NetworkFailure, opSynthesize, "Unreal Speech API error (status %d): %s", res.StatusCode, string(respBody))
	}

	var out unrealSpeechResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", failure.New(failure.MalformedResponse, opSynthesize, fmt.Errorf("parse response: %w", err))
	}
	if out.OutputURI == "" {
		return "", failure.New(failure.MalformedResponse, opSynthesize, errors.New("response has no OutputUri"))
	}
	return out.OutputURI, nil
}

func (c *Client) fetch(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, failure.New(failure.MalformedResponse, opSynthesize, fmt.Errorf("invalid OutputUri: %w", err))
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, failure.New(failure.NetworkFailure, opSynthesize, fmt.Errorf("fetch audio: %w", err))
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		errBody, _ := io.ReadAll(res.Body)
		return nil, failure.Newf(failure.NetworkFailure, opSynthesize, "audio fetch error (status %d): %s", res.StatusCode, string(errBody))
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, failure.New(failure.NetworkFailure, opSynthesize, fmt.Errorf("read audio: %w", err))
	}
	return data, nil
}
