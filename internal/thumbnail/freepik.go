// Package thumbnail generates podcast cover art with the Freepik
// text-to-image API.
package thumbnail

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
	"github.com/apresai/podcastr/internal/payload"
)

const (
	freepikBaseURL = "https://api.freepik.com/v1/ai"

	defaultSeed           = 42
	defaultInferenceSteps = 20
	defaultImageCount     = 1
	defaultSize           = "square"

	opGenerate = "generate image"
)

// Generator produces image bytes from a text prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

type imageRequest struct {
	Prompt            string       `json:"prompt"`
	Seed              int          `json:"seed"`
	NumInferenceSteps int          `json:"num_inference_steps"`
	NumImages         int          `json:"num_images"`
	Image             imageOptions `json:"image"`
}

type imageOptions struct {
	Size string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		Base64  string `json:"base64"`
		HasNSFW bool   `json:"has_nsfw"`
	} `json:"data"`
}

// Client calls the Freepik text-to-image endpoint with fixed generation
// parameters. One request per Generate call.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates an image client. An empty baseURL selects the public API.
func NewClient(apiKey, baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = freepikBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
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

// Generate renders prompt into a single square image and returns its bytes.
func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, failure.New(failure.ValidationFailure, opGenerate, errors.New("prompt is required"))
	}

	bodyBytes, err := json.Marshal(imageRequest{
		Prompt:            prompt,
		Seed:              defaultSeed,
		NumInferenceSteps: defaultInferenceSteps,
		NumImages:         defaultImageCount,
		Image:             imageOptions{Size: defaultSize},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/text-to-image", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-freepik-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, failure.New(failure.NetworkFailure, opGenerate, fmt.Errorf("send request: %w", err))
	}
	defer res.Body.Close()

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, failure.New(failure.NetworkFailure, opGenerate, fmt.Errorf("read response: %w", err))
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, failure.Newf(failure.NetworkFailure, opGenerate, "Freepik API error (status %d): %s", res.StatusCode, http.StatusText(res.StatusCode))
	}

	var out imageResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, failure.New(failure.MalformedResponse, opGenerate, fmt.Errorf("parse response: %w", err))
	}
	if len(out.Data) == 0 {
		return nil, failure.New(failure.MalformedResponse, opGenerate, errors.New("no image data found in the response"))
	}
	if out.Data[0].Base64 == "" {
		return nil, failure.New(failure.MalformedResponse, opGenerate, errors.New("image data has no base64 payload"))
	}

	img, err := payload.Decode(out.Data[0].Base64)
	if err != nil {
		return nil, err
	}

	c.log.DebugContext(ctx, "Thumbnail generated", "bytes", len(img), "results", len(out.Data))
	return img, nil
}
