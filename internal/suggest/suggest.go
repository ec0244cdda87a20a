// Package suggest drafts voice and thumbnail prompts from a podcast's title
// and description using Claude or Amazon Nova on Bedrock.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

var claudeModels = map[string]string{
	"haiku":  "claude-haiku-4-5-20251001",
	"sonnet": "claude-sonnet-4-5-20250929",
}

const (
	temperature    = 0.8
	maxTokens      = 1024
	maxAttempts    = 2
	initialBackoff = 500 * time.Millisecond
)

const systemPrompt = `You help podcast creators get started. Given a podcast title and description, write:
- voicePrompt: a short spoken intro (3 to 6 sentences) the host will read aloud. Plain prose, no stage directions.
- imagePrompt: one sentence describing square cover art. Concrete subjects, style and lighting. No text in the image.
Respond with a single JSON object: {"voicePrompt": "...", "imagePrompt": "..."}`

// Prompts are suggested generation inputs.
type Prompts struct {
	VoicePrompt string `json:"voicePrompt"`
	ImagePrompt string `json:"imagePrompt"`
}

// backend sends one system + user prompt pair and returns the reply text.
type backend interface {
	complete(ctx context.Context, system, user string) (string, error)
}

// Suggester drafts prompts through one model backend.
type Suggester struct {
	backend backend
}

type claudeBackend struct {
	client anthropic.Client
	model  string
}

// New creates a Claude-backed suggester. model is "haiku" or "sonnet";
// extra options (base URL, retries) are passed to the SDK client.
func New(apiKey, model string, opts ...option.RequestOption) *Suggester {
	if apiKey != "" {
		opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	}
	modelID := claudeModels[model]
	if modelID == "" {
		modelID = claudeModels["haiku"]
	}
	return &Suggester{backend: &claudeBackend{client: anthropic.NewClient(opts...), model: modelID}}
}

func (b *claudeBackend) complete(ctx context.Context, system, user string) (string, error) {
	message, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(b.model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(temperature),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", err
	}
	return extractText(message), nil
}

// Suggest drafts prompts for the given details.
func (s *Suggester) Suggest(ctx context.Context, title, description string) (*Prompts, error) {
	title, description = strings.TrimSpace(title), strings.TrimSpace(description)
	if title == "" && description == "" {
		return nil, fmt.Errorf("title or description is required")
	}
	userPrompt := fmt.Sprintf("Title: %s\nDescription: %s", title, description)

	var lastErr error
	backoff := initialBackoff
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		text, err := s.backend.complete(ctx, systemPrompt, userPrompt)
		if err != nil {
			return nil, fmt.Errorf("suggest prompts: %w", err)
		}

		p, err := parsePrompts(text)
		if err != nil {
			lastErr = fmt.Errorf("parse suggestion (attempt %d/%d): %w", attempt, maxAttempts, err)
			continue
		}
		return p, nil
	}
	return nil, lastErr
}

func extractText(msg *anthropic.Message) string {
	var parts []string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			parts = append(parts, tb.Text)
		}
	}
	return strings.Join(parts, "")
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\n?(.*?)\n?```")

func parsePrompts(text string) (*Prompts, error) {
	if m := fenceRe.FindStringSubmatch(text); len(m) > 1 {
		text = m[1]
	}
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var p Prompts
	if err := json.Unmarshal([]byte(text[start:end+1]), &p); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	p.VoicePrompt = strings.TrimSpace(p.VoicePrompt)
	p.ImagePrompt = strings.TrimSpace(p.ImagePrompt)
	if p.VoicePrompt == "" || p.ImagePrompt == "" {
		return nil, fmt.Errorf("suggestion is missing a prompt")
	}
	return &p, nil
}
