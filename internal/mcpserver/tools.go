package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/apresai/podcastr/internal/audio"
	"github.com/apresai/podcastr/internal/observability"
	"github.com/apresai/podcastr/internal/store"
	"github.com/apresai/podcastr/internal/studio"
	"github.com/apresai/podcastr/internal/suggest"
	"github.com/apresai/podcastr/internal/tts"
)

var tracer = otel.Tracer("podcastr-mcp")

// Catalog reads published podcasts.
type Catalog interface {
	GetPodcast(ctx context.Context, id string) (*store.Podcast, error)
	ListPodcasts(ctx context.Context, limit int, cursor string) ([]store.Podcast, string, error)
}

// Authenticator resolves a bearer token to an identity.
type Authenticator interface {
	ValidateAPIKey(ctx context.Context, bearer string) (store.Identity, error)
}

// Suggester drafts prompts from podcast details.
type Suggester interface {
	Suggest(ctx context.Context, title, description string) (*suggest.Prompts, error)
}

// Deps wires the tool handlers. Suggester may be nil.
type Deps struct {
	Studio    studio.Deps
	Catalog   Catalog
	Auth      Authenticator
	Suggester Suggester
}

// ToolDefs returns the MCP tool definitions.
func ToolDefs() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "list_voices",
			Description: "List the narrator voices available for create_podcast.",
			InputSchema: mcp.ToolInputSchema{Type: "object", Properties: map[string]any{}},
		},
		{
			Name:        "create_podcast",
			Description: "Create and publish a podcast: narrates voice_prompt with the chosen voice, renders a square thumbnail from image_prompt, and publishes it. Requires an API key. Missing prompts are drafted from the title and description when suggestions are enabled.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"title": map[string]any{
						"type":        "string",
						"description": "Podcast title (at least 2 characters)",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "Podcast description (at least 2 characters)",
					},
					"voice": map[string]any{
						"type":        "string",
						"description": "Narrator voice: Scarlett, Liv, Dan, Will, Amy",
					},
					"voice_prompt": map[string]any{
						"type":        "string",
						"description": "Text the narrator reads",
					},
					"image_prompt": map[string]any{
						"type":        "string",
						"description": "Description of the cover art",
					},
				},
				Required: []string{"title", "description", "voice"},
			},
		},
		{
			Name:        "get_podcast",
			Description: "Get a published podcast by ID, including its audio and thumbnail URLs.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"podcast_id": map[string]any{
						"type":        "string",
						"description": "The podcast ID returned from create_podcast",
					},
				},
				Required: []string{"podcast_id"},
			},
		},
		{
			Name:        "list_podcasts",
			Description: "List published podcasts, newest first.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"limit": map[string]any{
						"type":        "integer",
						"description": "Maximum number of results (default 20)",
						"default":     20,
					},
					"cursor": map[string]any{
						"type":        "string",
						"description": "Pagination cursor from a previous list_podcasts call",
					},
				},
			},
		},
		{
			Name:        "suggest_prompts",
			Description: "Draft a voice prompt and an image prompt from a title and description.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"title":       map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
				},
			},
		},
	}
}

// Handlers contains tool handler implementations.
type Handlers struct {
	deps Deps
	log  *slog.Logger
}

// NewHandlers creates tool handlers.
func NewHandlers(deps Deps, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{deps: deps, log: logger}
}

// HandleListVoices returns the voice catalog.
func (h *Handlers) HandleListVoices(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	voices := make([]map[string]any, 0)
	for _, v := range tts.AvailableVoices() {
		voices = append(voices, map[string]any{
			"id":          v.ID,
			"gender":      v.Gender,
			"description": v.Description,
			"preview":     v.PreviewPath,
		})
	}
	return jsonResult(map[string]any{"voices": voices})
}

// HandleCreatePodcast runs the full creation workflow synchronously.
func (h *Handlers) HandleCreatePodcast(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.create_podcast")
	defer span.End()

	author, ok := store.IdentityFromContext(ctx)
	if !ok {
		span.SetStatus(codes.Error, "unauthenticated")
		return mcp.NewToolResultError("an API key is required to create podcasts"), nil
	}

	title := mcp.ParseString(req, "title", "")
	description := mcp.ParseString(req, "description", "")
	voicePrompt := mcp.ParseString(req, "voice_prompt", "")
	imagePrompt := mcp.ParseString(req, "image_prompt", "")

	span.SetAttributes(attribute.String("user_id", author.UserID), attribute.String("title", title))

	// Paid API calls run to completion even if the MCP client disconnects.
	work := observability.DetachTraceContext(ctx)

	if (voicePrompt == "" || imagePrompt == "") && h.deps.Suggester != nil {
		p, err := h.deps.Suggester.Suggest(work, title, description)
		if err != nil {
			h.log.WarnContext(ctx, "Prompt suggestion failed", "error", err)
		} else {
			if voicePrompt == "" {
				voicePrompt = p.VoicePrompt
			}
			if imagePrompt == "" {
				imagePrompt = p.ImagePrompt
			}
		}
	}

	form := studio.New(h.deps.Studio, author)
	form.SetTitle(title)
	form.SetDescription(description)
	form.SetVoicePrompt(voicePrompt)
	form.SetImagePrompt(imagePrompt)
	if err := form.SelectVoice(mcp.ParseString(req, "voice", "")); err != nil {
		span.SetStatus(codes.Error, "invalid voice")
		return mcp.NewToolResultError(err.Error()), nil
	}

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"generate audio", form.GenerateAudio},
		{"generate thumbnail", form.GenerateImage},
	}
	for _, step := range steps {
		if err := step.run(work); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, step.name+" failed")
			return mcp.NewToolResultError(fmt.Sprintf("%s: %v", step.name, err)), nil
		}
	}

	p, err := form.Submit(work)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		return mcp.NewToolResultError(fmt.Sprintf("publish podcast: %v", err)), nil
	}

	span.SetAttributes(attribute.String("podcast_id", p.ID))
	h.log.InfoContext(ctx, "Podcast created", "podcast_id", p.ID, "user_id", author.UserID)
	return jsonResult(podcastResult(p))
}

// HandleGetPodcast returns podcast details.
func (h *Handlers) HandleGetPodcast(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.get_podcast")
	defer span.End()

	id := mcp.ParseString(req, "podcast_id", "")
	if id == "" {
		span.SetStatus(codes.Error, "missing podcast_id")
		return mcp.NewToolResultError("podcast_id is required"), nil
	}
	span.SetAttributes(attribute.String("podcast_id", id))

	item, err := h.deps.Catalog.GetPodcast(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		span.SetStatus(codes.Error, "not found")
		return mcp.NewToolResultError(fmt.Sprintf("podcast %s not found", id)), nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "get podcast failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to get podcast: %v", err)), nil
	}
	return jsonResult(podcastResult(item))
}

// HandleListPodcasts returns a paginated list of podcasts.
func (h *Handlers) HandleListPodcasts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.list_podcasts")
	defer span.End()

	limit := parseIntParam(req, "limit", 20)
	cursor := mcp.ParseString(req, "cursor", "")
	span.SetAttributes(attribute.Int("limit", limit), attribute.String("cursor", cursor))

	items, nextCursor, err := h.deps.Catalog.ListPodcasts(ctx, limit, cursor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list podcasts failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to list podcasts: %v", err)), nil
	}
	span.SetAttributes(attribute.Int("result_count", len(items)))

	podcasts := make([]map[string]any, 0, len(items))
	for i := range items {
		podcasts = append(podcasts, podcastResult(&items[i]))
	}

	result := map[string]any{
		"podcasts": podcasts,
		"count":    len(podcasts),
	}
	if nextCursor != "" {
		result["next_cursor"] = nextCursor
	}
	return jsonResult(result)
}

// HandleSuggestPrompts drafts prompts without creating anything.
func (h *Handlers) HandleSuggestPrompts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.suggest_prompts")
	defer span.End()

	if h.deps.Suggester == nil {
		return mcp.NewToolResultError("prompt suggestions are not configured"), nil
	}
	p, err := h.deps.Suggester.Suggest(ctx, mcp.ParseString(req, "title", ""), mcp.ParseString(req, "description", ""))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "suggest failed")
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"voice_prompt": p.VoicePrompt, "image_prompt": p.ImagePrompt})
}

func podcastResult(p *store.Podcast) map[string]any {
	result := map[string]any{
		"podcast_id":  p.ID,
		"title":       p.Title,
		"description": p.Description,
		"voice":       p.VoiceType,
		"audio_url":   p.AudioURL,
		"image_url":   p.ImageURL,
		"views":       p.Views,
		"created_at":  p.CreatedAt,
	}
	if p.AudioDuration > 0 {
		result["duration"] = audio.FormatDuration(p.AudioDuration)
	}
	if p.Author != "" {
		result["author"] = p.Author
	}
	return result
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func parseIntParam(req mcp.CallToolRequest, key string, defaultVal int) int {
	args := req.GetArguments()
	if args == nil {
		return defaultVal
	}
	raw, ok := args[key]
	if !ok {
		return defaultVal
	}
	switch v := raw.(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return defaultVal
	}
}
