// Package studio drives the podcast creation workflow: field entry, audio
// and thumbnail generation, and publishing.
package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/apresai/podcastr/internal/failure"
	"github.com/apresai/podcastr/internal/storage"
	"github.com/apresai/podcastr/internal/store"
	"github.com/apresai/podcastr/internal/thumbnail"
	"github.com/apresai/podcastr/internal/tts"
)

var tracer = otel.Tracer("podcastr-studio")

// MinFieldLength is the minimum length of the title and description.
const MinFieldLength = 2

// ErrSuperseded is returned by a generation whose result was discarded
// because a newer generation of the same kind started after it.
var ErrSuperseded = errors.New("generation superseded")

// Uploader stores generated media.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (storage.Handle, error)
	URL(h storage.Handle) string
}

// Publisher persists a finished podcast.
type Publisher interface {
	CreatePodcast(ctx context.Context, p *store.Podcast) error
}

// DurationFunc measures encoded audio in seconds.
type DurationFunc func(data []byte) (float64, error)

// Deps are the collaborators a Form calls out to.
type Deps struct {
	Speech    tts.Synthesizer
	Images    thumbnail.Generator
	Blobs     Uploader
	Publisher Publisher
	Notifier  Notifier
	Navigator Navigator
	Duration  DurationFunc
	Logger    *slog.Logger
}

// GeneratedAudio is narration produced for a draft.
type GeneratedAudio struct {
	Data     []byte         `json:"-"`
	Handle   storage.Handle `json:"storageId"`
	URL      string         `json:"url"`
	Duration float64        `json:"duration"`
}

// GeneratedImage is a thumbnail produced for a draft.
type GeneratedImage struct {
	Data   []byte         `json:"-"`
	Handle storage.Handle `json:"storageId"`
	URL    string         `json:"url"`
}

// Draft is the visible state of a form.
type Draft struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Voice           string          `json:"voice"`
	VoicePreview    string          `json:"voicePreview,omitempty"`
	VoicePrompt     string          `json:"voicePrompt"`
	ImagePrompt     string          `json:"imagePrompt"`
	Audio           *GeneratedAudio `json:"audio,omitempty"`
	Image           *GeneratedImage `json:"image,omitempty"`
	GeneratingAudio bool            `json:"generatingAudio"`
	GeneratingImage bool            `json:"generatingImage"`
	Submitting      bool            `json:"submitting"`
	Author          store.Identity  `json:"-"`
}

// Form is a single podcast draft and the workflow around it. All methods
// are safe for concurrent use; the lock is never held across calls to
// collaborators.
type Form struct {
	mu          sync.Mutex
	deps        Deps
	log         *slog.Logger
	draft       Draft
	audioTicket uint64
	imageTicket uint64
}

// New creates an empty form owned by author.
func New(deps Deps, author store.Identity) *Form {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if deps.Duration == nil {
		deps.Duration = func([]byte) (float64, error) { return 0, nil }
	}
	return &Form{deps: deps, log: log, draft: Draft{Author: author}}
}

func (f *Form) SetTitle(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Title = s
}

func (f *Form) SetDescription(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Description = s
}

// SelectVoice sets the voice after checking it against the catalog.
func (f *Form) SelectVoice(name string) error {
	v, err := tts.LookupVoice(name)
	if err != nil {
		return failure.New(failure.ValidationFailure, "select voice", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Voice = v.ID
	f.draft.VoicePreview = v.PreviewPath
	return nil
}

func (f *Form) SetVoicePrompt(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.VoicePrompt = s
}

func (f *Form) SetImagePrompt(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.ImagePrompt = s
}

// Snapshot returns a copy of the draft.
func (f *Form) Snapshot() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.draft
	if d.Audio != nil {
		a := *d.Audio
		d.Audio = &a
	}
	if d.Image != nil {
		i := *d.Image
		d.Image = &i
	}
	return d
}

// CanSubmit reports whether Submit would attempt to publish.
func (f *Form) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.draft
	return validateDetails(d.Title, d.Description) == nil &&
		d.Audio != nil && d.Image != nil && d.Voice != "" &&
		!d.GeneratingAudio && !d.GeneratingImage && !d.Submitting
}

// Reset clears the draft. Generations still in flight are discarded.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

func (f *Form) resetLocked() {
	f.draft = Draft{Author: f.draft.Author}
	f.audioTicket++
	f.imageTicket++
}

func (f *Form) notify(ctx context.Context, n Notification) {
	if f.deps.Notifier != nil {
		f.deps.Notifier.Notify(ctx, n)
	}
}

func (f *Form) navigate(ctx context.Context, path string) {
	if f.deps.Navigator != nil {
		f.deps.Navigator.Navigate(ctx, path)
	}
}

func validateDetails(title, description string) error {
	if n := utf8.RuneCountInString(strings.TrimSpace(title)); n < MinFieldLength {
		return failure.Newf(failure.ValidationFailure, "validate draft", "title must be at least %d characters", MinFieldLength)
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(description)); n < MinFieldLength {
		return failure.Newf(failure.ValidationFailure, "validate draft", "description must be at least %d characters", MinFieldLength)
	}
	return nil
}

// GenerateAudio renders the voice prompt, measures and uploads it.
func (f *Form) GenerateAudio(ctx context.Context) error {
	const op = "generate audio"
	ctx, span := tracer.Start(ctx, "studio.generate_audio")
	defer span.End()

	f.mu.Lock()
	voice, prompt := f.draft.Voice, strings.TrimSpace(f.draft.VoicePrompt)
	if voice == "" || prompt == "" {
		f.mu.Unlock()
		span.SetStatus(codes.Error, "missing input")
		f.notify(ctx, errorToast("Please provide a voice type and prompt to generate a podcast", ""))
		return failure.Newf(failure.ValidationFailure, op, "voice and voice prompt are required")
	}
	f.audioTicket++
	ticket := f.audioTicket
	f.draft.GeneratingAudio = true
	f.draft.Audio = nil
	f.mu.Unlock()

	span.SetAttributes(attribute.String("voice", voice), attribute.Int("prompt_chars", len(prompt)))
	result, err := f.produceAudio(ctx, prompt, voice)

	f.mu.Lock()
	if ticket != f.audioTicket {
		f.mu.Unlock()
		f.log.DebugContext(ctx, "discarding superseded audio", "ticket", ticket)
		return ErrSuperseded
	}
	f.draft.GeneratingAudio = false
	if err != nil {
		f.mu.Unlock()
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate audio failed")
		f.log.ErrorContext(ctx, "audio generation failed", "voice", voice, "error", err)
		f.notify(ctx, errorToast("Error creating a podcast", err.Error()))
		return err
	}
	f.draft.Audio = result
	f.mu.Unlock()

	f.log.InfoContext(ctx, "audio generated", "voice", voice, "storage_id", result.Handle, "duration", result.Duration)
	f.notify(ctx, infoToast("Podcast generated successfully"))
	return nil
}

func (f *Form) produceAudio(ctx context.Context, prompt, voice string) (*GeneratedAudio, error) {
	data, err := f.deps.Speech.Synthesize(ctx, prompt, voice)
	if err != nil {
		return nil, err
	}

	duration, err := f.deps.Duration(data)
	if err != nil {
		f.log.WarnContext(ctx, "could not measure audio duration", "error", err)
		duration = 0
	}

	key, err := storage.NewKey(storage.KindAudio, ".mp3")
	if err != nil {
		return nil, err
	}
	h, err := f.deps.Blobs.Upload(ctx, key, "audio/mpeg", data)
	if err != nil {
		return nil, fmt.Errorf("upload audio: %w", err)
	}
	return &GeneratedAudio{Data: data, Handle: h, URL: f.deps.Blobs.URL(h), Duration: duration}, nil
}

// GenerateImage renders the image prompt into a thumbnail and uploads it.
func (f *Form) GenerateImage(ctx context.Context) error {
	const op = "generate image"
	ctx, span := tracer.Start(ctx, "studio.generate_image")
	defer span.End()

	f.mu.Lock()
	prompt := strings.TrimSpace(f.draft.ImagePrompt)
	if prompt == "" {
		f.mu.Unlock()
		span.SetStatus(codes.Error, "missing input")
		f.notify(ctx, errorToast("Please provide an image prompt to generate a thumbnail", ""))
		return failure.Newf(failure.ValidationFailure, op, "image prompt is required")
	}
	f.imageTicket++
	ticket := f.imageTicket
	f.draft.GeneratingImage = true
	f.draft.Image = nil
	f.mu.Unlock()

	result, err := f.produceImage(ctx, prompt)

	f.mu.Lock()
	if ticket != f.imageTicket {
		f.mu.Unlock()
		f.log.DebugContext(ctx, "discarding superseded thumbnail", "ticket", ticket)
		return ErrSuperseded
	}
	f.draft.GeneratingImage = false
	if err != nil {
		f.mu.Unlock()
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate image failed")
		f.log.ErrorContext(ctx, "thumbnail generation failed", "error", err)
		f.notify(ctx, errorToast("Error generating thumbnail", err.Error()))
		return err
	}
	f.draft.Image = result
	f.mu.Unlock()

	f.log.InfoContext(ctx, "thumbnail generated", "storage_id", result.Handle)
	f.notify(ctx, infoToast("Thumbnail generated successfully"))
	return nil
}

func (f *Form) produceImage(ctx context.Context, prompt string) (*GeneratedImage, error) {
	data, err := f.deps.Images.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	ext, contentType := storage.ImageExt(data)
	key, err := storage.NewKey(storage.KindImage, ext)
	if err != nil {
		return nil, err
	}
	h, err := f.deps.Blobs.Upload(ctx, key, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	return &GeneratedImage{Data: data, Handle: h, URL: f.deps.Blobs.URL(h)}, nil
}

// Submit publishes the draft. On success the user is sent home and the
// draft is reset; on failure the draft is left intact.
func (f *Form) Submit(ctx context.Context) (*store.Podcast, error) {
	const op = "submit podcast"
	ctx, span := tracer.Start(ctx, "studio.submit")
	defer span.End()

	f.mu.Lock()
	d := f.draft
	if err := validateDetails(d.Title, d.Description); err != nil {
		f.mu.Unlock()
		span.SetStatus(codes.Error, "invalid details")
		return nil, err
	}
	if d.Audio == nil || d.Image == nil || d.Voice == "" {
		f.mu.Unlock()
		span.SetStatus(codes.Error, "incomplete draft")
		return nil, failure.Newf(failure.ValidationFailure, op, "audio, thumbnail and voice are required")
	}
	if d.Submitting || d.GeneratingAudio || d.GeneratingImage {
		f.mu.Unlock()
		return nil, failure.Newf(failure.ValidationFailure, op, "draft is busy")
	}
	f.draft.Submitting = true
	f.mu.Unlock()

	p := &store.Podcast{
		Title:          strings.TrimSpace(d.Title),
		Description:    strings.TrimSpace(d.Description),
		AudioURL:       d.Audio.URL,
		AudioStorageID: string(d.Audio.Handle),
		ImageURL:       d.Image.URL,
		ImageStorageID: string(d.Image.Handle),
		VoiceType:      d.Voice,
		VoicePrompt:    d.VoicePrompt,
		ImagePrompt:    d.ImagePrompt,
		Views:          0,
		AudioDuration:  d.Audio.Duration,
		AuthorID:       d.Author.UserID,
		Author:         d.Author.Name,
	}
	err := f.deps.Publisher.CreatePodcast(ctx, p)

	f.mu.Lock()
	f.draft.Submitting = false
	if err != nil {
		f.mu.Unlock()
		span.RecordError(err)
		span.SetStatus(codes.Error, "create podcast failed")
		f.log.ErrorContext(ctx, "publish failed", "title", p.Title, "error", err)
		f.notify(ctx, errorToast("Error", err.Error()))
		return nil, fmt.Errorf("create podcast: %w", err)
	}
	f.resetLocked()
	f.mu.Unlock()

	span.SetAttributes(attribute.String("podcast_id", p.ID))
	f.log.InfoContext(ctx, "podcast published", "podcast_id", p.ID, "title", p.Title)
	f.notify(ctx, infoToast("Podcast created"))
	f.navigate(ctx, "/")
	return p, nil
}
