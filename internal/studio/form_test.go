package studio

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apresai/podcastr/internal/failure"
	"github.com/apresai/podcastr/internal/storage"
	"github.com/apresai/podcastr/internal/store"
	"github.com/apresai/podcastr/internal/thumbnail"
	"github.com/apresai/podcastr/internal/tts"
)

var (
	fakeMP3  = []byte("ID3-fake-mp3-bytes")
	fakeJPEG = []byte{0xFF, 0xD8, 0xFF, 0xE0, 'j', 'p', 'g'}
)

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memBlobs) Upload(_ context.Context, key, contentType string, data []byte) (storage.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return storage.Handle(key), nil
}

func (m *memBlobs) URL(h storage.Handle) string {
	return "https://cdn.test/" + string(h)
}

type memPublisher struct {
	mu       sync.Mutex
	podcasts []*store.Podcast
	err      error
}

func (p *memPublisher) CreatePodcast(_ context.Context, pod *store.Podcast) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	pod.ID = fmt.Sprintf("pod-%d", len(p.podcasts)+1)
	p.podcasts = append(p.podcasts, pod)
	return nil
}

type apis struct {
	speech, images *httptest.Server
	speechCalls    atomic.Int32
	imageCalls     atomic.Int32
	imageStatus    atomic.Int32
}

// newAPIs starts fake speech and image services.
func newAPIs(t *testing.T) *apis {
	t.Helper()
	a := &apis{}
	a.imageStatus.Store(http.StatusOK)

	mux := http.NewServeMux()
	var speechURL string
	mux.HandleFunc("POST /speech", func(w http.ResponseWriter, r *http.Request) {
		a.speechCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"OutputUri": speechURL + "/out/1.mp3"})
	})
	mux.HandleFunc("GET /out/1.mp3", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(fakeMP3)
	})
	a.speech = httptest.NewServer(mux)
	speechURL = a.speech.URL
	t.Cleanup(a.speech.Close)

	a.images = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.imageCalls.Add(1)
		if status := int(a.imageStatus.Load()); status != http.StatusOK {
			http.Error(w, "boom", status)
			return
		}
		_, _ = fmt.Fprintf(w, `{"data":[{"base64":%q,"has_nsfw":false}]}`, base64.StdEncoding.EncodeToString(fakeJPEG))
	}))
	t.Cleanup(a.images.Close)
	return a
}

func newTestForm(t *testing.T, a *apis) (*Form, *Recorder, *memBlobs, *memPublisher) {
	t.Helper()
	rec := &Recorder{}
	blobs := newMemBlobs()
	pub := &memPublisher{}
	f := New(Deps{
		Speech:    tts.NewClient("speech-key", a.speech.URL, nil, nil),
		Images:    thumbnail.NewClient("image-key", a.images.URL, nil, nil),
		Blobs:     blobs,
		Publisher: pub,
		Notifier:  rec,
		Navigator: rec,
		Duration:  func([]byte) (float64, error) { return 42.5, nil },
	}, store.Identity{UserID: "user-1", Name: "Ada"})
	return f, rec, blobs, pub
}

func titles(notes []Notification) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Title
	}
	return out
}

func TestCreatePodcastEndToEnd(t *testing.T) {
	a := newAPIs(t)
	f, rec, blobs, pub := newTestForm(t, a)
	ctx := context.Background()

	f.SetTitle("Ep 1")
	f.SetDescription("Test")
	require.NoError(t, f.SelectVoice("Amy"))
	f.SetVoicePrompt("Welcome to the first episode.")
	f.SetImagePrompt("A vintage microphone")
	assert.False(t, f.CanSubmit())

	require.NoError(t, f.GenerateAudio(ctx))
	require.NoError(t, f.GenerateImage(ctx))
	assert.True(t, f.CanSubmit())

	snap := f.Snapshot()
	require.NotNil(t, snap.Audio)
	assert.True(t, strings.HasPrefix(string(snap.Audio.Handle), "audio/"))
	assert.True(t, strings.HasSuffix(string(snap.Audio.Handle), ".mp3"))
	assert.Equal(t, "https://cdn.test/"+string(snap.Audio.Handle), snap.Audio.URL)
	assert.Equal(t, 42.5, snap.Audio.Duration)
	assert.Equal(t, fakeMP3, blobs.objects[string(snap.Audio.Handle)])
	require.NotNil(t, snap.Image)
	assert.True(t, strings.HasPrefix(string(snap.Image.Handle), "images/"))
	assert.True(t, strings.HasSuffix(string(snap.Image.Handle), ".jpg"))
	assert.Equal(t, "image/jpeg", blobs.types[string(snap.Image.Handle)])

	p, err := f.Submit(ctx)
	require.NoError(t, err)
	require.Len(t, pub.podcasts, 1)
	assert.Same(t, p, pub.podcasts[0])
	assert.Equal(t, "Ep 1", p.Title)
	assert.Equal(t, "Test", p.Description)
	assert.Equal(t, "Amy", p.VoiceType)
	assert.Equal(t, 0, p.Views)
	assert.Equal(t, 42.5, p.AudioDuration)
	assert.Equal(t, string(snap.Audio.Handle), p.AudioStorageID)
	assert.Equal(t, string(snap.Image.Handle), p.ImageStorageID)
	assert.Equal(t, "user-1", p.AuthorID)

	notes := rec.Notifications()
	assert.Equal(t, []string{
		"Podcast generated successfully",
		"Thumbnail generated successfully",
		"Podcast created",
	}, titles(notes))
	assert.Equal(t, ToastDuration, notes[2].Duration)
	assert.Equal(t, "/", rec.Path())

	reset := f.Snapshot()
	assert.Empty(t, reset.Title)
	assert.Nil(t, reset.Audio)
	assert.Nil(t, reset.Image)
	assert.False(t, f.CanSubmit())
}

func TestSubmitBlocksInvalidDetailsBeforeNetwork(t *testing.T) {
	a := newAPIs(t)
	f, rec, _, pub := newTestForm(t, a)

	f.SetTitle("")
	f.SetDescription("Test")
	require.NoError(t, f.SelectVoice("Amy"))

	_, err := f.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.ValidationFailure))
	assert.Zero(t, a.speechCalls.Load())
	assert.Zero(t, a.imageCalls.Load())
	assert.Empty(t, pub.podcasts)
	assert.Empty(t, rec.Path())

	f.SetTitle("E")
	_, err = f.Submit(context.Background())
	assert.True(t, failure.IsKind(err, failure.ValidationFailure))
}

func TestImageFailureKeepsAudio(t *testing.T) {
	a := newAPIs(t)
	a.imageStatus.Store(http.StatusInternalServerError)
	f, rec, _, pub := newTestForm(t, a)
	ctx := context.Background()

	f.SetTitle("Ep 1")
	f.SetDescription("Test")
	require.NoError(t, f.SelectVoice("Amy"))
	f.SetVoicePrompt("Hello")
	f.SetImagePrompt("Cover art")

	require.NoError(t, f.GenerateAudio(ctx))
	err := f.GenerateImage(ctx)
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.NetworkFailure))

	snap := f.Snapshot()
	assert.NotNil(t, snap.Audio)
	assert.Nil(t, snap.Image)
	assert.False(t, snap.GeneratingImage)
	assert.False(t, f.CanSubmit())

	notes := rec.Notifications()
	require.Len(t, notes, 2)
	assert.Equal(t, "Error generating thumbnail", notes[1].Title)
	assert.Equal(t, VariantDestructive, notes[1].Variant)

	_, err = f.Submit(ctx)
	assert.True(t, failure.IsKind(err, failure.ValidationFailure))
	assert.Empty(t, pub.podcasts)

	audio := snap.Audio
	a.imageStatus.Store(http.StatusOK)
	require.NoError(t, f.GenerateImage(ctx))

	snap = f.Snapshot()
	assert.Equal(t, audio, snap.Audio)
	assert.NotNil(t, snap.Image)
	assert.True(t, f.CanSubmit())
	assert.Equal(t, int32(1), a.speechCalls.Load())
}

func TestGenerateAudioRequiresVoiceAndPrompt(t *testing.T) {
	a := newAPIs(t)
	f, rec, _, _ := newTestForm(t, a)

	err := f.GenerateAudio(context.Background())
	assert.True(t, failure.IsKind(err, failure.ValidationFailure))
	assert.Zero(t, a.speechCalls.Load())
	require.Len(t, rec.Notifications(), 1)

	err = f.GenerateImage(context.Background())
	assert.True(t, failure.IsKind(err, failure.ValidationFailure))
	assert.Zero(t, a.imageCalls.Load())
}

func TestSelectVoiceRejectsUnknown(t *testing.T) {
	a := newAPIs(t)
	f, _, _, _ := newTestForm(t, a)

	err := f.SelectVoice("Bob")
	assert.True(t, failure.IsKind(err, failure.ValidationFailure))

	require.NoError(t, f.SelectVoice("  scarlett "))
	snap := f.Snapshot()
	assert.Equal(t, "Scarlett", snap.Voice)
	assert.Equal(t, "/voices/Scarlett.mp3", snap.VoicePreview)
}

func TestPublishFailureKeepsDraft(t *testing.T) {
	a := newAPIs(t)
	f, rec, _, pub := newTestForm(t, a)
	pub.err = errors.New("table unavailable")
	ctx := context.Background()

	f.SetTitle("Ep 1")
	f.SetDescription("Test")
	require.NoError(t, f.SelectVoice("Amy"))
	f.SetVoicePrompt("Hello")
	f.SetImagePrompt("Cover art")
	require.NoError(t, f.GenerateAudio(ctx))
	require.NoError(t, f.GenerateImage(ctx))

	_, err := f.Submit(ctx)
	require.Error(t, err)

	snap := f.Snapshot()
	assert.Equal(t, "Ep 1", snap.Title)
	assert.NotNil(t, snap.Audio)
	assert.NotNil(t, snap.Image)
	assert.False(t, snap.Submitting)
	assert.True(t, f.CanSubmit())
	assert.Empty(t, rec.Path())

	last := rec.Notifications()[len(rec.Notifications())-1]
	assert.Equal(t, "Error", last.Title)
	assert.Equal(t, VariantDestructive, last.Variant)
}

type gatedSpeech struct {
	release chan struct{}
	started chan struct{}
	data    []byte
}

func (g *gatedSpeech) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	g.started <- struct{}{}
	<-g.release
	return g.data, nil
}

func TestNewerGenerationSupersedesOlder(t *testing.T) {
	slow := &gatedSpeech{release: make(chan struct{}), started: make(chan struct{}, 1), data: []byte("old")}
	rec := &Recorder{}
	f := New(Deps{Speech: slow, Blobs: newMemBlobs(), Notifier: rec}, store.Identity{UserID: "u"})
	require.NoError(t, f.SelectVoice("Dan"))
	f.SetVoicePrompt("first")

	errc := make(chan error, 1)
	go func() { errc <- f.GenerateAudio(context.Background()) }()
	<-slow.started

	// A second generation replaces the speech backend's answer.
	fast := &gatedSpeech{release: make(chan struct{}), started: make(chan struct{}, 1), data: []byte("new")}
	close(fast.release)
	f.mu.Lock()
	f.deps.Speech = fast
	f.mu.Unlock()
	f.SetVoicePrompt("second")
	require.NoError(t, f.GenerateAudio(context.Background()))

	close(slow.release)
	assert.ErrorIs(t, <-errc, ErrSuperseded)

	snap := f.Snapshot()
	require.NotNil(t, snap.Audio)
	assert.Equal(t, []byte("new"), snap.Audio.Data)
	assert.False(t, snap.GeneratingAudio)
	assert.Equal(t, []string{"Podcast generated successfully"}, titles(rec.Notifications()))
}
