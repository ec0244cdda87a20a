package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apresai/podcastr/internal/failure"
)

// newSpeechServer fakes the render endpoint and the rendered-audio host.
func newSpeechServer(t *testing.T, renderStatus, audioStatus int) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/speech", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body unrealSpeechRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Amy", body.VoiceID)
		assert.Equal(t, "Hello listeners", body.Text)

		if renderStatus != http.StatusOK {
			http.Error(w, "quota exceeded", renderStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(unrealSpeechResponse{OutputURI: srv.URL + "/out/abc.mp3"})
	})
	mux.HandleFunc("/out/abc.mp3", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if audioStatus != http.StatusOK {
			w.WriteHeader(audioStatus)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-fake-mp3"))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestSynthesizeFetchesRenderedAudio(t *testing.T) {
	srv, calls := newSpeechServer(t, http.StatusOK, http.StatusOK)
	c := NewClient("test-key", srv.URL, srv.Client(), nil)

	data, err := c.Synthesize(context.Background(), "Hello listeners", "amy")
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3-fake-mp3"), data)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSynthesizeRenderErrorIsNetworkFailure(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError} {
		srv, calls := newSpeechServer(t, status, http.StatusOK)
		c := NewClient("test-key", srv.URL, srv.Client(), nil)

		data, err := c.Synthesize(context.Background(), "Hello listeners", "Amy")
		require.Error(t, err)
		assert.Nil(t, data)
		assert.True(t, failure.IsKind(err, failure.NetworkFailure), "status %d", status)
		assert.Equal(t, int32(1), calls.Load(), "no retry and no audio fetch")
	}
}

func TestSynthesizeAudioFetchErrorIsNetworkFailure(t *testing.T) {
	srv, _ := newSpeechServer(t, http.StatusOK, http.StatusNotFound)
	c := NewClient("test-key", srv.URL, srv.Client(), nil)

	_, err := c.Synthesize(context.Background(), "Hello listeners", "Amy")
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.NetworkFailure))
}

func TestSynthesizeMissingOutputURI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"TaskId":"t1"}`))
	}))
	defer srv.Close()

	_, err := NewClient("k", srv.URL, srv.Client(), nil).Synthesize(context.Background(), "hi", "Dan")
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.MalformedResponse))
}

func TestSynthesizeValidatesInput(t *testing.T) {
	c := NewClient("k", "http://127.0.0.1:1", nil, nil)

	_, err := c.Synthesize(context.Background(), "   ", "Amy")
	assert.True(t, failure.IsKind(err, failure.ValidationFailure))

	_, err = c.Synthesize(context.Background(), "hi", "Morgan")
	assert.True(t, failure.IsKind(err, failure.ValidationFailure))
}

func TestLookupVoice(t *testing.T) {
	v, err := LookupVoice(" scarlett ")
	require.NoError(t, err)
	assert.Equal(t, "Scarlett", v.ID)
	assert.Equal(t, "/voices/Scarlett.mp3", v.PreviewPath)

	_, err = LookupVoice("")
	assert.Error(t, err)

	assert.Equal(t, []string{"Scarlett", "Liv", "Dan", "Will", "Amy"}, VoiceIDs())
}
