package player

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcherReadsURLsAndFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.mp3" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("remote"))
	}))
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "ep.mp3")
	require.NoError(t, os.WriteFile(path, []byte("local"), 0o600))

	fetch := HTTPFetcher(srv.Client())
	ctx := context.Background()

	got, err := fetch(ctx, srv.URL+"/ep.mp3")
	require.NoError(t, err)
	assert.Equal(t, "remote", string(got))

	got, err = fetch(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "local", string(got))

	_, err = fetch(ctx, srv.URL+"/missing.mp3")
	assert.ErrorContains(t, err, "status 404")
}
