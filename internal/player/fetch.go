package player

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Fetcher retrieves the encoded bytes of an audio source.
type Fetcher func(ctx context.Context, src string) ([]byte, error)

// HTTPFetcher fetches http(s) sources with client and reads anything else
// from the local filesystem.
func HTTPFetcher(client *http.Client) Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return func(ctx context.Context, src string) ([]byte, error) {
		if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
			return os.ReadFile(src)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch audio: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("fetch audio: status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}
}
