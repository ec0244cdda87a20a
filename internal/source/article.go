package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	readability "github.com/go-shiori/go-readability"
)

type fetcher struct {
	client *http.Client
}

func newFetcher(client *http.Client) *fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &fetcher{client: client}
}

// NewLoader returns a Loader fetching articles with client.
func NewLoader(client *http.Client) *Loader {
	return &Loader{fetcher: newFetcher(client)}
}

func (f *fetcher) article(ctx context.Context, rawURL string) (*Document, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %s: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d", rawURL, resp.StatusCode)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxInputSize), parsed)
	if err != nil {
		return nil, fmt.Errorf("extract article from %s: %w", rawURL, err)
	}
	if article.TextContent == "" {
		return nil, fmt.Errorf("no readable content in %s", rawURL)
	}
	return &Document{Text: article.TextContent, Title: article.Title, Origin: rawURL}, nil
}
