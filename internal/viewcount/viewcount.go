// Package viewcount folds CDN access logs into podcast view counts.
package viewcount

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/apresai/podcastr/internal/store"
)

// CheckpointName is the SYSTEM record tracking the last processed log time.
const CheckpointName = "VIEW_COUNTER"

// audioPathRegex matches GET /audio/{ULID}.mp3 requests.
var audioPathRegex = regexp.MustCompile(`^/(audio/[0-9A-HJKMNP-TV-Z]{26}\.mp3)$`)

// LogObject is one access log file.
type LogObject struct {
	Key          string
	LastModified time.Time
}

// LogSource lists and opens access log files.
type LogSource interface {
	List(ctx context.Context) ([]LogObject, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Catalog is the store surface the counter needs.
type Catalog interface {
	ListPodcasts(ctx context.Context, limit int, cursor string) ([]store.Podcast, string, error)
	IncrementViews(ctx context.Context, id string, n int) error
	Checkpoint(ctx context.Context, name string) (string, error)
	SetCheckpoint(ctx context.Context, name, ts string) error
}

// Result summarises a run.
type Result struct {
	Files    int
	Podcasts int
	Views    int
}

// Counter applies plays found in new log files to the catalog.
type Counter struct {
	logs    LogSource
	catalog Catalog
	log     *slog.Logger
	now     func() time.Time
}

func New(logs LogSource, catalog Catalog, logger *slog.Logger) *Counter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Counter{logs: logs, catalog: catalog, log: logger, now: time.Now}
}

// Run processes log files modified after the checkpoint and advances it.
func (c *Counter) Run(ctx context.Context) (Result, error) {
	var res Result

	last, err := c.catalog.Checkpoint(ctx, CheckpointName)
	if err != nil {
		return res, err
	}
	c.log.InfoContext(ctx, "Counting views", "since", last)
	startedAt := c.now().UTC().Format(time.RFC3339)

	objects, err := c.logs.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list logs: %w", err)
	}

	plays := make(map[string]int) // storage key -> plays
	for _, obj := range objects {
		if obj.LastModified.UTC().Format(time.RFC3339) <= last {
			continue
		}
		counts, err := c.countFile(ctx, obj.Key)
		if err != nil {
			c.log.WarnContext(ctx, "Skipping log file", "key", obj.Key, "error", err)
			continue
		}
		for k, n := range counts {
			plays[k] += n
		}
		res.Files++
	}

	if len(plays) > 0 {
		owners, err := c.audioOwners(ctx)
		if err != nil {
			return res, err
		}
		for key, n := range plays {
			id, ok := owners[key]
			if !ok {
				c.log.DebugContext(ctx, "No podcast for audio", "key", key)
				continue
			}
			if err := c.catalog.IncrementViews(ctx, id, n); err != nil {
				c.log.WarnContext(ctx, "Failed to update views", "podcast_id", id, "error", err)
				continue
			}
			res.Podcasts++
			res.Views += n
		}
	}

	if err := c.catalog.SetCheckpoint(ctx, CheckpointName, startedAt); err != nil {
		return res, err
	}
	c.log.InfoContext(ctx, "Views counted", "files", res.Files, "podcasts", res.Podcasts, "views", res.Views)
	return res, nil
}

func (c *Counter) countFile(ctx context.Context, key string) (map[string]int, error) {
	body, err := c.logs.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var r io.Reader = body
	if strings.HasSuffix(key, ".gz") {
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	return CountPlays(r)
}

// audioOwners maps audio storage keys to podcast IDs.
func (c *Counter) audioOwners(ctx context.Context) (map[string]string, error) {
	owners := make(map[string]string)
	cursor := ""
	for {
		items, next, err := c.catalog.ListPodcasts(ctx, 100, cursor)
		if err != nil {
			return nil, fmt.Errorf("index podcasts: %w", err)
		}
		for _, p := range items {
			if p.AudioStorageID != "" {
				owners[p.AudioStorageID] = p.ID
			}
		}
		if next == "" {
			return owners, nil
		}
		cursor = next
	}
}

// CountPlays counts successful audio GETs in a CloudFront access log.
func CountPlays(r io.Reader) (map[string]int, error) {
	counts := make(map[string]int)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}

		// date time x-edge-location sc-bytes c-ip cs-method cs-host cs-uri-stem sc-status ...
		fields := strings.Fields(line)
		if len(fields) < 9 {
			continue
		}
		if fields[5] != "GET" {
			continue
		}
		if status := fields[8]; status != "200" && status != "206" {
			continue
		}
		if m := audioPathRegex.FindStringSubmatch(fields[7]); m != nil {
			counts[m[1]]++
		}
	}
	return counts, scanner.Err()
}
