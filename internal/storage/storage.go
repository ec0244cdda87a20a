// Package storage uploads generated media and resolves storage handles to
// URLs that a browser or the CLI player can fetch.
package storage

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Handle is the opaque reference returned after an upload. It is the
// object key in the backing store.
type Handle string

// ErrNotFound is returned by Download for unknown handles.
var ErrNotFound = errors.New("object not found")

// Blobs is a binary store for generated audio and images.
type Blobs interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (Handle, error)
	Download(ctx context.Context, h Handle) (data []byte, contentType string, err error)
	URL(h Handle) string
}

// Object kinds and their key layout.
const (
	KindAudio = "audio"
	KindImage = "images"
)

// NewKey returns a unique key such as "audio/01J9….mp3".
func NewKey(kind, ext string) (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generate ulid: %w", err)
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return kind + "/" + id.String() + ext, nil
}

// ImageExt guesses a file extension from image magic bytes.
func ImageExt(data []byte) (ext, contentType string) {
	switch {
	case len(data) >= 8 && string(data[:8]) == "\x89PNG\r\n\x1a\n":
		return ".png", "image/png"
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return ".webp", "image/webp"
	default:
		return ".jpg", "image/jpeg"
	}
}

func joinURL(base string, h Handle) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(string(h), "/")
}
