package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
)

const contentTypeKey = "content-type"

// NATS stores media in a JetStream object store bucket. Objects are served
// by the API under mediaBaseURL.
type NATS struct {
	bucket       string
	store        nats.ObjectStore
	mediaBaseURL string
}

// NewNATS binds to bucketName, creating it on first use.
func NewNATS(js nats.JetStreamContext, bucketName, mediaBaseURL string) (*NATS, error) {
	store, err := js.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Podcast media for the %s bucket.", bucketName),
		Storage:     nats.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		// The bucket may already exist with a different config.
		existing, bindErr := js.ObjectStore(bucketName)
		if bindErr != nil {
			return nil, fmt.Errorf("create object store bucket '%s': %w", bucketName, err)
		}
		store = existing
	}

	return &NATS{bucket: bucketName, store: store, mediaBaseURL: mediaBaseURL}, nil
}

// Upload saves data under key.
func (n *NATS) Upload(_ context.Context, key, contentType string, data []byte) (Handle, error) {
	_, err := n.store.Put(&nats.ObjectMeta{
		Name:     key,
		Metadata: map[string]string{contentTypeKey: contentType},
	}, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("put object '%s' to bucket '%s': %w", key, n.bucket, err)
	}
	return Handle(key), nil
}

// Download retrieves an object and its content type.
func (n *NATS) Download(_ context.Context, h Handle) ([]byte, string, error) {
	key := string(h)
	obj, err := n.store.Get(key)
	if err != nil {
		if errors.Is(err, nats.ErrObjectNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("get object '%s' from bucket '%s': %w", key, n.bucket, err)
	}

	data, readErr := io.ReadAll(obj)
	info, infoErr := obj.Info()
	closeErr := obj.Close()

	if readErr != nil {
		return nil, "", fmt.Errorf("read object '%s': %w", key, readErr)
	}
	if closeErr != nil {
		return nil, "", fmt.Errorf("close object '%s': %w", key, closeErr)
	}

	contentType := "application/octet-stream"
	if infoErr == nil && info.Metadata[contentTypeKey] != "" {
		contentType = info.Metadata[contentTypeKey]
	}
	return data, contentType, nil
}

// URL resolves a handle to the API's media route.
func (n *NATS) URL(h Handle) string {
	return joinURL(n.mediaBaseURL, h)
}
