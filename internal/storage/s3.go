package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3 stores media in a bucket fronted by a CDN.
type S3 struct {
	client     *s3.Client
	bucket     string
	cdnBaseURL string // e.g. "https://media.podcastr.dev"
}

// NewS3 creates an S3 storage handler.
func NewS3(client *s3.Client, bucket, cdnBaseURL string) *S3 {
	return &S3{client: client, bucket: bucket, cdnBaseURL: cdnBaseURL}
}

// Upload puts data under key and returns the key as the handle.
func (s *S3) Upload(ctx context.Context, key, contentType string, data []byte) (Handle, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &key,
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}
	return Handle(key), nil
}

// Download reads an object back.
func (s *S3) Download(ctx context.Context, h Handle) ([]byte, string, error) {
	key := string(h)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read object: %w", err)
	}
	return data, aws.ToString(out.ContentType), nil
}

// URL resolves a handle to its public CDN URL.
func (s *S3) URL(h Handle) string {
	return joinURL(s.cdnBaseURL, h)
}
