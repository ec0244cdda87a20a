package viewcount

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Logs reads CloudFront standard logs delivered to a bucket prefix.
type S3Logs struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3Logs(client *s3.Client, bucket, prefix string) *S3Logs {
	return &S3Logs{client: client, bucket: bucket, prefix: prefix}
}

func (l *S3Logs) List(ctx context.Context) ([]LogObject, error) {
	paginator := s3.NewListObjectsV2Paginator(l.client, &s3.ListObjectsV2Input{
		Bucket: &l.bucket,
		Prefix: &l.prefix,
	})

	var out []LogObject
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil || obj.LastModified == nil {
				continue
			}
			out = append(out, LogObject{Key: *obj.Key, LastModified: *obj.LastModified})
		}
	}
	return out, nil
}

func (l *S3Logs) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &l.bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	return result.Body, nil
}
