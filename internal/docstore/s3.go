package docstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"memowriter/internal/models"
)

// S3Store stores documents in a single pre-provisioned bucket.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store wraps an S3 client for the configured bucket.
func NewS3Store(client *s3.Client, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// Bucket returns the backing bucket name.
func (s *S3Store) Bucket() string {
	return s.bucket
}

// Put uploads the document bytes, overwriting any object with the same key.
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("%w: put %s/%s: %v", models.ErrUploadFailed, s.bucket, key, err)
	}
	return nil
}
