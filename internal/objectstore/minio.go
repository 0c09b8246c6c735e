// Package objectstore mirrors raw upload payloads to an S3-compatible bucket.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultRegion = "us-east-1"

// Options configures a Mirror.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

// Mirror stores objects in a single MinIO bucket.
type Mirror struct {
	client *minio.Client
	bucket string
}

// NewMirror connects to the endpoint and creates the bucket if it does not exist.
func NewMirror(ctx context.Context, opts Options) (*Mirror, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("objectstore: endpoint is required")
	}
	if opts.Bucket == "" {
		return nil, errors.New("objectstore: bucket is required")
	}
	region := opts.Region
	if region == "" {
		region = defaultRegion
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", opts.Bucket, err)
		}
	}

	return &Mirror{client: client, bucket: opts.Bucket}, nil
}

// Put uploads data under key.
func (m *Mirror) Put(ctx context.Context, key string, data []byte) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

// Bucket returns the bucket objects are written to.
func (m *Mirror) Bucket() string {
	return m.bucket
}
