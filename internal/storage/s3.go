package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vantagecomms/vantage/backend/internal/util"
)

// SnapshotBucket stores offloaded snapshot payloads in S3-compatible object
// storage. It implements snapshot.PayloadStore.
type SnapshotBucket struct {
	client *s3.Client
	bucket string
}

// NewSnapshotBucket builds the bucket client from AWS_* environment
// variables. Returns nil when no credentials are configured, which disables
// payload offloading.
func NewSnapshotBucket(ctx context.Context) *SnapshotBucket {
	accessKey := util.GetEnv("AWS_ACCESS_KEY")
	secretKey := util.GetEnv("AWS_SECRET_KEY")
	if accessKey == "" || secretKey == "" {
		return nil
	}

	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(util.GetEnv("AWS_REGION")),
		config.WithBaseEndpoint(util.GetEnv("AWS_ENDPOINT")),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			"",
		)),
	)
	if err != nil {
		return nil
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return &SnapshotBucket{
		client: client,
		bucket: util.GetEnv("AWS_BUCKET"),
	}
}

// Object-store calls retry a few times before surfacing; payload transfer
// failures are usually transient.
const maxObjectTries = 3

// Put uploads a serialized snapshot payload.
func (b *SnapshotBucket) Put(ctx context.Context, key string, data []byte) error {
	err := util.RetryErrWithContext(ctx, maxObjectTries, func(ctx context.Context) error {
		_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(b.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/json"),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot payload: %w", err)
	}
	return nil
}

// Get downloads a serialized snapshot payload.
func (b *SnapshotBucket) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := util.RetryWithContext(ctx, maxObjectTries, func(ctx context.Context) ([]byte, error) {
		result, err := b.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, err
		}
		defer result.Body.Close()

		buf := new(bytes.Buffer)
		if _, err := io.Copy(buf, result.Body); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot payload: %w", err)
	}
	return data, nil
}

// Delete removes an offloaded payload, used when a failed snapshot is
// cleaned up.
func (b *SnapshotBucket) Delete(ctx context.Context, key string) error {
	err := util.RetryErrWithContext(ctx, maxObjectTries, func(ctx context.Context) error {
		_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(key),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot payload: %w", err)
	}
	return nil
}
