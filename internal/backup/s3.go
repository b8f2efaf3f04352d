// internal/backup/s3.go
// Package backup provides an S3-compatible mirror for published media.
// Mirroring is strictly best-effort: the device's public area stays
// authoritative and a failed mirror never fails the publish that
// triggered it.
package backup

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Mirror wraps the AWS S3 client for mirror operations.
// It supports both AWS S3 and S3-compatible services like MinIO.
type S3Mirror struct {
	client *s3.Client // AWS S3 client
	bucket string     // S3 bucket name for mirrored media
}

// NewS3Mirror creates a new S3 mirror client.
// Parameters:
//   - endpoint: S3 service endpoint URL
//   - region: AWS region (or equivalent for S3-compatible services)
//   - bucket: S3 bucket name for mirrored media
//   - accessKey: Access key for authentication
//   - secretKey: Secret key for authentication
func NewS3Mirror(endpoint, region, bucket, accessKey, secretKey string) (*S3Mirror, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
		config.WithBaseEndpoint(endpoint),
		config.WithCredentialsProvider(aws.CredentialsProviderFunc(
			func(ctx context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     accessKey,
					SecretAccessKey: secretKey,
				}, nil
			})),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Path-style addressing is required for MinIO and other S3-compatible services
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &S3Mirror{client: client, bucket: bucket}, nil
}

// MirrorFile uploads a local file to the mirror bucket under the given key.
// The caller bounds the operation through ctx.
func (m *S3Mirror) MirrorFile(ctx context.Context, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file for mirroring: %w", err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("failed to mirror object: %w", err)
	}
	return nil
}

// ObjectExists reports whether a mirrored object is present, together with
// its size in bytes.
func (m *S3Mirror) ObjectExists(ctx context.Context, key string) (bool, int64, error) {
	result, err := m.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, 0, fmt.Errorf("failed to get object metadata: %w", err)
	}
	return true, aws.ToInt64(result.ContentLength), nil
}
