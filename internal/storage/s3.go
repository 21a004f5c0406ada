package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the settings for an S3 or S3-compatible object store.
type S3Config struct {
	Region       string
	Bucket       string
	BaseEndpoint string // set for MinIO or another S3-compatible store
	AccessKey    string
	SecretKey    string
}

// S3Client issues presigned access URLs and deletes objects in one bucket.
type S3Client struct {
	bucket  string
	client  *s3.Client
	presign *s3.PresignClient
}

var _ Client = (*S3Client)(nil)

// NewS3Client builds an S3 client from static credentials. A non-empty
// BaseEndpoint switches to path-style addressing for MinIO compatibility.
func NewS3Client(ctx context.Context, cfg S3Config) (*S3Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Client{
		bucket:  cfg.Bucket,
		client:  client,
		presign: s3.NewPresignClient(client),
	}, nil
}

// IssueAccessURL returns a presigned GET URL for key, valid for ttl.
func (c *S3Client) IssueAccessURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign get for %s: %w", key, err)
	}

	return req.URL, nil
}

// DeleteAsset removes the object at key. S3 treats deleting a missing key
// as success, which matches the best-effort cleanup contract.
func (c *S3Client) DeleteAsset(ctx context.Context, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
