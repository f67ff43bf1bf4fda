// Package storage keeps search log exports in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// DefaultLinkExpiry is how long a presigned export link stays valid.
const DefaultLinkExpiry = 24 * time.Hour

const csvContentType = "text/csv"

type Config struct {
	// Endpoint is the base URL of an S3-compatible server such as RustFS.
	// Empty means AWS itself.
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UsePathStyle    bool
	LinkExpiry      time.Duration
}

// ExportStore publishes CSV exports and hands out presigned links to them.
type ExportStore struct {
	client     *s3.Client
	presign    *s3.PresignClient
	bucket     string
	linkExpiry time.Duration
}

// Export is a published CSV object.
type Export struct {
	Bucket    string
	Key       string
	Size      int64
	URL       string
	ExpiresIn time.Duration
}

func NewExportStore(ctx context.Context, cfg Config) (*ExportStore, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	expiry := cfg.LinkExpiry
	if expiry <= 0 {
		expiry = DefaultLinkExpiry
	}
	return &ExportStore{
		client:     client,
		presign:    s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		linkExpiry: expiry,
	}, nil
}

// ExportKey names the object of an export taken at t, grouped by UTC day.
func ExportKey(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("search-logs/%s/search_logs_%s.csv", t.Format("2006/01/02"), t.Format("20060102T150405Z"))
}

// EnsureBucket creates the bucket unless it already exists.
func (s *ExportStore) EnsureBucket(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err == nil {
		return nil
	}

	_, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Publish stores csv under the key of a run at time at and returns the
// object with a presigned download link.
func (s *ExportStore) Publish(ctx context.Context, at time.Time, csv []byte) (*Export, error) {
	key := ExportKey(at)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(csvContentType),
		ContentLength: aws.Int64(int64(len(csv))),
		Body:          bytes.NewReader(csv),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.linkExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to presign %s: %w", key, err)
	}

	return &Export{
		Bucket:    s.bucket,
		Key:       key,
		Size:      int64(len(csv)),
		URL:       req.URL,
		ExpiresIn: s.linkExpiry,
	}, nil
}

// Fetch reads back a published export.
func (s *ExportStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}
