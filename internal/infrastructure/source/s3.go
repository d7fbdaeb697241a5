// Package source resolves import job source handles to byte streams. The S3
// opener works against any S3-compatible backend; the local opener serves
// development setups and tests.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/tejit/billing/internal/domain/ingest"
	"github.com/tejit/billing/internal/domain/shared"
	infraconfig "github.com/tejit/billing/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Ensure S3Opener implements ingest.SourceOpener
var _ ingest.SourceOpener = (*S3Opener)(nil)

// S3Opener opens usage files stored in an S3-compatible bucket. A source
// handle is the object key within the configured bucket.
type S3Opener struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// S3OpenerOption is a functional option for configuring S3Opener
type S3OpenerOption func(*S3Opener)

// WithLogger sets a custom logger for S3Opener
func WithLogger(logger *zap.Logger) S3OpenerOption {
	return func(o *S3Opener) {
		o.logger = logger
	}
}

// NewS3Opener creates an S3Opener from configuration. It supports any
// S3-compatible backend (AWS S3, MinIO, etc.)
func NewS3Opener(cfg *infraconfig.SourceConfig, opts ...S3OpenerOption) (*S3Opener, error) {
	if cfg == nil {
		return nil, errors.New("source configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("source bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("source access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("source secret key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid source endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String(endpoint)
	})

	opener := &S3Opener{
		client: client,
		bucket: cfg.Bucket,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(opener)
	}
	return opener, nil
}

// Open streams the object identified by the handle. A missing object maps to
// the domain's MissingSource error so the job fails with a clear cause.
func (o *S3Opener) Open(ctx context.Context, handle string) (io.ReadCloser, error) {
	if handle == "" {
		return nil, shared.ErrMissingSource
	}

	out, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(handle),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		var notFound *types.NotFound
		if errors.As(err, &noSuchKey) || errors.As(err, &notFound) ||
			strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "NotFound") {
			o.logger.Warn("usage source object not found",
				zap.String("bucket", o.bucket),
				zap.String("key", handle))
			return nil, shared.ErrMissingSource
		}
		return nil, fmt.Errorf("failed to open usage source %q: %w", handle, err)
	}

	return out.Body, nil
}
