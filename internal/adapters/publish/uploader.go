// Package publish copies the consolidated datasets to S3.
package publish

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/okian/finishline/internal/domain/types"
	"github.com/okian/finishline/pkg/logger"
	"github.com/okian/finishline/pkg/metrics"
)

const (
	defaultRetries = 3
	defaultTimeout = 30 * time.Second
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 2 * time.Second
)

// PutObjectAPI is the slice of the S3 client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader puts objects into one bucket, retrying each object on failure.
type Uploader struct {
	client  PutObjectAPI
	bucket  string
	prefix  string
	retries int
	timeout time.Duration
	sleep   types.Sleeper
	logger  logger.Logger
}

// NewS3Client builds an S3 client from the default AWS credential chain.
// SDK retries are disabled; Uploader retries on its own schedule.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.Retryer = aws.NopRetryer{}
	}), nil
}

// New constructs an Uploader for bucket.
func New(client PutObjectAPI, bucket string, opts ...Option) *Uploader {
	u := &Uploader{
		client:  client,
		bucket:  bucket,
		retries: defaultRetries,
		timeout: defaultTimeout,
		sleep:   types.Sleep,
	}

	for _, opt := range opts {
		opt(u)
	}

	if u.logger == nil {
		u.logger = logger.Named("publish")
	}
	return u
}

// Key returns the object key for a file name.
func (u *Uploader) Key(name string) string { return u.prefix + name }

// Upload puts body under Key(name). The body is rewound before every
// attempt. Waits between attempts start at 200ms and double up to 2s.
func (u *Uploader) Upload(ctx context.Context, name string, body io.ReadSeeker, size int64) error {
	if u.bucket == "" {
		return ErrNoBucket
	}
	key := u.Key(name)

	var lastErr error
	backoff := initialBackoff
	for attempt := 1; attempt <= u.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := body.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind %s: %w", name, err)
		}

		err := u.put(ctx, key, body, size)
		if err == nil {
			metrics.RecordUpload(metrics.OutcomeOK)
			u.logger.Info(ctx, "object uploaded",
				logger.String("bucket", u.bucket),
				logger.String("key", key),
				logger.Int64("bytes", size))
			return nil
		}
		lastErr = err
		metrics.RecordUpload(metrics.OutcomeError)

		if attempt == u.retries {
			break
		}
		u.logger.Warn(ctx, "upload failed, retrying",
			logger.String("key", key),
			logger.Int("attempt", attempt),
			logger.Duration("wait", backoff),
			logger.Error(err))
		if err := u.sleep(ctx, backoff); err != nil {
			return err
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	return fmt.Errorf("%w: s3://%s/%s after %d attempts: %w", ErrUploadFailed, u.bucket, key, u.retries, lastErr)
}

func (u *Uploader) put(ctx context.Context, key string, body io.Reader, size int64) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	})
	return err
}
