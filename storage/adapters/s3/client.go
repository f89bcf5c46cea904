// Package s3 implements object storage on AWS S3 for deployments where
// camera captures are kept in a bucket rather than on local disk.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"firestudio/config"
	obs "firestudio/observability/types"
	"firestudio/storage/types"
)

const backendLabel = "s3"

// Client implements the ObjectStorage interface for AWS S3
type Client struct {
	s3Client *s3.Client
	bucket   string
	logger   obs.Logger
	registry obs.Registry
}

// NewClient creates a new S3 storage client and verifies the configured
// bucket is reachable.
func NewClient(cfg *config.S3Config, logger obs.Logger, registry obs.Registry) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is not configured")
	}

	awsCfg, err := buildAWSConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	client := &Client{
		s3Client: s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
				o.UsePathStyle = true
			}
		}),
		bucket:   cfg.Bucket,
		logger:   logger,
		registry: registry,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := client.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	}); err != nil {
		return nil, fmt.Errorf("failed to verify bucket %q: %w", cfg.Bucket, err)
	}

	logger.Info(ctx, "S3 storage initialized", obs.Fields{
		"bucket": cfg.Bucket,
		"region": cfg.Region,
	})

	return client, nil
}

// Put stores an object in S3.
func (c *Client) Put(ctx context.Context, key string, reader io.Reader, metadata types.ObjectMetadata) (int64, error) {
	start := time.Now()
	defer c.observe("put", start)

	// Buffer the content so the SDK gets a seekable body and we learn the size
	buf := &bytes.Buffer{}
	written, err := io.Copy(buf, reader)
	if err != nil {
		c.countError("put")
		return 0, fmt.Errorf("failed to read content: %w", err)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(buf.Bytes()),
	}
	if metadata.ContentType != "" {
		input.ContentType = aws.String(metadata.ContentType)
	}
	userMetadata := map[string]string{}
	for k, v := range metadata.UserMetadata {
		userMetadata[k] = v
	}
	if metadata.OriginalFilename != "" {
		userMetadata["original-filename"] = metadata.OriginalFilename
	}
	if len(userMetadata) > 0 {
		input.Metadata = userMetadata
	}

	if _, err := c.s3Client.PutObject(ctx, input); err != nil {
		c.countError("put")
		c.logger.Error(ctx, "failed to put object", err, obs.Fields{
			"bucket": c.bucket,
			"key":    key,
		})
		return 0, fmt.Errorf("failed to put object: %w", err)
	}

	_ = c.registry.ObserveHistogram("upload_size_bytes", obs.Labels{"backend": backendLabel}, float64(written))
	c.logger.Debug(ctx, "object stored successfully", obs.Fields{
		"bucket": c.bucket,
		"key":    key,
		"bytes":  written,
	})

	return written, nil
}

// Get retrieves an object from S3.
func (c *Client) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	start := time.Now()
	defer c.observe("get", start)

	out, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%s: %w", key, types.ErrObjectNotFound)
		}
		c.countError("get")
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	return out.Body, nil
}

// Exists reports whether an object is stored under key.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *s3types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head object: %w", err)
	}
	return true, nil
}

// Delete removes an object from S3.
func (c *Client) Delete(ctx context.Context, key string) error {
	start := time.Now()
	defer c.observe("delete", start)

	if _, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}); err != nil {
		c.countError("delete")
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (c *Client) observe(operation string, start time.Time) {
	_ = c.registry.ObserveHistogram("storage_operation_duration_seconds", obs.Labels{
		"operation": operation,
		"backend":   backendLabel,
	}, time.Since(start).Seconds())
}

func (c *Client) countError(operation string) {
	_ = c.registry.IncrementCounter("storage_errors_total", obs.Labels{
		"operation": operation,
		"backend":   backendLabel,
	}, 1)
}

// buildAWSConfig assembles the SDK configuration, preferring static
// credentials from the environment when provided and falling back to the
// default credential chain otherwise.
func buildAWSConfig(cfg *config.S3Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	return awsconfig.LoadDefaultConfig(context.Background(), opts...)
}
