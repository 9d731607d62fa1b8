// Package objectstore talks to the S3-compatible bucket that holds every
// uploaded file. Objects are private; readers reach them through presigned
// URLs issued by the signedurl package.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"Pfrastro/internal/core/signedurl"
	"Pfrastro/internal/metrics"
)

// DefaultRegion works for providers that ignore regions (Railway, R2, MinIO)
const DefaultRegion = "auto"

// Config holds bucket connection settings
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Endpoint        string // empty uses the AWS endpoint for Region
	Bucket          string
}

// File is a local file to upload
type File struct {
	Body        io.Reader
	Path        string // optional folder prefix
	Hash        string
	Ext         string // including the dot
	ContentType string
}

// Client wraps an S3 client bound to one bucket
type Client struct {
	s3       *s3.Client
	presign  *s3.PresignClient
	uploader *manager.Uploader
	logger   *slog.Logger
	bucket   string
}

// Option configures the client
type Option func(*Client)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client with static credentials and path-style addressing.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, ErrBucketRequired
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}

	s3Opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		s3Opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	client := s3.New(s3Opts)

	c := &Client{
		s3:       client,
		presign:  s3.NewPresignClient(client),
		uploader: manager.NewUploader(client),
		logger:   slog.Default(),
		bucket:   cfg.Bucket,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Bucket returns the bucket name
func (c *Client) Bucket() string {
	return c.bucket
}

// PresignGet returns a GET URL for key valid for expiry. It implements
// signedurl.Presigner.
func (c *Client) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

// FileKey builds the object key for an upload: "<path>/<hash><ext>", or
// "<hash><ext>" without a path.
func FileKey(path, hash, ext string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return hash + ext
	}
	return path + "/" + hash + ext
}

// Upload stores f and returns its key. The key, not a URL, is what callers
// persist as the file reference.
func (c *Client) Upload(ctx context.Context, f File) (string, error) {
	if f.Hash == "" {
		return "", ErrInvalidFile
	}
	if f.Body == nil {
		return "", ErrInvalidFile
	}

	key := FileKey(f.Path, f.Hash, f.Ext)

	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   f.Body,
	}
	if f.ContentType != "" {
		input.ContentType = aws.String(f.ContentType)
	}

	if _, err := c.uploader.Upload(ctx, input); err != nil {
		metrics.RecordUpstream("s3", "error")
		c.logger.Error("[OBJECT-STORE] upload failed",
			"key", key,
			"error", err,
		)
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	metrics.RecordUpstream("s3", "ok")

	c.logger.Info("[OBJECT-STORE] uploaded object", "key", key)
	return key, nil
}

// Delete removes the object behind reference, which may be a bare key or a
// previously issued URL.
func (c *Client) Delete(ctx context.Context, reference string) error {
	key := signedurl.ExtractKey(reference, c.bucket)
	if key == "" {
		return ErrInvalidFile
	}

	if _, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}); err != nil {
		metrics.RecordUpstream("s3", "error")
		c.logger.Error("[OBJECT-STORE] delete failed",
			"key", key,
			"error", err,
		)
		return fmt.Errorf("delete %s: %w", key, err)
	}
	metrics.RecordUpstream("s3", "ok")

	c.logger.Info("[OBJECT-STORE] deleted object", "key", key)
	return nil
}
