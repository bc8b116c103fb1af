// Package s3store provides the object-storage backend for the gateway,
// fetching immutable objects from an S3 bucket (or any S3-compatible store
// via a custom endpoint).
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"mediagate"
)

// Config holds the S3 backend configuration.
type Config struct {
	Bucket    string `mapstructure:"bucket" validate:"required"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`   // optional, for S3-compatible stores
	AccessKey string `mapstructure:"access_key"` // optional static credentials;
	SecretKey string `mapstructure:"secret_key"` // default chain is used otherwise
	PathStyle bool   `mapstructure:"path_style"`
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("s3 config: bucket cannot be empty")
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return errors.New("s3 config: access_key and secret_key must be set together")
	}
	return nil
}

// Store fetches objects from a single S3 bucket.
type Store struct {
	client *s3.Client
	bucket string
}

// New creates a Store from configuration, building the S3 client from the
// default credential chain or the configured static keys.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewWithClient(client, cfg.Bucket), nil
}

// NewWithClient creates a Store around an existing S3 client.
func NewWithClient(client *s3.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// Fetch retrieves the object at path. A missing key maps to
// mediagate.ErrNotFound; every other backend failure wraps
// mediagate.ErrStorageUnavailable so callers surface it as a gateway error,
// never as a cache decision.
func (s *Store) Fetch(ctx context.Context, path string) (io.ReadCloser, error) {
	key := strings.TrimPrefix(path, "/")
	if key == "" {
		return nil, mediagate.ErrInvalidInput
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, mediagate.ErrNotFound
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w: %w", s.bucket, key, mediagate.ErrStorageUnavailable, err)
	}

	return out.Body, nil
}
