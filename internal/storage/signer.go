// Package storage provides signed read URLs for objects in R2 (or any
// S3-compatible bucket).
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Validation errors
var (
	ErrEmptyKey      = errors.New("object key is required")
	ErrInvalidExpiry = errors.New("expiry must be positive")
)

// SignerConfig holds configuration for the avatar signer.
type SignerConfig struct {
	BucketName      string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	Region          string // Default: "auto"
}

// AvatarSigner issues pre-signed GET URLs for stored avatar objects.
type AvatarSigner struct {
	presignClient *s3.PresignClient
	bucketName    string
}

// NewAvatarSigner creates a signer with the given configuration.
func NewAvatarSigner(cfg SignerConfig) (*AvatarSigner, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("bucket name is required")
	}
	if cfg.AccessKeyID == "" {
		return nil, errors.New("access key ID is required")
	}
	if cfg.SecretAccessKey == "" {
		return nil, errors.New("secret access key is required")
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	if cfg.Region == "" {
		cfg.Region = "auto"
	}

	s3Client := s3.New(s3.Options{
		Region: cfg.Region,
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		BaseEndpoint: aws.String(cfg.Endpoint),
		UsePathStyle: true, // R2 requires path-style addressing
	})

	return &AvatarSigner{
		presignClient: s3.NewPresignClient(s3Client),
		bucketName:    cfg.BucketName,
	}, nil
}

// SignAvatar returns a pre-signed GET URL for key, valid for expiry.
// Keys stored with a leading slash are accepted.
func (s *AvatarSigner) SignAvatar(ctx context.Context, key string, expiry time.Duration) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", ErrEmptyKey
	}
	if expiry <= 0 {
		return "", ErrInvalidExpiry
	}

	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign avatar %q: %w", key, err)
	}
	return req.URL, nil
}

// BucketName returns the bucket the signer reads from.
func (s *AvatarSigner) BucketName() string {
	return s.bucketName
}
