// Package storage uploads package images and payment proofs to S3 compatible
// object storage and returns their public URL.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	FolderPackageImages = "package_images"
	FolderPaymentProofs = "payment_proofs"
)

// ObjectStore accepts a binary upload and returns a stable retrieval URL.
type ObjectStore interface {
	Upload(ctx context.Context, folder string, file File) (string, error)
}

// File is an upload that already passed validation.
type File struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Config struct {
	Bucket          string
	Region          string
	EndpointURL     string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

func (c Config) IsEnabled() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store wraps the S3 client.
type S3Store struct {
	client putObjectAPI
	config Config
}

// NewS3Store creates a new S3 client
func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("object storage is not configured")
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	log.Info().Str("bucket", cfg.Bucket).Msg("Object storage client initialized")
	return &S3Store{client: client, config: cfg}, nil
}

// Upload stores file under folder with a random key.
func (s *S3Store) Upload(ctx context.Context, folder string, file File) (string, error) {
	key := ObjectKey(folder, file.Filename)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.config.Bucket),
		Key:         aws.String(key),
		Body:        file.Body,
		ContentType: aws.String(file.ContentType),
		Metadata: map[string]string{
			"original-name": path.Base(file.Filename),
		},
	}
	if file.Size > 0 {
		input.ContentLength = aws.Int64(file.Size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Debug().Str("bucket", s.config.Bucket).Str("key", key).Msg("Uploaded object")
	return s.PublicURL(key), nil
}

// PublicURL builds the retrieval URL for key.
func (s *S3Store) PublicURL(key string) string {
	if base := strings.TrimRight(s.config.PublicBaseURL, "/"); base != "" {
		return base + "/" + key
	}
	if endpoint := strings.TrimRight(s.config.EndpointURL, "/"); endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", endpoint, s.config.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.Bucket, s.config.Region, key)
}

// ObjectKey returns folder/<uuid><ext>.
func ObjectKey(folder, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), ext)
}
