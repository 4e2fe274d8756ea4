package objectstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/cuongbtq/list-import/internal/domain"
)

// S3Config holds S3-compatible storage configuration
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Source opens objects from S3 or an S3-compatible store (R2, MinIO).
// The container id of an object reference is the bucket name.
type S3Source struct {
	client s3API
	logger *slog.Logger
}

// NewS3Source creates a new S3 source
func NewS3Source(ctx context.Context, cfg *S3Config, logger *slog.Logger) (*S3Source, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	logger.Info("S3 object source initialized",
		slog.String("endpoint", cfg.Endpoint),
		slog.String("region", cfg.Region),
	)

	return newS3Source(client, logger), nil
}

func newS3Source(client s3API, logger *slog.Logger) *S3Source {
	return &S3Source{client: client, logger: logger}
}

// Open starts streaming the object. Objects that report a length above
// maxBytes are rejected before any byte is read; objects of unknown length
// fail while streaming once they pass maxBytes.
func (s *S3Source) Open(ctx context.Context, bucket, key string, maxBytes int64) (*Object, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: s3://%s/%s", domain.ErrObjectNotFound, bucket, key)
		}
		return nil, fmt.Errorf("failed to get object s3://%s/%s: %w", bucket, key, err)
	}

	size := UnknownSize
	if out.ContentLength != nil {
		size = *out.ContentLength
	}

	if maxBytes > 0 && size > maxBytes {
		out.Body.Close()
		return nil, fmt.Errorf("%w: s3://%s/%s is %d bytes (max %d)", domain.ErrObjectTooLarge, bucket, key, size, maxBytes)
	}

	return &Object{
		Body: newLimitedBody(out.Body, maxBytes),
		Size: size,
	}, nil
}

// Delete removes the object
func (s *S3Source) Delete(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object s3://%s/%s: %w", bucket, key, err)
	}

	s.logger.Debug("Deleted source object",
		slog.String("bucket", bucket),
		slog.String("key", key),
	)
	return nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return true
		}
	}
	return false
}
