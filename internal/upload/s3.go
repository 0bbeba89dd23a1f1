package upload

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3API is the subset of the S3 client used for uploads.
type S3API interface {
	// PutObject uploads an object to S3
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ S3API = (*s3.Client)(nil)

// S3Config configures the S3 uploader.
type S3Config struct {
	Bucket string
	Region string
	Prefix string
	// PublicBaseURL is prepended to object keys to form URIs, e.g. a CDN
	// domain. Defaults to the virtual-hosted bucket URL.
	PublicBaseURL string
	// Endpoint overrides the S3 endpoint for S3-compatible stores.
	Endpoint       string
	ForcePathStyle bool
}

// S3Uploader uploads to an S3 bucket.
type S3Uploader struct {
	client  S3API
	bucket  string
	prefix  string
	baseURL string
	logger  *zap.Logger
}

var _ Uploader = (*S3Uploader)(nil)

// NewS3Uploader builds an uploader from the default AWS credential chain.
func NewS3Uploader(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.Region != "" {
		awsCfg.Region = cfg.Region
	} else if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1"
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, awsCfg.Region)
	}

	return NewS3UploaderWithClient(s3.NewFromConfig(awsCfg, s3Opts...), cfg, logger), nil
}

// NewS3UploaderWithClient creates an uploader with a custom S3API implementation.
func NewS3UploaderWithClient(client S3API, cfg S3Config, logger *zap.Logger) *S3Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Uploader{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		logger:  logger.Named("s3"),
	}
}

// Upload implements Uploader.
func (u *S3Uploader) Upload(ctx context.Context, f File) (string, error) {
	if len(f.Data) == 0 {
		return "", fmt.Errorf("upload %s: %w", f.Name, ErrEmptyFile)
	}

	key := objectKey(u.prefix, f.Name)
	ct := contentType(f)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(f.Data),
		ContentType:   aws.String(ct),
		ContentLength: aws.Int64(int64(len(f.Data))),
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", u.bucket, key, err)
	}

	uri := u.baseURL + "/" + key
	u.logger.Debug("uploaded",
		zap.String("file", f.Name),
		zap.String("content_type", ct),
		zap.Int("bytes", len(f.Data)),
		zap.String("uri", uri))
	return uri, nil
}

// UploadJSON implements Uploader.
func (u *S3Uploader) UploadJSON(ctx context.Context, v interface{}) (string, error) {
	f, err := marshalJSON(v)
	if err != nil {
		return "", err
	}
	return u.Upload(ctx, f)
}
