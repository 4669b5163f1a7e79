package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/errs"
)

// ObjectPutter is the slice of the S3 API used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// MediaStorage uploads project images to an S3-compatible bucket
// (Supabase Storage exposes one) and hands back their public URLs.
type MediaStorage struct {
	client        ObjectPutter
	bucket        string
	publicBaseURL string
	prefix        string
}

// MediaConfig reads the storage settings. Requires:
//   - STORAGE_BUCKET: bucket holding project images
//   - STORAGE_S3_ENDPOINT: S3 endpoint, e.g. https://<ref>.supabase.co/storage/v1/s3
//   - STORAGE_ACCESS_KEY_ID / STORAGE_SECRET_ACCESS_KEY: S3 credentials
//
// STORAGE_REGION defaults to us-east-1 and STORAGE_PUBLIC_URL to the Supabase public object URL.
type MediaConfig struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

func MediaConfigFromMap(cfg map[string]string) MediaConfig {
	bucket := config.GetString(cfg, "STORAGE_BUCKET", "")
	publicURL := config.GetString(cfg, "STORAGE_PUBLIC_URL", "")
	if publicURL == "" && bucket != "" {
		if base := config.GetString(cfg, "SUPABASE_URL", ""); base != "" {
			publicURL = strings.TrimRight(base, "/") + "/storage/v1/object/public/" + bucket
		}
	}
	return MediaConfig{
		Bucket:          bucket,
		Endpoint:        config.GetString(cfg, "STORAGE_S3_ENDPOINT", ""),
		Region:          config.GetString(cfg, "STORAGE_REGION", "us-east-1"),
		AccessKeyID:     config.GetString(cfg, "STORAGE_ACCESS_KEY_ID", ""),
		SecretAccessKey: config.GetString(cfg, "STORAGE_SECRET_ACCESS_KEY", ""),
		PublicBaseURL:   publicURL,
	}
}

// Enabled reports whether enough is configured to upload.
func (c MediaConfig) Enabled() bool {
	return c.Bucket != "" && c.PublicBaseURL != ""
}

// NewS3MediaStorage builds an S3 client for the configured endpoint. Path-style
// addressing is forced since S3-compatible services rarely support virtual hosts.
func NewS3MediaStorage(ctx context.Context, c MediaConfig) (*MediaStorage, error) {
	if !c.Enabled() {
		return nil, errs.NewConfigMissingError("STORAGE_BUCKET")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	if c.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage credentials: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
		o.UsePathStyle = true
	})
	return NewMediaStorage(client, c.Bucket, c.PublicBaseURL), nil
}

func NewMediaStorage(client ObjectPutter, bucket, publicBaseURL string) *MediaStorage {
	return &MediaStorage{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		prefix:        "projects",
	}
}

// UploadImage stores an image under a fresh key and returns its public URL.
func (m *MediaStorage) UploadImage(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", errs.NewInvalidFieldError("file", "must be an image")
	}

	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	key := path.Join(m.prefix, uuid.NewString()+ext)

	input := &s3.PutObjectInput{
		Bucket:       aws.String(m.bucket),
		Key:          aws.String(key),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := m.client.PutObject(ctx, input); err != nil {
		log.Error().Err(err).Str("bucket", m.bucket).Str("key", key).Msg("Image upload failed")
		return "", errs.NewServiceUnavailableError("storage", err)
	}

	url := m.publicBaseURL + "/" + key
	log.Info().Str("key", key).Int64("bytes", size).Msg("Uploaded project image")
	return url, nil
}
