package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/portfolio-backend/errs"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	b, _ := io.ReadAll(params.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func TestUploadImage(t *testing.T) {
	putter := &fakePutter{}
	media := NewMediaStorage(putter, "portfolio", "https://abcd.supabase.co/storage/v1/object/public/portfolio/")

	url, err := media.UploadImage(context.Background(), "Hero.PNG", "image/png", strings.NewReader("png-bytes"), 9)
	require.NoError(t, err)

	key := aws.ToString(putter.input.Key)
	assert.True(t, strings.HasPrefix(key, "projects/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "portfolio", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "image/png", aws.ToString(putter.input.ContentType))
	assert.Equal(t, int64(9), aws.ToInt64(putter.input.ContentLength))
	assert.Equal(t, "png-bytes", putter.body)
	assert.Equal(t, "https://abcd.supabase.co/storage/v1/object/public/portfolio/"+key, url)
}

func TestUploadImageRejectsNonImages(t *testing.T) {
	media := NewMediaStorage(&fakePutter{}, "portfolio", "https://cdn.example")
	_, err := media.UploadImage(context.Background(), "notes.txt", "text/plain", strings.NewReader("x"), 1)
	assert.True(t, errs.IsInvalidFieldError(err))
}

func TestUploadImageStorageFailure(t *testing.T) {
	media := NewMediaStorage(&fakePutter{err: errors.New("access denied")}, "portfolio", "https://cdn.example")
	_, err := media.UploadImage(context.Background(), "a.jpg", "image/jpeg", strings.NewReader("x"), 1)
	assert.True(t, errs.IsServiceUnavailable(err))
}

func TestMediaConfigFromMap(t *testing.T) {
	cfg := MediaConfigFromMap(map[string]string{
		"SUPABASE_URL":   "https://abcd.supabase.co/",
		"STORAGE_BUCKET": "portfolio",
	})
	assert.True(t, cfg.Enabled())
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, "https://abcd.supabase.co/storage/v1/object/public/portfolio", cfg.PublicBaseURL)

	assert.False(t, MediaConfigFromMap(map[string]string{}).Enabled())
}
