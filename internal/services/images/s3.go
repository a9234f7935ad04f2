package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/LBIT2016/trading-gamers/internal/dependencies/random"
	"github.com/LBIT2016/trading-gamers/internal/model"
)

// S3Config holds settings for an S3-compatible bucket
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	KeyPrefix       string
	// PublicBaseURL, when set, is joined with the object key instead of
	// using the location reported by the upload
	PublicBaseURL string
}

// Uploader is the part of manager.Uploader the resolver needs
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3 uploads files to a bucket and returns their URLs
type S3 struct {
	cfg      S3Config
	uploader Uploader
	random   random.Random
}

// NewS3 builds an uploader for an S3-compatible endpoint
func NewS3(ctx context.Context, cfg S3Config, random random.Random) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	sdkCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3WithUploader(cfg, manager.NewUploader(client), random), nil
}

// NewS3WithUploader creates the resolver around an existing uploader
func NewS3WithUploader(cfg S3Config, uploader Uploader, random random.Random) *S3 {
	return &S3{cfg: cfg, uploader: uploader, random: random}
}

func (r *S3) Resolve(ctx context.Context, src model.ImageSource) (string, error) {
	if src.Kind == model.ImageSourceDirectURL {
		return ValidateURL(src.URL)
	}
	if src.Kind != model.ImageSourceUploadedFile || src.File == nil {
		return "", fmt.Errorf("%w: unknown image source %q", model.ErrValidationFailed, src.Kind)
	}

	key := r.objectKey(src.File.Filename)
	input := &s3.PutObjectInput{
		Bucket: aws.String(r.cfg.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(src.File.Data),
	}
	if src.File.ContentType != "" {
		input.ContentType = aws.String(src.File.ContentType)
	}

	out, err := r.uploader.Upload(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	if r.cfg.PublicBaseURL != "" {
		return strings.TrimRight(r.cfg.PublicBaseURL, "/") + "/" + key, nil
	}
	return out.Location, nil
}

func (r *S3) objectKey(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		name = "image"
	}
	return path.Join(r.cfg.KeyPrefix, r.random.NewID("img_")+"-"+name)
}
