package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"tour-backend/config"
)

// allowedImageTypes are the only formats accepted for tour galleries.
var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// ImageStore persists tour image blobs and returns their public URL.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (url string, err error)
	Delete(ctx context.Context, key string) error
}

// NewImageStore picks the store configured by STORAGE_DRIVER.
func NewImageStore(ctx context.Context, c config.StorageConfig) (ImageStore, error) {
	switch c.Driver {
	case "s3":
		return NewS3ImageStore(ctx, c)
	case "local", "":
		return NewLocalImageStore(c.LocalDir, c.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", c.Driver)
	}
}

// SniffImage reads at most maxBytes from r and checks the content is an allowed image.
// It returns the bytes, detected MIME type and file extension.
func SniffImage(r io.Reader, maxBytes int64) ([]byte, string, string, error) {
	if maxBytes <= 0 {
		maxBytes = 8 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, "", "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, "", "", ErrImageTooLarge
	}
	if len(data) == 0 {
		return nil, "", "", ErrUnsupportedImage
	}

	mt := mimetype.Detect(data)
	for _, allowed := range allowedImageTypes {
		if mt.Is(allowed) {
			return data, allowed, mt.Extension(), nil
		}
	}
	return nil, "", "", fmt.Errorf("%w: %s", ErrUnsupportedImage, mt.String())
}

// NewImageKey returns "tours/<tourID>/<uuid><ext>".
func NewImageKey(tourID uint, ext string) string {
	return fmt.Sprintf("tours/%d/%s%s", tourID, uuid.NewString(), ext)
}

// ---------------------------
// Local disk
// ---------------------------

// LocalImageStore writes under Dir; the router serves Dir at BaseURL.
type LocalImageStore struct {
	Dir     string
	BaseURL string
}

func NewLocalImageStore(dir, baseURL string) *LocalImageStore {
	if dir == "" {
		dir = "uploads"
	}
	return &LocalImageStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalImageStore) fullPath(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", errors.New("empty storage key")
	}
	return filepath.Join(s.Dir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func (s *LocalImageStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	full, err := s.fullPath(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("mkdir uploads dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return s.BaseURL + "/" + strings.TrimPrefix(path.Clean("/"+key), "/"), nil
}

func (s *LocalImageStore) Delete(_ context.Context, key string) error {
	full, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// ---------------------------
// S3 (or any S3-compatible endpoint)
// ---------------------------

type s3ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3ImageStore struct {
	client    s3ObjectAPI
	bucket    string
	publicURL string
}

// NewS3ImageStore loads credentials from the default AWS chain.
func NewS3ImageStore(ctx context.Context, c config.StorageConfig) (*S3ImageStore, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if c.S3Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(c.S3Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(c.S3Endpoint)
		}
		o.UsePathStyle = c.S3PathStyle
	})

	publicURL := c.S3PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.S3Bucket, cfg.Region)
	}
	return newS3ImageStore(client, c.S3Bucket, publicURL), nil
}

func newS3ImageStore(client s3ObjectAPI, bucket, publicURL string) *S3ImageStore {
	return &S3ImageStore{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

func (s *S3ImageStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		CacheControl:  aws.String("public, max-age=31536000"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return s.publicURL + "/" + key, nil
}

func (s *S3ImageStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}
