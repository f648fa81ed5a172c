// Package assets uploads profile images to S3 compatible object storage.
// The store owns the local temp files it is handed: every call removes them,
// whether or not the upload succeeded.
package assets

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/Arayanmemon/devTube/internal/logging"
)

var ErrMissingFile = errors.New("no file to upload")

// ObjectAPI is the subset of *s3.Client the store uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string
}

var loadDefaultAWSConfig = config.LoadDefaultConfig

func NewS3Client(ctx context.Context, c Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

type S3Store struct {
	Client ObjectAPI
	Bucket string
	// PublicURL prefixes object keys in returned URLs. Empty means
	// Endpoint/Bucket.
	PublicURL string
	Endpoint  string
}

func NewS3Store(client ObjectAPI, c Config) *S3Store {
	return &S3Store{
		Client:    client,
		Bucket:    c.Bucket,
		PublicURL: c.PublicURL,
		Endpoint:  c.Endpoint,
	}
}

func storageKey(path string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("users/%d/%d/%d/%s%s", d.Year(), d.Month(), d.Day(), uuid.NewString(), strings.ToLower(filepath.Ext(path)))
}

func (s *S3Store) objectURL(key string) string {
	base := s.PublicURL
	if base == "" {
		base = strings.TrimRight(s.Endpoint, "/") + "/" + s.Bucket
	}
	return strings.TrimRight(base, "/") + "/" + key
}

func (s *S3Store) keyFromURL(url string) (string, bool) {
	prefix := s.objectURL("")
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

// Upload stores the file at path and returns its public URL. The local file
// is removed on every path.
func (s *S3Store) Upload(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", ErrMissingFile
	}
	defer s.Discard(ctx, path)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrMissingFile
		}
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat upload: %w", err)
	}
	if info.Size() == 0 {
		return "", ErrMissingFile
	}

	key := storageKey(path)
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
	}
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		in.ContentType = aws.String(ct)
	}

	if _, err := s.Client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return s.objectURL(key), nil
}

// UploadPair uploads a required primary file and an optional secondary one.
// If the secondary upload fails the already stored primary object is
// deleted so no orphan is left behind.
func (s *S3Store) UploadPair(ctx context.Context, primary, secondary string) (string, string, error) {
	if primary == "" {
		s.Discard(ctx, secondary)
		return "", "", ErrMissingFile
	}

	primaryURL, err := s.Upload(ctx, primary)
	if err != nil {
		s.Discard(ctx, secondary)
		return "", "", err
	}
	if secondary == "" {
		return primaryURL, "", nil
	}

	secondaryURL, err := s.Upload(ctx, secondary)
	if err != nil {
		if derr := s.Delete(ctx, primaryURL); derr != nil {
			logging.FromContext(ctx).Warn("asset_cleanup_failed", "url", primaryURL, "error", derr)
		}
		return "", "", err
	}
	return primaryURL, secondaryURL, nil
}

func (s *S3Store) Delete(ctx context.Context, url string) error {
	key, ok := s.keyFromURL(url)
	if !ok || key == "" {
		return nil
	}
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	return err
}

// Discard removes local temp files. Empty and already removed paths are
// ignored.
func (s *S3Store) Discard(ctx context.Context, paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.FromContext(ctx).Warn("temp_cleanup_failed", "path", p, "error", err)
		}
	}
}
