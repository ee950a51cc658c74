// Package storage keeps covers, comment images and library exports in
// Google Cloud Storage buckets and hands out their public URLs.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"bookshelf/internal/platform/logger"
)

// Bucket is a logical bucket; Config maps it to a real GCS bucket name.
type Bucket string

const (
	BucketCovers   Bucket = "covers"
	BucketComments Bucket = "comments"
	BucketExports  Bucket = "exports"
)

// ErrNotFound is returned when deleting an object that does not exist.
var ErrNotFound = errors.New("object not found")

// ErrUnknownBucket is returned for a logical bucket name Config does not map.
var ErrUnknownBucket = errors.New("unknown bucket")

// ParseBucket accepts the logical names clients send.
func ParseBucket(name string) (Bucket, bool) {
	switch b := Bucket(strings.ToLower(strings.TrimSpace(name))); b {
	case BucketCovers, BucketComments, BucketExports:
		return b, true
	default:
		return "", false
	}
}

// BlobStore is what the rest of bookshelf needs from object storage.
type BlobStore interface {
	Upload(ctx context.Context, bucket Bucket, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, bucket Bucket, key string) error
	PublicURL(bucket Bucket, key string) string
	Owns(url string) bool
}

type Config struct {
	CoversBucket   string
	CommentsBucket string
	ExportsBucket  string
	// PublicBaseURL overrides https://storage.googleapis.com, e.g. a CDN or emulator.
	PublicBaseURL string
	// EmulatorHost points the client at a fake-gcs-server style emulator.
	EmulatorHost string
}

// GCSStore implements BlobStore on Google Cloud Storage.
type GCSStore struct {
	client        *gcs.Client
	buckets       map[Bucket]string
	publicBaseURL string
	log           *logger.Logger
}

// NewGCSStore creates the GCS client. Credentials come from the usual
// application-default chain unless an emulator host is configured.
func NewGCSStore(ctx context.Context, cfg Config, log *logger.Logger) (*GCSStore, error) {
	var opts []option.ClientOption
	if host := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"); host != "" {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", host)
		opts = append(opts, option.WithoutAuthentication())
		if cfg.PublicBaseURL == "" {
			cfg.PublicBaseURL = host
		}
	} else {
		opts = append(opts, option.WithScopes(gcs.ScopeReadWrite))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	s := newGCSStore(client, cfg, log)
	s.log.Info("object storage initialized",
		"covers_bucket", cfg.CoversBucket,
		"comments_bucket", cfg.CommentsBucket,
		"exports_bucket", cfg.ExportsBucket,
		"public_base_url", s.publicBaseURL,
	)
	return s, nil
}

func newGCSStore(client *gcs.Client, cfg Config, log *logger.Logger) *GCSStore {
	if log == nil {
		log = logger.Nop()
	}
	buckets := make(map[Bucket]string, 3)
	for b, name := range map[Bucket]string{
		BucketCovers:   cfg.CoversBucket,
		BucketComments: cfg.CommentsBucket,
		BucketExports:  cfg.ExportsBucket,
	} {
		if name = strings.TrimSpace(name); name != "" {
			buckets[b] = name
		}
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if base == "" {
		base = "https://storage.googleapis.com"
	}
	return &GCSStore{
		client:        client,
		buckets:       buckets,
		publicBaseURL: base,
		log:           log.With("service", "storage"),
	}
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) bucketName(b Bucket) (string, error) {
	name, ok := s.buckets[b]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownBucket, b)
	}
	return name, nil
}

// Upload writes data under key and returns its public URL. An existing
// object with the same key is overwritten.
func (s *GCSStore) Upload(ctx context.Context, bucket Bucket, key string, data []byte, contentType string) (string, error) {
	name, err := s.bucketName(bucket)
	if err != nil {
		return "", err
	}
	key = cleanKey(key)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(name).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if w.ContentType == "" {
		w.ContentType = ContentTypeForKey(key)
	}
	w.CacheControl = "public, max-age=3600"
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %s/%s: %w", name, key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object writer %s/%s: %w", name, key, err)
	}
	s.log.Debug("object uploaded", "bucket", name, "key", key, "bytes", len(data))
	return s.PublicURL(bucket, key), nil
}

func (s *GCSStore) Delete(ctx context.Context, bucket Bucket, key string) error {
	name, err := s.bucketName(bucket)
	if err != nil {
		return err
	}
	key = cleanKey(key)
	if err := s.client.Bucket(name).Object(key).Delete(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, name, key)
		}
		return fmt.Errorf("delete object %s/%s: %w", name, key, err)
	}
	return nil
}

func (s *GCSStore) PublicURL(bucket Bucket, key string) string {
	name, err := s.bucketName(bucket)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, name, cleanKey(key))
}

// Owns reports whether url points into one of our buckets.
func (s *GCSStore) Owns(url string) bool {
	for _, name := range s.buckets {
		if strings.HasPrefix(url, s.publicBaseURL+"/"+name+"/") {
			return true
		}
	}
	return false
}

func cleanKey(key string) string {
	return strings.TrimLeft(strings.TrimSpace(key), "/")
}

// ContentTypeForKey guesses a content type from the key's extension.
func ContentTypeForKey(key string) string {
	k := strings.ToLower(key)
	switch {
	case strings.HasSuffix(k, ".png"):
		return "image/png"
	case strings.HasSuffix(k, ".jpg"), strings.HasSuffix(k, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(k, ".webp"):
		return "image/webp"
	case strings.HasSuffix(k, ".gif"):
		return "image/gif"
	case strings.HasSuffix(k, ".csv"):
		return "text/csv; charset=utf-8"
	case strings.HasSuffix(k, ".json"):
		return "application/json; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// ExtensionForContentType is the inverse of ContentTypeForKey for images.
// ok is false for anything that is not an image type we keep.
func ExtensionForContentType(contentType string) (ext string, ok bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case "image/jpeg", "image/jpg":
		return ".jpg", true
	case "image/png":
		return ".png", true
	case "image/webp":
		return ".webp", true
	case "image/gif":
		return ".gif", true
	default:
		return "", false
	}
}

// UserFolder turns a user id into the folder name used for that user's
// objects in the exports bucket. Anything outside [A-Za-z0-9_-] becomes "_".
func UserFolder(userID string) string {
	var b strings.Builder
	for _, r := range userID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "unknown_user"
	}
	return b.String()
}
