// Package media accepts user uploads (book covers, images attached to
// comments, exported files) and stores them in object storage.
package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookshelf/internal/platform/logger"
	"bookshelf/internal/storage"
)

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrUnsupportedType = errors.New("file is not a supported image")
	ErrBadFileName     = errors.New("invalid file name")
)

// Upload is where a stored file can be fetched from.
type Upload struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// File is one uploaded multipart file.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type Service struct {
	blobs storage.BlobStore
	log   *logger.Logger
	newID func() string
	now   func() time.Time
}

func NewService(blobs storage.BlobStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		blobs: blobs,
		log:   log,
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// UploadCover stores a cover image under a random name.
func (s *Service) UploadCover(ctx context.Context, f File) (Upload, error) {
	return s.uploadImage(ctx, storage.BucketCovers, f, ".jpg")
}

// UploadCommentImage stores an image attached to a comment.
func (s *Service) UploadCommentImage(ctx context.Context, f File) (Upload, error) {
	return s.uploadImage(ctx, storage.BucketComments, f, ".png")
}

func (s *Service) uploadImage(ctx context.Context, bucket storage.Bucket, f File, defaultExt string) (Upload, error) {
	if len(f.Data) == 0 {
		return Upload{}, ErrEmptyFile
	}
	sniffed := http.DetectContentType(f.Data)
	if !strings.HasPrefix(sniffed, "image/") {
		return Upload{}, ErrUnsupportedType
	}

	ext := imageExt(f.Name)
	if ext == "" {
		ext, _ = storage.ExtensionForContentType(sniffed)
	}
	if ext == "" {
		ext = defaultExt
	}

	key := s.newID() + ext
	url, err := s.blobs.Upload(ctx, bucket, key, f.Data, sniffed)
	if err != nil {
		return Upload{}, fmt.Errorf("upload %s: %w", bucket, err)
	}
	s.log.Info("image uploaded", "bucket", bucket, "key", key, "bytes", len(f.Data))
	return Upload{URL: url, Path: key}, nil
}

var imageExts = map[string]string{
	".jpg": ".jpg", ".jpeg": ".jpg", ".png": ".png", ".webp": ".webp", ".gif": ".gif",
}

func imageExt(name string) string {
	return imageExts[strings.ToLower(path.Ext(name))]
}

// UploadExport stores a file the client exported under the user's folder.
// The name gets a timestamp so repeated exports do not collide.
func (s *Service) UploadExport(ctx context.Context, userID string, f File) (Upload, error) {
	if len(f.Data) == 0 {
		return Upload{}, ErrEmptyFile
	}
	name := baseName(f.Name)
	if name == "" {
		name = fmt.Sprintf("export-%d.csv", s.now().UnixMilli())
	}
	ts := strings.NewReplacer(":", "-", ".", "-").Replace(s.now().UTC().Format("2006-01-02T15:04:05.000Z"))
	ext := path.Ext(name)
	name = strings.TrimSuffix(name, ext) + "-" + ts + ext

	ct := f.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = storage.ContentTypeForKey(name)
	}
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	ct += "; charset=utf-8"

	key := storage.UserFolder(userID) + "/" + name
	url, err := s.blobs.Upload(ctx, storage.BucketExports, key, f.Data, ct)
	if err != nil {
		return Upload{}, fmt.Errorf("upload export: %w", err)
	}
	s.log.Info("export uploaded", "key", key, "bytes", len(f.Data))
	return Upload{URL: url, Path: key}, nil
}

// Delete removes fileName from the named bucket. Exports may only be
// removed from the caller's own folder.
func (s *Service) Delete(ctx context.Context, userID, bucketName, fileName string) error {
	bucket, ok := storage.ParseBucket(bucketName)
	if !ok {
		return storage.ErrUnknownBucket
	}
	key := strings.TrimLeft(strings.TrimSpace(fileName), "/")
	if key == "" || strings.Contains(key, "..") {
		return ErrBadFileName
	}
	if bucket == storage.BucketExports && !strings.HasPrefix(key, storage.UserFolder(userID)+"/") {
		return ErrBadFileName
	}
	if err := s.blobs.Delete(ctx, bucket, key); err != nil {
		return err
	}
	s.log.Info("object deleted", "bucket", bucket, "key", key)
	return nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// baseName drops any directory part a client sent and neutralizes the rest.
func baseName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "." || name == "/" || strings.HasPrefix(name, ".") {
		return ""
	}
	return unsafeChars.ReplaceAllString(name, "_")
}

