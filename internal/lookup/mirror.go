package lookup

import (
	"context"
	"fmt"

	"bookshelf/internal/storage"
)

// CoverFetcher downloads a remote image.
type CoverFetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, string, error)
}

// StorageMirror copies catalog covers into the covers bucket.
type StorageMirror struct {
	fetcher CoverFetcher
	blobs   storage.BlobStore
}

func NewStorageMirror(fetcher CoverFetcher, blobs storage.BlobStore) *StorageMirror {
	return &StorageMirror{fetcher: fetcher, blobs: blobs}
}

func (m *StorageMirror) Owns(url string) bool {
	return m.blobs.Owns(url)
}

// Mirror stores the image at coverURL as lookup/<isbn13>.<ext> and returns
// its public URL. Every failure comes back as a *MirrorError.
func (m *StorageMirror) Mirror(ctx context.Context, isbn13, coverURL string) (string, error) {
	data, contentType, err := m.fetcher.FetchBytes(ctx, coverURL)
	if err != nil {
		return "", &MirrorError{URL: coverURL, Err: err}
	}
	ext, ok := storage.ExtensionForContentType(contentType)
	if !ok {
		return "", &MirrorError{URL: coverURL, Err: fmt.Errorf("not an image: %q", contentType)}
	}
	if len(data) == 0 {
		return "", &MirrorError{URL: coverURL, Err: fmt.Errorf("empty body")}
	}

	key := "lookup/" + isbn13 + ext
	url, err := m.blobs.Upload(ctx, storage.BucketCovers, key, data, contentType)
	if err != nil {
		return "", &MirrorError{URL: coverURL, Err: err}
	}
	if url == "" {
		return "", &MirrorError{URL: coverURL, Err: fmt.Errorf("storage returned no public url")}
	}
	return url, nil
}
