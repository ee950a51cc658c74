// Package testutil holds in-memory stand-ins and request helpers shared by
// the handler and wiring tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"bookshelf/internal/httpx"
	"bookshelf/internal/lookup"
	"bookshelf/internal/storage"
)

// PublicBase is the URL prefix MemoryBlobs hands out.
const PublicBase = "https://cdn.example/"

// Object is one stored blob.
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryBlobs implements storage.BlobStore over a map keyed "bucket/key".
// Set Fail to make every upload return it.
type MemoryBlobs struct {
	mu      sync.Mutex
	Objects map[string]Object
	Fail    error
}

func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{Objects: map[string]Object{}}
}

func (m *MemoryBlobs) Upload(_ context.Context, bucket storage.Bucket, key string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return "", m.Fail
	}
	m.Objects[string(bucket)+"/"+key] = Object{Data: data, ContentType: contentType}
	return m.PublicURL(bucket, key), nil
}

func (m *MemoryBlobs) Delete(_ context.Context, bucket storage.Bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := string(bucket) + "/" + key
	if _, ok := m.Objects[k]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, k)
	}
	delete(m.Objects, k)
	return nil
}

func (m *MemoryBlobs) PublicURL(bucket storage.Bucket, key string) string {
	return PublicBase + string(bucket) + "/" + key
}

func (m *MemoryBlobs) Owns(url string) bool { return strings.HasPrefix(url, PublicBase) }

// Put stores an object directly, bypassing Fail.
func (m *MemoryBlobs) Put(bucket storage.Bucket, key string, o Object) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[string(bucket)+"/"+key] = o
}

// Get returns the object at bucket/key.
func (m *MemoryBlobs) Get(bucket storage.Bucket, key string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.Objects[string(bucket)+"/"+key]
	return o, ok
}

// MemoryCache implements lookup.CacheStore.
type MemoryCache struct {
	mu   sync.Mutex
	rows map[string]lookup.Metadata
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{rows: map[string]lookup.Metadata{}}
}

func (m *MemoryCache) GetByISBN13(_ context.Context, isbn13 string) (lookup.Metadata, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	md, ok := m.rows[isbn13]
	return md, ok, nil
}

func (m *MemoryCache) Upsert(_ context.Context, md lookup.Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[md.ISBN13] = md
	return nil
}

// Len reports how many records are cached.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// NewRequest builds a request with body marshalled as JSON when non-nil.
func NewRequest(method, path string, body any) *http.Request {
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	data, _ := json.Marshal(body)
	r := httptest.NewRequest(method, path, bytes.NewReader(data))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// NewRequestAsUser is NewRequest with the identity header set.
func NewRequestAsUser(method, path string, body any, userID string) *http.Request {
	r := NewRequest(method, path, body)
	if userID != "" {
		r.Header.Set(httpx.UserIDHeader, userID)
	}
	return r
}

// RecordResponse is a decoded response envelope.
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]any
}

// RecordHTTPResponse decodes the recorder's JSON body, if any.
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	data, _ := io.ReadAll(result.Body)
	var body map[string]any
	if len(data) > 0 {
		_ = json.Unmarshal(data, &body)
	}
	return RecordResponse{Code: result.StatusCode, Header: result.Header, Body: body}
}

// ErrorCode returns error.code from an error envelope, or "".
func (r RecordResponse) ErrorCode() string {
	e, _ := r.Body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

// Data returns the data member of a success envelope as an object.
func (r RecordResponse) Data() map[string]any {
	d, _ := r.Body["data"].(map[string]any)
	return d
}
