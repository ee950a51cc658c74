package library

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/lookup"
	"bookshelf/internal/storage"
)

const (
	testUser = "user-1"
	testID   = "7d7f8c9e-3a6b-4a57-9d55-0f3a1c2b4e10"
)

type uploadCall struct {
	bucket      storage.Bucket
	key         string
	data        []byte
	contentType string
}

// recordingBlobs is a BlobStore that remembers uploads.
type recordingBlobs struct {
	uploads []uploadCall
	err     error
}

func (b *recordingBlobs) Upload(_ context.Context, bucket storage.Bucket, key string, data []byte, contentType string) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	b.uploads = append(b.uploads, uploadCall{bucket, key, data, contentType})
	return b.PublicURL(bucket, key), nil
}

func (b *recordingBlobs) Delete(context.Context, storage.Bucket, string) error { return nil }

func (b *recordingBlobs) PublicURL(bucket storage.Bucket, key string) string {
	return "https://cdn.example/" + string(bucket) + "/" + key
}

func (b *recordingBlobs) Owns(url string) bool { return strings.HasPrefix(url, "https://cdn.example/") }

type fixture struct {
	repo     *MockRepository
	catalog  *MockCatalogRepository
	resolver *MockMetadataResolver
	blobs    *recordingBlobs
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		repo:     NewMockRepository(ctrl),
		catalog:  NewMockCatalogRepository(ctrl),
		resolver: NewMockMetadataResolver(ctrl),
		blobs:    &recordingBlobs{},
	}
	f.svc = NewService(f.repo, f.catalog, f.resolver, f.blobs, nil)
	f.svc.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
	return f
}

func TestService_AddDefaultsAndNormalizesISBN(t *testing.T) {
	f := newFixture(t)

	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, b *UserBook) error {
		b.ID = testID
		return nil
	})

	b, err := f.svc.Add(context.Background(), testUser, NewBook{
		ISBN:     "5-17-090630-7",
		Title:    " Solaris ",
		Author:   "Stanislaw Lem",
		CoverURL: "https://cdn.example/covers/solaris.jpg",
		Tags:     []string{"sf", "sf"},
	})
	require.NoError(t, err)
	assert.Equal(t, testID, b.ID)
	assert.Equal(t, testUser, b.UserID)
	assert.Equal(t, "9785170906307", b.ISBN13)
	assert.Equal(t, "Solaris", b.Title)
	assert.Equal(t, StatusWant, b.Status)
	assert.Equal(t, []string{"sf"}, b.Tags)
}

func TestService_AddFillsFromLookup(t *testing.T) {
	f := newFixture(t)

	f.resolver.EXPECT().Lookup(gomock.Any(), "9785170906307").Return(lookup.Metadata{Candidate: lookup.Candidate{
		ISBN13:   "9785170906307",
		Title:    "Пикник на обочине",
		Authors:  "Аркадий Стругацкий, Борис Стругацкий",
		CoverURL: "https://cdn.example/covers/lookup/9785170906307.jpg",
	}}, nil)
	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	b, err := f.svc.Add(context.Background(), testUser, NewBook{ISBN: "978-5-17-090630-7", Status: StatusReading})
	require.NoError(t, err)
	assert.Equal(t, "Пикник на обочине", b.Title)
	assert.Equal(t, "Аркадий Стругацкий, Борис Стругацкий", b.Author)
	assert.Equal(t, "https://cdn.example/covers/lookup/9785170906307.jpg", b.CoverURL)
	assert.Equal(t, StatusReading, b.Status)
}

func TestService_AddLookupMissStillNeedsTitle(t *testing.T) {
	f := newFixture(t)
	f.resolver.EXPECT().Lookup(gomock.Any(), "9785170906307").Return(lookup.Metadata{}, lookup.ErrMetadataNotFound)

	_, err := f.svc.Add(context.Background(), testUser, NewBook{ISBN: "9785170906307"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "title", ve.Field)
}

func TestService_AddValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    NewBook
		field string
	}{
		{"missing title", NewBook{}, "title"},
		{"bad isbn", NewBook{Title: "X", ISBN: "978-5-17-090630-8"}, "isbn"},
		{"bad status", NewBook{Title: "X", Status: "finished"}, "status"},
		{"rating", NewBook{Title: "X", Rating: -1}, "rating"},
		{"started date", NewBook{Title: "X", StartedAt: strPtr("yesterday")}, "started_at"},
		{"finished date", NewBook{Title: "X", FinishedAt: strPtr("2024-13-01")}, "finished_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Add(context.Background(), testUser, tt.in)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestService_UpdateRejectsMalformedID(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Update(context.Background(), testUser, "42", rawPatch(t, `{"rating": 3}`))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_UpdatePassesPatch(t *testing.T) {
	f := newFixture(t)
	f.repo.EXPECT().Update(gomock.Any(), testUser, testID, Patch{"rating": 3}).Return(UserBook{ID: testID, Rating: 3}, nil)

	b, err := f.svc.Update(context.Background(), testUser, testID, rawPatch(t, `{"rating": 3, "user_id": "someone-else"}`))
	require.NoError(t, err)
	assert.Equal(t, 3, b.Rating)
}

func TestService_DeleteAndComment(t *testing.T) {
	f := newFixture(t)
	f.repo.EXPECT().Delete(gomock.Any(), testUser, testID).Return(ErrNotFound)
	f.repo.EXPECT().SaveComment(gomock.Any(), testUser, testID, "great").Return(nil)

	assert.ErrorIs(t, f.svc.Delete(context.Background(), testUser, testID), ErrNotFound)
	assert.NoError(t, f.svc.SaveComment(context.Background(), testUser, testID, "  great "))
	assert.ErrorIs(t, f.svc.SaveComment(context.Background(), testUser, "nope", "x"), ErrNotFound)
}

func TestService_SearchCatalog(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SearchCatalog(context.Background(), " м ")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	f.catalog.EXPECT().SearchTitles(gomock.Any(), "ма", 5).Return(nil, nil)
	entries, err := f.svc.SearchCatalog(context.Background(), "ма")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestService_AddToCatalogNormalizes(t *testing.T) {
	f := newFixture(t)
	e := CatalogEntry{Title: "Solaris", Author: "Stanislaw Lem"}
	f.catalog.EXPECT().InsertIfAbsent(gomock.Any(), e, "solaris", "lem stanislaw").Return(false, nil)

	inserted, err := f.svc.AddToCatalog(context.Background(), CatalogEntry{Title: "  Solaris", Author: "Stanislaw Lem "})
	require.NoError(t, err)
	assert.False(t, inserted)

	_, err = f.svc.AddToCatalog(context.Background(), CatalogEntry{Title: "Solaris"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "author", ve.Field)
}

func TestService_ExportArchivesCopy(t *testing.T) {
	f := newFixture(t)
	f.repo.EXPECT().ListByUser(gomock.Any(), testUser).Return(exportBooks(), nil)

	file, err := f.svc.Export(context.Background(), testUser, "json", "title")
	require.NoError(t, err)
	assert.Equal(t, "books-user-1-2024-05-06T07-08-09-000Z.json", file.Filename)
	assert.Equal(t, "application/json; charset=utf-8", file.ContentType)

	require.Len(t, f.blobs.uploads, 1)
	up := f.blobs.uploads[0]
	assert.Equal(t, storage.BucketExports, up.bucket)
	assert.Equal(t, "user-1/"+file.Filename, up.key)
	assert.Equal(t, file.Data, up.data)
}

func TestService_ExportSurvivesArchiveFailure(t *testing.T) {
	f := newFixture(t)
	f.blobs.err = errors.New("bucket unavailable")
	f.repo.EXPECT().ListByUser(gomock.Any(), testUser).Return(nil, nil)

	file, err := f.svc.Export(context.Background(), testUser, "", "")
	require.NoError(t, err)
	assert.Equal(t, "\uFEFF"+strings.Join(DefaultExportFields, ","), string(file.Data))
}

func TestService_ExportRejectsBadRequest(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Export(context.Background(), testUser, "pdf", "")
	assert.Error(t, err)
	_, err = f.svc.Export(context.Background(), testUser, "csv", "password")
	assert.Error(t, err)
}
