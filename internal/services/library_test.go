package services

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ndemidov/liber/internal/database/books"
	"github.com/ndemidov/liber/internal/database/collections"
	"github.com/ndemidov/liber/internal/entities"
	"github.com/ndemidov/liber/internal/storage"
	"github.com/ndemidov/liber/internal/urlcache"
)

// fakeStore stands in for the object store: it counts URL issuance and
// records deletions.
type fakeStore struct {
	mu       sync.Mutex
	issued   int
	lastTTL  time.Duration
	deleted  []string
	issueErr error
}

func (s *fakeStore) IssueAccessURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.issueErr != nil {
		return "", s.issueErr
	}
	s.issued++
	s.lastTTL = ttl
	return "https://store.example/" + key, nil
}

func (s *fakeStore) DeleteAsset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStore) issuedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issued
}

// recordingDispatcher collects cleanup keys synchronously so tests never
// race a background goroutine.
type recordingDispatcher struct {
	mu   sync.Mutex
	keys []string
}

func (d *recordingDispatcher) DispatchAssetCleanup(keys []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keys = append(d.keys, keys...)
}

type testEnv struct {
	db         *gorm.DB
	books      *books.Repository
	store      *fakeStore
	cache      *urlcache.Cache
	dispatcher *recordingDispatcher
	service    *LibraryService
}

func setupTestEnv(t *testing.T) (*testEnv, func()) {
	dbPath := "./test_library_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Book{},
		&entities.Collection{},
		&entities.Highlight{},
		&entities.Bookmark{},
	)
	require.NoError(t, err)

	store := &fakeStore{}
	cache := urlcache.NewCache(16)
	dispatcher := &recordingDispatcher{}

	bookRepo := books.NewRepository(db)
	service := NewLibraryService(bookRepo, collections.NewRepository(db), store, cache)
	service.SetCleanupDispatcher(dispatcher)

	env := &testEnv{
		db:         db,
		books:      bookRepo,
		store:      store,
		cache:      cache,
		dispatcher: dispatcher,
		service:    service,
	}

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return env, cleanup
}

func (env *testEnv) createBook(t *testing.T, userID uint, title string) *entities.Book {
	book := &entities.Book{
		UserID:   userID,
		Title:    title,
		Format:   entities.FormatEpub,
		FileKey:  "books/" + title + ".epub",
		CoverKey: "covers/" + title + ".png",
	}
	require.NoError(t, env.books.Create(book))
	return book
}

func TestDeleteBook_RemovesAllReferences(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	book := env.createBook(t, 1, "doomed")

	// Referenced by three collections
	for _, name := range []string{"a", "b", "c"} {
		collection := &entities.Collection{UserID: 1, Name: name}
		require.NoError(t, env.db.Create(collection).Error)
		require.NoError(t, env.db.Model(collection).Association("Books").Append(book))
	}
	require.NoError(t, env.db.Create(&entities.Highlight{
		BookID: book.ID, UserID: 1, Text: "hl",
		Format: entities.FormatEpub, Anchor: "epubcfi(/6/4!/4/2)",
	}).Error)

	err := env.service.DeleteBook(context.Background(), book.ID, 1)
	require.NoError(t, err)

	_, err = env.books.GetForUser(book.ID, 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var membershipCount int64
	require.NoError(t, env.db.Table("collection_books").
		Where("book_id = ?", book.ID).Count(&membershipCount).Error)
	assert.Zero(t, membershipCount)

	var highlightCount int64
	require.NoError(t, env.db.Model(&entities.Highlight{}).
		Where("book_id = ?", book.ID).Count(&highlightCount).Error)
	assert.Zero(t, highlightCount)

	assert.ElementsMatch(t,
		[]string{book.FileKey, book.CoverKey},
		env.dispatcher.keys,
		"both assets should be handed to the cleanup dispatcher")
}

func TestDeleteBook_InvalidatesCachedURLs(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	book := env.createBook(t, 1, "cached")
	env.cache.Put(book.FileKey, "https://store.example/stale", time.Hour)

	require.NoError(t, env.service.DeleteBook(context.Background(), book.ID, 1))

	_, ok := env.cache.Get(book.FileKey)
	assert.False(t, ok, "cached URL must not survive the delete")
}

func TestDeleteBook_ForeignOwner(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	book := env.createBook(t, 1, "protected")

	err := env.service.DeleteBook(context.Background(), book.ID, 2)

	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.books.GetForUser(book.ID, 1)
	assert.NoError(t, err, "book must survive a foreign delete attempt")
	assert.Empty(t, env.dispatcher.keys, "no cleanup may be dispatched")
}

func TestDeleteBook_Missing(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	err := env.service.DeleteBook(context.Background(), 999, 1)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateBook(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	book := env.createBook(t, 1, "draft")
	title := "Final"
	progress := 0.75

	err := env.service.UpdateBook(context.Background(), book.ID, 1, BookPatch{
		Title:    &title,
		Progress: &progress,
	})
	require.NoError(t, err)

	updated, err := env.books.GetForUser(book.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, 0.75, updated.Progress)
}

func TestUpdateBook_InvalidPatchLeavesBookUntouched(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	book := env.createBook(t, 1, "stable")
	title := "Renamed"
	progress := 1.5 // out of range

	err := env.service.UpdateBook(context.Background(), book.ID, 1, BookPatch{
		Title:    &title,
		Progress: &progress,
	})

	assert.ErrorIs(t, err, ErrValidation)

	unchanged, loadErr := env.books.GetForUser(book.ID, 1)
	require.NoError(t, loadErr)
	assert.Equal(t, "stable", unchanged.Title, "no field may change when any field is invalid")
}

func TestUpdateBook_EmptyTitleRejected(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	book := env.createBook(t, 1, "named")
	title := "   "

	err := env.service.UpdateBook(context.Background(), book.ID, 1, BookPatch{Title: &title})

	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateBook_Missing(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	title := "Ghost"
	err := env.service.UpdateBook(context.Background(), 999, 1, BookPatch{Title: &title})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAccessURL_CachesIssuedURL(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	book := env.createBook(t, 1, "read-me")

	first, err := env.service.GetAccessURL(context.Background(), book.ID, 1, time.Hour)
	require.NoError(t, err)
	assert.Contains(t, first.URL, book.FileKey)

	second, err := env.service.GetAccessURL(context.Background(), book.ID, 1, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, first.URL, second.URL)
	assert.Equal(t, 1, env.store.issuedCount(), "second call must be served from the cache")
}

func TestGetAccessURL_ClampsTTL(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	book := env.createBook(t, 1, "long-lived")

	_, err := env.service.GetAccessURL(context.Background(), book.ID, 1, 30*24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, storage.MaxAccessTTL, env.store.lastTTL)
}

func TestGetAccessURL_NoStoredFile(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	book := &entities.Book{UserID: 1, Title: "metadata-only", Format: entities.FormatEpub}
	require.NoError(t, env.books.Create(book))

	_, err := env.service.GetAccessURL(context.Background(), book.ID, 1, time.Hour)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAccessURL_StoreFailure(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	book := env.createBook(t, 1, "unreachable")
	env.store.issueErr = errors.New("store offline")

	_, err := env.service.GetAccessURL(context.Background(), book.ID, 1, time.Hour)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestGetCoverURL_NoCover(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	book := &entities.Book{
		UserID: 1, Title: "coverless",
		Format: entities.FormatText, FileKey: "books/coverless.txt",
	}
	require.NoError(t, env.books.Create(book))

	_, err := env.service.GetCoverURL(context.Background(), book.ID, 1, time.Hour)

	assert.ErrorIs(t, err, ErrNotFound)
}
