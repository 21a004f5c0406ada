// Package services contains the library consistency engine: the operations
// that mutate a book together with everything referencing it (collection
// memberships, annotations, cached access URLs, stored assets) without ever
// leaving a dangling reference observable.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ndemidov/liber/internal/entities"
	"github.com/ndemidov/liber/internal/storage"
	"github.com/ndemidov/liber/internal/urlcache"
)

// DefaultAccessTTL is used when a caller does not ask for a specific URL
// lifetime.
const DefaultAccessTTL = time.Hour

// BookStore is the subset of book persistence the library service needs.
type BookStore interface {
	GetForUser(id, userID uint) (*entities.Book, error)
	DeleteWithReferences(id uint) error
	UpdateMetadata(id uint, fields map[string]any) error
}

// CollectionStore resolves which collections reference a book.
type CollectionStore interface {
	ListContainingBook(bookID, userID uint) ([]entities.Collection, error)
}

// CleanupDispatcher hands asset deletions to a background executor. The
// dispatch must not block; outcomes are the executor's concern.
type CleanupDispatcher interface {
	DispatchAssetCleanup(keys []string)
}

// LibraryService orchestrates book mutations and access-URL issuance.
type LibraryService struct {
	books       BookStore
	collections CollectionStore
	store       storage.Client
	cache       *urlcache.Cache

	cleanup    CleanupDispatcher // optional; nil falls back to a goroutine
	defaultTTL time.Duration
}

// NewLibraryService wires the consistency engine.
func NewLibraryService(books BookStore, collections CollectionStore, store storage.Client, cache *urlcache.Cache) *LibraryService {
	return &LibraryService{
		books:       books,
		collections: collections,
		store:       store,
		cache:       cache,
		defaultTTL:  DefaultAccessTTL,
	}
}

// SetCleanupDispatcher routes best-effort asset cleanup through a task
// queue instead of an ad hoc goroutine.
func (s *LibraryService) SetCleanupDispatcher(d CleanupDispatcher) {
	s.cleanup = d
}

// SetDefaultAccessTTL overrides the URL lifetime used when callers pass 0.
func (s *LibraryService) SetDefaultAccessTTL(ttl time.Duration) {
	if ttl > 0 {
		s.defaultTTL = ttl
	}
}

// DeleteBook removes a book and every reference to it. The database
// fan-out (collection memberships, highlights, bookmarks, the book row)
// commits as one transaction; asset deletion and cache invalidation happen
// after the commit, best-effort, and never fail the call. An orphaned blob
// is a bounded leak, whereas rolling back a committed delete because
// storage cleanup hiccuped would be a worse outcome for the user.
func (s *LibraryService) DeleteBook(ctx context.Context, id, ownerID uint) error {
	book, err := s.books.GetForUser(id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("book %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("load book %d: %w", id, err)
	}

	referencing, err := s.collections.ListContainingBook(id, ownerID)
	if err != nil {
		return fmt.Errorf("load collections for book %d: %w", id, err)
	}

	if err := s.books.DeleteWithReferences(id); err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	if len(referencing) > 0 {
		log.Printf("Removed book %d from %d collection(s)", id, len(referencing))
	}

	// Authoritative state is committed; everything below must not affect
	// the caller's outcome.
	keys := book.AssetKeys()
	s.cache.Invalidate(keys...)
	s.dispatchCleanup(keys)

	return nil
}

// BookPatch carries the updatable book metadata fields; nil means "leave
// unchanged".
type BookPatch struct {
	Title    *string
	Author   *string
	Progress *float64
}

func (p BookPatch) fields() (map[string]any, error) {
	fields := make(map[string]any)
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
		}
		fields["title"] = title
	}
	if p.Author != nil {
		fields["author"] = strings.TrimSpace(*p.Author)
	}
	if p.Progress != nil {
		if *p.Progress < 0 || *p.Progress > 1 {
			return nil, fmt.Errorf("%w: progress must be within [0, 1], got %v", ErrValidation, *p.Progress)
		}
		fields["progress"] = *p.Progress
	}
	return fields, nil
}

// UpdateBook applies a metadata patch to an owned book. The patch is
// validated up front and applied in a single update, so it is never
// partially applied.
func (s *LibraryService) UpdateBook(ctx context.Context, id, ownerID uint, patch BookPatch) error {
	fields, err := patch.fields()
	if err != nil {
		return err
	}

	if _, err := s.books.GetForUser(id, ownerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("book %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("load book %d: %w", id, err)
	}

	if len(fields) == 0 {
		return nil
	}
	return s.books.UpdateMetadata(id, fields)
}

// AccessGrant is a time-limited URL for one stored asset.
type AccessGrant struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GetAccessURL returns a read URL for a book's stored file, serving from
// the cache when a live entry exists and issuing a fresh presigned URL
// otherwise. ttl is clamped to (0, storage.MaxAccessTTL].
func (s *LibraryService) GetAccessURL(ctx context.Context, bookID, ownerID uint, ttl time.Duration) (*AccessGrant, error) {
	book, err := s.ownedBook(bookID, ownerID)
	if err != nil {
		return nil, err
	}
	if book.FileKey == "" {
		return nil, fmt.Errorf("book %d has no stored file: %w", bookID, ErrNotFound)
	}
	return s.grantURL(ctx, book.FileKey, ttl)
}

// GetCoverURL is GetAccessURL for the book's cover asset.
func (s *LibraryService) GetCoverURL(ctx context.Context, bookID, ownerID uint, ttl time.Duration) (*AccessGrant, error) {
	book, err := s.ownedBook(bookID, ownerID)
	if err != nil {
		return nil, err
	}
	if book.CoverKey == "" {
		return nil, fmt.Errorf("book %d has no cover: %w", bookID, ErrNotFound)
	}
	return s.grantURL(ctx, book.CoverKey, ttl)
}

func (s *LibraryService) ownedBook(bookID, ownerID uint) (*entities.Book, error) {
	book, err := s.books.GetForUser(bookID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("book %d: %w", bookID, ErrNotFound)
		}
		return nil, fmt.Errorf("load book %d: %w", bookID, err)
	}
	return book, nil
}

func (s *LibraryService) grantURL(ctx context.Context, key string, ttl time.Duration) (*AccessGrant, error) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if ttl > storage.MaxAccessTTL {
		ttl = storage.MaxAccessTTL
	}

	if entry, ok := s.cache.Get(key); ok {
		return &AccessGrant{URL: entry.URL, ExpiresAt: entry.ExpiresAt}, nil
	}

	url, err := s.store.IssueAccessURL(ctx, key, ttl)
	if err != nil {
		return nil, fmt.Errorf("issue access url for %s: %w", key, err)
	}

	entry := s.cache.Put(key, url, ttl)
	return &AccessGrant{URL: entry.URL, ExpiresAt: entry.ExpiresAt}, nil
}

// dispatchCleanup hands the keys to the configured dispatcher, or falls
// back to a fire-and-forget goroutine. Failures are logged with the
// offending key and never surfaced.
func (s *LibraryService) dispatchCleanup(keys []string) {
	if len(keys) == 0 {
		return
	}
	if s.cleanup != nil {
		s.cleanup.DispatchAssetCleanup(keys)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		for _, key := range keys {
			if err := s.store.DeleteAsset(ctx, key); err != nil {
				log.Printf("WARNING: asset cleanup failed for %s: %v", key, err)
			}
		}
	}()
}
