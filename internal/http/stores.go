package http

import (
	"context"
	"time"

	"github.com/ndemidov/liber/internal/entities"
	"github.com/ndemidov/liber/internal/services"
)

// Interfaces the controllers consume. Controllers depend on these rather
// than on the concrete repositories and services so tests can swap fakes in.

// BookReader provides read access to a user's books.
type BookReader interface {
	GetForUser(id, userID uint) (*entities.Book, error)
	ListForUser(userID uint) ([]entities.Book, error)
	CountForUser(userID uint) (int64, error)
}

// Library is the consistency engine surface: mutations that must keep
// books, collection memberships, annotations, cached URLs, and stored
// assets coherent.
type Library interface {
	DeleteBook(ctx context.Context, id, ownerID uint) error
	UpdateBook(ctx context.Context, id, ownerID uint, patch services.BookPatch) error
	BulkDeleteBooks(ctx context.Context, ids []uint, ownerID uint, limit int) *services.BulkResult
	GetAccessURL(ctx context.Context, bookID, ownerID uint, ttl time.Duration) (*services.AccessGrant, error)
	GetCoverURL(ctx context.Context, bookID, ownerID uint, ttl time.Duration) (*services.AccessGrant, error)
}

// CollectionStore provides collection CRUD and membership management.
type CollectionStore interface {
	Create(name string, userID uint) (*entities.Collection, error)
	GetForUser(id, userID uint) (*entities.Collection, error)
	ListForUser(userID uint) ([]entities.Collection, error)
	AddBook(collectionID, bookID, userID uint) error
	RemoveBook(collectionID, bookID, userID uint) error
	Delete(id, userID uint) error
}

// AnnotationStore provides highlight and bookmark persistence.
type AnnotationStore interface {
	CreateHighlight(h *entities.Highlight) error
	GetHighlightForUser(id, userID uint) (*entities.Highlight, error)
	ListHighlightsForBook(bookID, userID uint) ([]entities.Highlight, error)
	UpdateHighlight(id, userID uint, color, note string) (*entities.Highlight, error)
	DeleteHighlight(id, userID uint) error
	CreateBookmark(b *entities.Bookmark) error
	GetBookmarkForUser(id, userID uint) (*entities.Bookmark, error)
	ListBookmarksForBook(bookID, userID uint) ([]entities.Bookmark, error)
	UpdateBookmarkLabel(id, userID uint, label string) (*entities.Bookmark, error)
	DeleteBookmark(id, userID uint) error
}
