// Package annotations provides database operations for highlights and
// bookmarks. Anchor payloads are immutable after creation: updates are
// restricted to color, note, and label fields, and repositioning is modeled
// as delete + create.
package annotations

import (
	"gorm.io/gorm"

	"github.com/ndemidov/liber/internal/entities"
)

// Repository handles highlight and bookmark database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new annotations repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateHighlight inserts a new highlight row.
func (r *Repository) CreateHighlight(h *entities.Highlight) error {
	return r.db.Create(h).Error
}

// GetHighlightForUser returns a highlight, ownership-scoped.
func (r *Repository) GetHighlightForUser(id, userID uint) (*entities.Highlight, error) {
	var h entities.Highlight
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&h).Error
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ListHighlightsForBook retrieves a book's highlights, newest first.
func (r *Repository) ListHighlightsForBook(bookID, userID uint) ([]entities.Highlight, error) {
	var highlights []entities.Highlight
	err := r.db.Where("book_id = ? AND user_id = ?", bookID, userID).
		Order("created_at DESC").Find(&highlights).Error
	return highlights, err
}

// UpdateHighlight changes a highlight's color and note. The anchor payload
// is deliberately not updatable.
func (r *Repository) UpdateHighlight(id, userID uint, color, note string) (*entities.Highlight, error) {
	h, err := r.GetHighlightForUser(id, userID)
	if err != nil {
		return nil, err
	}
	err = r.db.Model(h).Updates(map[string]any{
		"color": color,
		"note":  note,
	}).Error
	if err != nil {
		return nil, err
	}
	return h, nil
}

// DeleteHighlight removes a highlight, ownership-scoped.
func (r *Repository) DeleteHighlight(id, userID uint) error {
	h, err := r.GetHighlightForUser(id, userID)
	if err != nil {
		return err
	}
	return r.db.Delete(h).Error
}

// CreateBookmark inserts a new bookmark row.
func (r *Repository) CreateBookmark(b *entities.Bookmark) error {
	return r.db.Create(b).Error
}

// GetBookmarkForUser returns a bookmark, ownership-scoped.
func (r *Repository) GetBookmarkForUser(id, userID uint) (*entities.Bookmark, error) {
	var b entities.Bookmark
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBookmarksForBook retrieves a book's bookmarks, newest first.
func (r *Repository) ListBookmarksForBook(bookID, userID uint) ([]entities.Bookmark, error) {
	var bookmarks []entities.Bookmark
	err := r.db.Where("book_id = ? AND user_id = ?", bookID, userID).
		Order("created_at DESC").Find(&bookmarks).Error
	return bookmarks, err
}

// UpdateBookmarkLabel renames a bookmark.
func (r *Repository) UpdateBookmarkLabel(id, userID uint, label string) (*entities.Bookmark, error) {
	b, err := r.GetBookmarkForUser(id, userID)
	if err != nil {
		return nil, err
	}
	if err := r.db.Model(b).Update("label", label).Error; err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteBookmark removes a bookmark, ownership-scoped.
func (r *Repository) DeleteBookmark(id, userID uint) error {
	b, err := r.GetBookmarkForUser(id, userID)
	if err != nil {
		return err
	}
	return r.db.Delete(b).Error
}
