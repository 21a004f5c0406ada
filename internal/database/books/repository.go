// Package books provides database operations for the book library.
//
// All reads are ownership-scoped: a book that exists but belongs to another
// user is indistinguishable from one that does not exist.
package books

import (
	"gorm.io/gorm"

	"github.com/ndemidov/liber/internal/entities"
)

// Repository handles book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new book row.
func (r *Repository) Create(book *entities.Book) error {
	return r.db.Create(book).Error
}

// GetForUser returns the book only when it exists and belongs to userID.
func (r *Repository) GetForUser(id, userID uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ListForUser retrieves all of a user's books ordered by title.
func (r *Repository) ListForUser(userID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Where("user_id = ?", userID).Order("title ASC").Find(&books).Error
	return books, err
}

// DeleteWithReferences removes the book row together with every row that
// references it: collection memberships, highlights, and bookmarks. The
// whole fan-out is submitted as one transaction, so either every reference
// and the book row are gone or nothing changed.
func (r *Repository) DeleteWithReferences(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM collection_books WHERE book_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.Highlight{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.Bookmark{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Book{}, id).Error
	})
}

// UpdateMetadata updates specific metadata fields on a book.
func (r *Repository) UpdateMetadata(id uint, fields map[string]any) error {
	return r.db.Model(&entities.Book{}).Where("id = ?", id).Updates(fields).Error
}

// CountForUser returns how many books a user owns.
func (r *Repository) CountForUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
