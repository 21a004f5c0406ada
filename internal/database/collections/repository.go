// Package collections provides database operations for user collections and
// their book membership lists.
package collections

import (
	"gorm.io/gorm"

	"github.com/ndemidov/liber/internal/entities"
)

// Repository handles collection database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new collections repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new, empty collection for a user.
func (r *Repository) Create(name string, userID uint) (*entities.Collection, error) {
	collection := &entities.Collection{
		Name:   name,
		UserID: userID,
	}
	if err := r.db.Create(collection).Error; err != nil {
		return nil, err
	}
	return collection, nil
}

// GetForUser returns a collection with its books, ownership-scoped.
func (r *Repository) GetForUser(id, userID uint) (*entities.Collection, error) {
	var collection entities.Collection
	err := r.db.Preload("Books").
		Where("id = ? AND user_id = ?", id, userID).
		First(&collection).Error
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

// ListForUser retrieves all of a user's collections.
func (r *Repository) ListForUser(userID uint) ([]entities.Collection, error) {
	var collections []entities.Collection
	err := r.db.Where("user_id = ?", userID).Order("name ASC").Find(&collections).Error
	return collections, err
}

// AddBook attaches a book to a collection. Both must belong to userID, and
// adding a book that is already a member is a no-op, keeping membership
// lists free of duplicates.
func (r *Repository) AddBook(collectionID, bookID, userID uint) error {
	var collection entities.Collection
	if err := r.db.Where("id = ? AND user_id = ?", collectionID, userID).First(&collection).Error; err != nil {
		return err
	}
	var book entities.Book
	if err := r.db.Where("id = ? AND user_id = ?", bookID, userID).First(&book).Error; err != nil {
		return err
	}

	var count int64
	err := r.db.Table("collection_books").
		Where("collection_id = ? AND book_id = ?", collectionID, bookID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return r.db.Model(&collection).Association("Books").Append(&book)
}

// RemoveBook detaches a book from a collection. Removing a book that is not
// a member is a no-op.
func (r *Repository) RemoveBook(collectionID, bookID, userID uint) error {
	var collection entities.Collection
	if err := r.db.Where("id = ? AND user_id = ?", collectionID, userID).First(&collection).Error; err != nil {
		return err
	}
	return r.db.Exec(
		"DELETE FROM collection_books WHERE collection_id = ? AND book_id = ?",
		collectionID, bookID,
	).Error
}

// ListContainingBook returns the user's collections whose membership list
// includes bookID.
func (r *Repository) ListContainingBook(bookID, userID uint) ([]entities.Collection, error) {
	var collections []entities.Collection
	err := r.db.
		Joins("JOIN collection_books ON collection_books.collection_id = collections.id").
		Where("collection_books.book_id = ? AND collections.user_id = ?", bookID, userID).
		Find(&collections).Error
	return collections, err
}

// BookIDs returns the ids of the books in a collection.
func (r *Repository) BookIDs(collectionID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Table("collection_books").
		Where("collection_id = ?", collectionID).
		Pluck("book_id", &ids).Error
	return ids, err
}

// Delete removes a collection and its membership rows. The books themselves
// are untouched.
func (r *Repository) Delete(id, userID uint) error {
	var collection entities.Collection
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&collection).Error; err != nil {
		return err
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM collection_books WHERE collection_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Collection{}, id).Error
	})
}
