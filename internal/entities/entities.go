package entities

import (
	"time"

	"gorm.io/gorm"
)

type BookFormat string

const (
	FormatEpub BookFormat = "epub"
	FormatPDF  BookFormat = "pdf"
	FormatText BookFormat = "txt"
)

// Valid reports whether f is one of the three supported formats.
func (f BookFormat) Valid() bool {
	switch f {
	case FormatEpub, FormatPDF, FormatText:
		return true
	}
	return false
}

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:100" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:255" json:"email"`
	Token     string         `gorm:"uniqueIndex;size:64" json:"-"` // API token, hidden from JSON
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

type Book struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index" json:"user_id"`
	Title     string     `gorm:"index;size:512" json:"title"`
	Author    string     `gorm:"index;size:256" json:"author,omitempty"`
	Format    BookFormat `gorm:"size:10" json:"format"`
	FileKey   string     `gorm:"index;size:512" json:"-"` // object-store key of the uploaded file
	CoverKey  string     `gorm:"size:512" json:"-"`       // object-store key of the extracted cover
	SizeBytes int64      `json:"size_bytes,omitempty"`
	Progress  float64    `gorm:"default:0" json:"progress"` // 0.0-1.0 reading position

	User        User         `gorm:"foreignKey:UserID" json:"-"`
	Highlights  []Highlight  `gorm:"foreignKey:BookID" json:"highlights,omitempty"`
	Bookmarks   []Bookmark   `gorm:"foreignKey:BookID" json:"bookmarks,omitempty"`
	Collections []Collection `gorm:"many2many:collection_books;" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// AssetKeys returns the object-store keys owned by the book, skipping the
// ones that were never set.
func (b Book) AssetKeys() []string {
	var keys []string
	if b.FileKey != "" {
		keys = append(keys, b.FileKey)
	}
	if b.CoverKey != "" {
		keys = append(keys, b.CoverKey)
	}
	return keys
}

type Collection struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"index" json:"user_id"`
	Name   string `gorm:"index;size:100" json:"name"`

	User  User   `gorm:"foreignKey:UserID" json:"-"`
	Books []Book `gorm:"many2many:collection_books;" json:"books,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Highlight struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	BookID uint   `gorm:"index" json:"book_id"`
	UserID uint   `gorm:"index" json:"user_id"`
	Text   string `gorm:"type:text" json:"text"`
	Note   string `gorm:"type:text" json:"note,omitempty"`
	Color  string `gorm:"size:10" json:"color,omitempty"` // Hex color code

	// Position information. Anchor carries the encoded format-specific
	// payload and is immutable after creation; moving a highlight is
	// modeled as delete + create.
	Format BookFormat `gorm:"size:10" json:"format"`
	Anchor string     `gorm:"type:text" json:"-"`

	Book Book `gorm:"foreignKey:BookID" json:"-"`
	User User `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

type Bookmark struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	BookID uint   `gorm:"index" json:"book_id"`
	UserID uint   `gorm:"index" json:"user_id"`
	Label  string `gorm:"size:256" json:"label,omitempty"`

	Format BookFormat `gorm:"size:10" json:"format"`
	Anchor string     `gorm:"type:text" json:"-"`

	Book Book `gorm:"foreignKey:BookID" json:"-"`
	User User `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string {
	return "users"
}

func (Book) TableName() string {
	return "books"
}

func (Collection) TableName() string {
	return "collections"
}

func (Highlight) TableName() string {
	return "highlights"
}

func (Bookmark) TableName() string {
	return "bookmarks"
}
