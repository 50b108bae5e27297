package model

import (
	"strconv"
	"time"
)

// Book is a catalog entry. EditorID and AuthorID reference Editor and Author;
// deleting either clears the reference.
type Book struct {
	ID              int64      `json:"id" gorm:"primaryKey"`
	BookRef         int64      `json:"bookRef" gorm:"not null" validate:"required"`
	PublicationYear *Timestamp `json:"publicationYear"`
	Price           *float64   `json:"price" validate:"omitempty,gte=0"`
	Summary         *string    `json:"summary"`
	EditorWord      *string    `json:"editorWord"`
	BookSellerWord  *string    `json:"bookSellerWord"`
	Details         Document   `json:"details" gorm:"type:jsonb"`
	EditorID        *int64     `json:"editorId"`
	AuthorID        *int64     `json:"authorId"`
	CreatedAt       time.Time  `json:"-"`
	UpdatedAt       time.Time  `json:"-"`
}

func (Book) TableName() string { return "books" }

func (b Book) Validate() error { return validate.Struct(b) }

func (b Book) NaturalKey() map[string]any {
	return map[string]any{"bookRef": b.BookRef}
}

// EditorRef returns the referenced editor id, "" when unset.
func (b Book) EditorRef() string { return optionalID(b.EditorID) }

// AuthorRef returns the referenced author id, "" when unset.
func (b Book) AuthorRef() string { return optionalID(b.AuthorID) }

func optionalID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}
