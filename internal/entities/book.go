package entities

import (
	"strings"
	"time"
)

// Book is a single entry in the notes library. Optional columns are pointers
// so that NULL survives a round-trip; in particular an absent filepath must not
// collide with other absent filepaths under the unique index.
type Book struct {
	ID              string    `gorm:"primaryKey;type:text" json:"id"`
	Title           string    `gorm:"not null" json:"title"`
	Author          *string   `json:"author,omitempty"`
	PublicationYear *int      `json:"publication_year,omitempty"`
	Filepath        *string   `gorm:"column:filepath" json:"filepath,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
	CreatedAt       time.Time `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

// HasNotes reports whether the book carries non-blank notes.
func (b *Book) HasNotes() bool {
	return b.Notes != nil && strings.TrimSpace(*b.Notes) != ""
}

// HasFile reports whether a library file is associated with the book.
func (b *Book) HasFile() bool {
	return b.Filepath != nil && *b.Filepath != ""
}

// AuthorOr returns the author or the fallback when none is recorded.
func (b *Book) AuthorOr(fallback string) string {
	if b.Author == nil || *b.Author == "" {
		return fallback
	}
	return *b.Author
}

// CreatedDate returns the creation date formatted for display.
func (b *Book) CreatedDate() string {
	return b.CreatedAt.Format("2006-01-02")
}

// StringPtr returns nil for blank strings and a pointer to the trimmed value otherwise.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// IntPtr returns a pointer to i.
func IntPtr(i int) *int {
	return &i
}
