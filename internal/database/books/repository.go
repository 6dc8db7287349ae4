// Package books is the book record store.
//
// # Usage
//
//	repo := books.NewRepository(db.DB)
//	book, err := repo.Create(books.BookInput{Title: "Invisible Cities"})
//	matches, err := repo.FindByTitle("Invisible Cities")
//
// Lookups return database.ErrNotFound for missing ids, and writes that hit the
// unique filepath index return database.ErrConstraintViolation.
package books

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/alaya/internal/database"
	"github.com/mrlokans/alaya/internal/entities"
)

var (
	ErrTitleRequired    = errors.New("title is required")
	ErrFilepathRequired = errors.New("filepath is required")
)

// BookInput carries the fields of a new book.
type BookInput struct {
	Title           string
	Author          *string
	PublicationYear *int
	Filepath        *string
	Notes           *string

	// ISBN is accepted from metadata sources but not stored: the books table
	// dropped its isbn column and ISBNs are intentionally discarded.
	ISBN *string
}

// Field is a partial-update value: untouched, set to a value, or cleared to NULL.
type Field[T any] struct {
	set   bool
	value *T
}

// Set returns a field update that stores v.
func Set[T any](v T) Field[T] {
	return Field[T]{set: true, value: &v}
}

// Clear returns a field update that stores NULL.
func Clear[T any]() Field[T] {
	return Field[T]{set: true}
}

// SetOrClear stores v when non-nil and NULL otherwise.
func SetOrClear[T any](v *T) Field[T] {
	if v == nil {
		return Clear[T]()
	}
	return Set(*v)
}

// IsSet reports whether the field takes part in the update.
func (f Field[T]) IsSet() bool { return f.set }

func (f Field[T]) sqlValue() any {
	if f.value == nil {
		return nil
	}
	return *f.value
}

// BookUpdate lists the fields to change; zero-valued fields are left alone.
type BookUpdate struct {
	Title           *string
	Author          Field[string]
	PublicationYear Field[int]
	Filepath        Field[string]
	Notes           Field[string]
}

// ListFilter narrows List results. Zero values disable a criterion.
type ListFilter struct {
	Author    string // exact match
	Title     string // case-insensitive substring
	Year      int    // exact publication year
	WithNotes bool   // only books with non-blank notes
	Limit     int
}

// Repository handles all book database operations.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Create inserts a new book with a fresh id and both timestamps set to now.
func (r *Repository) Create(input BookInput) (*entities.Book, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	now := r.now().UTC()
	book := &entities.Book{
		ID:              uuid.NewString(),
		Title:           title,
		Author:          input.Author,
		PublicationYear: input.PublicationYear,
		Filepath:        nonBlank(input.Filepath),
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := r.db.Create(book).Error; err != nil {
		return nil, translateError(err)
	}
	return book, nil
}

// nonBlank maps a blank filepath to NULL so it stays out of the unique index.
func nonBlank(path *string) *string {
	if path == nil || strings.TrimSpace(*path) == "" {
		return nil
	}
	return path
}

// Get retrieves a book by id.
func (r *Repository) Get(id string) (*entities.Book, error) {
	return get(r.db, id)
}

// FindByTitle returns books whose title equals title exactly. It is served by
// the title index and used to avoid creating duplicates.
func (r *Repository) FindByTitle(title string) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Where("title = ?", strings.TrimSpace(title)).
		Order("created_at DESC").
		Find(&books).Error
	if err != nil {
		return nil, err
	}
	return books, nil
}

// FindByFilepath retrieves the book linked to a library file.
func (r *Repository) FindByFilepath(path string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("filepath = ?", path).First(&book).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &book, nil
}

// Update applies a partial update and moves updated_at strictly forward.
func (r *Repository) Update(id string, update BookUpdate) (*entities.Book, error) {
	fields := map[string]any{}
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		fields["title"] = title
	}
	if update.Author.IsSet() {
		fields["author"] = update.Author.sqlValue()
	}
	if update.PublicationYear.IsSet() {
		fields["publication_year"] = update.PublicationYear.sqlValue()
	}
	if update.Filepath.IsSet() {
		if path := nonBlank(update.Filepath.value); path != nil {
			fields["filepath"] = *path
		} else {
			fields["filepath"] = nil
		}
	}
	if update.Notes.IsSet() {
		fields["notes"] = update.Notes.sqlValue()
	}

	var updated *entities.Book
	err := r.db.Transaction(func(tx *gorm.DB) error {
		current, err := get(tx, id)
		if err != nil {
			return err
		}

		fields["updated_at"] = r.nextUpdatedAt(current.UpdatedAt)
		if err := tx.Model(&entities.Book{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return translateError(err)
		}

		updated, err = get(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a book permanently.
func (r *Repository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&entities.Book{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// List returns books newest first, narrowed by filter.
func (r *Repository) List(filter ListFilter) ([]entities.Book, error) {
	query := r.db.Model(&entities.Book{})

	if author := strings.TrimSpace(filter.Author); author != "" {
		query = query.Where("author = ?", author)
	}
	if title := strings.TrimSpace(filter.Title); title != "" {
		query = query.Where("LOWER(title) LIKE LOWER(?)", "%"+title+"%")
	}
	if filter.Year != 0 {
		query = query.Where("publication_year = ?", filter.Year)
	}
	if filter.WithNotes {
		query = query.Where("notes IS NOT NULL AND TRIM(notes) != ''")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var books []entities.Book
	if err := query.Order("created_at DESC").Order("id").Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// UpsertByFilepath creates the book for input.Filepath or refreshes the
// title, author and year of the existing one. Notes are never touched.
// The boolean result reports whether a new record was created.
func (r *Repository) UpsertByFilepath(input BookInput) (*entities.Book, bool, error) {
	if input.Filepath == nil || *input.Filepath == "" {
		return nil, false, ErrFilepathRequired
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, false, ErrTitleRequired
	}

	var (
		book    *entities.Book
		created bool
	)
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing entities.Book
		err := tx.Where("filepath = ?", *input.Filepath).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			now := r.now().UTC()
			book = &entities.Book{
				ID:              uuid.NewString(),
				Title:           title,
				Author:          input.Author,
				PublicationYear: input.PublicationYear,
				Filepath:        input.Filepath,
				Notes:           input.Notes,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			created = true
			return translateError(tx.Create(book).Error)
		}
		if err != nil {
			return err
		}

		fields := map[string]any{
			"title":            title,
			"author":           SetOrClear(input.Author).sqlValue(),
			"publication_year": SetOrClear(input.PublicationYear).sqlValue(),
			"updated_at":       r.nextUpdatedAt(existing.UpdatedAt),
		}
		if err := tx.Model(&entities.Book{}).Where("id = ?", existing.ID).Updates(fields).Error; err != nil {
			return translateError(err)
		}
		book, err = get(tx, existing.ID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return book, created, nil
}

// Count returns the total number of books.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Count(&count).Error
	return count, err
}

// nextUpdatedAt returns the current time, nudged past prev when the clock has
// not advanced since the previous write.
func (r *Repository) nextUpdatedAt(prev time.Time) time.Time {
	now := r.now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond).UTC()
	}
	return now
}

func get(db *gorm.DB, id string) (*entities.Book, error) {
	var book entities.Book
	err := db.Where("id = ?", id).First(&book).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &book, nil
}

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return database.ErrNotFound
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", database.ErrConstraintViolation, err)
	default:
		return err
	}
}
