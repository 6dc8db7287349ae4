// Package library finds book files on disk and turns them into book records.
//
// # Usage
//
//	scanner := library.NewScanner()
//	files, err := scanner.Scan(ctx, "/srv/books")
//	result := scanner.Save(ctx, books.NewRepository(db.DB), files)
package library

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"

	"github.com/mrlokans/alaya/internal/database/books"
	"github.com/mrlokans/alaya/internal/entities"
)

// Extensions lists the book formats the scanner picks up, lower case and
// without the dot.
var Extensions = []string{"epub", "mobi", "pdf", "docx", "txt"}

var ErrNotDirectory = errors.New("not a directory")

// BookFile is one book file found under a scanned directory.
type BookFile struct {
	Path     string // absolute path on disk
	RelPath  string // slash-separated path relative to the scanned directory
	Format   string // lower-case extension
	MIME     string // sniffed content type, "" if detection failed
	Metadata Metadata
}

// ScanResult summarizes a Save run.
type ScanResult struct {
	Found   int
	Saved   int
	Created int
	Skipped int
	Errors  int
}

// Outcome is the result of saving a single file.
type Outcome int

const (
	OutcomeSaved Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

// BookStore is the part of the book record store the scanner writes to.
type BookStore interface {
	UpsertByFilepath(input books.BookInput) (*entities.Book, bool, error)
}

// Scanner walks directories for book files.
type Scanner struct {
	extensions map[string]bool
}

// NewScanner creates a scanner for the supported book formats.
func NewScanner() *Scanner {
	exts := make(map[string]bool, len(Extensions))
	for _, ext := range Extensions {
		exts[ext] = true
	}
	return &Scanner{extensions: exts}
}

// IsBookFile reports whether name has a supported extension, ignoring case.
func (s *Scanner) IsBookFile(name string) bool {
	return s.extensions[formatOf(name)]
}

func formatOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// Scan walks dir recursively and returns its book files in lexical order.
// Unreadable entries below dir are logged and skipped.
func (s *Scanner) Scan(ctx context.Context, dir string) ([]BookFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "directory %q", dir)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(ErrNotDirectory, "%q", dir)
	}

	base, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var files []BookFile
	err = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == base {
				return errors.WithStack(err)
			}
			log.Printf("Skipping unreadable path %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() || !s.IsBookFile(path) {
			return nil
		}

		rel, err := filepath.Rel(base, path)
		if err != nil {
			return errors.WithStack(err)
		}
		files = append(files, s.inspect(path, filepath.ToSlash(rel)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// inspect sniffs the content type and reads whatever metadata the format offers.
func (s *Scanner) inspect(path, rel string) BookFile {
	f := BookFile{
		Path:    path,
		RelPath: rel,
		Format:  formatOf(path),
	}

	if mtype, err := mimetype.DetectFile(path); err == nil {
		f.MIME = mtype.String()
	} else {
		log.Printf("Can't detect the mime type of %s: %v", path, err)
	}

	switch f.Format {
	case "epub":
		md, err := ReadEPUBMetadata(path)
		if err != nil {
			log.Printf("Failed to read epub metadata from %s: %v", path, err)
			return f
		}
		f.Metadata = *md
	case "pdf":
		md, err := ReadPDFMetadata(path)
		if err != nil {
			log.Printf("Failed to read pdf metadata from %s: %v", path, err)
		} else {
			f.Metadata = *md
		}
		if f.Metadata.Title == "" {
			f.Metadata.Title = fileStem(path)
		}
	default:
		f.Metadata.Title = fileStem(path)
	}
	return f
}

func fileStem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// Input converts the file into a book record input. ok is false when the
// file has no usable title.
func (f BookFile) Input() (books.BookInput, bool) {
	title := strings.TrimSpace(f.Metadata.Title)
	if title == "" {
		return books.BookInput{}, false
	}

	rel := f.RelPath
	return books.BookInput{
		Title:           title,
		Author:          entities.StringPtr(f.Metadata.Author),
		PublicationYear: ParseYear(f.Metadata.Date),
		Filepath:        &rel,
		ISBN:            entities.StringPtr(f.Metadata.ISBN),
	}, true
}

// SaveFile upserts one file into store by its relative path.
func (s *Scanner) SaveFile(store BookStore, f BookFile) (Outcome, bool, error) {
	input, ok := f.Input()
	if !ok {
		return OutcomeSkipped, false, nil
	}
	_, created, err := store.UpsertByFilepath(input)
	if err != nil {
		return OutcomeFailed, false, errors.Wrapf(err, "save %s", f.RelPath)
	}
	return OutcomeSaved, created, nil
}

// Save upserts every file with a title. Failures are logged and counted;
// they never stop the run.
func (s *Scanner) Save(ctx context.Context, store BookStore, files []BookFile) ScanResult {
	result := ScanResult{Found: len(files)}

	for _, f := range files {
		if ctx.Err() != nil {
			log.Printf("Library save interrupted: %v", ctx.Err())
			break
		}

		outcome, created, err := s.SaveFile(store, f)
		switch outcome {
		case OutcomeSaved:
			result.Saved++
			if created {
				result.Created++
			}
		case OutcomeSkipped:
			result.Skipped++
		case OutcomeFailed:
			result.Errors++
			log.Printf("Failed to save book file: %v", err)
		}
	}
	return result
}
