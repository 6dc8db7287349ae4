package library

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

// ErrOutsideLibrary is returned for book paths that escape the library root.
var ErrOutsideLibrary = errors.New("path is outside the library")

var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"epub": "application/epub+zip",
	"mobi": "application/x-mobipocket-ebook",
	"txt":  "text/plain",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ResolvePath joins a stored book filepath onto the library root and rejects
// anything that would leave it.
func ResolvePath(root, rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", ErrOutsideLibrary
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", errors.WithStack(err)
	}
	full := filepath.Join(absRoot, filepath.FromSlash(rel))

	within, err := filepath.Rel(absRoot, full)
	if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
		return "", ErrOutsideLibrary
	}
	return full, nil
}

// ContentType picks the download content type for path: known book formats
// by extension, anything else by sniffing, application/octet-stream last.
func ContentType(path string) string {
	if ct, ok := contentTypes[formatOf(path)]; ok {
		return ct
	}
	if mtype, err := mimetype.DetectFile(path); err == nil {
		return mtype.String()
	}
	return "application/octet-stream"
}
