package library

import (
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
)

var ErrNoDocumentInfo = errors.New("pdf has no document information dictionary")

// ReadPDFMetadata reads the document information dictionary of the PDF at
// filename. Values that are not printable text are dropped.
func ReadPDFMetadata(filename string) (md *Metadata, err error) {
	// The reader panics on malformed object graphs.
	defer func() {
		if r := recover(); r != nil {
			md, err = nil, errors.Errorf("malformed pdf: %v", r)
		}
	}()

	f, reader, err := pdf.Open(filename)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	info := reader.Trailer().Key("Info")
	if info.Kind() != pdf.Dict {
		return nil, ErrNoDocumentInfo
	}

	text := func(key string) string {
		value := strings.TrimSpace(info.Key(key).Text())
		if !isPrintableText(value) {
			return ""
		}
		return value
	}

	return &Metadata{
		Title:    text("Title"),
		Author:   text("Author"),
		Subject:  text("Subject"),
		Creator:  text("Creator"),
		Producer: text("Producer"),
		Date:     text("CreationDate"),
	}, nil
}

// isPrintableText rejects empty strings, decoding leftovers and control
// characters other than tab, newline and carriage return.
func isPrintableText(s string) bool {
	if s == "" || !utf8.ValidString(s) || strings.ContainsRune(s, utf8.RuneError) {
		return false
	}
	for _, r := range s {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
		case r < 0x20 || r == 0x7f || (r >= 0x80 && r <= 0x9f):
			return false
		}
	}
	return true
}
