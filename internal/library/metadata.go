package library

import (
	"strconv"
	"strings"
)

// Metadata is what could be read from a book file. Empty strings mean the
// field was absent.
type Metadata struct {
	Title       string
	Author      string
	Publisher   string
	Date        string
	Language    string
	Description string
	ISBN        string

	// PDF document information only.
	Subject  string
	Creator  string
	Producer string
}

// ParseYear pulls a publication year out of a free-form date. A leading
// four-character year in 1000..2100 wins; otherwise the first four-character
// run anywhere in the string that reads as a year in 1800..2100 is used.
func ParseYear(date string) *int {
	chars := []rune(date)

	if len(chars) >= 4 {
		if year, err := strconv.Atoi(string(chars[:4])); err == nil && year >= 1000 && year <= 2100 {
			return &year
		}
	}

	for i := 0; i+4 <= len(chars); i++ {
		if year, err := strconv.Atoi(string(chars[i : i+4])); err == nil && year >= 1800 && year <= 2100 {
			return &year
		}
	}
	return nil
}

var isbnNoise = strings.NewReplacer(
	"urn:isbn:", "",
	"isbn:", "",
	"ISBN:", "",
	"ISBN ", "",
	"-", "",
	" ", "",
)

// ExtractISBN normalizes an identifier to a bare ISBN-10 or ISBN-13, or
// returns "" if it does not look like one.
func ExtractISBN(s string) string {
	cleaned := isbnNoise.Replace(s)

	var b strings.Builder
	for _, r := range cleaned {
		if (r >= '0' && r <= '9') || r == 'X' || r == 'x' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if len(digits) == 10 || len(digits) == 13 {
		return digits
	}
	return ""
}
