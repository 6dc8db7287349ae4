package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/alaya/internal/database"
	"github.com/mrlokans/alaya/internal/database/books"
)

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondStoreError maps a book store error onto a JSON response.
func respondStoreError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondNotFound(c, "book")
	case errors.Is(err, database.ErrConstraintViolation):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "a book with this filepath already exists"})
	case errors.Is(err, books.ErrTitleRequired):
		respondBadRequest(c, "title is required")
	default:
		respondInternalError(c, err, context)
	}
}

// wantsJSON reports whether the client asked for a JSON answer.
func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// optionalString trims a form value; blank values become nil.
func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// optionalYear parses a publication year form value. Anything that is not a
// whole number is treated as absent.
func optionalYear(value string) *int {
	year, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return nil
	}
	return &year
}

// listFilterFromQuery reads the book list filters from the query string.
func listFilterFromQuery(c *gin.Context) books.ListFilter {
	filter := books.ListFilter{
		Author:    c.Query("author"),
		Title:     c.Query("title"),
		WithNotes: c.Query("notes") == "true",
	}
	if year := optionalYear(c.Query("year")); year != nil {
		filter.Year = *year
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	return filter
}

// bookPath returns the detail page URL of a book.
func bookPath(id string) string {
	return "/books/" + id
}
