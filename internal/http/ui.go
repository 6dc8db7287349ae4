package http

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/alaya/internal/database"
	"github.com/mrlokans/alaya/internal/database/books"
	"github.com/mrlokans/alaya/internal/library"
	"github.com/mrlokans/alaya/internal/tasks"
)

// UIController serves the book pages.
type UIController struct {
	books       BookStore
	tasks       TaskQueue
	libraryPath string
}

func NewUIController(store BookStore, queue TaskQueue, libraryPath string) *UIController {
	return &UIController{
		books:       store,
		tasks:       queue,
		libraryPath: libraryPath,
	}
}

// BooksPage lists books, newest first. ?notes=true keeps books with notes.
func (controller *UIController) BooksPage(c *gin.Context) {
	filter := listFilterFromQuery(c)
	list, err := controller.books.List(filter)
	if err != nil {
		log.Printf("Error loading books: %v", err)
		c.String(http.StatusInternalServerError, "Error loading books")
		return
	}

	c.HTML(http.StatusOK, "books", pageData(c, "Books", gin.H{
		"Books":  list,
		"Filter": filter,
	}))
}

func (controller *UIController) BookPage(c *gin.Context) {
	book, err := controller.books.Get(c.Param("id"))
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.Printf("Error fetching book: %v", err)
		}
		c.Redirect(http.StatusFound, "/")
		return
	}

	c.HTML(http.StatusOK, "book", pageData(c, book.Title, gin.H{
		"Book":     book,
		"Tasks":    controller.tasks != nil,
		"Enqueued": c.Query("summary") == "queued",
	}))
}

func (controller *UIController) NewBookPage(c *gin.Context) {
	c.HTML(http.StatusOK, "book-form", pageData(c, "Add book", nil))
}

func (controller *UIController) CreateBook(c *gin.Context) {
	input := books.BookInput{
		Title:           strings.TrimSpace(c.PostForm("title")),
		Author:          optionalString(c.PostForm("author")),
		PublicationYear: optionalYear(c.PostForm("publication_year")),
		Notes:           optionalString(c.PostForm("notes")),
	}

	renderError := func(status int, message string) {
		c.HTML(status, "book-form", pageData(c, "Add book", gin.H{
			"Error": message,
			"Form":  input,
		}))
	}

	if input.Title == "" {
		renderError(http.StatusBadRequest, "Title is required")
		return
	}

	if _, err := controller.books.Create(input); err != nil {
		log.Printf("Book creation error: %v", err)
		if errors.Is(err, database.ErrConstraintViolation) {
			renderError(http.StatusConflict, "A book for this file already exists")
			return
		}
		renderError(http.StatusInternalServerError, "Could not create book. Please try again.")
		return
	}

	c.Redirect(http.StatusFound, "/")
}

func (controller *UIController) EditBookPage(c *gin.Context) {
	book, err := controller.books.Get(c.Param("id"))
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.Printf("Error fetching book: %v", err)
		}
		c.Redirect(http.StatusFound, "/")
		return
	}

	c.HTML(http.StatusOK, "book-edit", pageData(c, "Edit "+book.Title, gin.H{"Book": book}))
}

// UpdateBook changes title, author and publication year. Blank author or year
// clears the stored value.
func (controller *UIController) UpdateBook(c *gin.Context) {
	id := c.Param("id")
	title := strings.TrimSpace(c.PostForm("title"))

	renderError := func(status int, message string) {
		book, err := controller.books.Get(id)
		if err != nil {
			c.Redirect(http.StatusFound, "/")
			return
		}
		c.HTML(status, "book-edit", pageData(c, "Edit "+book.Title, gin.H{
			"Book":  book,
			"Error": message,
		}))
	}

	if title == "" {
		renderError(http.StatusBadRequest, "Title is required")
		return
	}

	_, err := controller.books.Update(id, books.BookUpdate{
		Title:           &title,
		Author:          books.SetOrClear(optionalString(c.PostForm("author"))),
		PublicationYear: books.SetOrClear(optionalYear(c.PostForm("publication_year"))),
	})
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, bookPath(id))
	case errors.Is(err, database.ErrNotFound):
		c.Redirect(http.StatusFound, "/")
	default:
		log.Printf("Book update error: %v", err)
		renderError(http.StatusInternalServerError, "Could not update book. Please try again.")
	}
}

func (controller *UIController) NotesPage(c *gin.Context) {
	book, err := controller.books.Get(c.Param("id"))
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.Printf("Error fetching book: %v", err)
		}
		c.Redirect(http.StatusFound, "/")
		return
	}

	c.HTML(http.StatusOK, "book-notes", pageData(c, "Notes for "+book.Title, gin.H{"Book": book}))
}

// UpdateNotes replaces the notes of a book; blank notes are cleared.
func (controller *UIController) UpdateNotes(c *gin.Context) {
	id := c.Param("id")

	notes := optionalString(c.PostForm("notes"))
	_, err := controller.books.Update(id, books.BookUpdate{
		Notes: books.SetOrClear(notes),
	})
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, bookPath(id))
	case errors.Is(err, database.ErrNotFound):
		c.Redirect(http.StatusFound, "/")
	default:
		log.Printf("Notes update error: %v", err)
		book, getErr := controller.books.Get(id)
		if getErr != nil {
			c.String(http.StatusInternalServerError, "Could not save notes")
			return
		}
		// Keep what the user typed in the form.
		book.Notes = notes
		c.HTML(http.StatusInternalServerError, "book-notes", pageData(c, "Notes for "+book.Title, gin.H{
			"Book":  book,
			"Error": "Could not save notes. Please try again.",
		}))
	}
}

func (controller *UIController) DeleteBook(c *gin.Context) {
	err := controller.books.Delete(c.Param("id"))
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		log.Printf("Error deleting book: %v", err)
		c.String(http.StatusInternalServerError, "Could not delete book")
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// DownloadBook streams the library file of a book as an attachment.
func (controller *UIController) DownloadBook(c *gin.Context) {
	book, err := controller.books.Get(c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		c.String(http.StatusNotFound, "Book not found")
		return
	}
	if err != nil {
		log.Printf("Error fetching book: %v", err)
		c.String(http.StatusInternalServerError, "Database error")
		return
	}
	if !book.HasFile() {
		c.String(http.StatusNotFound, "No file associated with this book")
		return
	}

	fullPath, err := library.ResolvePath(controller.libraryPath, *book.Filepath)
	if err != nil {
		log.Printf("Refusing to serve %q: %v", *book.Filepath, err)
		c.String(http.StatusForbidden, "Invalid file path")
		return
	}

	info, err := os.Stat(fullPath)
	if err != nil || !info.Mode().IsRegular() {
		log.Printf("File not found: %s", fullPath)
		c.String(http.StatusNotFound, "File not found on disk")
		return
	}

	c.Header("Content-Type", library.ContentType(fullPath))
	c.FileAttachment(fullPath, filepath.Base(fullPath))
}

// SummarizeBook queues a summary of the book into its notes.
func (controller *UIController) SummarizeBook(c *gin.Context) {
	id := c.Param("id")

	if controller.tasks == nil {
		c.String(http.StatusServiceUnavailable, "Background tasks are disabled")
		return
	}

	if _, err := controller.books.Get(id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.String(http.StatusNotFound, "Book not found")
			return
		}
		log.Printf("Error fetching book: %v", err)
		c.String(http.StatusInternalServerError, "Database error")
		return
	}

	taskID, err := controller.tasks.Enqueue(c.Request.Context(), tasks.SummarizeBookTask{
		BookID: id,
		Model:  strings.TrimSpace(c.PostForm("model")),
	})
	if err != nil {
		log.Printf("Failed to enqueue summary of %s: %v", id, err)
		c.String(http.StatusInternalServerError, "Could not queue summary")
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusAccepted, gin.H{"task_id": taskID, "type": "summarize_book"})
		return
	}
	c.Redirect(http.StatusFound, bookPath(id)+"?summary=queued")
}
