package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/alaya/internal/database/books"
)

// BooksController serves the JSON book API.
type BooksController struct {
	books BookStore
}

func NewBooksController(store BookStore) *BooksController {
	return &BooksController{
		books: store,
	}
}

// CreateBookRequest is the JSON body of POST /api/books.
type CreateBookRequest struct {
	Title           string  `json:"title" binding:"required"`
	Author          *string `json:"author"`
	PublicationYear *int    `json:"publication_year"`
	Filepath        *string `json:"filepath"`
	Notes           *string `json:"notes"`
}

// ListBooks handles GET /api/books with the same filters as the book list page.
func (controller *BooksController) ListBooks(c *gin.Context) {
	list, err := controller.books.List(listFilterFromQuery(c))
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

func (controller *BooksController) GetBook(c *gin.Context) {
	book, err := controller.books.Get(c.Param("id"))
	if err != nil {
		respondStoreError(c, err, "get book")
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

func (controller *BooksController) CreateBook(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title is required")
		return
	}

	book, err := controller.books.Create(books.BookInput{
		Title:           req.Title,
		Author:          req.Author,
		PublicationYear: req.PublicationYear,
		Filepath:        req.Filepath,
		Notes:           req.Notes,
	})
	if err != nil {
		respondStoreError(c, err, "create book")
		return
	}
	c.IndentedJSON(http.StatusCreated, book)
}

func (controller *BooksController) DeleteBook(c *gin.Context) {
	if err := controller.books.Delete(c.Param("id")); err != nil {
		respondStoreError(c, err, "delete book")
		return
	}
	c.Status(http.StatusNoContent)
}
