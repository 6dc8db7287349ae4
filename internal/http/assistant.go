package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/alaya/internal/database"
	"github.com/mrlokans/alaya/internal/database/books"
	"github.com/mrlokans/alaya/internal/entities"
	"github.com/mrlokans/alaya/internal/summary"
)

const aiUnavailableMessage = "AI features not available (API key not configured)"

// assistantTimeout bounds a single completion made while the user waits.
const assistantTimeout = 90 * time.Second

// AssistantController handles the LLM-backed pages: quick-add and edit-chat.
type AssistantController struct {
	books  BookStore
	client *summary.Client
}

func NewAssistantController(store BookStore, client *summary.Client) *AssistantController {
	return &AssistantController{
		books:  store,
		client: client,
	}
}

func (ac *AssistantController) QuickAddPage(c *gin.Context) {
	c.HTML(http.StatusOK, "book-quick-add", ac.quickAddData(c, nil))
}

// QuickAdd identifies a book from a free-text query and stores it. A book
// with exactly the identified title is reused instead of duplicated.
func (ac *AssistantController) QuickAdd(c *gin.Context) {
	query := strings.TrimSpace(c.PostForm("query"))
	model := strings.TrimSpace(c.PostForm("model"))

	renderError := func(status int, message string) {
		c.HTML(status, "book-quick-add", ac.quickAddData(c, gin.H{
			"Error": message,
			"Query": query,
		}))
	}

	if query == "" {
		renderError(http.StatusBadRequest, "Please enter a book")
		return
	}
	if !ac.client.HasAPIKey() {
		renderError(http.StatusServiceUnavailable, aiUnavailableMessage)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), assistantTimeout)
	defer cancel()

	metadata, err := ac.client.ExtractBookMetadata(ctx, query, model)
	if err != nil {
		log.Printf("Quick add failed for %q: %v", query, err)
		renderError(http.StatusBadGateway, "Could not identify book: "+err.Error())
		return
	}

	existing, err := ac.books.FindByTitle(metadata.Title)
	if err != nil {
		log.Printf("Book lookup error for %q: %v", metadata.Title, err)
		renderError(http.StatusInternalServerError, "Could not check for an existing book. Please try again.")
		return
	}
	if len(existing) > 0 {
		c.Redirect(http.StatusFound, bookPath(existing[0].ID))
		return
	}

	book, err := ac.books.Create(books.BookInput{
		Title:           metadata.Title,
		Author:          metadata.Author,
		PublicationYear: metadata.PublicationYear,
		ISBN:            metadata.ISBN,
	})
	if err != nil {
		log.Printf("Book creation error: %v", err)
		renderError(http.StatusInternalServerError, "Could not save book. Please try again.")
		return
	}

	log.Printf("Quick-added %q as book %s", book.Title, book.ID)
	c.Redirect(http.StatusFound, bookPath(book.ID))
}

func (ac *AssistantController) quickAddData(c *gin.Context, data gin.H) gin.H {
	data = pageData(c, "Quick add", data)
	data["Model"] = ac.client.Model()
	data["AIAvailable"] = ac.client.HasAPIKey()
	return data
}

func (ac *AssistantController) EditChatPage(c *gin.Context) {
	book, ok := ac.loadBook(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "book-edit-chat", ac.editChatData(c, book, nil))
}

// EditChat asks the model to apply an instruction to the book and shows the
// proposal. Nothing is stored until the proposal is applied.
func (ac *AssistantController) EditChat(c *gin.Context) {
	book, ok := ac.loadBook(c)
	if !ok {
		return
	}

	instruction := strings.TrimSpace(c.PostForm("instruction"))
	model := strings.TrimSpace(c.PostForm("model"))

	renderError := func(status int, message string) {
		c.HTML(status, "book-edit-chat", ac.editChatData(c, book, gin.H{
			"Error":       message,
			"Instruction": instruction,
		}))
	}

	if instruction == "" {
		renderError(http.StatusBadRequest, "Please enter an instruction")
		return
	}
	if !ac.client.HasAPIKey() {
		renderError(http.StatusServiceUnavailable, aiUnavailableMessage)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), assistantTimeout)
	defer cancel()

	proposal, err := ac.client.EditBook(ctx, summary.BookFields{
		Title:           book.Title,
		Author:          book.Author,
		PublicationYear: book.PublicationYear,
	}, instruction, model)
	if err != nil {
		log.Printf("Edit chat failed for book %s: %v", book.ID, err)
		renderError(http.StatusBadGateway, "AI error: "+err.Error())
		return
	}

	c.HTML(http.StatusOK, "book-edit-chat", ac.editChatData(c, book, gin.H{
		"Instruction": instruction,
		"Proposal":    proposal,
	}))
}

// ApplyEditChat stores an accepted proposal.
func (ac *AssistantController) ApplyEditChat(c *gin.Context) {
	id := c.Param("id")
	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		c.Redirect(http.StatusFound, bookPath(id)+"/edit-chat")
		return
	}

	_, err := ac.books.Update(id, books.BookUpdate{
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
		book, getErr := ac.books.Get(id)
		if getErr != nil {
			c.String(http.StatusInternalServerError, "Could not update book")
			return
		}
		c.HTML(http.StatusInternalServerError, "book-edit-chat", ac.editChatData(c, book, gin.H{
			"Error": "Could not apply changes. Please try again.",
		}))
	}
}

func (ac *AssistantController) editChatData(c *gin.Context, book *entities.Book, data gin.H) gin.H {
	data = pageData(c, "Edit "+book.Title, data)
	data["Book"] = book
	data["Model"] = ac.client.Model()
	data["AIAvailable"] = ac.client.HasAPIKey()
	return data
}

// loadBook fetches the book named in the path or redirects to the list.
func (ac *AssistantController) loadBook(c *gin.Context) (*entities.Book, bool) {
	book, err := ac.books.Get(c.Param("id"))
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.Printf("Error fetching book: %v", err)
		}
		c.Redirect(http.StatusFound, "/")
		return nil, false
	}
	return book, true
}
