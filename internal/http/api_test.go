package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/alaya/internal/database/books"
	"github.com/mrlokans/alaya/internal/entities"
	"github.com/mrlokans/alaya/internal/tasks"
)

func TestBooksAPI_List(t *testing.T) {
	app := setupTestApp(t)
	_, err := app.books.Create(books.BookInput{Title: "Solaris", Notes: strPtr("the ocean")})
	require.NoError(t, err)
	_, err = app.books.Create(books.BookInput{Title: "Ubik"})
	require.NoError(t, err)

	var resp struct {
		Books []entities.Book `json:"books"`
		Count int             `json:"count"`
	}

	w := app.sendJSON(http.MethodGet, "/api/books", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)

	w = app.sendJSON(http.MethodGet, "/api/books?notes=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Solaris", resp.Books[0].Title)
}

func TestBooksAPI_CreateGetDelete(t *testing.T) {
	app := setupTestApp(t)

	w := app.sendJSON(http.MethodPost, "/api/books",
		strings.NewReader(`{"title":"Dune","author":"Frank Herbert","publication_year":1965,"filepath":"scifi/dune.epub"}`))
	require.Equal(t, http.StatusCreated, w.Code)

	var created entities.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Frank Herbert", *created.Author)

	w = app.sendJSON(http.MethodGet, "/api/books/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched entities.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, "Dune", fetched.Title)
	assert.Equal(t, "scifi/dune.epub", *fetched.Filepath)

	t.Run("duplicate filepath", func(t *testing.T) {
		w := app.sendJSON(http.MethodPost, "/api/books", strings.NewReader(`{"title":"Dune again","filepath":"scifi/dune.epub"}`))
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("blank filepaths do not collide", func(t *testing.T) {
		for _, title := range []string{"Pamphlet", "Leaflet"} {
			w := app.sendJSON(http.MethodPost, "/api/books", strings.NewReader(`{"title":"`+title+`","filepath":""}`))
			require.Equal(t, http.StatusCreated, w.Code, title)
			assert.NotContains(t, w.Body.String(), `"filepath"`)
		}
	})

	t.Run("missing title", func(t *testing.T) {
		w := app.sendJSON(http.MethodPost, "/api/books", strings.NewReader(`{"author":"Nobody"}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "title is required")
	})

	t.Run("blank title", func(t *testing.T) {
		w := app.sendJSON(http.MethodPost, "/api/books", strings.NewReader(`{"title":"   "}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	w = app.sendJSON(http.MethodDelete, "/api/books/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = app.sendJSON(http.MethodGet, "/api/books/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "book not found")

	w = app.sendJSON(http.MethodDelete, "/api/books/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTasksAPI(t *testing.T) {
	app := setupTestApp(t)

	w := app.sendJSON(http.MethodPost, "/api/library/scan", nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		Success bool   `json:"success"`
		TaskID  string `json:"task_id"`
		Type    string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "task-1", resp.TaskID)
	assert.Equal(t, "scan_library", resp.Type)

	require.Len(t, app.queue.tasks, 1)
	assert.Equal(t, tasks.ScanLibraryTask{Dir: app.libraryDir}, app.queue.tasks[0])

	w = app.sendJSON(http.MethodGet, "/api/tasks/task-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"task-1","status":"pending"}`, w.Body.String())

	w = app.sendJSON(http.MethodGet, "/api/tasks/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTasksAPI_RequiresLogin(t *testing.T) {
	app := setupTestApp(t)

	req, err := http.NewRequest(http.MethodPost, "/api/library/scan", nil)
	require.NoError(t, err)
	w := app.do(req, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, app.queue.tasks)
}
