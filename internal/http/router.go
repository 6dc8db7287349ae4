package http

import (
	"html/template"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/alaya/internal/auth"
)

// templateFuncs are available to every page template.
var templateFuncs = template.FuncMap{
	"str": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"year": func(y *int) string {
		if y == nil {
			return ""
		}
		return strconv.Itoa(*y)
	},
	"paragraphs": func(s *string) []string {
		if s == nil {
			return nil
		}
		return strings.Split(strings.TrimSpace(*s), "\n")
	},
	"yearFilter": func(y int) string {
		if y == 0 {
			return ""
		}
		return strconv.Itoa(y)
	},
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	router.Use(cfg.SessionManager.SessionLoadSave())
	router.Use(cfg.AuthMiddleware.Handler())
	router.Use(AuthContextMiddleware(cfg.AuthService.SignupsDisabled()))

	tmpl := template.Must(template.New("").Funcs(templateFuncs).ParseGlob(cfg.TemplatesPath + "/*.html"))
	router.SetHTMLTemplate(tmpl)

	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	ui := NewUIController(cfg.Books, cfg.Tasks, cfg.LibraryPath)
	assistant := NewAssistantController(cfg.Books, cfg.Summary)
	booksAPI := NewBooksController(cfg.Books)
	profile := NewProfileController(cfg.AuthService, cfg.Books)

	// Health endpoints
	router.GET("/health", health.Status)

	// Account pages
	cfg.AuthController.RegisterRoutes(router)

	// Public pages
	router.GET("/", ui.BooksPage)
	router.GET("/books/:id", ui.BookPage)
	router.GET("/books/:id/download", ui.DownloadBook)

	// Everything below needs a signed-in user
	private := router.Group("", cfg.AuthMiddleware.RequireAuth())

	private.GET("/profile", profile.ProfilePage)

	private.GET("/books/new", ui.NewBookPage)
	private.POST("/books", ui.CreateBook)
	private.GET("/books/:id/edit", ui.EditBookPage)
	private.POST("/books/:id/edit", ui.UpdateBook)
	private.GET("/books/:id/notes", ui.NotesPage)
	private.POST("/books/:id/notes", ui.UpdateNotes)
	private.POST("/books/:id/delete", ui.DeleteBook)
	private.POST("/books/:id/summarize", ui.SummarizeBook)

	private.GET("/books/quick-add", assistant.QuickAddPage)
	private.POST("/books/quick-add", assistant.QuickAdd)
	private.GET("/books/:id/edit-chat", assistant.EditChatPage)
	private.POST("/books/:id/edit-chat", assistant.EditChat)
	private.POST("/books/:id/edit-chat/apply", assistant.ApplyEditChat)

	// Books API endpoints
	private.GET("/api/books", booksAPI.ListBooks)
	private.POST("/api/books", booksAPI.CreateBook)
	private.GET("/api/books/:id", booksAPI.GetBook)
	private.DELETE("/api/books/:id", booksAPI.DeleteBook)

	// Task management endpoints
	if cfg.Tasks != nil {
		tasksController := NewTasksController(cfg.Tasks, cfg.LibraryPath)
		private.POST("/api/library/scan", tasksController.ScanLibrary)
		private.GET("/api/tasks/:id", tasksController.GetTaskStatus)
	}

	return router
}
