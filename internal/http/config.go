package http

import (
	"github.com/mrlokans/alaya/internal/auth"
	"github.com/mrlokans/alaya/internal/database"
	"github.com/mrlokans/alaya/internal/summary"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Books    BookStore
	Database *database.Database

	// Authentication
	AuthService    *auth.Service
	AuthController *auth.AuthController
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	CSRFSecret     []byte
	SecureCookies  bool

	// LLM client for quick-add, edit-chat and summaries
	Summary *summary.Client

	// Task queue (optional). Summaries and library scans need it.
	Tasks TaskQueue

	// Root directory that book filepaths are relative to
	LibraryPath string

	// UI paths
	TemplatesPath string
	StaticPath    string

	// Application info
	Version string
}
