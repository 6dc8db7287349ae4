package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUsername = "auth_username"
)

// Middleware resolves the session user of each request.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessionManager *SessionManager) *Middleware {
	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
	}
}

// Handler loads the signed-in user into the gin context. Anonymous requests
// pass through untouched; use RequireAuth on routes that need an account.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isStaticPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		userID := m.sessionManager.GetUserID(c.Request)
		if userID != "" {
			user, err := m.service.GetUserByID(userID)
			if err == nil {
				c.Set(ContextKeyUserID, user.ID)
				c.Set(ContextKeyUsername, user.Username)
			} else {
				// The account is gone; drop the dangling session.
				_ = m.sessionManager.DestroySession(c.Request)
			}
		}
		c.Next()
	}
}

// RequireAuth rejects anonymous requests: API callers get 401 JSON, browsers
// are sent to the login page with a return path.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsAuthenticated(c) {
			c.Next()
			return
		}

		if isAPIRequest(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

func isStaticPath(path string) bool {
	return strings.HasPrefix(path, "/static/") || path == "/favicon.ico"
}

// isAPIRequest determines if this is an API request vs web browser request.
func isAPIRequest(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// GetUserID retrieves the authenticated user's ID, "" for anonymous requests.
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

// GetUsername retrieves the authenticated user's username from the context.
func GetUsername(c *gin.Context) string {
	return c.GetString(ContextKeyUsername)
}

// IsAuthenticated returns true if the request carries a signed-in user.
func IsAuthenticated(c *gin.Context) bool {
	return GetUserID(c) != ""
}
