package auth

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/alaya/internal/config"
)

// signupsDisabledBody is the plain-text answer to signup requests when
// DISABLE_SIGNUPS is set.
const signupsDisabledBody = "signups are disabled."

// isLocalPath validates that a redirect path is local to prevent open redirect attacks.
func isLocalPath(path string) bool {
	if path == "" || !strings.HasPrefix(path, "/") {
		return false
	}
	// Reject protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}
	if strings.Contains(path, "://") || strings.Contains(path, "\\") {
		return false
	}
	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to "/" if invalid.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/"
}

// signupErrorMessage turns a signup failure into the message shown on the form.
func signupErrorMessage(err error) (int, string) {
	switch {
	case errors.Is(err, ErrUsernameRequired):
		return http.StatusBadRequest, "Username cannot be empty"
	case errors.Is(err, ErrPasswordMismatch):
		return http.StatusBadRequest, "Passwords do not match"
	case errors.Is(err, ErrPasswordTooShort):
		return http.StatusBadRequest, "Password must be at least 8 characters long"
	case errors.Is(err, ErrPasswordTooLong):
		return http.StatusBadRequest, "Password must be at most 72 bytes long"
	case errors.Is(err, ErrUserExists):
		return http.StatusConflict, "Username already exists"
	default:
		return http.StatusInternalServerError, "Failed to create account"
	}
}

// AuthController handles the login, signup and logout endpoints.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	templates      *template.Template
	rateLimiter    *RateLimiter

	signupMu sync.Mutex // serializes account creation
}

// NewAuthController creates a new authentication controller. Pages are
// rendered from templatesPath/auth/*.html; when those templates are missing
// the controller answers with JSON instead.
func NewAuthController(service *Service, sessionManager *SessionManager, templatesPath string, cfg config.Auth) *AuthController {
	pattern := filepath.Join(templatesPath, "auth", "*.html")
	tmpl, err := template.ParseGlob(pattern)
	if err != nil {
		log.Printf("Auth templates not loaded from %s: %v", pattern, err)
		tmpl = nil
	}

	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		templates:      tmpl,
		rateLimiter: NewRateLimiter(RateLimitConfig{
			MaxAttempts:     cfg.MaxLoginAttempts,
			WindowDuration:  cfg.RateLimitWindow,
			LockoutDuration: cfg.LockoutDuration,
		}),
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRouter) {
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.GET("/signup", ac.SignupPage)
	router.POST("/signup", ac.Signup)
	router.POST("/logout", ac.Logout)
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	ac.rateLimiter.Stop()
}

// LoginPage renders the login form.
func (ac *AuthController) LoginPage(c *gin.Context) {
	if IsAuthenticated(c) {
		c.Redirect(http.StatusFound, "/")
		return
	}

	ac.render(c, http.StatusOK, "login.html", gin.H{
		"Title":           "Log in",
		"Next":            sanitizeRedirectPath(c.Query("next")),
		"CSRFToken":       GetCSRFToken(c),
		"SignupsDisabled": ac.service.SignupsDisabled(),
	})
}

// Login handles the login form submission.
func (ac *AuthController) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	next := sanitizeRedirectPath(c.PostForm("next"))
	clientIP := c.ClientIP()

	data := gin.H{
		"Title":           "Log in",
		"Next":            next,
		"Username":        username,
		"CSRFToken":       GetCSRFToken(c),
		"SignupsDisabled": ac.service.SignupsDisabled(),
	}

	if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, username); !allowed {
		c.Header("Retry-After", retryAfter.String())
		data["Error"] = "Too many login attempts. Please try again later."
		ac.render(c, http.StatusTooManyRequests, "login.html", data)
		return
	}

	user, err := ac.service.Authenticate(username, password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			log.Printf("Login failed for %q: %v", username, err)
		}
		ac.rateLimiter.RecordFailure(clientIP, username)
		data["Error"] = "Invalid username or password"
		ac.render(c, http.StatusUnauthorized, "login.html", data)
		return
	}
	ac.rateLimiter.RecordSuccess(clientIP, username)

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		log.Printf("Failed to create session for %q: %v", username, err)
		data["Error"] = "Failed to create session"
		ac.render(c, http.StatusInternalServerError, "login.html", data)
		return
	}

	c.Redirect(http.StatusFound, next)
}

// SignupPage renders the signup form.
func (ac *AuthController) SignupPage(c *gin.Context) {
	if ac.service.SignupsDisabled() {
		c.String(http.StatusForbidden, signupsDisabledBody)
		return
	}
	if IsAuthenticated(c) {
		c.Redirect(http.StatusFound, "/")
		return
	}

	ac.render(c, http.StatusOK, "signup.html", gin.H{
		"Title":     "Sign up",
		"CSRFToken": GetCSRFToken(c),
	})
}

// Signup creates an account from the signup form and signs it in.
func (ac *AuthController) Signup(c *gin.Context) {
	if ac.service.SignupsDisabled() {
		c.String(http.StatusForbidden, signupsDisabledBody)
		return
	}

	username := strings.TrimSpace(c.PostForm("username"))
	data := gin.H{
		"Title":     "Sign up",
		"Username":  username,
		"CSRFToken": GetCSRFToken(c),
	}

	// Signups are throttled per IP only.
	clientIP := c.ClientIP()
	if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, ""); !allowed {
		c.Header("Retry-After", retryAfter.String())
		data["Error"] = "Too many signup attempts. Please try again later."
		ac.render(c, http.StatusTooManyRequests, "signup.html", data)
		return
	}

	ac.signupMu.Lock()
	user, err := ac.service.Signup(username, c.PostForm("password"), c.PostForm("confirm_password"))
	ac.signupMu.Unlock()
	if err != nil {
		if errors.Is(err, ErrSignupsDisabled) {
			c.String(http.StatusForbidden, signupsDisabledBody)
			return
		}
		status, message := signupErrorMessage(err)
		if status == http.StatusInternalServerError {
			log.Printf("Signup failed for %q: %v", username, err)
		}
		ac.rateLimiter.RecordFailure(clientIP, "")
		data["Error"] = message
		ac.render(c, status, "signup.html", data)
		return
	}

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		log.Printf("Failed to create session for %q: %v", username, err)
		c.Redirect(http.StatusFound, "/login")
		return
	}
	log.Printf("Created account %q", user.Username)
	c.Redirect(http.StatusFound, "/")
}

// Logout destroys the session and returns to the book list.
func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.sessionManager.DestroySession(c.Request); err != nil {
		log.Printf("Failed to destroy session: %v", err)
	}
	c.Redirect(http.StatusFound, "/")
}

// render renders an auth template or falls back to JSON.
func (ac *AuthController) render(c *gin.Context, status int, name string, data gin.H) {
	if ac.templates == nil {
		c.JSON(status, data)
		return
	}

	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := ac.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		log.Printf("Failed to render %s: %v", name, err)
	}
}
