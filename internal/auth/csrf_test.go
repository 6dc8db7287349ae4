package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testCSRFSecret = []byte("test-secret-key-32-bytes-long!!!")

func newCSRFRouter() *gin.Engine {
	router := gin.New()
	router.Use(CSRFMiddleware(testCSRFSecret, false))
	router.GET("/form", func(c *gin.Context) {
		c.String(http.StatusOK, GetCSRFToken(c))
	})
	router.POST("/form", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestCSRFMiddleware_AllowsGET(t *testing.T) {
	router := newCSRFRouter()

	req := httptest.NewRequest(http.MethodGet, "/form", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 for GET request, got %d", rr.Code)
	}
	if rr.Body.Len() == 0 {
		t.Error("Expected a CSRF token in the gin context")
	}
}

func TestCSRFMiddleware_BlocksPOSTWithoutToken(t *testing.T) {
	handled := false
	router := gin.New()
	router.Use(CSRFMiddleware(testCSRFSecret, false))
	router.POST("/form", func(c *gin.Context) {
		handled = true
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/form", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for POST without CSRF token, got %d", rr.Code)
	}
	if handled {
		t.Error("Handler must not run after a CSRF failure")
	}
}

func TestCSRFMiddleware_JSONError(t *testing.T) {
	router := newCSRFRouter()

	req := httptest.NewRequest(http.MethodPost, "/form", nil)
	req.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON error, got content type %q", ct)
	}
}

func TestCSRFMiddleware_AcceptsValidToken(t *testing.T) {
	router := newCSRFRouter()

	getReq := httptest.NewRequest(http.MethodGet, "/form", nil)
	getRR := httptest.NewRecorder()
	router.ServeHTTP(getRR, getReq)
	token := getRR.Body.String()

	postReq := httptest.NewRequest(http.MethodPost, "/form", nil)
	postReq.Header.Set(CSRFTokenHeader, token)
	for _, c := range getRR.Result().Cookies() {
		postReq.AddCookie(c)
	}
	postRR := httptest.NewRecorder()
	router.ServeHTTP(postRR, postReq)

	if postRR.Code != http.StatusOK {
		t.Errorf("Expected 200 for POST with a valid token, got %d: %s", postRR.Code, postRR.Body.String())
	}
}
