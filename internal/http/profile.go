package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/alaya/internal/auth"
)

// ProfileController shows the signed-in account.
type ProfileController struct {
	authService *auth.Service
	books       BookStore
}

// NewProfileController creates a new ProfileController.
func NewProfileController(authService *auth.Service, store BookStore) *ProfileController {
	return &ProfileController{
		authService: authService,
		books:       store,
	}
}

// ProfilePage renders the username and the size of the library.
func (pc *ProfileController) ProfilePage(c *gin.Context) {
	user, err := pc.authService.GetUserByID(auth.GetUserID(c))
	if err != nil {
		c.Redirect(http.StatusFound, "/login?next=/profile")
		return
	}

	count, err := pc.books.Count()
	if err != nil {
		log.Printf("Error counting books: %v", err)
		c.String(http.StatusInternalServerError, "Error loading profile")
		return
	}

	c.HTML(http.StatusOK, "profile", pageData(c, "Profile", gin.H{
		"User":      user,
		"BookCount": count,
	}))
}
