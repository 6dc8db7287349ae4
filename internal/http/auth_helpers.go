package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/alaya/internal/auth"
)

// AuthTemplateData holds authentication info for templates.
type AuthTemplateData struct {
	LoggedIn        bool   // Whether user is logged in
	Username        string // Current user's username (empty if not logged in)
	CSRFToken       string // CSRF token for forms
	SignupsDisabled bool   // Hides the signup link
}

// AuthContextMiddleware injects authentication data into Gin context for templates.
// Templates can access auth data via .Auth in the template data.
func AuthContextMiddleware(signupsDisabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("auth_template_data", AuthTemplateData{
			LoggedIn:        auth.IsAuthenticated(c),
			Username:        auth.GetUsername(c),
			CSRFToken:       auth.GetCSRFToken(c),
			SignupsDisabled: signupsDisabled,
		})
		c.Next()
	}
}

// GetAuthTemplateData retrieves auth data from context for use in templates.
func GetAuthTemplateData(c *gin.Context) AuthTemplateData {
	if data, exists := c.Get("auth_template_data"); exists {
		if authData, ok := data.(AuthTemplateData); ok {
			return authData
		}
	}
	return AuthTemplateData{}
}

// pageData builds template data with the page title and auth info filled in.
func pageData(c *gin.Context, title string, data gin.H) gin.H {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	data["Auth"] = GetAuthTemplateData(c)
	return data
}
