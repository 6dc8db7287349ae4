package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/alaya/internal/database"
)

const healthCheckTimeout = 2 * time.Second

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// HealthController reports database reachability and whether the schema is
// at the latest migration.
type HealthController struct {
	db      *database.Database
	version string
}

// NewHealthController reports on db; a nil db shows as "not configured".
func NewHealthController(db *database.Database, version string) *HealthController {
	return &HealthController{db: db, version: version}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := map[string]string{}
	healthy := true

	if h.db == nil {
		checks["database"] = "not configured"
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			checks["database"] = "error: " + err.Error()
			healthy = false
		} else {
			checks["database"] = "ok"
			schema, ok := h.schemaCheck(ctx)
			checks["schema"] = schema
			healthy = ok
		}
	}

	response := HealthResponse{
		Status:  "healthy",
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}
	code := http.StatusOK
	if !healthy {
		response.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	c.IndentedJSON(code, response)
}

func (h *HealthController) schemaCheck(ctx context.Context) (string, bool) {
	m, err := h.db.Migrator()
	if err != nil {
		return "error: " + err.Error(), false
	}
	current, err := m.Version(ctx)
	if err != nil {
		return "error: " + err.Error(), false
	}
	latest, err := m.Latest()
	if err != nil {
		return "error: " + err.Error(), false
	}
	if current < latest {
		return fmt.Sprintf("behind: version %d of %d", current, latest), false
	}
	return fmt.Sprintf("version %d", current), true
}
