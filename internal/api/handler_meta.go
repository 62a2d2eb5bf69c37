package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const version = "v1.0.0"

// GetVersion handles GET /api/version.
func (h *Handler) GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": version})
}

// DBCheck handles GET /api/db-check: a liveness probe for the database
// connection.
func (h *Handler) DBCheck(c *gin.Context) {
	if err := h.store.DB().WithContext(c.Request.Context()).Exec("SELECT 1").Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"db": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"db": "ok"})
}
