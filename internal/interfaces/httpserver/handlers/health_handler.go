package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"chat-gateway/internal/infrastructure/auth"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db        *gorm.DB
	validator *auth.Validator
}

// NewHealthHandler constructs the handler.
func NewHealthHandler(db *gorm.DB, validator *auth.Validator) *HealthHandler {
	return &HealthHandler{db: db, validator: validator}
}

// Healthz reports process liveness.
func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz reports whether the gateway can serve traffic. The database
// must be reachable.
func (h *HealthHandler) Readyz(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "database handle"})
		return
	}
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "database ping"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// AuthStatus reports whether token validation keys are loaded.
func (h *HealthHandler) AuthStatus(c *gin.Context) {
	if !h.validator.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "jwks not loaded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
