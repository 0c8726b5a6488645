package http

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
)

type IHealthHandler interface {
	Healthz(c *gin.Context)
}

type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) IHealthHandler {
	return &HealthHandler{db: db}
}

// Healthz returns OK for health checks. Database state is reported but never
// fails the probe; the service degrades instead of flapping.
func (h *HealthHandler) Healthz(ctx *gin.Context) {
	dbState := "disabled"
	if h.db != nil {
		dbState = "ok"
		if err := h.db.PingContext(ctx.Request.Context()); err != nil {
			dbState = "unreachable"
		}
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "database": dbState})
}
