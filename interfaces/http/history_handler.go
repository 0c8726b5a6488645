package http

import (
	"net/http"
	"strconv"

	"social-publisher/domain/dto"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

type IHistoryHandler interface {
	List(c *gin.Context)
}

type HistoryHandler struct {
	history repository.IHistory
}

func NewHistoryHandler(history repository.IHistory) IHistoryHandler {
	return &HistoryHandler{history: history}
}

// List handles GET /api/history. Entries come back newest first.
func (h *HistoryHandler) List(c *gin.Context) {
	userID := c.GetString("user_id")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: "limit must be a non-negative integer"})
		return
	}

	entries, err := h.history.List(c.Request.Context(), userID, limit)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("failed listing history")
		c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: "could not load history"})
		return
	}

	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Success", Data: entries})
}
