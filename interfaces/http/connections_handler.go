package http

import (
	"context"
	"net/http"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/cache"
	"social-publisher/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

const connectionCacheTTL = 5 * time.Minute

type IConnectionsHandler interface {
	Status(c *gin.Context)
}

type ConnectionsHandler struct {
	tokenRepo repository.IOAuthToken
	cache     cache.IConnectionCache
}

func NewConnectionsHandler(tokenRepo repository.IOAuthToken, connectionCache cache.IConnectionCache) IConnectionsHandler {
	return &ConnectionsHandler{tokenRepo: tokenRepo, cache: connectionCache}
}

// Status handles GET /api/connections/status. The panel is cached briefly so
// repeated page loads do not hit the token store every time.
func (h *ConnectionsHandler) Status(c *gin.Context) {
	userID := c.GetString("user_id")

	if cached, err := h.cache.Get(c.Request.Context(), userID); err == nil && cached != nil {
		c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Success", Data: cached})
		return
	}

	status := &dto.ConnectionStatus{
		YouTube:  h.youtubeConnection(c.Request.Context(), userID),
		Facebook: h.facebookConnection(c.Request.Context(), userID),
	}

	if err := h.cache.Set(c.Request.Context(), userID, status, connectionCacheTTL); err != nil {
		logger.GetLogger().WithField("error", err).Debug("could not cache connection status")
	}
	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Success", Data: status})
}

// youtubeConnection treats an expired credential without a refresh token as
// disconnected and removes it so the UI prompts a reconnect.
func (h *ConnectionsHandler) youtubeConnection(ctx context.Context, userID string) *dto.YouTubeConnection {
	tok, err := h.tokenRepo.GetToken(ctx, userID, model.PlatformYouTube)
	if err != nil || tok == nil || tok.AccessToken == "" {
		return nil
	}
	if tok.RefreshToken == "" && tok.ExpiresAt != nil && tok.ExpiresAt.Before(time.Now()) {
		if err := h.tokenRepo.DeleteToken(ctx, userID, model.PlatformYouTube); err != nil {
			logger.GetLogger().WithField("error", err).Warn("could not remove stale youtube token")
		}
		return nil
	}
	conn := &dto.YouTubeConnection{}
	if tok.PageName != nil {
		conn.ChannelTitle = *tok.PageName
	}
	return conn
}

func (h *ConnectionsHandler) facebookConnection(ctx context.Context, userID string) *dto.FacebookConnection {
	tok, err := h.tokenRepo.GetToken(ctx, userID, model.PlatformFacebook)
	if err != nil || tok == nil || tok.AccessToken == "" || tok.PageID == nil {
		return nil
	}
	conn := &dto.FacebookConnection{PageID: *tok.PageID}
	if tok.PageName != nil {
		conn.PageName = *tok.PageName
	}
	return conn
}
