package http

import (
	"fmt"
	"net/http"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// IYouTubeAuthHandler defines the interface for YouTube authentication handlers
type IYouTubeAuthHandler interface {
	GetAuthURL(ctx *gin.Context)
	HandleCallback(ctx *gin.Context)
}

// YouTubeAuthHandler runs the OAuth consent flow and stores the channel
// credential for the authenticated user.
type YouTubeAuthHandler struct {
	oauth2Config *oauth2.Config
	tokenRepo    repository.IOAuthToken
	states       *oauthStateStore
}

// NewYouTubeAuthHandler creates a new YouTube auth handler
func NewYouTubeAuthHandler(tokenRepo repository.IOAuthToken) (IYouTubeAuthHandler, error) {
	config, err := configuration.GetYouTubeConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get YouTube config: %w", err)
	}

	oauth2Config := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes: []string{
			youtube.YoutubeScope,
			youtube.YoutubeUploadScope,
		},
		Endpoint: google.Endpoint,
	}

	return &YouTubeAuthHandler{
		oauth2Config: oauth2Config,
		tokenRepo:    tokenRepo,
		states:       newOAuthStateStore(10 * time.Minute),
	}, nil
}

// GetAuthURL handles GET /api/auth/youtube. It runs behind the auth
// middleware; the state it issues carries the caller's user id into the
// unauthenticated callback.
func (h *YouTubeAuthHandler) GetAuthURL(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	if userID == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	state := h.states.Issue(userID)

	// Offline access with forced consent so a refresh token is always issued.
	authURL := h.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))

	ctx.JSON(http.StatusOK, gin.H{
		"auth_url": authURL,
	})
}

// HandleCallback handles GET /auth/youtube/callback
func (h *YouTubeAuthHandler) HandleCallback(ctx *gin.Context) {
	if errorParam := ctx.Query("error"); errorParam != "" {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":       fmt.Sprintf("OAuth error: %s", errorParam),
			"description": ctx.Query("error_description"),
		})
		return
	}

	userID, ok := h.states.Consume(ctx.Query("state"))
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":  "invalid_state",
			"action": "Visit /api/auth/youtube to start over",
		})
		return
	}

	code := ctx.Query("code")
	if code == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "Authorization code not found",
		})
		return
	}

	token, err := h.oauth2Config.Exchange(ctx.Request.Context(), code)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to exchange code for token",
			"message": err.Error(),
		})
		return
	}
	channelTitle := h.channelTitle(ctx, token)

	expiresAt := token.Expiry.UTC()
	tokenType := "user"
	tok := &model.OAuthToken{
		UserID:       userID,
		Platform:     model.PlatformYouTube,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    &expiresAt,
		Scopes:       youtube.YoutubeScope + " " + youtube.YoutubeUploadScope,
		TokenType:    &tokenType,
	}
	if channelTitle != "" {
		tok.PageName = &channelTitle
	}
	if err := h.tokenRepo.UpsertToken(ctx.Request.Context(), tok); err != nil {
		logger.GetLogger().WithField("error", err).Error("failed to upsert youtube token")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "store_token_failed"})
		return
	}

	if ctx.Query("frontend") == "1" {
		ctx.Header("Content-Type", "text/html; charset=utf-8")
		_, _ = ctx.Writer.Write([]byte(fmt.Sprintf(`<!DOCTYPE html><html><head><title>YouTube Connected</title></head><body><script>if (window.opener){window.opener.postMessage({source:'youtube-oauth',connected:true,channel:%q},'*');window.close();}else{document.write('YouTube connected: %s');}</script></body></html>`, channelTitle, channelTitle)))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"connected": true, "channel": channelTitle})
}

// channelTitle resolves the connected channel's display name. Best-effort;
// an empty string just means the panel shows "connected" without a name.
func (h *YouTubeAuthHandler) channelTitle(ctx *gin.Context, token *oauth2.Token) string {
	service, err := youtube.NewService(ctx.Request.Context(), option.WithHTTPClient(h.oauth2Config.Client(ctx.Request.Context(), token)))
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("could not create service for channel lookup")
		return ""
	}
	response, err := service.Channels.List([]string{"snippet"}).Mine(true).Do()
	if err != nil || len(response.Items) == 0 {
		return ""
	}
	return response.Items[0].Snippet.Title
}
