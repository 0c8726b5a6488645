package server

import (
	"time"

	"social-publisher/domain/repository"
	"social-publisher/infrastructure/realtime"
	httpHandler "social-publisher/interfaces/http"
	"social-publisher/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func InitiateRouter(
	userHandler httpHandler.IUserHandler,
	healthHandler httpHandler.IHealthHandler,
	publishHandler httpHandler.IPublishHandler,
	historyHandler httpHandler.IHistoryHandler,
	connectionsHandler httpHandler.IConnectionsHandler,
	youtubeAuthHandler httpHandler.IYouTubeAuthHandler,
	facebookOAuthHandler httpHandler.IFacebookOAuthHandler,
	userRepository repository.IUser,
	publishHub *realtime.Hub,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "http://localhost:3000", "https://localhost:4200", "https://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.POST("/login", userHandler.Login)
	router.POST("/register", userHandler.Register)
	router.GET("/healthz", healthHandler.Healthz)

	// Only the callbacks are public: the provider redirects the browser here
	// without a bearer token, and the state parameter resolves the user.
	if youtubeAuthHandler != nil {
		router.GET("/auth/youtube/callback", youtubeAuthHandler.HandleCallback)
	}
	if facebookOAuthHandler != nil {
		router.GET("/auth/facebook/callback", facebookOAuthHandler.Callback)
	}

	api := router.Group("api")
	api.Use(middleware.Auth(userRepository))

	// Starting a consent flow requires the caller's identity so the issued
	// state can carry it into the callback.
	if youtubeAuthHandler != nil {
		api.GET("/auth/youtube", youtubeAuthHandler.GetAuthURL)
	}
	if facebookOAuthHandler != nil {
		api.GET("/auth/facebook", facebookOAuthHandler.GetAuthURL)
	}

	if publishHandler != nil {
		api.POST("/publish", publishHandler.Publish)
	}
	if historyHandler != nil {
		api.GET("/history", historyHandler.List)
	}
	if connectionsHandler != nil {
		api.GET("/connections/status", connectionsHandler.Status)
	}
	if publishHub != nil {
		api.GET("/publish/stream", func(c *gin.Context) { publishHub.Serve(c) })
	}

	return router
}
