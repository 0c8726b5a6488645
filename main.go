package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"social-publisher/domain/repository"
	"social-publisher/infrastructure/cache"
	facebookclient "social-publisher/infrastructure/clients/facebook"
	youtubeclient "social-publisher/infrastructure/clients/youtube"
	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/logger"
	"social-publisher/infrastructure/persistence"
	"social-publisher/infrastructure/pubsub"
	"social-publisher/infrastructure/realtime"
	"social-publisher/infrastructure/servicebus"
	httpHandler "social-publisher/interfaces/http"
	"social-publisher/server"
	"social-publisher/usecase"

	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	app := configuration.C.App

	primaryDb, psqlDb, err := InitiateDatabase()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Database initialization failed")
	}

	mongoDb, err := persistence.NewMongoDb(
		configuration.C.Database.Mongo.Host,
		configuration.C.Database.Mongo.Port,
		configuration.C.Database.Mongo.User,
		configuration.C.Database.Mongo.Password,
		configuration.C.Database.Mongo.Name,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without Mongo features")
		mongoDb = nil
	} else if err := mongoDb.Ping(ctx, nil); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing without Mongo features")
		mongoDb = nil
	}

	pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Pub/Sub not available - continuing without result events")
		pubSubClient = nil
	}
	azServiceBusClient, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without Service Bus features")
		azServiceBusClient = nil
	}
	redisClient, err := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - connection status will be uncached")
		redisClient = nil
	}

	// Repository wiring: use MSSQL in production, otherwise PostgreSQL.
	var userRepository repository.IUser
	var tokenRepository repository.IOAuthToken
	var historyRepository repository.IHistory
	if psqlDb == nil { // production/MSSQL path from InitiateDatabase
		userRepository = persistence.NewUserRepositoryMSSQL(primaryDb)
		tokenRepository = persistence.NewOAuthTokenRepositoryMSSQL(primaryDb)
		if err := persistence.EnsureOAuthTokenSchemaMSSQL(primaryDb); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring oauth token schema (mssql)")
		}
		historyRepository = persistence.NewHistoryRepository(primaryDb)
	} else {
		userRepository = persistence.NewUserRepository(psqlDb)
		tokenRepository = persistence.NewOAuthTokenRepository(psqlDb)
		historyRepository = persistence.NewHistoryRepository(psqlDb)
		if err := persistence.EnsureUserSchema(psqlDb); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring user schema")
		}
		if err := persistence.EnsureOAuthTokenSchema(psqlDb); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring oauth token schema")
		}
		if err := persistence.EnsureHistorySchema(psqlDb); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring history schema")
		}
	}
	if configuration.C.History.Backend == "mongo" && mongoDb != nil {
		historyRepository = persistence.NewHistoryRepositoryMongo(mongoDb, configuration.C.Database.Mongo.Name)
	}

	userUsecase := usecase.NewUserUsecase(userRepository)
	userHandler := httpHandler.NewUserHandler(userUsecase)
	healthHandler := httpHandler.NewHealthHandler(primaryDb)

	// Platform drivers
	publishCfg := publishConfigFromSettings()
	var shortsDriver repository.IShortVideoUploader
	youtubeConfig, err := configuration.GetYouTubeConfig()
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("YouTube configuration not found - YouTube uploads will be disabled")
	} else {
		shortsDriver = youtubeclient.NewShortsClient(
			youtubeConfig,
			youtubeclient.WithStrictThumbnail(configuration.C.Publish.StrictThumbnail),
		)
	}
	reelsDriver := facebookclient.NewReelsClient(
		facebookclient.WithPollPolicy(
			time.Duration(configuration.C.Publish.PollIntervalSeconds)*time.Second,
			configuration.C.Publish.PollMaxAttempts,
		),
		facebookclient.WithStrictThumbnail(configuration.C.Publish.StrictThumbnail),
	)

	// Optional result event emitters
	var events []repository.IPublishEvents
	if pubSubClient != nil {
		events = append(events, pubsub.NewPublishEvents(pubSubClient, configuration.C.Pubsub.Topic))
	}
	if azServiceBusClient != nil {
		events = append(events, servicebus.NewPublishEvents(azServiceBusClient, configuration.C.ServiceBus.Queue))
	}

	publishHub := realtime.NewPublishHub()
	publishUsecase := usecase.NewPublishUsecase(tokenRepository, historyRepository, shortsDriver, reelsDriver, publishCfg, events...)
	publishUsecase = publishUsecase.WithBroadcaster(publishHub.BroadcastOutcome)

	publishHandler := httpHandler.NewPublishHandler(publishUsecase)
	historyHandler := httpHandler.NewHistoryHandler(historyRepository)
	connectionsHandler := httpHandler.NewConnectionsHandler(tokenRepository, cache.NewConnectionCache(redisClient))

	var youtubeAuthHandler httpHandler.IYouTubeAuthHandler
	youtubeAuthHandler, err = httpHandler.NewYouTubeAuthHandler(tokenRepository)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Failed to initialize YouTube auth handler")
		youtubeAuthHandler = nil
	}
	facebookOAuthHandler := httpHandler.NewFacebookOAuthHandler(tokenRepository)

	router := server.InitiateRouter(
		userHandler,
		healthHandler,
		publishHandler,
		historyHandler,
		connectionsHandler,
		youtubeAuthHandler,
		facebookOAuthHandler,
		userRepository,
		publishHub,
	)

	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			} else {
				if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
		} else {
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// publishConfigFromSettings maps the loaded configuration onto the
// orchestration policy, falling back to defaults for unset values.
func publishConfigFromSettings() usecase.PublishConfig {
	cfg := usecase.DefaultPublishConfig()
	p := configuration.C.Publish
	if p.YouTubeHashtags != "" {
		cfg.YouTubeHashtags = p.YouTubeHashtags
	}
	if p.FacebookHashtags != "" {
		cfg.FacebookHashtags = p.FacebookHashtags
	}
	if p.YouTubeLeadMinutes > 0 {
		cfg.YouTubeLeadTime = time.Duration(p.YouTubeLeadMinutes) * time.Minute
	}
	if p.FacebookLeadMinutes > 0 {
		cfg.FacebookLeadTime = time.Duration(p.FacebookLeadMinutes) * time.Minute
	}
	if p.DriverTimeoutMin > 0 {
		cfg.DriverTimeout = time.Duration(p.DriverTimeoutMin) * time.Minute
	}
	return cfg
}

// InitiateDatabase returns (primaryDB, psqlDB). In production primaryDB is
// MSSQL and psqlDB is nil; locally primaryDB is PostgreSQL and both values
// point at it. The local MySQL store is opened for the gorm-managed user
// table when configured.
func InitiateDatabase() (*sql.DB, *sql.DB, error) {
	env := os.Getenv("ENV")
	if v := os.Getenv("DB_VENDOR"); v == "mssql" {
		mssql, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL (DB_VENDOR=mssql)")
			return nil, nil, err
		}
		return mssql, nil, nil
	}
	if env == "production" || env == "prod" {
		mssql, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL (production)")
			return nil, nil, err
		}
		return mssql, nil, nil
	}

	// Local development: PostgreSQL primary, MySQL (gorm) keeps the user
	// table migrated when it is reachable.
	if _, err := persistence.NewNativeDb(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Local MySQL not available - skipping gorm migration")
	}
	postgres, err := persistence.NewPostgreSQLDB()
	if err != nil {
		return nil, nil, err
	}
	return postgres, postgres, nil
}
