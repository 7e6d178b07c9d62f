package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"concierge/config"
	"concierge/database"
	transcriptRepo "concierge/database/repository/transcript"
	"concierge/handlers"
	"concierge/routes"
	"concierge/services/conversation"
	"concierge/services/voice"
	"concierge/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitContextCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	// repositories.
	transcripts := transcriptRepo.NewMongoTranscriptRepo()

	// services.
	ctxStore := conversation.NewRedisContextStore(
		utils.GetContextCacheClient(),
		time.Duration(config.AppConfig.ContextTTLMinutes)*time.Minute,
	)

	dispatcher := &conversation.Dispatcher{
		BaseURL:     config.AppConfig.SearchBaseURL,
		AffiliateID: config.AppConfig.AffiliateID,
		Launcher: conversation.LauncherFunc(func(url string) error {
			// The core never talks to the booking site itself; launching means
			// surfacing the URL so the client can open it.
			logger.Info("search dispatched", zap.String("url", url))
			return nil
		}),
		Logger: logger,
	}

	engine := &conversation.DefaultEngine{
		Store:      ctxStore,
		Dispatcher: dispatcher,
		Transcript: transcripts,
		Policy: conversation.MergePolicy{
			ClearSlotsOnNewLocation: config.AppConfig.ClearSlotsOnNewLocation,
		},
		Logger: logger,
	}

	manager := voice.NewManager(engine, voice.Options{
		SettleWindow:    time.Duration(config.AppConfig.SettleWindowMS) * time.Millisecond,
		DuplicateWindow: time.Duration(config.AppConfig.DuplicateWindowMS) * time.Millisecond,
		RestartBackoff:  time.Duration(config.AppConfig.RestartBackoffMS) * time.Millisecond,
	}, logger)

	sessionHandler := handlers.NewSessionHandler(manager)
	conversationHandler := handlers.NewConversationHandler(engine, manager, transcripts)

	routes.RegisterRoutes(router, sessionHandler, conversationHandler)

	utils.StartHealthMonitor(utils.GetContextCacheClient(), database.MongoClient)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("Server forced to shutdown: %v", err)
	}
	logger.Info("Server exited")
}
