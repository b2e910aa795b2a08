// File: aerovoice/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aerovoice/config"
	"aerovoice/cron"
	"aerovoice/database"
	archiveRepo "aerovoice/database/repository/archive"
	"aerovoice/handlers"
	"aerovoice/middleware"
	"aerovoice/routes"
	"aerovoice/services/dialog"
	"aerovoice/services/flights"
	"aerovoice/services/payment"
	"aerovoice/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	archive := archiveRepo.NewMongoArchiveRepo()

	// services.
	sessionStore := dialog.NewRedisSessionStore(
		utils.GetSessionCacheClient(),
		time.Duration(config.AppConfig.SessionTTLMin)*time.Minute,
	)

	ruleClassifier := dialog.NewRuleClassifier()
	var primary dialog.Classifier
	if config.AppConfig.GeminiAPIKey != "" {
		primary = dialog.NewGeminiClassifier(config.AppConfig.GeminiAPIKey)
	}
	classifier := dialog.NewFallbackClassifier(
		primary,
		ruleClassifier,
		time.Duration(config.AppConfig.ClassifyTimeoutMS)*time.Millisecond,
		logger,
	)

	synthetic := flights.NewSyntheticSearchService()
	var searchSvc flights.SearchService = synthetic
	if config.AppConfig.FlightSearchURL != "" {
		searchSvc = flights.NewHTTPSearchService(
			config.AppConfig.FlightSearchURL,
			time.Duration(config.AppConfig.FlightSearchTimeoutMS)*time.Millisecond,
			utils.GetFlightCacheClient(),
			10*time.Minute,
			synthetic,
			logger,
		)
	}

	paymentSvc := payment.NewStripeIntentService(logger)

	engine := dialog.NewDefaultDialogEngine(
		sessionStore,
		classifier,
		searchSvc,
		paymentSvc,
		archive,
		logger,
	)

	dialogHandler := handlers.NewDialogHandler(engine, logger)
	voiceHandler := handlers.NewVoiceHandler(engine, logger)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		StartSessionHandler:    dialogHandler.StartSessionHandler,
		ProcessTurnHandler:     dialogHandler.ProcessTurnHandler,
		VoiceTurnHandler:       voiceHandler.VoiceTurnHandler,
		RecordUtteranceHandler: dialogHandler.RecordUtteranceHandler,
		GetSessionHandler:      dialogHandler.GetSessionHandler,
		ResetSessionHandler:    dialogHandler.ResetSessionHandler,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Background jobs and health monitoring.
	cron.InitSessionSweeper(sessionStore, archive)
	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetSessionCacheClient(), utils.GetFlightCacheClient()},
		database.MongoClient,
	)

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
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
