package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vyapari-genie/internal/api"
	"vyapari-genie/internal/api/handlers"
	"vyapari-genie/internal/repository"
	"vyapari-genie/internal/service"
	"vyapari-genie/pkg/auth"
	"vyapari-genie/pkg/config"
	"vyapari-genie/pkg/logger"
	"vyapari-genie/pkg/postgres"

	"go.uber.org/zap"
)

// @title Vyapari Credit Genie API
// @version 1.0
// @description Credit-readiness backend for small businesses: upload photographed ledgers, invoices and receipts, extract transactions with a vision model and view derived financial summaries.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting Vyapari Credit Genie service")

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	profileRepo := repository.NewProfileRepository(db, appLogger)
	docRepo := repository.NewDocumentRepository(db, appLogger)
	lineRepo := repository.NewLineRepository(db, appLogger)
	statementRepo := repository.NewStatementRepository(db, appLogger)

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Services
	authService := service.NewAuthService(userRepo, profileRepo, jwtManager, appLogger)
	profileService := service.NewProfileService(profileRepo, appLogger)

	geminiClient := service.NewGeminiClient(&cfg.Gemini, appLogger)
	if !geminiClient.Configured() {
		appLogger.Warn("GEMINI_API_KEY is not set; document analysis will fail until configured")
	}

	analysisService := service.NewAnalysisService(docRepo, lineRepo, geminiClient, cfg.Gemini.Timeout, appLogger)
	docService := service.NewDocumentService(docRepo, lineRepo, cfg.Storage.UploadDir, cfg.Storage.PublicBaseURL, appLogger)
	statementService := service.NewStatementService(lineRepo, statementRepo, appLogger)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	docHandler := handlers.NewDocumentHandler(docService, analysisService, appLogger)
	statementHandler := handlers.NewStatementHandler(statementService, appLogger)
	profileHandler := handlers.NewProfileHandler(profileService, appLogger)

	app := api.SetupRouter(authHandler, docHandler, statementHandler, profileHandler, jwtManager, cfg.Storage.UploadDir, appLogger)

	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
