package main

import (
	"context"
	"log"
	"time"

	"vyapari-genie/internal/models"
	"vyapari-genie/internal/repository"
	"vyapari-genie/internal/service"
	"vyapari-genie/pkg/auth"
	"vyapari-genie/pkg/config"
	"vyapari-genie/pkg/logger"
	"vyapari-genie/pkg/postgres"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Seeds a demo merchant with a couple of analyzed documents so the
// dashboard renders on a fresh database.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db, appLogger)
	profileRepo := repository.NewProfileRepository(db, appLogger)
	docRepo := repository.NewDocumentRepository(db, appLogger)
	lineRepo := repository.NewLineRepository(db, appLogger)
	statementRepo := repository.NewStatementRepository(db, appLogger)

	appLogger.Info("Starting database seeding")

	if existing, _ := userRepo.GetByEmail(ctx, "demo@vyapari-genie.in"); existing != nil {
		appLogger.Info("Demo user already exists, skipping seed")
		return
	}

	now := time.Now()
	hashed, err := auth.HashPassword("demo-password")
	if err != nil {
		appLogger.Fatal("Failed to hash demo password", zap.Error(err))
	}

	user := &models.User{
		ID:        uuid.New(),
		Username:  "demo-merchant",
		Email:     "demo@vyapari-genie.in",
		Password:  hashed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		appLogger.Fatal("Failed to create demo user", zap.Error(err))
	}

	profile := &models.Profile{
		ID:           uuid.New(),
		UserID:       user.ID,
		DisplayName:  "Demo Merchant",
		BusinessName: "Sharma General Store",
		Phone:        "+91 98765 43210",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := profileRepo.Create(ctx, profile); err != nil {
		appLogger.Fatal("Failed to create demo profile", zap.Error(err))
	}

	docID := uuid.New()
	doc := &models.Document{
		ID:        docID,
		UserID:    user.ID,
		Type:      models.DocumentTypeBankStatement,
		ImageURL:  cfg.Storage.PublicBaseURL + "/uploads/demo-statement.png",
		Status:    models.DocumentStatusCompleted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := docRepo.Create(ctx, doc); err != nil {
		appLogger.Fatal("Failed to create demo document", zap.Error(err))
	}

	lines := demoLines(docID, now)
	if err := lineRepo.CreateBatch(ctx, lines); err != nil {
		appLogger.Fatal("Failed to create demo lines", zap.Error(err))
	}

	statementService := service.NewStatementService(lineRepo, statementRepo, appLogger)
	periods, err := statementService.Rebuild(ctx, user.ID)
	if err != nil {
		appLogger.Fatal("Failed to rebuild statements", zap.Error(err))
	}

	appLogger.Info("Database seeding completed",
		zap.String("user", user.Email),
		zap.Int("lines", len(lines)),
		zap.Int("periods", periods),
	)
}

func demoLines(docID uuid.UUID, now time.Time) []*models.ExtractedLine {
	amount := func(v float64) *float64 { return &v }
	day := func(offset int) *time.Time {
		d := now.AddDate(0, 0, -offset)
		d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		return &d
	}

	return []*models.ExtractedLine{
		{
			ID:           uuid.New(),
			DocumentID:   docID,
			Date:         day(20),
			Particulars:  "UPI credit - wholesale order",
			Counterparty: "Gupta Traders",
			Credit:       amount(18500),
			Currency:     "INR",
			CreatedAt:    now,
		},
		{
			ID:           uuid.New(),
			DocumentID:   docID,
			Date:         day(15),
			Particulars:  "Stock purchase",
			Counterparty: "Metro Cash & Carry",
			Debit:        amount(7200),
			Currency:     "INR",
			CreatedAt:    now,
		},
		{
			ID:           uuid.New(),
			DocumentID:   docID,
			Date:         day(10),
			Particulars:  "Counter sales deposit",
			Counterparty: "Cash deposit",
			Credit:       amount(9400),
			Currency:     "INR",
			CreatedAt:    now,
		},
		{
			ID:           uuid.New(),
			DocumentID:   docID,
			Date:         day(5),
			Particulars:  "Shop rent",
			Counterparty: "Agarwal Properties",
			Debit:        amount(5000),
			Currency:     "INR",
			CreatedAt:    now,
		},
	}
}
