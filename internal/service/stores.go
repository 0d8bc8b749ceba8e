package service

import (
	"context"

	"vyapari-genie/internal/models"

	"github.com/google/uuid"
)

// Store interfaces are satisfied by the repository package; tests plug in
// in-memory fakes.

type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.DocumentStatus, errorMessage string) error
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.DocumentStatus) (bool, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Document, error)
}

type LineStore interface {
	CreateBatch(ctx context.Context, lines []*models.ExtractedLine) error
	ListByDocumentID(ctx context.Context, documentID uuid.UUID) ([]*models.ExtractedLine, error)
	ListCompletedByUserID(ctx context.Context, userID uuid.UUID) ([]*models.ExtractedLine, error)
}

type StatementStore interface {
	Upsert(ctx context.Context, st *models.Statement) error
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Statement, error)
}
