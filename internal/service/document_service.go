package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vyapari-genie/internal/dto"
	"vyapari-genie/internal/models"
	"vyapari-genie/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// DocumentService owns the upload flow and the client-facing document
// reads. Uploaded images land on local disk and are served back over
// HTTP, so the analysis callout sees them the same way it would see any
// object store: a URL answering GET.
type DocumentService struct {
	docStore      DocumentStore
	lineStore     LineStore
	uploadDir     string
	publicBaseURL string
	logger        *zap.Logger
}

func NewDocumentService(docStore DocumentStore, lineStore LineStore, uploadDir, publicBaseURL string, logger *zap.Logger) *DocumentService {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		logger.Warn("Failed to create upload directory", zap.Error(err))
	}

	return &DocumentService{
		docStore:      docStore,
		lineStore:     lineStore,
		uploadDir:     uploadDir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}
}

// UploadDocument stores the image and creates a pending document row.
func (s *DocumentService) UploadDocument(ctx context.Context, userID uuid.UUID, file io.Reader, fileName string, docType models.DocumentType) (*dto.DocumentResponse, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	docID := uuid.New()
	storedName := docID.String() + ext
	filePath := filepath.Join(s.uploadDir, storedName)

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	now := time.Now()
	doc := &models.Document{
		ID:        docID,
		UserID:    userID,
		Type:      docType,
		ImageURL:  s.publicBaseURL + "/uploads/" + storedName,
		Status:    models.DocumentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.docStore.Create(ctx, doc); err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	s.logger.Info("Document uploaded",
		zap.String("document_id", docID.String()),
		zap.String("type", string(docType)),
	)

	return toDocumentResponse(doc), nil
}

func (s *DocumentService) ListDocuments(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*dto.DocumentResponse, error) {
	docs, err := s.docStore.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.DocumentResponse, len(docs))
	for i, doc := range docs {
		responses[i] = toDocumentResponse(doc)
	}

	return responses, nil
}

// GetDocument returns one document with its extracted lines.
func (s *DocumentService) GetDocument(ctx context.Context, userID uuid.UUID, documentID uuid.UUID) (*dto.DocumentDetailResponse, error) {
	doc, err := s.docStore.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	if doc.UserID != userID {
		return nil, ErrDocumentNotFound
	}

	lines, err := s.lineStore.ListByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	lineResponses := make([]dto.ExtractedLineResponse, len(lines))
	for i, line := range lines {
		lineResponses[i] = toLineResponse(line)
	}

	return &dto.DocumentDetailResponse{
		Document: *toDocumentResponse(doc),
		Lines:    lineResponses,
	}, nil
}

func toDocumentResponse(doc *models.Document) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		ID:           doc.ID.String(),
		Type:         string(doc.Type),
		ImageURL:     doc.ImageURL,
		Status:       string(doc.Status),
		ErrorMessage: doc.ErrorMessage,
		CreatedAt:    doc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    doc.UpdatedAt.Format(time.RFC3339),
	}
}

func toLineResponse(line *models.ExtractedLine) dto.ExtractedLineResponse {
	resp := dto.ExtractedLineResponse{
		ID:           line.ID.String(),
		Particulars:  line.Particulars,
		Counterparty: line.Counterparty,
		Debit:        line.Debit,
		Credit:       line.Credit,
		Currency:     line.Currency,
		CreatedAt:    line.CreatedAt.Format(time.RFC3339),
	}
	if line.Date != nil {
		d := line.Date.Format("2006-01-02")
		resp.Date = &d
	}
	return resp
}
