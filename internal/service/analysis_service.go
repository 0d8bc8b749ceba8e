package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vyapari-genie/internal/dto"
	"vyapari-genie/internal/models"
	"vyapari-genie/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrMissingDocumentID is the only failure with no document to mark:
	// the request never names one.
	ErrMissingDocumentID = errors.New("document id is required")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrNotConfigured     = errors.New("document analysis service is not configured")
	ErrImageFetch        = errors.New("failed to fetch document image")
	ErrStorage           = errors.New("failed to save extracted data")
	ErrRetryNotAllowed   = errors.New("document is not in a failed state")
)

// ParseError reports model output in which no JSON array could be
// located or parsed. Raw carries the original completion for diagnostics.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return "failed to parse extracted data"
}

// extractedTransaction mirrors the JSON object the extraction prompt
// demands from the model.
type extractedTransaction struct {
	Date         string   `json:"date"`
	Particulars  string   `json:"particulars"`
	Counterparty string   `json:"counterparty"`
	Debit        *float64 `json:"debit"`
	Credit       *float64 `json:"credit"`
	Currency     string   `json:"currency"`
}

// AnalysisService runs the document-analysis callout: load the document,
// fetch its image, call the vision model, parse the completion into
// extracted lines and leave the document in a terminal status.
type AnalysisService struct {
	docStore   DocumentStore
	lineStore  LineStore
	gemini     *GeminiClient
	httpClient *http.Client
	logger     *zap.Logger
}

func NewAnalysisService(docStore DocumentStore, lineStore LineStore, gemini *GeminiClient, fetchTimeout time.Duration, logger *zap.Logger) *AnalysisService {
	return &AnalysisService{
		docStore:   docStore,
		lineStore:  lineStore,
		gemini:     gemini,
		httpClient: &http.Client{Timeout: fetchTimeout},
		logger:     logger,
	}
}

// Analyze processes one document end to end. Every failure past document
// lookup writes a terminal failed status before returning; invocations
// run sequentially with no internal parallelism.
func (s *AnalysisService) Analyze(ctx context.Context, userID uuid.UUID, documentID string) (*dto.AnalyzeDocumentResponse, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, ErrMissingDocumentID
	}

	docID, err := uuid.Parse(documentID)
	if err != nil {
		return nil, ErrDocumentNotFound
	}

	doc, err := s.docStore.GetByID(ctx, docID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}

	if doc.UserID != userID {
		return nil, ErrDocumentNotFound
	}

	s.logger.Info("Analyzing document",
		zap.String("document_id", docID.String()),
		zap.String("type", string(doc.Type)),
	)

	// Fire-and-forget transition to processing. This deliberately happens
	// before the credential check to match the observed contract.
	if err := s.docStore.UpdateStatus(ctx, docID, models.DocumentStatusProcessing, ""); err != nil {
		s.logger.Warn("Failed to mark document processing", zap.Error(err))
	}

	if !s.gemini.Configured() {
		s.markFailed(ctx, docID, "API key not configured")
		return nil, ErrNotConfigured
	}

	image, mimeType, err := s.fetchImage(ctx, doc.ImageURL)
	if err != nil {
		s.markFailed(ctx, docID, "failed to fetch image")
		s.logger.Error("Image fetch failed", zap.String("url", doc.ImageURL), zap.Error(err))
		return nil, fmt.Errorf("%w: %s", ErrImageFetch, err)
	}

	content, err := s.gemini.GenerateFromImage(ctx, buildExtractionPrompt(doc.Type), mimeType, image)
	if err != nil {
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			s.markFailed(ctx, docID, fmt.Sprintf("API error: %d", upstream.StatusCode))
		} else {
			s.markFailed(ctx, docID, "API request failed")
		}
		return nil, err
	}

	extracted, err := parseExtractedTransactions(content)
	if err != nil {
		s.markFailed(ctx, docID, "")
		s.logger.Error("Failed to parse model output", zap.String("raw", content))
		return nil, err
	}

	now := time.Now()
	lines := make([]*models.ExtractedLine, 0, len(extracted))
	for _, tx := range extracted {
		line := &models.ExtractedLine{
			ID:           uuid.New(),
			DocumentID:   docID,
			Particulars:  sanitizeUTF8(tx.Particulars),
			Counterparty: sanitizeUTF8(tx.Counterparty),
			Debit:        tx.Debit,
			Credit:       tx.Credit,
			Currency:     tx.Currency,
			CreatedAt:    now,
		}
		if line.Currency == "" {
			line.Currency = "INR"
		}
		if tx.Date != "" {
			if date, err := time.Parse("2006-01-02", tx.Date); err == nil {
				line.Date = &date
			}
		}
		lines = append(lines, line)
	}

	if err := s.lineStore.CreateBatch(ctx, lines); err != nil {
		s.markFailed(ctx, docID, "")
		s.logger.Error("Failed to insert extracted lines", zap.Error(err))
		return nil, fmt.Errorf("%w: %s", ErrStorage, err)
	}

	if err := s.docStore.UpdateStatus(ctx, docID, models.DocumentStatusCompleted, ""); err != nil {
		s.logger.Warn("Failed to mark document completed", zap.Error(err))
	}

	s.logger.Info("Document analysis completed",
		zap.String("document_id", docID.String()),
		zap.Int("extracted_count", len(lines)),
	)

	return &dto.AnalyzeDocumentResponse{
		Success:        true,
		ExtractedCount: len(lines),
		DocumentID:     docID.String(),
	}, nil
}

// Retry resets a failed document to processing and re-runs the callout.
// The conditional transition keeps concurrent retries from doubling up:
// only failed documents re-enter the pipeline this way.
func (s *AnalysisService) Retry(ctx context.Context, userID uuid.UUID, documentID uuid.UUID) (*dto.AnalyzeDocumentResponse, error) {
	doc, err := s.docStore.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}
	if doc.UserID != userID {
		return nil, ErrDocumentNotFound
	}

	ok, err := s.docStore.TransitionStatus(ctx, documentID, models.DocumentStatusFailed, models.DocumentStatusProcessing)
	if err != nil {
		return nil, fmt.Errorf("failed to reset document status: %w", err)
	}
	if !ok {
		return nil, ErrRetryNotAllowed
	}

	return s.Analyze(ctx, userID, documentID.String())
}

func (s *AnalysisService) markFailed(ctx context.Context, id uuid.UUID, message string) {
	if err := s.docStore.UpdateStatus(ctx, id, models.DocumentStatusFailed, message); err != nil {
		s.logger.Warn("Failed to mark document failed", zap.Error(err))
	}
}

// fetchImage pulls the raw bytes behind the stored image URL. The object
// store exposes nothing beyond HTTP GET.
func (s *AnalysisService) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/png"
	}

	return data, mimeType, nil
}

// parseExtractedTransactions locates a JSON array in the completion and
// parses it. It first tries the span from the first '[' to the last ']',
// then the whole text; when both fail the raw text travels back inside a
// ParseError.
func parseExtractedTransactions(content string) ([]extractedTransaction, error) {
	content = strings.TrimSpace(content)

	var transactions []extractedTransaction

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start != -1 && end > start {
		if err := json.Unmarshal([]byte(content[start:end+1]), &transactions); err == nil {
			return transactions, nil
		}
	}

	if err := json.Unmarshal([]byte(content), &transactions); err != nil {
		return nil, &ParseError{Raw: content}
	}

	return transactions, nil
}
