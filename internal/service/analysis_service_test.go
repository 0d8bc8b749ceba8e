package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"vyapari-genie/internal/models"
	"vyapari-genie/internal/repository"
	"vyapari-genie/pkg/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memDocStore struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*models.Document
}

func newMemDocStore() *memDocStore {
	return &memDocStore{docs: make(map[uuid.UUID]*models.Document)}
}

func (s *memDocStore) Create(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *doc
	s.docs[doc.ID] = &copied
	return nil
}

func (s *memDocStore) GetByID(_ context.Context, id uuid.UUID) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (s *memDocStore) UpdateStatus(_ context.Context, id uuid.UUID, status models.DocumentStatus, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	doc.Status = status
	doc.ErrorMessage = errorMessage
	doc.UpdatedAt = time.Now()
	return nil
}

func (s *memDocStore) TransitionStatus(_ context.Context, id uuid.UUID, from, to models.DocumentStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok || doc.Status != from {
		return false, nil
	}
	doc.Status = to
	doc.ErrorMessage = ""
	return true, nil
}

func (s *memDocStore) ListByUserID(_ context.Context, userID uuid.UUID, _, _ int) ([]*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Document
	for _, doc := range s.docs {
		if doc.UserID == userID {
			copied := *doc
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *memDocStore) status(t *testing.T, id uuid.UUID) models.DocumentStatus {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	require.True(t, ok)
	return doc.Status
}

func (s *memDocStore) errorMessage(t *testing.T, id uuid.UUID) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	require.True(t, ok)
	return doc.ErrorMessage
}

type memLineStore struct {
	mu        sync.Mutex
	lines     []*models.ExtractedLine
	insertErr error
}

func (s *memLineStore) CreateBatch(_ context.Context, lines []*models.ExtractedLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.lines = append(s.lines, lines...)
	return nil
}

func (s *memLineStore) ListByDocumentID(_ context.Context, documentID uuid.UUID) ([]*models.ExtractedLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ExtractedLine
	for _, line := range s.lines {
		if line.DocumentID == documentID {
			out = append(out, line)
		}
	}
	return out, nil
}

func (s *memLineStore) ListCompletedByUserID(_ context.Context, _ uuid.UUID) ([]*models.ExtractedLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.ExtractedLine(nil), s.lines...), nil
}

func (s *memLineStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// geminiStub serves the generateContent envelope with a fixed completion.
func geminiStub(t *testing.T, statusCode int, completion string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if statusCode != http.StatusOK {
			w.WriteHeader(statusCode)
			fmt.Fprint(w, `{"error": {"message": "boom"}}`)
			return
		}

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"parts": []map[string]interface{}{
							{"text": completion},
						},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func imageStub(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
}

type analysisFixture struct {
	svc       *AnalysisService
	docStore  *memDocStore
	lineStore *memLineStore
	userID    uuid.UUID
	docID     uuid.UUID
}

func newAnalysisFixture(t *testing.T, geminiURL, apiKey string, docType models.DocumentType, imageURL string) *analysisFixture {
	t.Helper()

	docStore := newMemDocStore()
	lineStore := &memLineStore{}

	cfg := &config.GeminiConfig{
		APIKey:  apiKey,
		Model:   "gemini-1.5-flash",
		BaseURL: geminiURL,
		Timeout: 5 * time.Second,
	}
	client := NewGeminiClient(cfg, zap.NewNop())
	svc := NewAnalysisService(docStore, lineStore, client, 5*time.Second, zap.NewNop())

	userID := uuid.New()
	docID := uuid.New()
	now := time.Now()
	require.NoError(t, docStore.Create(context.Background(), &models.Document{
		ID:        docID,
		UserID:    userID,
		Type:      docType,
		ImageURL:  imageURL,
		Status:    models.DocumentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}))

	return &analysisFixture{
		svc:       svc,
		docStore:  docStore,
		lineStore: lineStore,
		userID:    userID,
		docID:     docID,
	}
}

func TestAnalyze_Success(t *testing.T) {
	completion := `[{"date":"2024-03-01","particulars":"Grocery","counterparty":"ABC Mart","debit":450,"credit":null,"currency":"INR"}]`
	gemini := geminiStub(t, http.StatusOK, completion)
	defer gemini.Close()
	images := imageStub(t)
	defer images.Close()

	fx := newAnalysisFixture(t, gemini.URL, "test-key", models.DocumentTypeReceipt, images.URL+"/doc.png")

	resp, err := fx.svc.Analyze(context.Background(), fx.userID, fx.docID.String())
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, 1, resp.ExtractedCount)
	require.Equal(t, fx.docID.String(), resp.DocumentID)

	require.Equal(t, models.DocumentStatusCompleted, fx.docStore.status(t, fx.docID))

	lines, err := fx.lineStore.ListByDocumentID(context.Background(), fx.docID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, "Grocery", lines[0].Particulars)
	require.Equal(t, "ABC Mart", lines[0].Counterparty)
	require.NotNil(t, lines[0].Debit)
	require.Equal(t, 450.0, *lines[0].Debit)
	require.Nil(t, lines[0].Credit)
	require.Equal(t, "INR", lines[0].Currency)
	require.NotNil(t, lines[0].Date)
	require.Equal(t, "2024-03-01", lines[0].Date.Format("2006-01-02"))
}

func TestAnalyze_MissingDocumentID(t *testing.T) {
	gemini := geminiStub(t, http.StatusOK, "[]")
	defer gemini.Close()

	fx := newAnalysisFixture(t, gemini.URL, "test-key", models.DocumentTypeReceipt, "http://unused.local/doc.png")

	_, err := fx.svc.Analyze(context.Background(), fx.userID, "")
	require.ErrorIs(t, err, ErrMissingDocumentID)

	// no document named, so nothing was mutated
	require.Equal(t, models.DocumentStatusPending, fx.docStore.status(t, fx.docID))
}

func TestAnalyze_DocumentNotFound(t *testing.T) {
	gemini := geminiStub(t, http.StatusOK, "[]")
	defer gemini.Close()

	fx := newAnalysisFixture(t, gemini.URL, "test-key", models.DocumentTypeReceipt, "http://unused.local/doc.png")

	_, err := fx.svc.Analyze(context.Background(), fx.userID, uuid.NewString())
	require.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestAnalyze_OtherUsersDocument(t *testing.T) {
	gemini := geminiStub(t, http.StatusOK, "[]")
	defer gemini.Close()

	fx := newAnalysisFixture(t, gemini.URL, "test-key", models.DocumentTypeReceipt, "http://unused.local/doc.png")

	_, err := fx.svc.Analyze(context.Background(), uuid.New(), fx.docID.String())
	require.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestAnalyze_MissingAPIKey(t *testing.T) {
	gemini := geminiStub(t, http.StatusOK, "[]")
	defer gemini.Close()

	fx := newAnalysisFixture(t, gemini.URL, "", models.DocumentTypeReceipt, "http://unused.local/doc.png")

	_, err := fx.svc.Analyze(context.Background(), fx.userID, fx.docID.String())
	require.ErrorIs(t, err, ErrNotConfigured)

	require.Equal(t, models.DocumentStatusFailed, fx.docStore.status(t, fx.docID))
	require.Equal(t, "API key not configured", fx.docStore.errorMessage(t, fx.docID))
	require.Zero(t, fx.lineStore.count())
}

func TestAnalyze_UpstreamFailure(t *testing.T) {
	gemini := geminiStub(t, http.StatusInternalServerError, "")
	defer gemini.Close()
	images := imageStub(t)
	defer images.Close()

	fx := newAnalysisFixture(t, gemini.URL, "test-key", models.DocumentTypeInvoice, images.URL+"/doc.png")

	_, err := fx.svc.Analyze(context.Background(), fx.userID, fx.docID.String())

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, http.StatusInternalServerError, upstream.StatusCode)

	require.Equal(t, models.DocumentStatusFailed, fx.docStore.status(t, fx.docID))
	require.Equal(t, "API error: 500", fx.docStore.errorMessage(t, fx.docID))
	require.Zero(t, fx.lineStore.count())
}

func TestAnalyze_UnparseableCompletion(t *testing.T) {
	raw := "I am sorry, I cannot read this document."
	gemini := geminiStub(t, http.StatusOK, raw)
	defer gemini.Close()
	images := imageStub(t)
	defer images.Close()

	fx := newAnalysisFixture(t, gemini.URL, "test-key", models.DocumentTypeBankStatement, images.URL+"/doc.png")

	_, err := fx.svc.Analyze(context.Background(), fx.userID, fx.docID.String())

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, raw, parseErr.Raw)

	require.Equal(t, models.DocumentStatusFailed, fx.docStore.status(t, fx.docID))
	require.Zero(t, fx.lineStore.count())
}

func TestAnalyze_MarkdownWrappedCompletion(t *testing.T) {
	completion := "```json\n[{\"date\":\"2024-04-02\",\"particulars\":\"Invoice 42\",\"counterparty\":\"Gupta Traders\",\"debit\":null,\"credit\":1200,\"currency\":\"INR\"}]\n```"
	gemini := geminiStub(t, http.StatusOK, completion)
	defer gemini.Close()
	images := imageStub(t)
	defer images.Close()

	fx := newAnalysisFixture(t, gemini.URL, "test-key", models.DocumentTypeInvoice, images.URL+"/doc.png")

	resp, err := fx.svc.Analyze(context.Background(), fx.userID, fx.docID.String())
	require.NoError(t, err)
	require.Equal(t, 1, resp.ExtractedCount)
	require.Equal(t, models.DocumentStatusCompleted, fx.docStore.status(t, fx.docID))
}

func TestAnalyze_EmptyArrayCompletes(t *testing.T) {
	gemini := geminiStub(t, http.StatusOK, "[]")
	defer gemini.Close()
	images := imageStub(t)
	defer images.Close()

	fx := newAnalysisFixture(t, gemini.URL, "test-key", models.DocumentTypeReceipt, images.URL+"/doc.png")

	resp, err := fx.svc.Analyze(context.Background(), fx.userID, fx.docID.String())
	require.NoError(t, err)
	require.Equal(t, 0, resp.ExtractedCount)
	require.Equal(t, models.DocumentStatusCompleted, fx.docStore.status(t, fx.docID))
}

func TestAnalyze_InsertFailure(t *testing.T) {
	completion := `[{"particulars":"Grocery","counterparty":"ABC Mart","debit":450,"credit":null,"currency":"INR"}]`
	gemini := geminiStub(t, http.StatusOK, completion)
	defer gemini.Close()
	images := imageStub(t)
	defer images.Close()

	fx := newAnalysisFixture(t, gemini.URL, "test-key", models.DocumentTypeReceipt, images.URL+"/doc.png")
	fx.lineStore.insertErr = errors.New("connection refused")

	_, err := fx.svc.Analyze(context.Background(), fx.userID, fx.docID.String())
	require.ErrorIs(t, err, ErrStorage)
	require.Equal(t, models.DocumentStatusFailed, fx.docStore.status(t, fx.docID))
}

func TestAnalyze_ImageFetchFailure(t *testing.T) {
	gemini := geminiStub(t, http.StatusOK, "[]")
	defer gemini.Close()
	images := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer images.Close()

	fx := newAnalysisFixture(t, gemini.URL, "test-key", models.DocumentTypeReceipt, images.URL+"/doc.png")

	_, err := fx.svc.Analyze(context.Background(), fx.userID, fx.docID.String())
	require.ErrorIs(t, err, ErrImageFetch)
	require.Equal(t, models.DocumentStatusFailed, fx.docStore.status(t, fx.docID))
}

// Re-running a completed document re-runs the full pipeline and inserts
// the lines again. That duplication is the current contract, asserted
// here on purpose rather than silently papered over.
func TestAnalyze_SecondInvocationDuplicatesLines(t *testing.T) {
	completion := `[{"date":"2024-03-01","particulars":"Grocery","counterparty":"ABC Mart","debit":450,"credit":null,"currency":"INR"}]`
	gemini := geminiStub(t, http.StatusOK, completion)
	defer gemini.Close()
	images := imageStub(t)
	defer images.Close()

	fx := newAnalysisFixture(t, gemini.URL, "test-key", models.DocumentTypeReceipt, images.URL+"/doc.png")

	_, err := fx.svc.Analyze(context.Background(), fx.userID, fx.docID.String())
	require.NoError(t, err)
	_, err = fx.svc.Analyze(context.Background(), fx.userID, fx.docID.String())
	require.NoError(t, err)

	require.Equal(t, 2, fx.lineStore.count())
}

func TestRetry_OnlyFromFailed(t *testing.T) {
	completion := `[{"particulars":"Grocery","counterparty":"ABC Mart","debit":450,"credit":null,"currency":"INR"}]`
	gemini := geminiStub(t, http.StatusOK, completion)
	defer gemini.Close()
	images := imageStub(t)
	defer images.Close()

	fx := newAnalysisFixture(t, gemini.URL, "test-key", models.DocumentTypeReceipt, images.URL+"/doc.png")

	// not failed yet
	_, err := fx.svc.Retry(context.Background(), fx.userID, fx.docID)
	require.ErrorIs(t, err, ErrRetryNotAllowed)

	require.NoError(t, fx.docStore.UpdateStatus(context.Background(), fx.docID, models.DocumentStatusFailed, "API error: 502"))

	resp, err := fx.svc.Retry(context.Background(), fx.userID, fx.docID)
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, models.DocumentStatusCompleted, fx.docStore.status(t, fx.docID))
}

func TestParseExtractedTransactions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
		wantErr bool
	}{
		{
			name:    "plain array",
			content: `[{"particulars":"a"},{"particulars":"b"}]`,
			want:    2,
		},
		{
			name:    "array wrapped in prose",
			content: "Here is the data:\n[{\"particulars\":\"a\"}]\nLet me know if you need more.",
			want:    1,
		},
		{
			name:    "empty array",
			content: "[]",
			want:    0,
		},
		{
			name:    "no json at all",
			content: "The image is too blurry to read.",
			wantErr: true,
		},
		{
			name:    "brackets but not json",
			content: "[this is not json]",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseExtractedTransactions(tt.content)
			if tt.wantErr {
				var parseErr *ParseError
				require.ErrorAs(t, err, &parseErr)
				require.Equal(t, tt.content, parseErr.Raw)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, tt.want)
		})
	}
}

func TestBuildExtractionPrompt(t *testing.T) {
	bank := buildExtractionPrompt(models.DocumentTypeBankStatement)
	require.Contains(t, bank, "bank statement")

	invoice := buildExtractionPrompt(models.DocumentTypeInvoice)
	require.Contains(t, invoice, "Total amount as credit")

	receipt := buildExtractionPrompt(models.DocumentTypeReceipt)
	require.Contains(t, receipt, "Total amount as debit")

	for _, prompt := range []string{bank, invoice, receipt} {
		require.Contains(t, prompt, "Return ONLY the JSON array, no other text")
	}
}
