package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vyapari-genie/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUploadDocument(t *testing.T) {
	docStore := newMemDocStore()
	uploadDir := t.TempDir()

	svc := NewDocumentService(docStore, &memLineStore{}, uploadDir, "http://localhost:8080", zap.NewNop())
	userID := uuid.New()

	resp, err := svc.UploadDocument(context.Background(), userID, strings.NewReader("fake-image-bytes"), "ledger.jpg", models.DocumentTypeBankStatement)
	require.NoError(t, err)
	require.Equal(t, "bank_statement", resp.Type)
	require.Equal(t, "pending", resp.Status)
	require.True(t, strings.HasPrefix(resp.ImageURL, "http://localhost:8080/uploads/"))
	require.True(t, strings.HasSuffix(resp.ImageURL, ".jpg"))

	// the image landed on disk under the document ID
	stored := filepath.Join(uploadDir, resp.ID+".jpg")
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	require.Equal(t, "fake-image-bytes", string(data))

	doc, err := docStore.GetByID(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	require.Equal(t, userID, doc.UserID)
	require.Equal(t, models.DocumentStatusPending, doc.Status)
}

func TestUploadDocument_UnsupportedFormat(t *testing.T) {
	svc := NewDocumentService(newMemDocStore(), &memLineStore{}, t.TempDir(), "http://localhost:8080", zap.NewNop())

	_, err := svc.UploadDocument(context.Background(), uuid.New(), strings.NewReader("%PDF-1.4"), "statement.pdf", models.DocumentTypeBankStatement)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestGetDocument_OtherUser(t *testing.T) {
	docStore := newMemDocStore()
	svc := NewDocumentService(docStore, &memLineStore{}, t.TempDir(), "http://localhost:8080", zap.NewNop())

	owner := uuid.New()
	resp, err := svc.UploadDocument(context.Background(), owner, strings.NewReader("img"), "bill.png", models.DocumentTypeReceipt)
	require.NoError(t, err)

	_, err = svc.GetDocument(context.Background(), uuid.New(), uuid.MustParse(resp.ID))
	require.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestParseDocumentType(t *testing.T) {
	for _, valid := range []string{"bank_statement", "invoice", "receipt"} {
		docType, ok := models.ParseDocumentType(valid)
		require.True(t, ok)
		require.Equal(t, valid, string(docType))
	}

	_, ok := models.ParseDocumentType("ledger")
	require.False(t, ok)
}
