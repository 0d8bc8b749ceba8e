package models

import (
	"time"

	"github.com/google/uuid"
)

type DocumentType string

const (
	DocumentTypeBankStatement DocumentType = "bank_statement"
	DocumentTypeInvoice       DocumentType = "invoice"
	DocumentTypeReceipt       DocumentType = "receipt"
)

type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Document is one uploaded image plus its processing lifecycle.
// Status moves pending -> processing -> completed/failed; only a manual
// retry resets failed back to processing.
type Document struct {
	ID           uuid.UUID      `db:"id"`
	UserID       uuid.UUID      `db:"user_id"`
	Type         DocumentType   `db:"type"`
	ImageURL     string         `db:"image_url"`
	Status       DocumentStatus `db:"status"`
	ErrorMessage string         `db:"error_message"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// ParseDocumentType validates a client-supplied document type.
func ParseDocumentType(s string) (DocumentType, bool) {
	switch DocumentType(s) {
	case DocumentTypeBankStatement, DocumentTypeInvoice, DocumentTypeReceipt:
		return DocumentType(s), true
	}
	return "", false
}
