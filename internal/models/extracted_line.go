package models

import (
	"time"

	"github.com/google/uuid"
)

// ExtractedLine is one parsed financial transaction derived from a Document.
// Rows are created only by the analysis callout and never updated.
// Debit and credit are both optional; a line may carry either, both or
// neither.
type ExtractedLine struct {
	ID           uuid.UUID  `db:"id"`
	DocumentID   uuid.UUID  `db:"document_id"`
	Date         *time.Time `db:"date"`
	Particulars  string     `db:"particulars"`
	Counterparty string     `db:"counterparty"`
	Debit        *float64   `db:"debit"`
	Credit       *float64   `db:"credit"`
	Currency     string     `db:"currency"`
	CreatedAt    time.Time  `db:"created_at"`
}
