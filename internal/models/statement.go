package models

import (
	"time"

	"github.com/google/uuid"
)

// Statement is a derived monthly aggregate of a user's extracted lines.
// Score sits in the CIBIL-style 300-900 band.
type Statement struct {
	ID          uuid.UUID `db:"id"`
	UserID      uuid.UUID `db:"user_id"`
	PeriodStart time.Time `db:"period_start"`
	PeriodEnd   time.Time `db:"period_end"`
	Revenue     float64   `db:"revenue"`
	Expenses    float64   `db:"expenses"`
	Profit      float64   `db:"profit"`
	CashFlow    float64   `db:"cash_flow"`
	Score       int       `db:"score"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
