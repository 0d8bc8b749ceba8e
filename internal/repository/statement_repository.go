package repository

import (
	"context"

	"vyapari-genie/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var statementColumns = []string{"id", "user_id", "period_start", "period_end", "revenue", "expenses", "profit", "cash_flow", "score", "created_at", "updated_at"}

type StatementRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewStatementRepository(db *pgxpool.Pool, logger *zap.Logger) *StatementRepository {
	return &StatementRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert writes the aggregate for one (user, period) pair. Rebuilds run
// repeatedly, so the period acts as the conflict key.
func (r *StatementRepository) Upsert(ctx context.Context, st *models.Statement) error {
	query := squirrel.Insert("statements").
		Columns(statementColumns...).
		Values(st.ID, st.UserID, st.PeriodStart, st.PeriodEnd, st.Revenue, st.Expenses, st.Profit, st.CashFlow, st.Score, st.CreatedAt, st.UpdatedAt).
		Suffix(`ON CONFLICT (user_id, period_start) DO UPDATE SET
			period_end = EXCLUDED.period_end,
			revenue = EXCLUDED.revenue,
			expenses = EXCLUDED.expenses,
			profit = EXCLUDED.profit,
			cash_flow = EXCLUDED.cash_flow,
			score = EXCLUDED.score,
			updated_at = EXCLUDED.updated_at`).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *StatementRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Statement, error) {
	query := squirrel.Select(statementColumns...).
		From("statements").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("period_start ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statements []*models.Statement
	for rows.Next() {
		var st models.Statement
		if err := rows.Scan(
			&st.ID, &st.UserID, &st.PeriodStart, &st.PeriodEnd, &st.Revenue, &st.Expenses, &st.Profit, &st.CashFlow, &st.Score, &st.CreatedAt, &st.UpdatedAt,
		); err != nil {
			return nil, err
		}
		statements = append(statements, &st)
	}

	return statements, rows.Err()
}
