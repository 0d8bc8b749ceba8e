package repository

import (
	"context"

	"vyapari-genie/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var lineColumns = []string{"id", "document_id", "date", "particulars", "counterparty", "debit", "credit", "currency", "created_at"}

type LineRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewLineRepository(db *pgxpool.Pool, logger *zap.Logger) *LineRepository {
	return &LineRepository{
		db:     db,
		logger: logger,
	}
}

// CreateBatch inserts all lines in a single statement, so a failure
// leaves no partial rows behind.
func (r *LineRepository) CreateBatch(ctx context.Context, lines []*models.ExtractedLine) error {
	if len(lines) == 0 {
		return nil
	}

	builder := squirrel.Insert("extracted_lines").
		Columns(lineColumns...).
		PlaceholderFormat(squirrel.Dollar)

	for _, line := range lines {
		builder = builder.Values(line.ID, line.DocumentID, line.Date, line.Particulars, line.Counterparty, line.Debit, line.Credit, line.Currency, line.CreatedAt)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *LineRepository) ListByDocumentID(ctx context.Context, documentID uuid.UUID) ([]*models.ExtractedLine, error) {
	query := squirrel.Select(lineColumns...).
		From("extracted_lines").
		Where(squirrel.Eq{"document_id": documentID}).
		OrderBy("date DESC NULLS LAST", "created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	return r.scanLines(ctx, sql, args)
}

// ListCompletedByUserID returns every line belonging to the user's
// completed documents. Feeds the statement rebuild.
func (r *LineRepository) ListCompletedByUserID(ctx context.Context, userID uuid.UUID) ([]*models.ExtractedLine, error) {
	cols := make([]string, len(lineColumns))
	for i, c := range lineColumns {
		cols[i] = "l." + c
	}

	query := squirrel.Select(cols...).
		From("extracted_lines l").
		Join("documents d ON d.id = l.document_id").
		Where(squirrel.Eq{"d.user_id": userID, "d.status": models.DocumentStatusCompleted}).
		OrderBy("l.date ASC NULLS LAST").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	return r.scanLines(ctx, sql, args)
}

func (r *LineRepository) scanLines(ctx context.Context, sql string, args []interface{}) ([]*models.ExtractedLine, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*models.ExtractedLine
	for rows.Next() {
		var line models.ExtractedLine
		if err := rows.Scan(
			&line.ID, &line.DocumentID, &line.Date, &line.Particulars, &line.Counterparty, &line.Debit, &line.Credit, &line.Currency, &line.CreatedAt,
		); err != nil {
			return nil, err
		}
		lines = append(lines, &line)
	}

	return lines, rows.Err()
}
