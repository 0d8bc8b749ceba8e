package service

import (
	"context"
	"time"

	"vyapari-genie/internal/dto"
	"vyapari-genie/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StatementService derives the monthly financial aggregates behind the
// dashboard: revenue from credits, expenses from debits, and a
// credit-readiness score in the CIBIL-style 300-900 band.
type StatementService struct {
	lineStore      LineStore
	statementStore StatementStore
	logger         *zap.Logger
}

func NewStatementService(lineStore LineStore, statementStore StatementStore, logger *zap.Logger) *StatementService {
	return &StatementService{
		lineStore:      lineStore,
		statementStore: statementStore,
		logger:         logger,
	}
}

type periodTotals struct {
	revenue  float64
	expenses float64
	count    int
}

// Rebuild recomputes the user's statements from the extracted lines of
// completed documents, one statement per calendar month. Lines without a
// date fall into the month they were extracted in.
func (s *StatementService) Rebuild(ctx context.Context, userID uuid.UUID) (int, error) {
	lines, err := s.lineStore.ListCompletedByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}

	totals := make(map[time.Time]*periodTotals)
	for _, line := range lines {
		at := line.CreatedAt
		if line.Date != nil {
			at = *line.Date
		}
		period := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)

		t, ok := totals[period]
		if !ok {
			t = &periodTotals{}
			totals[period] = t
		}
		if line.Credit != nil {
			t.revenue += *line.Credit
		}
		if line.Debit != nil {
			t.expenses += *line.Debit
		}
		t.count++
	}

	now := time.Now()
	for period, t := range totals {
		profit := t.revenue - t.expenses
		st := &models.Statement{
			ID:          uuid.New(),
			UserID:      userID,
			PeriodStart: period,
			PeriodEnd:   period.AddDate(0, 1, 0).Add(-24 * time.Hour),
			Revenue:     t.revenue,
			Expenses:    t.expenses,
			Profit:      profit,
			CashFlow:    profit,
			Score:       computeScore(t.revenue, t.expenses, t.count),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.statementStore.Upsert(ctx, st); err != nil {
			return 0, err
		}
	}

	s.logger.Info("Statements rebuilt",
		zap.String("user_id", userID.String()),
		zap.Int("periods", len(totals)),
	)

	return len(totals), nil
}

func (s *StatementService) ListStatements(ctx context.Context, userID uuid.UUID) ([]*dto.StatementResponse, error) {
	statements, err := s.statementStore.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.StatementResponse, len(statements))
	for i, st := range statements {
		responses[i] = &dto.StatementResponse{
			ID:          st.ID.String(),
			PeriodStart: st.PeriodStart.Format("2006-01-02"),
			PeriodEnd:   st.PeriodEnd.Format("2006-01-02"),
			Revenue:     st.Revenue,
			Expenses:    st.Expenses,
			Profit:      st.Profit,
			CashFlow:    st.CashFlow,
			Score:       st.Score,
		}
	}

	return responses, nil
}

// Summary folds all statements into the dashboard header numbers. The
// reported score is the latest period's score.
func (s *StatementService) Summary(ctx context.Context, userID uuid.UUID) (*dto.DashboardSummaryResponse, error) {
	statements, err := s.statementStore.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &dto.DashboardSummaryResponse{Periods: len(statements)}
	for _, st := range statements {
		summary.TotalRevenue += st.Revenue
		summary.TotalExpenses += st.Expenses
		summary.CashFlow += st.CashFlow
		summary.Score = st.Score
	}
	summary.Profit = summary.TotalRevenue - summary.TotalExpenses
	if summary.TotalRevenue > 0 {
		summary.ProfitMargin = summary.Profit / summary.TotalRevenue
	}

	return summary, nil
}

// computeScore maps a period's activity onto the 300-900 band. Margin
// carries the most weight, then positive cash flow, then sheer activity.
func computeScore(revenue, expenses float64, txCount int) int {
	score := 300.0

	if revenue > 0 {
		score += 100

		margin := (revenue - expenses) / revenue
		if margin < 0 {
			margin = 0
		}
		if margin > 0.5 {
			margin = 0.5
		}
		score += margin / 0.5 * 250
	}

	if revenue-expenses > 0 {
		score += 150
	}

	activity := txCount
	if activity > 20 {
		activity = 20
	}
	score += float64(activity) * 5

	if score > 900 {
		score = 900
	}

	return int(score)
}
