package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"vyapari-genie/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStatementStore struct {
	mu         sync.Mutex
	statements map[string]*models.Statement
}

func newMemStatementStore() *memStatementStore {
	return &memStatementStore{statements: make(map[string]*models.Statement)}
}

func (s *memStatementStore) Upsert(_ context.Context, st *models.Statement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := st.UserID.String() + "/" + st.PeriodStart.Format("2006-01-02")
	copied := *st
	s.statements[key] = &copied
	return nil
}

func (s *memStatementStore) ListByUserID(_ context.Context, userID uuid.UUID) ([]*models.Statement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Statement
	for _, st := range s.statements {
		if st.UserID == userID {
			copied := *st
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *memStatementStore) get(t *testing.T, userID uuid.UUID, periodStart string) *models.Statement {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.statements[userID.String()+"/"+periodStart]
	require.True(t, ok, "statement for %s missing", periodStart)
	return st
}

func ptr(v float64) *float64 { return &v }

func dateAt(s string) *time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &d
}

func TestRebuild_GroupsByMonth(t *testing.T) {
	userID := uuid.New()
	docID := uuid.New()
	lineStore := &memLineStore{lines: []*models.ExtractedLine{
		{ID: uuid.New(), DocumentID: docID, Particulars: "Invoice 12", Credit: ptr(1000), Date: dateAt("2024-03-05"), Currency: "INR"},
		{ID: uuid.New(), DocumentID: docID, Particulars: "Rent", Debit: ptr(400), Date: dateAt("2024-03-20"), Currency: "INR"},
		{ID: uuid.New(), DocumentID: docID, Particulars: "Invoice 13", Credit: ptr(600), Date: dateAt("2024-04-02"), Currency: "INR"},
		// undated line falls into its extraction month
		{ID: uuid.New(), DocumentID: docID, Particulars: "Supplies", Debit: ptr(50), CreatedAt: *dateAt("2024-04-15"), Currency: "INR"},
	}}
	statementStore := newMemStatementStore()

	svc := NewStatementService(lineStore, statementStore, zap.NewNop())

	periods, err := svc.Rebuild(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 2, periods)

	march := statementStore.get(t, userID, "2024-03-01")
	require.Equal(t, 1000.0, march.Revenue)
	require.Equal(t, 400.0, march.Expenses)
	require.Equal(t, 600.0, march.Profit)
	require.Equal(t, "2024-03-31", march.PeriodEnd.Format("2006-01-02"))

	april := statementStore.get(t, userID, "2024-04-01")
	require.Equal(t, 600.0, april.Revenue)
	require.Equal(t, 50.0, april.Expenses)
	require.Equal(t, 550.0, april.Profit)
}

func TestRebuild_Idempotent(t *testing.T) {
	userID := uuid.New()
	lineStore := &memLineStore{lines: []*models.ExtractedLine{
		{ID: uuid.New(), DocumentID: uuid.New(), Particulars: "Sale", Credit: ptr(100), Date: dateAt("2024-05-01"), Currency: "INR"},
	}}
	statementStore := newMemStatementStore()

	svc := NewStatementService(lineStore, statementStore, zap.NewNop())

	_, err := svc.Rebuild(context.Background(), userID)
	require.NoError(t, err)
	_, err = svc.Rebuild(context.Background(), userID)
	require.NoError(t, err)

	statements, err := statementStore.ListByUserID(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, statements, 1)
	require.Equal(t, 100.0, statements[0].Revenue)
}

func TestSummary(t *testing.T) {
	userID := uuid.New()
	statementStore := newMemStatementStore()
	lineStore := &memLineStore{}

	require.NoError(t, statementStore.Upsert(context.Background(), &models.Statement{
		ID: uuid.New(), UserID: userID,
		PeriodStart: *dateAt("2024-03-01"),
		Revenue:     1000, Expenses: 400, Profit: 600, CashFlow: 600, Score: 700,
	}))
	require.NoError(t, statementStore.Upsert(context.Background(), &models.Statement{
		ID: uuid.New(), UserID: userID,
		PeriodStart: *dateAt("2024-04-01"),
		Revenue:     500, Expenses: 600, Profit: -100, CashFlow: -100, Score: 500,
	}))

	svc := NewStatementService(lineStore, statementStore, zap.NewNop())

	summary, err := svc.Summary(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Periods)
	require.Equal(t, 1500.0, summary.TotalRevenue)
	require.Equal(t, 1000.0, summary.TotalExpenses)
	require.Equal(t, 500.0, summary.Profit)
	require.InDelta(t, 500.0/1500.0, summary.ProfitMargin, 1e-9)
}

func TestComputeScore(t *testing.T) {
	tests := []struct {
		name     string
		revenue  float64
		expenses float64
		txCount  int
		want     int
	}{
		{name: "no activity", want: 300},
		{name: "healthy margin", revenue: 1000, expenses: 500, txCount: 2, want: 810},
		{name: "loss making", revenue: 1000, expenses: 1200, txCount: 3, want: 415},
		{name: "capped at 900", revenue: 10000, expenses: 100, txCount: 50, want: 900},
		{name: "expenses only", revenue: 0, expenses: 500, txCount: 4, want: 320},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, computeScore(tt.revenue, tt.expenses, tt.txCount))
		})
	}
}
