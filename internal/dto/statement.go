package dto

type StatementResponse struct {
	ID          string  `json:"id"`
	PeriodStart string  `json:"period_start"`
	PeriodEnd   string  `json:"period_end"`
	Revenue     float64 `json:"revenue"`
	Expenses    float64 `json:"expenses"`
	Profit      float64 `json:"profit"`
	CashFlow    float64 `json:"cash_flow"`
	Score       int     `json:"score"`
}

type DashboardSummaryResponse struct {
	TotalRevenue  float64 `json:"total_revenue"`
	TotalExpenses float64 `json:"total_expenses"`
	Profit        float64 `json:"profit"`
	ProfitMargin  float64 `json:"profit_margin"`
	CashFlow      float64 `json:"cash_flow"`
	Score         int     `json:"score"`
	Periods       int     `json:"periods"`
}

type RebuildStatementsResponse struct {
	Periods int `json:"periods"`
}
