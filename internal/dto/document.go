package dto

type DocumentResponse struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	ImageURL     string `json:"image_url"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type ExtractedLineResponse struct {
	ID           string   `json:"id"`
	Date         *string  `json:"date"`
	Particulars  string   `json:"particulars"`
	Counterparty string   `json:"counterparty"`
	Debit        *float64 `json:"debit"`
	Credit       *float64 `json:"credit"`
	Currency     string   `json:"currency"`
	CreatedAt    string   `json:"created_at"`
}

type DocumentDetailResponse struct {
	Document DocumentResponse        `json:"document"`
	Lines    []ExtractedLineResponse `json:"lines"`
}
