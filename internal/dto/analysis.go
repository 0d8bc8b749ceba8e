package dto

type AnalyzeDocumentRequest struct {
	DocumentID string `json:"document_id"`
}

type AnalyzeDocumentResponse struct {
	Success        bool   `json:"success"`
	ExtractedCount int    `json:"extracted_count"`
	DocumentID     string `json:"document_id"`
}

// ErrorResponse is the uniform error body. RawResponse is only populated
// for parse failures, carrying the unparseable model output for diagnostics.
type ErrorResponse struct {
	Error       string `json:"error"`
	RawResponse string `json:"raw_response,omitempty"`
}
