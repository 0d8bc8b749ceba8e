package service

import "vyapari-genie/internal/models"

const basePrompt = `Analyze this financial document and extract transaction data. Return ONLY a JSON array of transactions with this exact structure:
[
  {
    "date": "YYYY-MM-DD",
    "particulars": "transaction description",
    "counterparty": "party name or bank/institution",
    "debit": amount or null,
    "credit": amount or null,
    "currency": "INR"
  }
]

Important rules:
- Use only numbers for debit/credit (no currency symbols)
- Date must be YYYY-MM-DD format
- For debit transactions, put amount in "debit" field and null in "credit"
- For credit transactions, put amount in "credit" field and null in "debit"
- Extract counterparty from transaction details (bank name, merchant, etc.)
- Return empty array [] if no transactions found
- Return ONLY the JSON array, no other text`

// buildExtractionPrompt biases the instruction toward the declared
// document type: invoices map the total to credit, receipts to debit.
func buildExtractionPrompt(docType models.DocumentType) string {
	switch docType {
	case models.DocumentTypeBankStatement:
		return basePrompt + `

This is a bank statement. Look for:
- Transaction dates
- Description/particulars of each transaction
- Debit and credit amounts
- Counterparty information (merchant names, transfer recipients, etc.)`

	case models.DocumentTypeInvoice:
		return basePrompt + `

This is an invoice. Extract:
- Invoice date
- Invoice number in particulars
- Client/customer name as counterparty
- Total amount as credit (incoming payment)`

	case models.DocumentTypeReceipt:
		return basePrompt + `

This is a receipt. Extract:
- Date of purchase
- Vendor/store name as counterparty
- Item description in particulars
- Total amount as debit (outgoing payment)`

	default:
		return basePrompt
	}
}
