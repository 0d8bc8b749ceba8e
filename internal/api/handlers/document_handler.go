package handlers

import (
	"errors"
	"fmt"

	"vyapari-genie/internal/dto"
	"vyapari-genie/internal/models"
	"vyapari-genie/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	docService      *service.DocumentService
	analysisService *service.AnalysisService
	logger          *zap.Logger
}

func NewDocumentHandler(docService *service.DocumentService, analysisService *service.AnalysisService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService:      docService,
		analysisService: analysisService,
		logger:          logger,
	}
}

// UploadDocument godoc
// @Summary Upload a financial document
// @Description Upload a photographed ledger page, invoice or receipt for analysis
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document image"
// @Param type formData string true "Document type: bank_statement, invoice, or receipt"
// @Security Bearer
// @Success 201 {object} dto.DocumentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/v1/documents/upload [post]
func (h *DocumentHandler) UploadDocument(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	docType, ok := models.ParseDocumentType(c.FormValue("type"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document type",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open file",
		})
	}
	defer src.Close()

	doc, err := h.docService.UploadDocument(c.Context(), userID, src, file.Filename, docType)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedFormat) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unsupported file format",
			})
		}
		h.logger.Error("Failed to upload document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to upload document",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(doc)
}

// AnalyzeDocument godoc
// @Summary Analyze an uploaded document
// @Description Run the vision-model extraction for a document and store the extracted lines
// @Tags documents
// @Accept json
// @Produce json
// @Param request body dto.AnalyzeDocumentRequest true "Analysis request"
// @Security Bearer
// @Success 200 {object} dto.AnalyzeDocumentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/documents/analyze [post]
func (h *DocumentHandler) AnalyzeDocument(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var req dto.AnalyzeDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.analysisService.Analyze(c.Context(), userID, req.DocumentID)
	if err != nil {
		return h.analysisError(c, err)
	}

	return c.JSON(result)
}

// RetryDocument godoc
// @Summary Retry a failed analysis
// @Description Reset a failed document to processing and re-run the extraction
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {object} dto.AnalyzeDocumentResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/documents/{id}/retry [post]
func (h *DocumentHandler) RetryDocument(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	documentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	result, err := h.analysisService.Retry(c.Context(), userID, documentID)
	if err != nil {
		if errors.Is(err, service.ErrRetryNotAllowed) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Only failed documents can be retried",
			})
		}
		return h.analysisError(c, err)
	}

	return c.JSON(result)
}

// analysisError maps the callout's error taxonomy onto HTTP statuses:
// 400 missing id, 404 not found, 503 missing credential, 502 upstream,
// 500 parse/storage. Parse failures carry the raw model output back.
func (h *DocumentHandler) analysisError(c *fiber.Ctx, err error) error {
	var parseErr *service.ParseError
	var upstreamErr *service.UpstreamError

	switch {
	case errors.Is(err, service.ErrMissingDocumentID):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "Document ID is required",
		})
	case errors.Is(err, service.ErrDocumentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: "Document not found",
		})
	case errors.Is(err, service.ErrNotConfigured):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error: "Document analysis service is not properly configured. Please contact support.",
		})
	case errors.As(err, &upstreamErr):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: fmt.Sprintf("Document analysis failed: model API returned status %d", upstreamErr.StatusCode),
		})
	case errors.As(err, &parseErr):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error:       "Failed to parse extracted data",
			RawResponse: parseErr.Raw,
		})
	case errors.Is(err, service.ErrStorage):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "Failed to save extracted data",
		})
	default:
		h.logger.Error("Document analysis failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "Failed to analyze document",
		})
	}
}

// ListDocuments godoc
// @Summary List user's documents
// @Description Get a list of user's uploaded documents with their processing status
// @Tags documents
// @Produce json
// @Param limit query int false "Limit" default(10)
// @Param offset query int false "Offset" default(0)
// @Security Bearer
// @Success 200 {array} dto.DocumentResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/v1/documents [get]
func (h *DocumentHandler) ListDocuments(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	limit := c.QueryInt("limit", 10)
	offset := c.QueryInt("offset", 0)

	docs, err := h.docService.ListDocuments(c.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list documents", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list documents",
		})
	}

	return c.JSON(docs)
}

// GetDocument godoc
// @Summary Get a document with its extracted lines
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {object} dto.DocumentDetailResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/documents/{id} [get]
func (h *DocumentHandler) GetDocument(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	documentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	doc, err := h.docService.GetDocument(c.Context(), userID, documentID)
	if err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Document not found",
			})
		}
		h.logger.Error("Failed to get document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get document",
		})
	}

	return c.JSON(doc)
}

func getUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userIDStr, ok := c.Locals("userID").(string)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, err
	}

	return userID, nil
}
