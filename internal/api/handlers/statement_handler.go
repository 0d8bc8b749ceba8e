package handlers

import (
	"vyapari-genie/internal/dto"
	"vyapari-genie/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type StatementHandler struct {
	statementService *service.StatementService
	logger           *zap.Logger
}

func NewStatementHandler(statementService *service.StatementService, logger *zap.Logger) *StatementHandler {
	return &StatementHandler{
		statementService: statementService,
		logger:           logger,
	}
}

// ListStatements godoc
// @Summary List monthly statements
// @Description Get the user's derived monthly aggregates for the dashboard
// @Tags statements
// @Produce json
// @Security Bearer
// @Success 200 {array} dto.StatementResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/v1/statements [get]
func (h *StatementHandler) ListStatements(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	statements, err := h.statementService.ListStatements(c.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list statements", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list statements",
		})
	}

	return c.JSON(statements)
}

// RebuildStatements godoc
// @Summary Rebuild monthly statements
// @Description Recompute the user's monthly aggregates from completed documents
// @Tags statements
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.RebuildStatementsResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/v1/statements/rebuild [post]
func (h *StatementHandler) RebuildStatements(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	periods, err := h.statementService.Rebuild(c.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to rebuild statements", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to rebuild statements",
		})
	}

	return c.JSON(dto.RebuildStatementsResponse{Periods: periods})
}

// DashboardSummary godoc
// @Summary Dashboard summary
// @Description Get total revenue, expenses, profit margin, cash flow and the latest credit score
// @Tags statements
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.DashboardSummaryResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/v1/dashboard/summary [get]
func (h *StatementHandler) DashboardSummary(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	summary, err := h.statementService.Summary(c.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to build dashboard summary", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build dashboard summary",
		})
	}

	return c.JSON(summary)
}
