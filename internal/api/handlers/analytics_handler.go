package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/truthchain/backend/internal/storage/sqlite"
	"github.com/truthchain/backend/pkg/logger"
)

type AnalyticsHandler struct {
	db *sqlite.Client
}

func NewAnalyticsHandler(db *sqlite.Client) *AnalyticsHandler {
	return &AnalyticsHandler{
		db: db,
	}
}

func (h *AnalyticsHandler) HandleSummary(c *fiber.Ctx) error {
	summary, err := h.db.GetAnalyticsSummary()
	if err != nil {
		logger.Error("Failed to build analytics summary", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build analytics summary",
		})
	}

	return c.JSON(summary)
}
