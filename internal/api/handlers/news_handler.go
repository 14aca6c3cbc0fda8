package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/truthchain/backend/internal/news"
	"github.com/truthchain/backend/pkg/logger"
)

type NewsHandler struct {
	digest *news.Digest
}

func NewNewsHandler(digest *news.Digest) *NewsHandler {
	return &NewsHandler{
		digest: digest,
	}
}

// HandleDailyNews fetches the current top headlines and analyzes each
// one. The digest paces itself, so this request can take a while.
func (h *NewsHandler) HandleDailyNews(c *fiber.Ctx) error {
	items, err := h.digest.Run(c.Context())
	if err != nil {
		if errors.Is(err, news.ErrNoProvider) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "No headline provider configured",
			})
		}
		logger.Error("Failed to build news digest", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":    "Failed to fetch headlines",
			"articles": items,
		})
	}

	return c.JSON(fiber.Map{
		"articles": items,
		"count":    len(items),
	})
}
