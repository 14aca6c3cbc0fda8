package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/truthchain/backend/internal/content"
	"github.com/truthchain/backend/internal/pipeline"
	"github.com/truthchain/backend/pkg/logger"
)

type AnalyzeHandler struct {
	engine *pipeline.Engine
}

func NewAnalyzeHandler(engine *pipeline.Engine) *AnalyzeHandler {
	return &AnalyzeHandler{
		engine: engine,
	}
}

func (h *AnalyzeHandler) HandleAnalyze(c *fiber.Ctx) error {
	var req struct {
		InputValue string `json:"input_value"`
		InputType  string `json:"input_type"`
		Title      string `json:"title"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.InputValue == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "input_value is required",
		})
	}

	kind := content.KindText
	if req.InputType == string(content.KindURL) {
		kind = content.KindURL
	}

	result := h.engine.Analyze(c.Context(), pipeline.Request{
		InputValue: req.InputValue,
		InputType:  kind,
		Title:      req.Title,
	})

	// URL content that could not be acquired still yields a well-formed
	// degraded verdict; the status code flags it for the caller.
	if result.ContentError != "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(result)
	}

	return c.JSON(result)
}
