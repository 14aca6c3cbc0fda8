package handlers

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/truthchain/backend/internal/content"
	"github.com/truthchain/backend/internal/pipeline"
	"github.com/truthchain/backend/pkg/logger"
)

type WebSocketHandler struct {
	engine *pipeline.Engine
}

func NewWebSocketHandler(engine *pipeline.Engine) *WebSocketHandler {
	return &WebSocketHandler{
		engine: engine,
	}
}

// HandleConnection runs analyses over a socket, streaming pipeline
// stage names as progress frames before the final result.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type       string `json:"type"`
			InputValue string `json:"input_value"`
			InputType  string `json:"input_type"`
			Title      string `json:"title"`
		}

		err := c.ReadJSON(&msg)
		if err != nil {
			logger.Error("Failed to read WebSocket message", zap.Error(err))
			break
		}

		if msg.Type != "analyze" {
			continue
		}

		if msg.InputValue == "" {
			h.sendError(c, "input_value is required")
			continue
		}

		kind := content.KindText
		if msg.InputType == string(content.KindURL) {
			kind = content.KindURL
		}

		logger.Info("Processing WebSocket analysis", zap.String("input_type", string(kind)))

		result := h.engine.AnalyzeWithProgress(context.Background(), pipeline.Request{
			InputValue: msg.InputValue,
			InputType:  kind,
			Title:      msg.Title,
		}, func(stage string) {
			h.sendProgress(c, stage)
		})

		if err := h.sendComplete(c, result); err != nil {
			logger.Error("Failed to send analysis result", zap.Error(err))
			break
		}
	}
}

func (h *WebSocketHandler) sendProgress(c *websocket.Conn, stage string) {
	msg := map[string]interface{}{
		"type":  "progress",
		"stage": stage,
	}

	c.WriteJSON(msg)
}

func (h *WebSocketHandler) sendComplete(c *websocket.Conn, result *pipeline.Result) error {
	msg := map[string]interface{}{
		"type":   "complete",
		"result": result,
	}

	return c.WriteJSON(msg)
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	msg := map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	}

	c.WriteJSON(msg)
}
