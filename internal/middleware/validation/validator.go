package validation

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxTextLength       int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware enforces the analyze request contract before the handler
// runs: content type, input type, and raw input limits.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxTextLength == 0 {
		cfg.MaxTextLength = 50000
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json"}
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == "POST" || c.Method() == "PUT" {
			contentType := c.Get("Content-Type")
			if contentType != "" {
				allowed := false
				for _, allowedType := range cfg.AllowedContentTypes {
					if strings.Contains(contentType, allowedType) {
						allowed = true
						break
					}
				}
				if !allowed {
					return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
						"error": "Unsupported content type",
					})
				}
			}
		}

		if strings.Contains(c.Path(), "/api/v1/analyze") && c.Method() == "POST" {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			input, ok := req["input_value"].(string)
			if !ok || strings.TrimSpace(input) == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "input_value is required and must be a string",
				})
			}

			inputType, _ := req["input_type"].(string)
			if inputType != "" && inputType != "text" && inputType != "url" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "input_type must be \"text\" or \"url\"",
				})
			}

			if inputType == "url" && !isValidURL(input) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid URL format",
				})
			}

			if len(input) > cfg.MaxTextLength {
				if cfg.Logger != nil {
					cfg.Logger.Warn("Oversized analyze input rejected",
						zap.String("ip", c.IP()),
						zap.Int("length", len(input)),
					)
				}
				return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
					"error": "Input exceeds maximum length",
				})
			}
		}

		return c.Next()
	}
}

func isValidURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	return u.Host != ""
}
