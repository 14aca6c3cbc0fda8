package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/truthchain/backend/internal/reputation"
	"github.com/truthchain/backend/internal/storage/sqlite"
	"github.com/truthchain/backend/pkg/logger"
)

const (
	maxSearchResults = 10
	recentPerSource  = 5
)

type HistoryHandler struct {
	db *sqlite.Client
}

func NewHistoryHandler(db *sqlite.Client) *HistoryHandler {
	return &HistoryHandler{
		db: db,
	}
}

// HandleQuery searches past judgments by full-text term.
func (h *HistoryHandler) HandleQuery(c *fiber.Ctx) error {
	term := c.Query("term")
	if term == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "term is required",
		})
	}

	hits, err := h.db.SearchArticles(term, maxSearchResults)
	if err != nil {
		logger.Error("Failed to search history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to search history",
		})
	}

	results := make([]fiber.Map, 0, len(hits))
	for _, hit := range hits {
		results = append(results, fiber.Map{
			"key":           hit.Record.Key,
			"url":           hit.Record.URL,
			"title":         hit.Record.Title,
			"source_domain": hit.Record.SourceDomain,
			"verdict":       hit.Record.Verdict,
			"confidence":    hit.Record.Confidence,
			"summary":       hit.Record.Summary,
			"updated_at":    hit.Record.UpdatedAt,
			"rank":          hit.Rank,
		})
	}

	return c.JSON(fiber.Map{
		"results": results,
		"count":   len(results),
	})
}

// HandleSource returns a domain's reputation ledger entry plus its
// recent judgments. Unknown domains get a neutral default with a 404.
func (h *HistoryHandler) HandleSource(c *fiber.Ctx) error {
	domain := c.Params("domain")
	if domain == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "domain is required",
		})
	}

	rep, err := h.db.GetReputation(domain)
	if err != nil {
		logger.Error("Failed to get source reputation", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get source reputation",
		})
	}

	if rep == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"domain":            domain,
			"credibility_score": 0.5,
			"category":          reputation.TagUnknown,
			"analysis_count":    0,
			"recent_analyses":   []interface{}{},
		})
	}

	recent, err := h.db.GetRecentByDomain(domain, recentPerSource)
	if err != nil {
		logger.Error("Failed to get recent analyses", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get recent analyses",
		})
	}

	analyses := make([]fiber.Map, 0, len(recent))
	for _, rec := range recent {
		analyses = append(analyses, fiber.Map{
			"key":        rec.Key,
			"url":        rec.URL,
			"title":      rec.Title,
			"verdict":    rec.Verdict,
			"confidence": rec.Confidence,
			"updated_at": rec.UpdatedAt,
		})
	}

	return c.JSON(fiber.Map{
		"domain":            rep.Domain,
		"credibility_score": rep.CredibilityScore,
		"category":          rep.Category,
		"analysis_count":    rep.AnalysisCount,
		"first_seen":        rep.FirstSeen,
		"last_updated":      rep.LastUpdated,
		"recent_analyses":   analyses,
	})
}
