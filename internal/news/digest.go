package news

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/truthchain/backend/internal/content"
	"github.com/truthchain/backend/internal/metrics"
	"github.com/truthchain/backend/internal/pipeline"
	"github.com/truthchain/backend/internal/signal"
)

// DigestItem is one analyzed headline.
type DigestItem struct {
	Title      string         `json:"title"`
	URL        string         `json:"url"`
	Source     string         `json:"source"`
	Verdict    signal.Verdict `json:"verdict"`
	Confidence float64        `json:"confidence"`
	Summary    string         `json:"summary"`
}

// Digest fetches top headlines and analyzes them strictly sequentially.
// The limiter paces consecutive deep-analysis calls; the upstream
// provider's rate contract depends on it, so it must not be removed.
type Digest struct {
	provider *Provider
	engine   *pipeline.Engine
	limiter  *rate.Limiter
}

func NewDigest(provider *Provider, engine *pipeline.Engine, delay time.Duration) *Digest {
	if delay == 0 {
		delay = 3 * time.Second
	}
	return &Digest{
		provider: provider,
		engine:   engine,
		limiter:  rate.NewLimiter(rate.Every(delay), 1),
	}
}

// Run analyzes the current top headlines one at a time, pacing between
// items.
func (d *Digest) Run(ctx context.Context) ([]DigestItem, error) {
	headlines, err := d.provider.TopHeadlines(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]DigestItem, 0, len(headlines))
	for _, h := range headlines {
		if err := d.limiter.Wait(ctx); err != nil {
			return items, err
		}

		result := d.engine.Analyze(ctx, pipeline.Request{
			InputValue: h.Content,
			InputType:  content.KindText,
			Title:      h.Title,
		})
		metrics.HeadlinesAnalyzed.Inc()

		items = append(items, DigestItem{
			Title:      h.Title,
			URL:        h.URL,
			Source:     h.Source,
			Verdict:    result.Verdict,
			Confidence: result.Confidence,
			Summary:    result.Summary,
		})
	}

	return items, nil
}
