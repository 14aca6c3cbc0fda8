package claims

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/truthchain/backend/internal/llm"
	"github.com/truthchain/backend/pkg/logger"
)

// maxExcerptChars bounds how much article text is sent for claim
// extraction; the primary claim almost always sits in the lede.
const maxExcerptChars = 500

type Extractor struct {
	llmClient *llm.Client
}

func NewExtractor(llmClient *llm.Client) *Extractor {
	return &Extractor{llmClient: llmClient}
}

// Extract asks the model for the single primary checkable claim in the
// text. A false second return means "no claim available": callers skip
// the fact-check lookup rather than treating it as a failure.
func (e *Extractor) Extract(ctx context.Context, text string) (string, bool) {
	if e.llmClient == nil || !e.llmClient.Available() {
		return "", false
	}

	excerpt := strings.TrimSpace(text)
	if excerpt == "" {
		return "", false
	}
	if len(excerpt) > maxExcerptChars {
		excerpt = excerpt[:maxExcerptChars]
	}

	resp, err := e.llmClient.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: "Extract the single most important checkable factual claim from the given article excerpt. Respond with only the claim as one short sentence, no commentary.",
		UserPrompt:   excerpt,
		Temperature:  0.1,
		MaxTokens:    80,
	})
	if err != nil {
		logger.Warn("Claim extraction failed, skipping fact-check", zap.Error(err))
		return "", false
	}

	claim := strings.Trim(strings.TrimSpace(resp), `"`)
	if claim == "" {
		return "", false
	}

	return claim, true
}
