package analysis

import (
	"fmt"

	"github.com/truthchain/backend/internal/factcheck"
)

const systemPrompt = `You are an expert, unbiased AI fact-checker with live web search access. Analyze the article text for factual accuracy by searching for corroborating or contradicting coverage.

Output your response STRICTLY as a single JSON object. DO NOT include any text, markdown, or commentary outside of the JSON object.`

func buildPrompt(text string, repScore float64, repTag string, fc factcheck.Outcome, txHash, ipfsCid string) string {
	return fmt.Sprintf(`Context for your analysis:
- Source reputation prior: %.2f (%s)
- External fact-check status: %s (confidence %.2f)

The JSON object MUST contain the following structure:
{
    "verdict": "string ('true', 'false', or 'mixed')",
    "confidence": "number (float from 0.0 to 1.0)",
    "summary": "string (A brief explanation of the analysis.)",
    "evidence": [
        {
            "id": "string",
            "source": "string (Name of the external source found via search.)",
            "link": "string (URL of the external source.)",
            "content": "string (The specific claim or fact checked from the article.)",
            "credibility": "number (Source credibility score from 0.0 to 1.0.)",
            "supportVerdict": "string ('supporting', 'contradictory', or 'neutral' relative to the article's claim.)",
            "description": "string (Detailed finding about the evidence.)"
        }
    ],
    "txHash": "%s",
    "ipfsCid": "%s"
}

Article Text to Analyze:
---
%s
---`, repScore, repTag, fc.Status, fc.Confidence, txHash, ipfsCid, text)
}
