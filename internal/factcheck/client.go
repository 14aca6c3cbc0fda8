package factcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/truthchain/backend/pkg/logger"
)

// Status classifies a lookup against the external aggregator.
type Status string

const (
	StatusAPIKeyMissing   Status = "API_KEY_MISSING"
	StatusNoExternalMatch Status = "NO_EXTERNAL_MATCH"
	StatusContradictory   Status = "CONTRADICTORY"
	StatusSupporting      Status = "SUPPORTING"
	StatusMixedExternal   Status = "MIXED_EXTERNAL"
	StatusAPIError        Status = "API_ERROR"
)

// MatchConfidence is the confidence assigned to a clear external match.
// An aggregator verdict is treated as near-authoritative: strong enough
// for the deep-analysis engine to skip its retrieval call entirely.
const MatchConfidence = 0.95

// Outcome is the reduced result of a lookup. Confidence is non-zero
// only for CONTRADICTORY and SUPPORTING.
type Outcome struct {
	Status     Status
	Confidence float64
}

// Client queries the Google Fact Check Tools aggregator.
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func NewClient(apiKey, endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = "https://factchecktools.googleapis.com/v1alpha1/claims:search"
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type claimsResponse struct {
	Claims []struct {
		Text        string `json:"text"`
		ClaimReview []struct {
			Publisher struct {
				Name string `json:"name"`
				Site string `json:"site"`
			} `json:"publisher"`
			URL           string `json:"url"`
			TextualRating string `json:"textualRating"`
		} `json:"claimReview"`
	} `json:"claims"`
}

// Lookup queries the aggregator for the claim and reduces the returned
// ratings to a coarse outcome. Transport and parsing failures map to
// API_ERROR with zero confidence, never to an error return.
func (c *Client) Lookup(ctx context.Context, claim string) Outcome {
	if claim == "" || c.apiKey == "" {
		return Outcome{Status: StatusAPIKeyMissing}
	}

	ratings, err := c.fetchRatings(ctx, claim)
	if err != nil {
		logger.Warn("Fact-check lookup failed", zap.Error(err))
		return Outcome{Status: StatusAPIError}
	}

	return Reduce(ratings)
}

func (c *Client) fetchRatings(ctx context.Context, claim string) ([]string, error) {
	params := url.Values{}
	params.Set("query", claim)
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query aggregator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("aggregator returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed claimsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	var ratings []string
	for _, cl := range parsed.Claims {
		for _, review := range cl.ClaimReview {
			if review.TextualRating != "" {
				ratings = append(ratings, review.TextualRating)
			}
		}
	}
	return ratings, nil
}

var (
	falseMarkers = []string{"false", "lie", "misleading"}
	trueMarkers  = []string{"true", "correct", "accurate"}
)

// Reduce counts ratings matching false-ish vs true-ish substrings and
// picks the majority. Ties and unmatched rating sets carry zero
// confidence.
func Reduce(ratings []string) Outcome {
	if len(ratings) == 0 {
		return Outcome{Status: StatusNoExternalMatch}
	}

	falseCount, trueCount := 0, 0
	for _, rating := range ratings {
		lower := strings.ToLower(rating)
		if containsAny(lower, falseMarkers) {
			falseCount++
		} else if containsAny(lower, trueMarkers) {
			trueCount++
		}
	}

	switch {
	case falseCount > trueCount:
		return Outcome{Status: StatusContradictory, Confidence: MatchConfidence}
	case trueCount > falseCount:
		return Outcome{Status: StatusSupporting, Confidence: MatchConfidence}
	case falseCount == 0 && trueCount == 0:
		return Outcome{Status: StatusNoExternalMatch}
	default:
		return Outcome{Status: StatusMixedExternal}
	}
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
