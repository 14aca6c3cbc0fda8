package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/truthchain/backend/internal/signal"
	"github.com/truthchain/backend/pkg/logger"
)

// Method labels for observability; the degraded fallback must be
// distinguishable from real inference.
const (
	MethodModel    = "distilbert-inference"
	MethodFallback = "keyword-heuristic"
)

// Thresholds mapping the real-class probability to a verdict.
const (
	trueThreshold  = 0.7
	falseThreshold = 0.3
)

// separator joins title and content before inference, mirroring the
// [SEP] token the model was trained with.
const separator = " [SEP] "

// Prediction is the local classifier's output for one article.
type Prediction struct {
	Confidence float64
	Verdict    signal.Verdict
	Method     string
	Degraded   bool
}

// Adapter wraps a model-serving endpoint behind the classify contract,
// degrading to a keyword stand-in when no endpoint is configured or the
// call fails.
type Adapter struct {
	endpoint      string
	apiKey        string
	maxInputChars int
	httpClient    *http.Client
}

func NewAdapter(endpoint, apiKey string, maxInputChars int, timeout time.Duration) *Adapter {
	if maxInputChars == 0 {
		maxInputChars = 2048
	}
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Adapter{
		endpoint:      endpoint,
		apiKey:        apiKey,
		maxInputChars: maxInputChars,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// Classify returns the probability the article is real, mapped onto a
// verdict. The prediction always comes back usable; failures degrade to
// the heuristic stand-in rather than erroring.
func (a *Adapter) Classify(ctx context.Context, title, content, source string) Prediction {
	if a.endpoint == "" {
		return a.fallback(title, content)
	}

	pred, err := a.infer(ctx, title, content, source)
	if err != nil {
		logger.Warn("Classifier inference failed, using fallback", zap.Error(err))
		return a.fallback(title, content)
	}
	return pred
}

func (a *Adapter) infer(ctx context.Context, title, content, source string) (Prediction, error) {
	text := title + separator + content
	if len(text) > a.maxInputChars {
		text = text[:a.maxInputChars]
	}

	payload := map[string]string{
		"text":   text,
		"source": source,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Prediction{}, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+"/classify", bytes.NewReader(body))
	if err != nil {
		return Prediction{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Prediction{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var out struct {
		RealProbability float64 `json:"real_probability"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Prediction{}, fmt.Errorf("decode response: %w", err)
	}

	confidence := signal.Clamp01(out.RealProbability)
	return Prediction{
		Confidence: confidence,
		Verdict:    verdictFor(confidence),
		Method:     MethodModel,
	}, nil
}

func verdictFor(confidence float64) signal.Verdict {
	switch {
	case confidence > trueThreshold:
		return signal.VerdictTrue
	case confidence < falseThreshold:
		return signal.VerdictFalse
	default:
		return signal.VerdictMixed
	}
}

var sensationalKeywords = []string{
	"shocking", "you won't believe", "miracle", "secret", "exposed",
	"they don't want you to know", "doctors hate", "cure", "hoax",
}

// fallback is the keyword stand-in used when no model is reachable. It
// returns fixed heuristic scores so the degraded mode is predictable in
// tests and dashboards.
func (a *Adapter) fallback(title, content string) Prediction {
	text := strings.ToLower(title + " " + content)

	hits := 0
	for _, kw := range sensationalKeywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}

	confidence := 0.5
	if hits >= 2 {
		confidence = 0.25
	} else if hits == 1 {
		confidence = 0.4
	}

	return Prediction{
		Confidence: confidence,
		Verdict:    verdictFor(confidence),
		Method:     MethodFallback,
		Degraded:   true,
	}
}
