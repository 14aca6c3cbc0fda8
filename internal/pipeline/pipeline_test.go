package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/truthchain/backend/internal/analysis"
	"github.com/truthchain/backend/internal/classifier"
	"github.com/truthchain/backend/internal/claims"
	"github.com/truthchain/backend/internal/content"
	"github.com/truthchain/backend/internal/factcheck"
	"github.com/truthchain/backend/internal/reputation"
	"github.com/truthchain/backend/internal/signal"
)

const longText = "City officials confirmed on Tuesday that the water treatment upgrade finished two months ahead of schedule and under budget, according to the published audit."

type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) GetAnalysis(ctx context.Context, inputHash string) ([]byte, bool, error) {
	data, ok := m.entries[inputHash]
	return data, ok, nil
}

func (m *memoryCache) SetAnalysis(ctx context.Context, inputHash string, data []byte) error {
	m.entries[inputHash] = data
	return nil
}

// degradedEngine builds a pipeline with every external dependency
// unconfigured, so each signal source takes its documented fallback.
func degradedEngine(cache Cache) *Engine {
	return NewEngine(
		content.NewAcquirer(0),
		reputation.NewEstimator(),
		classifier.NewAdapter("", "", 0, 0),
		claims.NewExtractor(nil),
		factcheck.NewClient("", "", 0),
		analysis.NewEngine(nil, analysis.Config{}),
		nil,
		cache,
	)
}

func TestAnalyzeDegradedText(t *testing.T) {
	engine := degradedEngine(nil)

	result := engine.Analyze(context.Background(), Request{
		InputValue: longText,
		InputType:  content.KindText,
	})

	if result.ID == "" {
		t.Error("result should carry an analysis id")
	}
	if !strings.HasPrefix(result.Key, "text:") {
		t.Errorf("key = %q, want a text: hash key for pasted input", result.Key)
	}
	if result.SourceDomain != "" {
		t.Errorf("source domain = %q, want empty for pasted text", result.SourceDomain)
	}
	if result.Verdict != signal.VerdictMixed {
		t.Errorf("verdict = %v, fully degraded signals should fuse to mixed", result.Verdict)
	}
	if result.Components.Local.Method != classifier.MethodFallback || !result.Components.Local.Degraded {
		t.Errorf("local component = %+v, want the degraded fallback", result.Components.Local)
	}
	if result.Components.FactCheck.Status != factcheck.StatusAPIKeyMissing {
		t.Errorf("fact-check status = %v, want API_KEY_MISSING", result.Components.FactCheck.Status)
	}
	if result.Components.Reputation.Tag != reputation.TagLocalOrUserInput {
		t.Errorf("reputation tag = %v, want LOCAL_OR_USER_INPUT", result.Components.Reputation.Tag)
	}
	if result.TxHash == "" || result.IpfsCid == "" {
		t.Error("provenance tokens should always be present")
	}
}

func TestAnalyzeShortTextShortCircuits(t *testing.T) {
	engine := degradedEngine(nil)

	result := engine.Analyze(context.Background(), Request{
		InputValue: "tiny claim",
		InputType:  content.KindText,
	})

	if result.Verdict != signal.VerdictMixed || result.Confidence != 0.5 {
		t.Errorf("got %v/%v, want mixed/0.5", result.Verdict, result.Confidence)
	}
	if !strings.HasPrefix(result.Rationale, "Insufficient content for signal fusion:") {
		t.Errorf("rationale = %q, want the insufficient-content prefix", result.Rationale)
	}
	if result.Components.Local.Method != "" {
		t.Errorf("local component = %+v, classifier must be skipped", result.Components.Local)
	}
}

func TestAnalyzeProgressStages(t *testing.T) {
	engine := degradedEngine(nil)

	var stages []string
	engine.AnalyzeWithProgress(context.Background(), Request{
		InputValue: longText,
		InputType:  content.KindText,
	}, func(stage string) {
		stages = append(stages, stage)
	})

	want := []string{
		StageAcquiring, StageReputation, StageClassifying, StageAIDetect,
		StageClaim, StageFactCheck, StageDeep, StageFusing,
		StagePersisting, StageComplete,
	}
	if len(stages) != len(want) {
		t.Fatalf("stages = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Errorf("stage[%d] = %q, want %q", i, stages[i], want[i])
		}
	}
}

func TestAnalyzeUsesCache(t *testing.T) {
	cache := newMemoryCache()
	engine := degradedEngine(cache)

	first := engine.Analyze(context.Background(), Request{
		InputValue: longText,
		InputType:  content.KindText,
	})
	if first.Cached {
		t.Fatal("first run should not be a cache hit")
	}

	second := engine.Analyze(context.Background(), Request{
		InputValue: longText,
		InputType:  content.KindText,
	})
	if !second.Cached {
		t.Fatal("second run should come from the cache")
	}
	if second.ID != first.ID || second.Verdict != first.Verdict {
		t.Errorf("cached result diverged: %+v vs %+v", second, first)
	}
}

func TestArticleKey(t *testing.T) {
	urlKey := articleKey(Request{InputValue: "https://example.org/a", InputType: content.KindURL})
	if urlKey != "https://example.org/a" {
		t.Errorf("url key = %q, want the url itself", urlKey)
	}

	textKey1 := articleKey(Request{InputValue: "same text", InputType: content.KindText})
	textKey2 := articleKey(Request{InputValue: "same text", InputType: content.KindText})
	if textKey1 != textKey2 {
		t.Error("identical text must map to the same key")
	}
	if !strings.HasPrefix(textKey1, "text:") {
		t.Errorf("text key = %q, want text: prefix", textKey1)
	}
}
