package fusion

import (
	"math"
	"strings"
	"testing"

	"github.com/truthchain/backend/internal/signal"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFuse(t *testing.T) {
	tests := []struct {
		name           string
		local          signal.Result
		aiProbability  float64
		deep           signal.Result
		wantVerdict    signal.Verdict
		wantConfidence float64
	}{
		{
			name:           "numeric false below threshold",
			local:          signal.Result{Verdict: signal.VerdictFalse, Confidence: 0.2},
			deep:           signal.Result{Verdict: signal.VerdictMixed, Confidence: 0.3},
			wantVerdict:    signal.VerdictFalse,
			wantConfidence: 0.2*0.6 + 0.3*0.4,
		},
		{
			name:           "numeric true above threshold",
			local:          signal.Result{Verdict: signal.VerdictTrue, Confidence: 0.9},
			deep:           signal.Result{Verdict: signal.VerdictMixed, Confidence: 0.8},
			wantVerdict:    signal.VerdictTrue,
			wantConfidence: 0.9*0.6 + 0.8*0.4,
		},
		{
			name:           "middle band is mixed",
			local:          signal.Result{Verdict: signal.VerdictMixed, Confidence: 0.5},
			deep:           signal.Result{Verdict: signal.VerdictMixed, Confidence: 0.5},
			wantVerdict:    signal.VerdictMixed,
			wantConfidence: 0.5,
		},
		{
			name:           "ai probability penalty pulls true into mixed",
			local:          signal.Result{Verdict: signal.VerdictTrue, Confidence: 0.9},
			aiProbability:  0.3,
			deep:           signal.Result{Verdict: signal.VerdictMixed, Confidence: 0.8},
			wantVerdict:    signal.VerdictMixed,
			wantConfidence: (0.9*0.6 + 0.8*0.4) * 0.7,
		},
		{
			name:           "confident deep false overrides with confidence floor",
			local:          signal.Result{Verdict: signal.VerdictMixed, Confidence: 0.2},
			deep:           signal.Result{Verdict: signal.VerdictFalse, Confidence: 0.9},
			wantVerdict:    signal.VerdictFalse,
			wantConfidence: 0.5,
		},
		{
			name:           "confident deep true overrides without floor",
			local:          signal.Result{Verdict: signal.VerdictMixed, Confidence: 0.2},
			aiProbability:  0.5,
			deep:           signal.Result{Verdict: signal.VerdictTrue, Confidence: 0.9},
			wantVerdict:    signal.VerdictTrue,
			wantConfidence: (0.2*0.6 + 0.9*0.4) * 0.5,
		},
		{
			name:           "deep exactly at override bound does not override",
			local:          signal.Result{Verdict: signal.VerdictMixed, Confidence: 0.5},
			deep:           signal.Result{Verdict: signal.VerdictFalse, Confidence: 0.6},
			wantVerdict:    signal.VerdictMixed,
			wantConfidence: 0.5*0.6 + 0.6*0.4,
		},
		{
			name:           "full ai probability collapses confidence to false",
			local:          signal.Result{Verdict: signal.VerdictTrue, Confidence: 0.9},
			aiProbability:  1.0,
			deep:           signal.Result{Verdict: signal.VerdictMixed, Confidence: 0.9},
			wantVerdict:    signal.VerdictFalse,
			wantConfidence: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fuse(tt.local, tt.aiProbability, tt.deep)

			if got.Verdict != tt.wantVerdict {
				t.Errorf("verdict = %q, want %q", got.Verdict, tt.wantVerdict)
			}
			if !almostEqual(got.Confidence, tt.wantConfidence) {
				t.Errorf("confidence = %v, want %v", got.Confidence, tt.wantConfidence)
			}
			if got.Rationale == "" {
				t.Error("rationale should never be empty")
			}
		})
	}
}

func TestFuseClampsOutOfRangeInputs(t *testing.T) {
	got := Fuse(
		signal.Result{Verdict: signal.VerdictTrue, Confidence: 1.7},
		-0.4,
		signal.Result{Verdict: signal.VerdictMixed, Confidence: 2.3},
	)

	if got.Confidence < 0 || got.Confidence > 1 {
		t.Errorf("confidence = %v, want value in [0,1]", got.Confidence)
	}
	if got.Components.AIProbability != 0 {
		t.Errorf("ai probability = %v, want clamped to 0", got.Components.AIProbability)
	}
}

func TestFuseIsIdempotent(t *testing.T) {
	local := signal.Result{Verdict: signal.VerdictTrue, Confidence: 0.8}
	deep := signal.Result{Verdict: signal.VerdictTrue, Confidence: 0.7, Summary: "checks out"}

	first := Fuse(local, 0.2, deep)
	second := Fuse(local, 0.2, deep)

	if first.Verdict != second.Verdict || !almostEqual(first.Confidence, second.Confidence) {
		t.Errorf("repeated fusion diverged: %v/%v vs %v/%v",
			first.Verdict, first.Confidence, second.Verdict, second.Confidence)
	}
	if first.Rationale != second.Rationale {
		t.Error("repeated fusion produced different rationales")
	}
}

func TestFuseRationaleMentionsDeepSummary(t *testing.T) {
	deep := signal.Result{Verdict: signal.VerdictMixed, Confidence: 0.5, Summary: "sources disagree on the figure"}

	got := Fuse(signal.Result{Confidence: 0.5}, 0, deep)

	if !strings.Contains(got.Rationale, deep.Summary) {
		t.Errorf("rationale %q should carry the deep-analysis summary", got.Rationale)
	}
}
