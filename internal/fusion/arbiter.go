package fusion

import (
	"fmt"

	"github.com/truthchain/backend/internal/signal"
)

// Weights for the numeric fusion of the two confidence signals.
const (
	localWeight = 0.6
	deepWeight  = 0.4
)

// Thresholds converting the adjusted confidence into a verdict when the
// deep signal does not override.
const (
	falseBelow = 0.3
	trueAbove  = 0.7
)

// deepOverrideMin is how confident the deep signal must be for its own
// categorical verdict to override the numeric fusion.
const deepOverrideMin = 0.6

// falseFloor keeps a strong negative deep-analysis result from being
// reported as weak after the AI-probability penalty.
const falseFloor = 0.5

// Components records the inputs that produced a fused verdict, for the
// audit trail.
type Components struct {
	LocalConfidence float64        `json:"local_confidence"`
	LocalVerdict    signal.Verdict `json:"local_verdict"`
	AIProbability   float64        `json:"ai_probability"`
	DeepConfidence  float64        `json:"deep_confidence"`
	DeepVerdict     signal.Verdict `json:"deep_verdict"`
}

// FusedVerdict is the final arbitration result. Verdict is always one
// of true/false/mixed, confidence always in [0,1].
type FusedVerdict struct {
	Verdict    signal.Verdict `json:"verdict"`
	Confidence float64        `json:"confidence"`
	Rationale  string         `json:"rationale"`
	Components Components     `json:"components"`
}

// Fuse combines the local classifier, the AI-generation probability,
// and the deep-analysis signal under a fixed precedence policy:
// retrieval-augmented reasoning overrides the numeric fusion whenever
// it is confident in a categorical verdict. Pure and idempotent.
func Fuse(local signal.Result, aiProbability float64, deep signal.Result) FusedVerdict {
	aiProbability = signal.Clamp01(aiProbability)

	raw := signal.Clamp01(local.Confidence)*localWeight + signal.Clamp01(deep.Confidence)*deepWeight
	adjusted := raw * (1 - aiProbability)

	var verdict signal.Verdict
	switch {
	case deep.Verdict == signal.VerdictFalse && deep.Confidence > deepOverrideMin:
		verdict = signal.VerdictFalse
		if adjusted < falseFloor {
			adjusted = falseFloor
		}
	case deep.Verdict == signal.VerdictTrue && deep.Confidence > deepOverrideMin:
		verdict = signal.VerdictTrue
	case adjusted < falseBelow:
		verdict = signal.VerdictFalse
	case adjusted > trueAbove:
		verdict = signal.VerdictTrue
	default:
		verdict = signal.VerdictMixed
	}

	rationale := fmt.Sprintf(
		"Final verdict %q: weighted signal fusion scored %.3f (local %.2f x %.1f + deep %.2f x %.1f), reduced by AI-generation probability %.2f to %.3f. Deep analysis: %s",
		verdict, raw, local.Confidence, localWeight, deep.Confidence, deepWeight,
		aiProbability, adjusted, deep.Summary,
	)

	return FusedVerdict{
		Verdict:    verdict,
		Confidence: signal.Clamp01(adjusted),
		Rationale:  rationale,
		Components: Components{
			LocalConfidence: local.Confidence,
			LocalVerdict:    local.Verdict,
			AIProbability:   aiProbability,
			DeepConfidence:  deep.Confidence,
			DeepVerdict:     deep.Verdict,
		},
	}
}
