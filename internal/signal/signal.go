package signal

// Verdict is the categorical output of a signal source or the fused result.
type Verdict string

const (
	VerdictTrue  Verdict = "true"
	VerdictFalse Verdict = "false"
	VerdictMixed Verdict = "mixed"
	// VerdictNone marks a signal that produced no judgment. It never
	// appears in a fused result.
	VerdictNone Verdict = "none"
)

// Support classifies how an evidence item relates to the article's claim.
type Support string

const (
	SupportSupporting    Support = "supporting"
	SupportContradictory Support = "contradictory"
	SupportNeutral       Support = "neutral"
)

// EvidenceItem is one external source found while analyzing a claim.
type EvidenceItem struct {
	ID          string  `json:"id"`
	Source      string  `json:"source"`
	Link        string  `json:"link"`
	Content     string  `json:"content"`
	Credibility float64 `json:"credibility"`
	Support     Support `json:"supportVerdict"`
	Description string  `json:"description"`
}

// Result is the verdict/confidence pair produced by a signal source,
// with its supporting evidence and provenance tokens.
type Result struct {
	Verdict    Verdict        `json:"verdict"`
	Confidence float64        `json:"confidence"`
	Summary    string         `json:"summary"`
	Evidence   []EvidenceItem `json:"evidence"`
	TxHash     string         `json:"txHash"`
	IpfsCid    string         `json:"ipfsCid"`
}

// Clamp01 bounds a confidence or credibility score to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
