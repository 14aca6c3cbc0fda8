package models

import "time"

// ArticleRecord is the latest judgment for a URL (or synthetic key for
// pasted text). Append-or-replace keyed by Key, not a history log.
type ArticleRecord struct {
	Key            string
	URL            string
	Title          string
	SourceDomain   string
	InputType      string
	Verdict        string
	Confidence     float64
	Rationale      string
	Summary        string
	EvidenceJSON   string
	ComponentsJSON string
	TxHash         string
	IpfsCid        string
	TextExcerpt    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SourceReputation is the running credibility ledger for a domain. The
// score is nudged by each new verdict and always clamped to [0,1];
// FirstSeen and Category survive every update.
type SourceReputation struct {
	Domain           string
	CredibilityScore float64
	Category         string
	AnalysisCount    int
	FirstSeen        time.Time
	LastUpdated      time.Time
}

// SearchHit is one FTS match from the article history.
type SearchHit struct {
	Record ArticleRecord
	Rank   float64
}

// AnalyticsSummary aggregates over all stored article records. Served
// as-is by the analytics endpoint.
type AnalyticsSummary struct {
	TotalAnalyses       int                `json:"total_analyses"`
	AverageConfidence   float64            `json:"average_confidence"`
	VerdictDistribution map[string]float64 `json:"verdict_distribution"`
	TopSources          []SourceVolume     `json:"top_sources"`
}

// SourceVolume is a domain with its analysis count, for the top-sources
// leaderboard.
type SourceVolume struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}
