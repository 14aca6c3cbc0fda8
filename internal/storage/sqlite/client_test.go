package sqlite

import (
	"math"
	"testing"
	"time"

	"github.com/truthchain/backend/internal/storage/models"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func testClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(":memory:")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	if err := client.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	return client
}

func testRecord(key string) *models.ArticleRecord {
	now := time.Now()
	return &models.ArticleRecord{
		Key:          key,
		URL:          "https://example.org/" + key,
		Title:        "Quantum breakthrough announced",
		SourceDomain: "example.org",
		InputType:    "url",
		Verdict:      "true",
		Confidence:   0.8,
		Rationale:    "fused signals agree",
		Summary:      "A reproducible result was confirmed by independent labs.",
		TextExcerpt:  "Scientists announced a reproducible result.",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUpsertAndGetArticle(t *testing.T) {
	client := testClient(t)

	rec := testRecord("a1")
	if err := client.UpsertArticle(rec); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := client.GetArticle("a1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatal("article not found after upsert")
	}
	if got.Verdict != "true" || got.Confidence != 0.8 {
		t.Errorf("got %s/%v, want true/0.8", got.Verdict, got.Confidence)
	}
}

func TestGetArticleMissing(t *testing.T) {
	client := testClient(t)

	got, err := client.GetArticle("nope")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil for a missing key", got)
	}
}

func TestUpsertReplacesVerdict(t *testing.T) {
	client := testClient(t)

	rec := testRecord("a1")
	if err := client.UpsertArticle(rec); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	rec.Verdict = "false"
	rec.Confidence = 0.6
	if err := client.UpsertArticle(rec); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	got, err := client.GetArticle("a1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Verdict != "false" || got.Confidence != 0.6 {
		t.Errorf("got %s/%v, want the replaced false/0.6", got.Verdict, got.Confidence)
	}
}

func TestSearchArticles(t *testing.T) {
	client := testClient(t)

	first := testRecord("a1")
	first.Title = "Vaccine claim debunked by researchers"
	second := testRecord("a2")
	second.Title = "Budget vote passes city council"

	for _, rec := range []*models.ArticleRecord{first, second} {
		if err := client.UpsertArticle(rec); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	hits, err := client.SearchArticles("vaccine", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) != 1 || hits[0].Record.Key != "a1" {
		t.Errorf("hits = %+v, want only a1", hits)
	}
}

func TestSearchArticlesQuotesOperators(t *testing.T) {
	client := testClient(t)

	if err := client.UpsertArticle(testRecord("a1")); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	// FTS operator syntax in user input must not produce a query error.
	if _, err := client.SearchArticles(`quantum OR "NEAR(`, 10); err != nil {
		t.Errorf("operator-laden term errored: %v", err)
	}

	hits, err := client.SearchArticles("   ", 10)
	if err != nil {
		t.Fatalf("blank search errored: %v", err)
	}
	if hits != nil {
		t.Errorf("blank term returned %+v, want nothing", hits)
	}
}

func TestGetRecentByDomainOrdering(t *testing.T) {
	client := testClient(t)

	older := testRecord("a1")
	older.UpdatedAt = time.Now().Add(-time.Hour)
	newer := testRecord("a2")

	for _, rec := range []*models.ArticleRecord{older, newer} {
		if err := client.UpsertArticle(rec); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	records, err := client.GetRecentByDomain("example.org", 10)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(records) != 2 || records[0].Key != "a2" {
		t.Errorf("records = %+v, want a2 first", records)
	}
}

func TestApplyVerdictToReputation(t *testing.T) {
	client := testClient(t)

	rep, err := client.ApplyVerdictToReputation("example.org", 0.9, "UNKNOWN_SOURCE", "true", 1.0)
	if err != nil {
		t.Fatalf("first update failed: %v", err)
	}
	if !approx(rep.CredibilityScore, 0.95) || rep.AnalysisCount != 1 {
		t.Errorf("got %v/%d, want 0.95 with count 1", rep.CredibilityScore, rep.AnalysisCount)
	}

	rep, err = client.ApplyVerdictToReputation("example.org", 0.9, "OTHER_CATEGORY", "false", 1.0)
	if err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	if !approx(rep.CredibilityScore, 0.9) || rep.AnalysisCount != 2 {
		t.Errorf("got %v/%d, want 0.9 with count 2", rep.CredibilityScore, rep.AnalysisCount)
	}
	if rep.Category != "UNKNOWN_SOURCE" {
		t.Errorf("category = %q, the first-seen category must be preserved", rep.Category)
	}
}

func TestApplyVerdictMixedLeavesScoreAlone(t *testing.T) {
	client := testClient(t)

	rep, err := client.ApplyVerdictToReputation("example.org", 0.5, "UNKNOWN_SOURCE", "mixed", 0.9)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !approx(rep.CredibilityScore, 0.5) {
		t.Errorf("score = %v, mixed verdicts should not move it", rep.CredibilityScore)
	}
}

func TestReputationClampsAtBounds(t *testing.T) {
	client := testClient(t)

	var rep *models.SourceReputation
	var err error
	for i := 0; i < 25; i++ {
		rep, err = client.ApplyVerdictToReputation("junk.example", 0.3, "LOW_REPUTATION_SOURCE", "false", 1.0)
		if err != nil {
			t.Fatalf("update %d failed: %v", i, err)
		}
	}
	if rep.CredibilityScore != 0 {
		t.Errorf("score = %v, want clamped at 0", rep.CredibilityScore)
	}

	for i := 0; i < 25; i++ {
		rep, err = client.ApplyVerdictToReputation("solid.example", 0.9, "UNKNOWN_SOURCE", "true", 1.0)
		if err != nil {
			t.Fatalf("update %d failed: %v", i, err)
		}
	}
	if rep.CredibilityScore != 1 {
		t.Errorf("score = %v, want clamped at 1", rep.CredibilityScore)
	}
}

func TestGetReputationMissing(t *testing.T) {
	client := testClient(t)

	rep, err := client.GetReputation("never-seen.example")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if rep != nil {
		t.Errorf("got %+v, want nil for an unseen domain", rep)
	}
}

func TestGetAnalyticsSummary(t *testing.T) {
	client := testClient(t)

	verdicts := []string{"true", "true", "false", "mixed"}
	for i, v := range verdicts {
		rec := testRecord(string(rune('a'+i)) + "1")
		rec.Verdict = v
		rec.Confidence = 0.5
		if err := client.UpsertArticle(rec); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	summary, err := client.GetAnalyticsSummary()
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}

	if summary.TotalAnalyses != 4 {
		t.Errorf("total = %d, want 4", summary.TotalAnalyses)
	}
	if summary.AverageConfidence != 0.5 {
		t.Errorf("average confidence = %v, want 0.5", summary.AverageConfidence)
	}
	if summary.VerdictDistribution["true"] != 50 {
		t.Errorf("true share = %v, want 50", summary.VerdictDistribution["true"])
	}
	if summary.VerdictDistribution["false"] != 25 || summary.VerdictDistribution["mixed"] != 25 {
		t.Errorf("distribution = %v, want 25/25 for false/mixed", summary.VerdictDistribution)
	}
	if len(summary.TopSources) != 1 || summary.TopSources[0].Domain != "example.org" || summary.TopSources[0].Count != 4 {
		t.Errorf("top sources = %+v, want example.org with 4", summary.TopSources)
	}
}

func TestGetAnalyticsSummaryEmpty(t *testing.T) {
	client := testClient(t)

	summary, err := client.GetAnalyticsSummary()
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}

	if summary.TotalAnalyses != 0 || summary.AverageConfidence != 0 {
		t.Errorf("got %+v, want zeroed summary", summary)
	}
	if len(summary.VerdictDistribution) != 3 {
		t.Errorf("distribution = %v, want the three verdict keys preseeded", summary.VerdictDistribution)
	}
}
