package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/truthchain/backend/internal/storage/models"
	"github.com/truthchain/backend/pkg/logger"
)

// ReputationStep is how far one verdict at confidence 1.0 moves a
// domain's credibility score.
const ReputationStep = 0.05

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping() error {
	return c.db.Ping()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		key TEXT PRIMARY KEY,
		url TEXT,
		title TEXT,
		source_domain TEXT,
		input_type TEXT NOT NULL,
		verdict TEXT NOT NULL,
		confidence REAL NOT NULL,
		rationale TEXT,
		summary TEXT,
		evidence TEXT,
		components TEXT,
		tx_hash TEXT,
		ipfs_cid TEXT,
		text_excerpt TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_articles_domain ON articles(source_domain);
	CREATE INDEX IF NOT EXISTS idx_articles_updated ON articles(updated_at);
	CREATE INDEX IF NOT EXISTS idx_articles_verdict ON articles(verdict);

	CREATE VIRTUAL TABLE IF NOT EXISTS articles_fts USING fts5(
		key UNINDEXED,
		title,
		summary,
		excerpt
	);

	CREATE TABLE IF NOT EXISTS source_reputation (
		domain TEXT PRIMARY KEY,
		credibility_score REAL NOT NULL,
		category TEXT NOT NULL,
		analysis_count INTEGER NOT NULL DEFAULT 1,
		first_seen INTEGER NOT NULL,
		last_updated INTEGER NOT NULL
	);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// UpsertArticle stores the latest judgment for a key, replacing any
// previous one, and keeps the FTS index in step.
func (c *Client) UpsertArticle(rec *models.ArticleRecord) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO articles (key, url, title, source_domain, input_type, verdict, confidence,
			rationale, summary, evidence, components, tx_hash, ipfs_cid, text_excerpt, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			title = excluded.title,
			verdict = excluded.verdict,
			confidence = excluded.confidence,
			rationale = excluded.rationale,
			summary = excluded.summary,
			evidence = excluded.evidence,
			components = excluded.components,
			tx_hash = excluded.tx_hash,
			ipfs_cid = excluded.ipfs_cid,
			text_excerpt = excluded.text_excerpt,
			updated_at = excluded.updated_at
	`

	_, err = tx.Exec(
		query,
		rec.Key,
		rec.URL,
		rec.Title,
		rec.SourceDomain,
		rec.InputType,
		rec.Verdict,
		rec.Confidence,
		rec.Rationale,
		rec.Summary,
		rec.EvidenceJSON,
		rec.ComponentsJSON,
		rec.TxHash,
		rec.IpfsCid,
		rec.TextExcerpt,
		rec.CreatedAt.Unix(),
		rec.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert article: %w", err)
	}

	_, err = tx.Exec(`DELETE FROM articles_fts WHERE key = ?`, rec.Key)
	if err != nil {
		return fmt.Errorf("failed to clear FTS row: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO articles_fts (key, title, summary, excerpt) VALUES (?, ?, ?, ?)`,
		rec.Key, rec.Title, rec.Summary, rec.TextExcerpt,
	)
	if err != nil {
		return fmt.Errorf("failed to index article: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit article: %w", err)
	}

	logger.Debug("Article upserted", zap.String("key", rec.Key), zap.String("verdict", rec.Verdict))
	return nil
}

const articleColumns = `key, url, title, source_domain, input_type, verdict, confidence,
	rationale, summary, evidence, components, tx_hash, ipfs_cid, text_excerpt, created_at, updated_at`

// articleColumnsQualified disambiguates the shared column names when
// articles is joined against articles_fts.
const articleColumnsQualified = `articles.key, articles.url, articles.title, articles.source_domain,
	articles.input_type, articles.verdict, articles.confidence, articles.rationale, articles.summary,
	articles.evidence, articles.components, articles.tx_hash, articles.ipfs_cid, articles.text_excerpt,
	articles.created_at, articles.updated_at`

func scanArticle(row interface{ Scan(...any) error }) (*models.ArticleRecord, error) {
	var rec models.ArticleRecord
	var createdAt, updatedAt int64

	err := row.Scan(
		&rec.Key,
		&rec.URL,
		&rec.Title,
		&rec.SourceDomain,
		&rec.InputType,
		&rec.Verdict,
		&rec.Confidence,
		&rec.Rationale,
		&rec.Summary,
		&rec.EvidenceJSON,
		&rec.ComponentsJSON,
		&rec.TxHash,
		&rec.IpfsCid,
		&rec.TextExcerpt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.CreatedAt = time.Unix(createdAt, 0)
	rec.UpdatedAt = time.Unix(updatedAt, 0)
	return &rec, nil
}

func (c *Client) GetArticle(key string) (*models.ArticleRecord, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE key = ?`

	rec, err := scanArticle(c.db.QueryRow(query, key))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return rec, nil
}

// SearchArticles runs a full-text query over stored judgments, ranked by
// bm25 relevance, capped at limit.
func (c *Client) SearchArticles(term string, limit int) ([]models.SearchHit, error) {
	match := ftsQuery(term)
	if match == "" {
		return nil, nil
	}

	query := `
		SELECT ` + articleColumnsQualified + `, bm25(articles_fts) AS rank
		FROM articles_fts
		JOIN articles ON articles.key = articles_fts.key
		WHERE articles_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`

	rows, err := c.db.Query(query, match, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search articles: %w", err)
	}
	defer rows.Close()

	var hits []models.SearchHit
	for rows.Next() {
		var rec models.ArticleRecord
		var createdAt, updatedAt int64
		var rank float64

		err := rows.Scan(
			&rec.Key, &rec.URL, &rec.Title, &rec.SourceDomain, &rec.InputType,
			&rec.Verdict, &rec.Confidence, &rec.Rationale, &rec.Summary,
			&rec.EvidenceJSON, &rec.ComponentsJSON, &rec.TxHash, &rec.IpfsCid,
			&rec.TextExcerpt, &createdAt, &updatedAt, &rank,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}

		rec.CreatedAt = time.Unix(createdAt, 0)
		rec.UpdatedAt = time.Unix(updatedAt, 0)
		hits = append(hits, models.SearchHit{Record: rec, Rank: rank})
	}

	return hits, rows.Err()
}

// ftsQuery quotes each token so user input cannot inject FTS5 operators.
func ftsQuery(term string) string {
	fields := strings.Fields(term)
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+strings.ReplaceAll(f, `"`, ``)+`"`)
	}
	return strings.Join(quoted, " ")
}

func (c *Client) GetRecentByDomain(domain string, limit int) ([]models.ArticleRecord, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE source_domain = ? ORDER BY updated_at DESC LIMIT ?`

	rows, err := c.db.Query(query, domain, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get articles by domain: %w", err)
	}
	defer rows.Close()

	var records []models.ArticleRecord
	for rows.Next() {
		var rec models.ArticleRecord
		var createdAt, updatedAt int64

		err := rows.Scan(
			&rec.Key, &rec.URL, &rec.Title, &rec.SourceDomain, &rec.InputType,
			&rec.Verdict, &rec.Confidence, &rec.Rationale, &rec.Summary,
			&rec.EvidenceJSON, &rec.ComponentsJSON, &rec.TxHash, &rec.IpfsCid,
			&rec.TextExcerpt, &createdAt, &updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rec.CreatedAt = time.Unix(createdAt, 0)
		rec.UpdatedAt = time.Unix(updatedAt, 0)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// ApplyVerdictToReputation nudges a domain's credibility ledger by one
// verdict. The write is a single upsert statement, so concurrent updates
// to the same domain serialize inside SQLite and first_seen/category are
// never overwritten.
func (c *Client) ApplyVerdictToReputation(domain string, priorScore float64, category string, verdict string, confidence float64) (*models.SourceReputation, error) {
	delta := 0.0
	switch verdict {
	case "true":
		delta = confidence * ReputationStep
	case "false":
		delta = -confidence * ReputationStep
	}

	now := time.Now()
	initial := clamp01(priorScore + delta)

	query := `
		INSERT INTO source_reputation (domain, credibility_score, category, analysis_count, first_seen, last_updated)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET
			credibility_score = MAX(0.0, MIN(1.0, credibility_score + ?)),
			analysis_count = analysis_count + 1,
			last_updated = excluded.last_updated
	`

	_, err := c.db.Exec(query, domain, initial, category, now.Unix(), now.Unix(), delta)
	if err != nil {
		return nil, fmt.Errorf("failed to update reputation: %w", err)
	}

	return c.GetReputation(domain)
}

func (c *Client) GetReputation(domain string) (*models.SourceReputation, error) {
	query := `SELECT domain, credibility_score, category, analysis_count, first_seen, last_updated
		FROM source_reputation WHERE domain = ?`

	var rep models.SourceReputation
	var firstSeen, lastUpdated int64

	err := c.db.QueryRow(query, domain).Scan(
		&rep.Domain,
		&rep.CredibilityScore,
		&rep.Category,
		&rep.AnalysisCount,
		&firstSeen,
		&lastUpdated,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reputation: %w", err)
	}

	rep.FirstSeen = time.Unix(firstSeen, 0)
	rep.LastUpdated = time.Unix(lastUpdated, 0)
	return &rep, nil
}

// GetAnalyticsSummary aggregates stored judgments: totals, mean
// confidence, verdict shares, and the five busiest source domains.
func (c *Client) GetAnalyticsSummary() (*models.AnalyticsSummary, error) {
	summary := &models.AnalyticsSummary{
		VerdictDistribution: map[string]float64{"true": 0, "false": 0, "mixed": 0},
		TopSources:          []models.SourceVolume{},
	}

	var avg sql.NullFloat64
	err := c.db.QueryRow(`SELECT COUNT(*), AVG(confidence) FROM articles`).Scan(&summary.TotalAnalyses, &avg)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate articles: %w", err)
	}
	if avg.Valid {
		summary.AverageConfidence = avg.Float64
	}

	if summary.TotalAnalyses > 0 {
		rows, err := c.db.Query(`SELECT verdict, COUNT(*) FROM articles GROUP BY verdict`)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate verdicts: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var verdict string
			var count int
			if err := rows.Scan(&verdict, &count); err != nil {
				return nil, fmt.Errorf("failed to scan verdict row: %w", err)
			}
			if _, ok := summary.VerdictDistribution[verdict]; ok {
				summary.VerdictDistribution[verdict] = 100 * float64(count) / float64(summary.TotalAnalyses)
			}
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	srcRows, err := c.db.Query(`
		SELECT source_domain, COUNT(*) AS n FROM articles
		WHERE source_domain != ''
		GROUP BY source_domain
		ORDER BY n DESC
		LIMIT 5
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sources: %w", err)
	}
	defer srcRows.Close()

	for srcRows.Next() {
		var sv models.SourceVolume
		if err := srcRows.Scan(&sv.Domain, &sv.Count); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		summary.TopSources = append(summary.TopSources, sv)
	}

	return summary, srcRows.Err()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
