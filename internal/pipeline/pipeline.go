package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/truthchain/backend/internal/aidetect"
	"github.com/truthchain/backend/internal/analysis"
	"github.com/truthchain/backend/internal/classifier"
	"github.com/truthchain/backend/internal/claims"
	"github.com/truthchain/backend/internal/content"
	"github.com/truthchain/backend/internal/factcheck"
	"github.com/truthchain/backend/internal/fusion"
	"github.com/truthchain/backend/internal/metrics"
	"github.com/truthchain/backend/internal/reputation"
	"github.com/truthchain/backend/internal/signal"
	"github.com/truthchain/backend/internal/storage/models"
	"github.com/truthchain/backend/internal/storage/sqlite"
	"github.com/truthchain/backend/pkg/logger"
	"github.com/truthchain/backend/pkg/utils"
)

// Stage names reported through the progress callback.
const (
	StageAcquiring   = "acquiring_content"
	StageReputation  = "estimating_reputation"
	StageClassifying = "running_local_classifier"
	StageAIDetect    = "estimating_ai_probability"
	StageClaim       = "extracting_claim"
	StageFactCheck   = "querying_fact_check_db"
	StageDeep        = "running_deep_analysis"
	StageFusing      = "fusing_signals"
	StagePersisting  = "persisting_result"
	StageComplete    = "complete"
)

// ProgressFunc receives stage names as the pipeline advances; nil is
// fine.
type ProgressFunc func(stage string)

// Cache is the optional analysis result cache; nil disables caching.
type Cache interface {
	GetAnalysis(ctx context.Context, inputHash string) ([]byte, bool, error)
	SetAnalysis(ctx context.Context, inputHash string, data []byte) error
}

// Request is one analysis to run.
type Request struct {
	InputValue string
	InputType  content.InputKind
	// Title is set by callers that already know it (headline digest);
	// otherwise derived from the text.
	Title string
}

// ComponentBreakdown exposes every signal that fed the fused verdict.
type ComponentBreakdown struct {
	Local struct {
		Confidence float64        `json:"confidence"`
		Verdict    signal.Verdict `json:"verdict"`
		Method     string         `json:"method"`
		Degraded   bool           `json:"degraded"`
	} `json:"local"`
	AIProbability float64 `json:"ai_probability"`
	Reputation    struct {
		Score float64 `json:"score"`
		Tag   string  `json:"tag"`
	} `json:"reputation"`
	FactCheck struct {
		Status     factcheck.Status `json:"status"`
		Confidence float64          `json:"confidence"`
	} `json:"fact_check"`
	DeepAnalysis struct {
		Confidence float64        `json:"confidence"`
		Verdict    signal.Verdict `json:"verdict"`
	} `json:"deep_analysis"`
}

// Result is the full outcome of one analysis request.
type Result struct {
	ID           string                `json:"id"`
	Key          string                `json:"key"`
	InputType    content.InputKind     `json:"input_type"`
	SourceDomain string                `json:"source_domain,omitempty"`
	Verdict      signal.Verdict        `json:"verdict"`
	Confidence   float64               `json:"confidence"`
	Rationale    string                `json:"rationale"`
	Summary      string                `json:"summary"`
	Evidence     []signal.EvidenceItem `json:"evidence"`
	TxHash       string                `json:"txHash"`
	IpfsCid      string                `json:"ipfsCid"`
	Components   ComponentBreakdown    `json:"components"`
	ContentError string                `json:"content_error,omitempty"`
	LatencyMS    int                   `json:"latency_ms"`
	Cached       bool                  `json:"cached,omitempty"`
}

// Engine wires the signal sources, the arbiter, and the store into the
// per-request pipeline.
type Engine struct {
	acquirer   *content.Acquirer
	estimator  *reputation.Estimator
	classifier *classifier.Adapter
	extractor  *claims.Extractor
	factCheck  *factcheck.Client
	deep       *analysis.Engine
	db         *sqlite.Client
	cache      Cache
}

func NewEngine(
	acquirer *content.Acquirer,
	estimator *reputation.Estimator,
	clf *classifier.Adapter,
	extractor *claims.Extractor,
	fc *factcheck.Client,
	deep *analysis.Engine,
	db *sqlite.Client,
	cache Cache,
) *Engine {
	return &Engine{
		acquirer:   acquirer,
		estimator:  estimator,
		classifier: clf,
		extractor:  extractor,
		factCheck:  fc,
		deep:       deep,
		db:         db,
		cache:      cache,
	}
}

// Analyze runs the full fusion pipeline for one input. It always
// returns a well-formed result; signal failures degrade inside their
// sources and never surface as errors here.
func (e *Engine) Analyze(ctx context.Context, req Request) *Result {
	return e.AnalyzeWithProgress(ctx, req, nil)
}

func (e *Engine) AnalyzeWithProgress(ctx context.Context, req Request, progress ProgressFunc) *Result {
	startTime := time.Now()
	analysisID := uuid.New().String()
	inputHash := utils.HashString(string(req.InputType) + ":" + req.InputValue)

	logger.Info("Starting analysis",
		zap.String("analysis_id", analysisID),
		zap.String("input_type", string(req.InputType)),
	)

	if cached := e.lookupCache(ctx, inputHash); cached != nil {
		cached.Cached = true
		return cached
	}

	report := func(stage string) {
		if progress != nil {
			progress(stage)
		}
	}

	report(StageAcquiring)
	extracted := e.acquirer.Acquire(ctx, content.Input{RawValue: req.InputValue, Kind: req.InputType})

	report(StageReputation)
	repScore, repTag := e.estimator.Estimate(req.InputValue)
	domain := reputation.Domain(req.InputValue)

	result := &Result{
		ID:           analysisID,
		Key:          articleKey(req),
		InputType:    req.InputType,
		SourceDomain: domain,
	}
	result.Components.Reputation.Score = repScore
	result.Components.Reputation.Tag = repTag

	if !extracted.OK || len(extracted.Text) < analysis.MinContentChars {
		e.shortCircuitInsufficient(ctx, result, extracted, repScore, repTag)
	} else {
		e.runSignals(ctx, report, result, req, extracted, repScore, repTag)
	}

	report(StagePersisting)
	e.persist(req, result, extracted, repScore, repTag)

	result.LatencyMS = int(time.Since(startTime).Milliseconds())
	report(StageComplete)

	metrics.AnalysesTotal.WithLabelValues(string(result.Verdict), string(req.InputType)).Inc()
	metrics.AnalysisDuration.WithLabelValues(string(req.InputType)).Observe(time.Since(startTime).Seconds())
	metrics.FusedConfidence.Observe(result.Confidence)

	e.storeCache(ctx, inputHash, result)

	logger.Info("Analysis complete",
		zap.String("analysis_id", analysisID),
		zap.String("verdict", string(result.Verdict)),
		zap.Float64("confidence", result.Confidence),
		zap.Int("latency_ms", result.LatencyMS),
	)

	return result
}

// shortCircuitInsufficient handles unusable content: the deep engine's
// guard synthesizes the summary and provenance without a model call,
// and the rest of the signal sources are skipped.
func (e *Engine) shortCircuitInsufficient(ctx context.Context, result *Result, extracted content.Extracted, repScore float64, repTag string) {
	deep := e.deep.Analyze(ctx, extracted.Text, extracted.OK, repScore, repTag, factcheck.Outcome{})

	result.Verdict = signal.VerdictMixed
	result.Confidence = deep.Confidence
	result.Summary = deep.Summary
	result.Rationale = "Insufficient content for signal fusion: " + deep.Summary
	result.Evidence = deep.Evidence
	result.TxHash = deep.TxHash
	result.IpfsCid = deep.IpfsCid
	result.Components.DeepAnalysis.Confidence = deep.Confidence
	result.Components.DeepAnalysis.Verdict = deep.Verdict
	if !extracted.OK {
		result.ContentError = extracted.Text
	}

	metrics.SignalFailures.WithLabelValues("content_acquisition").Inc()
}

func (e *Engine) runSignals(ctx context.Context, report func(string), result *Result, req Request, extracted content.Extracted, repScore float64, repTag string) {
	report(StageClassifying)
	prediction := e.classifier.Classify(ctx, req.Title, extracted.Text, result.SourceDomain)
	if prediction.Degraded {
		metrics.ClassifierDegraded.Inc()
	}

	report(StageAIDetect)
	aiProbability := aidetect.Probability(extracted.Text)

	report(StageClaim)
	claim, ok := e.extractor.Extract(ctx, extracted.Text)
	if !ok {
		claim = ""
	}

	report(StageFactCheck)
	outcome := e.factCheck.Lookup(ctx, claim)
	metrics.FactCheckOutcomes.WithLabelValues(string(outcome.Status)).Inc()
	if outcome.Confidence > 0.9 {
		metrics.DeepAnalysisShortCircuits.Inc()
	}

	report(StageDeep)
	deep := e.deep.Analyze(ctx, extracted.Text, true, repScore, repTag, outcome)

	report(StageFusing)
	local := signal.Result{Verdict: prediction.Verdict, Confidence: prediction.Confidence}
	fused := fusion.Fuse(local, aiProbability, deep)

	result.Verdict = fused.Verdict
	result.Confidence = fused.Confidence
	result.Rationale = fused.Rationale
	result.Summary = deep.Summary
	result.Evidence = deep.Evidence
	result.TxHash = deep.TxHash
	result.IpfsCid = deep.IpfsCid

	result.Components.Local.Confidence = prediction.Confidence
	result.Components.Local.Verdict = prediction.Verdict
	result.Components.Local.Method = prediction.Method
	result.Components.Local.Degraded = prediction.Degraded
	result.Components.AIProbability = aiProbability
	result.Components.FactCheck.Status = outcome.Status
	result.Components.FactCheck.Confidence = outcome.Confidence
	result.Components.DeepAnalysis.Confidence = deep.Confidence
	result.Components.DeepAnalysis.Verdict = deep.Verdict
}

// persist writes the article record and nudges the domain ledger. Both
// are best effort: a failed write never fails the analysis response.
func (e *Engine) persist(req Request, result *Result, extracted content.Extracted, repScore float64, repTag string) {
	if e.db == nil {
		return
	}

	evidenceJSON, _ := json.Marshal(result.Evidence)
	componentsJSON, _ := json.Marshal(result.Components)

	now := time.Now()
	rec := &models.ArticleRecord{
		Key:            result.Key,
		URL:            urlFor(req),
		Title:          titleFor(req, extracted),
		SourceDomain:   result.SourceDomain,
		InputType:      string(req.InputType),
		Verdict:        string(result.Verdict),
		Confidence:     result.Confidence,
		Rationale:      result.Rationale,
		Summary:        result.Summary,
		EvidenceJSON:   string(evidenceJSON),
		ComponentsJSON: string(componentsJSON),
		TxHash:         result.TxHash,
		IpfsCid:        result.IpfsCid,
		TextExcerpt:    excerpt(extracted.Text, 500),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := e.db.UpsertArticle(rec); err != nil {
		logger.Error("Failed to persist article record", zap.Error(err))
		metrics.PersistenceFailures.Inc()
	}

	if result.SourceDomain != "" {
		_, err := e.db.ApplyVerdictToReputation(
			result.SourceDomain, repScore, repTag,
			string(result.Verdict), result.Confidence,
		)
		if err != nil {
			logger.Error("Failed to update source reputation", zap.Error(err))
			metrics.PersistenceFailures.Inc()
		}
	}
}

func (e *Engine) lookupCache(ctx context.Context, inputHash string) *Result {
	if e.cache == nil {
		return nil
	}

	data, found, err := e.cache.GetAnalysis(ctx, inputHash)
	if err != nil {
		logger.Warn("Analysis cache lookup failed", zap.Error(err))
		return nil
	}
	if !found {
		metrics.CacheHits.WithLabelValues("miss").Inc()
		return nil
	}

	var cached Result
	if err := json.Unmarshal(data, &cached); err != nil {
		logger.Warn("Discarding malformed cache entry", zap.Error(err))
		return nil
	}

	metrics.CacheHits.WithLabelValues("hit").Inc()
	return &cached
}

func (e *Engine) storeCache(ctx context.Context, inputHash string, result *Result) {
	if e.cache == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := e.cache.SetAnalysis(ctx, inputHash, data); err != nil {
		logger.Warn("Failed to cache analysis", zap.Error(err))
	}
}

func articleKey(req Request) string {
	if req.InputType == content.KindURL {
		return req.InputValue
	}
	return "text:" + utils.HashString(req.InputValue)
}

func urlFor(req Request) string {
	if req.InputType == content.KindURL {
		return req.InputValue
	}
	return ""
}

func titleFor(req Request, extracted content.Extracted) string {
	if req.Title != "" {
		return req.Title
	}
	return excerpt(extracted.Text, 80)
}

func excerpt(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	return text[:max]
}
