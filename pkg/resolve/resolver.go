package resolve

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"ai-qa-platform-be/internal/entity"
	"ai-qa-platform-be/internal/pkg/logger"
	"ai-qa-platform-be/pkg/embedding"
	"ai-qa-platform-be/pkg/mode"
	"ai-qa-platform-be/pkg/resolve/matcher"
	"ai-qa-platform-be/pkg/resolve/response"
	"ai-qa-platform-be/pkg/resolve/retrieval"
	"ai-qa-platform-be/pkg/resolve/websearch"
)

// Request carries one query through the pipeline together with the
// application's resolved configuration and its candidate material.
type Request struct {
	Query            string
	ApplicationId    uuid.UUID
	Config           mode.PipelineConfig
	FixedQA          []*entity.FixedQA
	KnowledgeBaseIds []uuid.UUID
}

// Resolver runs the staged resolution pipeline: curated Q&A first, then
// vector retrieval, then web search, then grounded generation, in whatever
// order and subset the application's mode configures. Recoverable stage
// failures escalate to the next stage; only caller cancellation aborts.
type Resolver struct {
	embeddings   embedding.EmbeddingProvider
	matcher      *matcher.Matcher
	retriever    *retrieval.Retriever
	search       websearch.Provider
	generator    *response.Generator
	logger       logger.ILogger
	stageTimeout time.Duration
}

func NewResolver(
	embeddings embedding.EmbeddingProvider,
	m *matcher.Matcher,
	retriever *retrieval.Retriever,
	search websearch.Provider,
	generator *response.Generator,
	log logger.ILogger,
	stageTimeout time.Duration,
) *Resolver {
	return &Resolver{
		embeddings:   embeddings,
		matcher:      m,
		retriever:    retriever,
		search:       search,
		generator:    generator,
		logger:       log,
		stageTimeout: stageTimeout,
	}
}

// run is the mutable state of a single resolution. One per Resolve call,
// never shared.
type run struct {
	req      Request
	queryVec []float32
	embedErr error

	provenance      []ProvenanceRecord
	grounding       []response.Snippet
	recommendations []Recommendation

	// bestUpstream is the highest score any stage observed. It becomes the
	// generation confidence when the pipeline reaches synthesis.
	bestUpstream float64
	vectorBest   float64
	vectorSeen   bool
}

// Resolve drives the query through the configured stages and always returns
// a Resolution unless the caller's context is done. The first stage whose
// best score clears its acceptance threshold wins and short-circuits the
// rest.
var tracer = otel.Tracer("resolve")

func (r *Resolver) Resolve(ctx context.Context, req Request) (*Resolution, error) {
	cfg := req.Config

	ctx, span := tracer.Start(ctx, "resolve")
	span.SetAttributes(attribute.String("application_id", req.ApplicationId.String()))
	defer span.End()

	st := &run{req: req}
	st.queryVec, st.embedErr = r.embedQuery(ctx, req.Query)
	if st.embedErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("resolver", "query embedding unavailable, similarity stages will be skipped", map[string]interface{}{
			"error": st.embedErr.Error(),
		})
	}

	for _, stage := range cfg.Stages {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		res, err := r.tryStage(ctx, stage, st)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Recoverable: record and escalate to the next stage.
			st.record(ProvenanceRecord{Stage: string(stage), Error: err.Error()})
			r.logger.Warn("resolver", "stage failed, escalating", map[string]interface{}{
				"stage": string(stage),
				"error": err.Error(),
			})
			continue
		}
		if res != nil {
			res.Query = req.Query
			res.Provenance = st.provenance
			return res, nil
		}
	}

	return r.exhausted(st), nil
}

func (r *Resolver) embedQuery(ctx context.Context, query string) ([]float32, error) {
	resp, err := r.embeddings.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return resp.Embedding.Values, nil
}

// tryStage runs one stage under the per-stage timeout. A non-nil Resolution
// means the stage accepted; (nil, nil) means continue down the ladder.
func (r *Resolver) tryStage(parent context.Context, stage mode.Stage, st *run) (*Resolution, error) {
	ctx := parent
	cancel := func() {}
	if r.stageTimeout > 0 {
		ctx, cancel = context.WithTimeout(parent, r.stageTimeout)
	}
	defer cancel()

	ctx, span := tracer.Start(ctx, "stage."+string(stage))
	defer span.End()

	var (
		res *Resolution
		err error
	)
	switch stage {
	case mode.StageFixedQAExact:
		res, err = r.stageExact(ctx, st)
	case mode.StageFixedQASimilar:
		res, err = r.stageSimilar(ctx, st)
	case mode.StageVectorKB:
		res, err = r.stageVector(ctx, st)
	case mode.StageWebSearch:
		res, err = r.stageWebSearch(ctx, st)
	case mode.StageGeneration:
		res, err = r.stageGeneration(ctx, st)
	default:
		// Unknown stages are rejected at config time; nothing to do here.
		return nil, nil
	}

	if err != nil && parent.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return nil, errors.New("stage timed out")
	}
	return res, err
}

func (r *Resolver) stageExact(ctx context.Context, st *run) (*Resolution, error) {
	if st.embedErr != nil {
		return nil, st.embedErr
	}
	cfg := st.req.Config

	match, err := r.matcher.MatchExact(ctx, st.queryVec, st.req.FixedQA, cfg.ExactThreshold)
	if err != nil {
		return nil, err
	}
	if match == nil {
		st.record(ProvenanceRecord{Stage: string(mode.StageFixedQAExact)})
		return nil, nil
	}

	st.observe(match.Score)
	st.record(ProvenanceRecord{
		Stage:    string(mode.StageFixedQAExact),
		SourceId: match.Entry.Id.String(),
		Score:    match.Score,
		Accepted: true,
	})
	return &Resolution{
		Stage:      string(mode.StageFixedQAExact),
		Answer:     match.Entry.Answer,
		Confidence: match.Score,
	}, nil
}

func (r *Resolver) stageSimilar(ctx context.Context, st *run) (*Resolution, error) {
	if st.embedErr != nil {
		return nil, st.embedErr
	}
	cfg := st.req.Config

	limit := cfg.RecommendCount
	if limit < 1 {
		limit = 1
	}
	matches, err := r.matcher.MatchSimilar(ctx, st.queryVec, st.req.FixedQA, cfg.RecommendThreshold, limit)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		st.record(ProvenanceRecord{Stage: string(mode.StageFixedQASimilar)})
		return nil, nil
	}

	top := matches[0]
	st.observe(top.Score)

	if cfg.SimilarAnswerEnabled && top.Score >= cfg.SimilarThreshold {
		st.record(ProvenanceRecord{
			Stage:    string(mode.StageFixedQASimilar),
			SourceId: top.Entry.Id.String(),
			Score:    top.Score,
			Accepted: true,
		})
		return &Resolution{
			Stage:      string(mode.StageFixedQASimilar),
			Answer:     top.Entry.Answer,
			Confidence: top.Score,
		}, nil
	}

	// Below the answering bar (or answering disabled): keep the candidates
	// as suggestions for the fallback payload.
	for _, m := range matches {
		st.recommendations = append(st.recommendations, Recommendation{
			QuestionId: m.Entry.Id.String(),
			Question:   m.Entry.Question,
			Score:      m.Score,
		})
	}
	st.record(ProvenanceRecord{
		Stage:    string(mode.StageFixedQASimilar),
		SourceId: top.Entry.Id.String(),
		Score:    top.Score,
	})
	return nil, nil
}

func (r *Resolver) stageVector(ctx context.Context, st *run) (*Resolution, error) {
	cfg := st.req.Config
	st.vectorSeen = true

	if st.embedErr != nil {
		return nil, st.embedErr
	}
	if r.retriever == nil {
		return nil, errors.New("vector retrieval is not configured")
	}

	chunks, err := r.retriever.Retrieve(ctx, st.queryVec, st.req.KnowledgeBaseIds, cfg.TopK, cfg.VectorFloor)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		st.record(ProvenanceRecord{Stage: string(mode.StageVectorKB)})
		return nil, nil
	}

	best := chunks[0]
	for _, c := range chunks {
		if c.Score > best.Score {
			best = c
		}
		st.grounding = append(st.grounding, response.Snippet{
			Stage:    string(mode.StageVectorKB),
			SourceId: c.Chunk.Id.String(),
			Text:     c.Chunk.Content,
		})
	}
	st.vectorBest = best.Score
	st.observe(best.Score)

	if best.Score >= cfg.VectorThreshold {
		answer := best.Chunk.Content
		if cfg.EnableLLMPolish && r.generator != nil {
			polished, perr := r.generator.Polish(ctx, answer, st.req.Query, r.genParams(cfg))
			if perr != nil {
				r.logger.Warn("resolver", "polish failed, returning raw chunk", map[string]interface{}{
					"error": perr.Error(),
				})
			} else {
				answer = polished
			}
		}
		st.record(ProvenanceRecord{
			Stage:    string(mode.StageVectorKB),
			SourceId: best.Chunk.Id.String(),
			Score:    best.Score,
			Accepted: true,
		})
		return &Resolution{
			Stage:              string(mode.StageVectorKB),
			Answer:             answer,
			Confidence:         best.Score,
			RequiresDisclaimer: cfg.DisclaimerOnLowVector && best.Score < cfg.ExactThreshold,
		}, nil
	}

	st.record(ProvenanceRecord{
		Stage:    string(mode.StageVectorKB),
		SourceId: best.Chunk.Id.String(),
		Score:    best.Score,
	})
	return nil, nil
}

func (r *Resolver) stageWebSearch(ctx context.Context, st *run) (*Resolution, error) {
	cfg := st.req.Config
	if !cfg.AllowWebSearch {
		return nil, nil
	}

	// Two-threshold trigger: when retrieval already produced usable context
	// (best vector score at or above the auto-trigger), skip the external
	// call and let generation work from that context. A zero auto-trigger
	// means always search.
	if cfg.WebSearchAutoThreshold > 0 && st.vectorSeen && st.vectorBest >= cfg.WebSearchAutoThreshold {
		r.logger.Info("resolver", "web search skipped, vector context above auto-trigger", map[string]interface{}{
			"vector_best":  st.vectorBest,
			"auto_trigger": cfg.WebSearchAutoThreshold,
		})
		return nil, nil
	}

	if r.search == nil {
		return nil, errors.New("web search is not configured")
	}

	results, err := r.search.Search(ctx, st.req.Query, cfg.WebSearchDomains)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		st.record(ProvenanceRecord{Stage: string(mode.StageWebSearch)})
		return nil, nil
	}

	best := results[0]
	for _, res := range results {
		if res.Score > best.Score {
			best = res
		}
		st.grounding = append(st.grounding, response.Snippet{
			Stage:    string(mode.StageWebSearch),
			SourceId: res.URL,
			Title:    res.Title,
			Text:     res.Snippet,
		})
	}
	st.observe(best.Score)

	if best.Score >= cfg.WebSearchThreshold {
		st.record(ProvenanceRecord{
			Stage:    string(mode.StageWebSearch),
			SourceId: best.URL,
			Score:    best.Score,
			Accepted: true,
		})
		return &Resolution{
			Stage:      string(mode.StageWebSearch),
			Answer:     best.Snippet,
			Confidence: best.Score,
		}, nil
	}

	st.record(ProvenanceRecord{
		Stage:    string(mode.StageWebSearch),
		SourceId: best.URL,
		Score:    best.Score,
	})
	return nil, nil
}

func (r *Resolver) stageGeneration(ctx context.Context, st *run) (*Resolution, error) {
	cfg := st.req.Config
	if !cfg.AllowGeneration {
		return nil, nil
	}
	if r.generator == nil {
		return nil, errors.New("generation is not configured")
	}

	answer, err := r.generator.Generate(ctx, st.req.Query, st.grounding, r.genParams(cfg))
	if err != nil {
		return nil, err
	}

	st.record(ProvenanceRecord{
		Stage:    string(mode.StageGeneration),
		Score:    st.bestUpstream,
		Accepted: true,
	})
	return &Resolution{
		Stage:      string(mode.StageGeneration),
		Answer:     answer,
		Confidence: st.bestUpstream,
		// Reaching synthesis means no upstream acceptance bar was cleared.
		RequiresDisclaimer: true,
	}, nil
}

func (r *Resolver) genParams(cfg mode.PipelineConfig) response.Params {
	return response.Params{MaxTokens: cfg.MaxTokens}
}

// exhausted builds the fallback Resolution: the configured message plus any
// similar-question suggestions gathered along the way.
func (r *Resolver) exhausted(st *run) *Resolution {
	cfg := st.req.Config

	// The similar stage may have scored one extra candidate to observe the
	// top score; the cap here is authoritative, including a cap of zero.
	recs := st.recommendations
	if len(recs) > cfg.RecommendCount {
		recs = recs[:cfg.RecommendCount]
	}

	return &Resolution{
		Query:           st.req.Query,
		Stage:           string(mode.StageNone),
		Answer:          cfg.FallbackMessage,
		Provenance:      st.provenance,
		Recommendations: recs,
	}
}

func (st *run) record(p ProvenanceRecord) {
	st.provenance = append(st.provenance, p)
}

func (st *run) observe(score float64) {
	if score > st.bestUpstream {
		st.bestUpstream = score
	}
}
