package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/siftlabs/sift/internal/core/domain"
	"github.com/siftlabs/sift/internal/core/ports/driven"
	"github.com/siftlabs/sift/internal/core/ports/driving"
	"github.com/siftlabs/sift/internal/logger"
)

// Ensure RetrieverService implements the interface.
var _ driving.Retriever = (*RetrieverService)(nil)

// overFetchFactor is how many times top_k each stage fetches, so the
// fused ranking survives merge and min-score attrition.
const overFetchFactor = 2

// fusedCandidate accumulates per-signal scores during fusion.
type fusedCandidate struct {
	chunk domain.Chunk
	item  domain.ContentItem

	semantic float64
	keyword  float64
}

// RetrieverService orchestrates hybrid retrieval: concurrent semantic
// and keyword search, metadata scoring, weighted fusion, and top-K
// selection.
type RetrieverService struct {
	vectors driven.VectorStore
	lexical driven.LexicalStore
	weights domain.RetrievalWeights
	policy  *FailurePolicy

	// now is injected for deterministic recency tests.
	now func() time.Time
}

// NewRetrieverService creates a hybrid retriever. Either store may be
// nil; the corresponding signal then contributes nothing. Weights that
// do not sum to 1.0 are normalised with a warning rather than rejected.
func NewRetrieverService(
	vectors driven.VectorStore,
	lexical driven.LexicalStore,
	weights domain.RetrievalWeights,
	policy *FailurePolicy,
) *RetrieverService {
	if math.Abs(weights.Sum()-1.0) > 1e-6 {
		logger.Warn("Retrieval weights sum to %.4f, normalising to 1.0", weights.Sum())
		weights = weights.Normalised()
	}
	return &RetrieverService{
		vectors: vectors,
		lexical: lexical,
		weights: weights,
		policy:  policy,
		now:     time.Now,
	}
}

// Weights returns the (normalised) fusion weights in use.
func (s *RetrieverService) Weights() domain.RetrievalWeights {
	return s.weights
}

// Retrieve runs both search stages concurrently, fuses their scores
// with the metadata signal, and returns the top-K ranked candidates.
func (s *RetrieverService) Retrieve(
	ctx context.Context, query domain.ProcessedQuery, opts domain.RetrieveOptions,
) ([]domain.ScoredCandidate, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	minScore := opts.MinScore
	if minScore == 0 {
		minScore = domain.DefaultMinScore
	}
	if minScore < 0 {
		minScore = 0
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	filters := driven.SearchFilters{
		ContentTypes: opts.ContentTypes,
		UserID:       opts.UserID,
	}
	if opts.DateRangeDays > 0 {
		cutoff := s.now().AddDate(0, 0, -opts.DateRangeDays)
		filters.PublishedAfter = &cutoff
	}

	fetchLimit := topK * overFetchFactor
	logger.Debug("Hybrid retrieve: top_k=%d, fetch=%d, min_score=%.2f",
		topK, fetchLimit, minScore)

	// The stages have no data dependency on each other; run them
	// concurrently and wait for both before fusing.
	var (
		wg          sync.WaitGroup
		semHits     []driven.CandidateHit
		keyHits     []driven.CandidateHit
		semErr      error
		keyErr      error
		keyMaxScore float64
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		semHits, semErr = s.semanticSearch(ctx, query, fetchLimit, filters)
	}()
	go func() {
		defer wg.Done()
		keyHits, keyMaxScore, keyErr = s.keywordSearch(ctx, query, fetchLimit, filters)
	}()
	wg.Wait()

	if semErr != nil && keyErr != nil {
		return nil, fmt.Errorf("%w: semantic=%v, keyword=%v",
			domain.ErrAllStagesFailed, semErr, keyErr)
	}
	if err := s.policy.Recover("semantic", semErr); err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	if err := s.policy.Recover("keyword", keyErr); err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	logger.Debug("Stage results: semantic=%d, keyword=%d", len(semHits), len(keyHits))

	candidates := s.fuse(semHits, keyHits, keyMaxScore, minScore, topK)

	for i := range candidates {
		candidates[i].Highlights = generateHighlights(candidates[i].Text, query.Tokens)
	}

	logger.Info("Retrieved %d candidates (top score %.3f)",
		len(candidates), topScore(candidates))

	return candidates, nil
}

// semanticSearch runs the vector stage. A query without an embedding
// contributes nothing but is not a failure: retrieval degrades to
// keyword-only.
func (s *RetrieverService) semanticSearch(
	ctx context.Context, query domain.ProcessedQuery, limit int, filters driven.SearchFilters,
) ([]driven.CandidateHit, error) {
	if query.Embedding == nil {
		logger.Debug("No query embedding, skipping semantic stage")
		return nil, nil
	}
	if s.vectors == nil {
		return nil, domain.ErrVectorStoreUnavailable
	}

	hits, err := s.vectors.Search(ctx, query.Embedding, limit, filters)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return hits, nil
}

// keywordSearch runs the lexical stage and reports the maximum raw
// rank so scores can be normalised during fusion. An empty prepared
// query contributes nothing.
func (s *RetrieverService) keywordSearch(
	ctx context.Context, query domain.ProcessedQuery, limit int, filters driven.SearchFilters,
) ([]driven.CandidateHit, float64, error) {
	boolQuery := domain.ParseBooleanQuery(query.Original)
	if boolQuery.IsEmpty() {
		logger.Debug("Empty boolean query, skipping keyword stage")
		return nil, 0, nil
	}
	if s.lexical == nil {
		return nil, 0, domain.ErrLexicalStoreUnavailable
	}

	hits, err := s.lexical.Search(ctx, boolQuery, limit, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("lexical search: %w", err)
	}

	maxScore := 0.0
	for _, h := range hits {
		if h.Score > maxScore {
			maxScore = h.Score
		}
	}
	return hits, maxScore, nil
}

// fuse merges the two candidate sets by chunk identity, computes the
// metadata signal, applies the fusion weights, filters by min score,
// and returns the ranked top-K.
func (s *RetrieverService) fuse(
	semHits, keyHits []driven.CandidateHit, keyMaxScore, minScore float64, topK int,
) []domain.ScoredCandidate {
	merged := make(map[string]*fusedCandidate, len(semHits)+len(keyHits))

	for _, hit := range semHits {
		merged[hit.Chunk.ID] = &fusedCandidate{
			chunk:    hit.Chunk,
			item:     hit.Item,
			semantic: semanticScore(hit.Score),
		}
	}

	// The floor of 1.0 avoids divide-by-zero and keeps sub-1.0 raw
	// ranks from being inflated to a full-strength signal.
	norm := math.Max(keyMaxScore, 1.0)
	for _, hit := range keyHits {
		if fc, ok := merged[hit.Chunk.ID]; ok {
			fc.keyword = hit.Score / norm
			continue
		}
		merged[hit.Chunk.ID] = &fusedCandidate{
			chunk:   hit.Chunk,
			item:    hit.Item,
			keyword: hit.Score / norm,
		}
	}

	now := s.now()
	candidates := make([]domain.ScoredCandidate, 0, len(merged))
	for _, fc := range merged {
		metaScore := metadataScore(fc.item, now)
		finalScore := s.weights.Semantic*fc.semantic +
			s.weights.Keyword*fc.keyword +
			s.weights.Metadata*metaScore

		if finalScore < minScore {
			continue
		}

		candidates = append(candidates, domain.ScoredCandidate{
			ChunkID:       fc.chunk.ID,
			ContentItemID: fc.chunk.ContentItemID,
			ChunkIndex:    fc.chunk.Index,
			Text:          fc.chunk.Text,
			Metadata:      fc.chunk.Metadata,
			Title:         fc.item.Title,
			Author:        fc.item.Author,
			ChannelName:   fc.item.ChannelName,
			SourceType:    fc.item.SourceType,
			PublishedAt:   fc.item.PublishedAt,
			SemanticScore: fc.semantic,
			KeywordScore:  fc.keyword,
			MetadataScore: metaScore,
			FinalScore:    finalScore,
		})
	}

	// Identical final scores break ties by chunk ID so rankings stay
	// reproducible run to run.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].FinalScore != candidates[j].FinalScore {
			return candidates[i].FinalScore > candidates[j].FinalScore
		}
		return candidates[i].ChunkID < candidates[j].ChunkID
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	for i := range candidates {
		candidates[i].Rank = i + 1
	}
	return candidates
}

// semanticScore converts a cosine distance into a similarity in [0, 1].
func semanticScore(distance float64) float64 {
	return math.Max(0, 1-distance)
}

// generateHighlights creates up to three sentence snippets containing
// query tokens, for display alongside results.
func generateHighlights(content string, tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}

	var highlights []string
	for _, sentence := range splitSentences(content) {
		sentenceLower := strings.ToLower(sentence)
		for _, tok := range tokens {
			if strings.Contains(sentenceLower, tok) {
				if len(sentence) > 200 {
					sentence = sentence[:200] + "..."
				}
				highlights = append(highlights, sentence)
				break
			}
		}
		if len(highlights) >= 3 {
			break
		}
	}
	return highlights
}

// splitSentences splits content on common sentence terminators.
func splitSentences(content string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range content {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// topScore returns the best final score for logging, or 0 when empty.
func topScore(candidates []domain.ScoredCandidate) float64 {
	if len(candidates) == 0 {
		return 0
	}
	return candidates[0].FinalScore
}
