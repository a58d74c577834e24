package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/siftlabs/sift/internal/core/domain"
	"github.com/siftlabs/sift/internal/core/ports/driven"
	"github.com/siftlabs/sift/internal/core/ports/driving"
	"github.com/siftlabs/sift/internal/logger"
)

// Ensure RerankService implements the interface.
var _ driving.Reranker = (*RerankService)(nil)

// RerankService refines fused candidates with cross-encoder scores.
type RerankService struct {
	encoder driven.CrossEncoder
}

// NewRerankService creates a reranker over the given cross-encoder.
func NewRerankService(encoder driven.CrossEncoder) *RerankService {
	return &RerankService{encoder: encoder}
}

// Rerank scores each (query, chunk text) pair with the cross-encoder,
// re-sorts, and returns the topK best. Input is capped at
// domain.RerankCandidateCap pairs before any scoring happens.
func (s *RerankService) Rerank(
	ctx context.Context, query string, candidates []domain.ScoredCandidate, topK int,
) ([]domain.RerankedCandidate, error) {
	if topK <= 0 {
		topK = domain.DefaultRerankTopK
	}
	if len(candidates) == 0 {
		return []domain.RerankedCandidate{}, nil
	}
	if s.encoder == nil {
		return nil, domain.ErrCrossEncoderUnavailable
	}

	if len(candidates) > domain.RerankCandidateCap {
		logger.Debug("Capping rerank input from %d to %d candidates",
			len(candidates), domain.RerankCandidateCap)
		candidates = candidates[:domain.RerankCandidateCap]
	}

	passages := make([]string, len(candidates))
	for i := range candidates {
		passages[i] = candidates[i].Text
	}

	scores, err := s.encoder.Score(ctx, query, passages)
	if err != nil {
		// A broken model is a correctness issue, not a data
		// availability issue: surface it, never return silently
		// empty results.
		return nil, fmt.Errorf("%w: %v", domain.ErrModelInference, err)
	}
	if len(scores) != len(candidates) {
		return nil, fmt.Errorf("%w: got %d scores for %d candidates",
			domain.ErrModelInference, len(scores), len(candidates))
	}

	reranked := make([]domain.RerankedCandidate, len(candidates))
	for i := range candidates {
		reranked[i] = domain.RerankedCandidate{
			ScoredCandidate: candidates[i],
			RerankScore:     scores[i],
		}
	}

	sort.Slice(reranked, func(i, j int) bool {
		if reranked[i].RerankScore != reranked[j].RerankScore {
			return reranked[i].RerankScore > reranked[j].RerankScore
		}
		return reranked[i].ChunkID < reranked[j].ChunkID
	})

	if len(reranked) > topK {
		reranked = reranked[:topK]
	}
	for i := range reranked {
		reranked[i].RerankRank = i + 1
	}

	logger.Debug("Reranked %d candidates to top %d", len(candidates), len(reranked))
	return reranked, nil
}

// RerankBatch reranks parallel query and candidate lists sequentially.
func (s *RerankService) RerankBatch(
	ctx context.Context, queries []string, candidates [][]domain.ScoredCandidate, topK int,
) ([][]domain.RerankedCandidate, error) {
	if len(queries) != len(candidates) {
		return nil, fmt.Errorf("%w: %d queries but %d candidate lists",
			domain.ErrInvalidInput, len(queries), len(candidates))
	}

	results := make([][]domain.RerankedCandidate, len(queries))
	for i := range queries {
		reranked, err := s.Rerank(ctx, queries[i], candidates[i], topK)
		if err != nil {
			return nil, fmt.Errorf("rerank query %d: %w", i, err)
		}
		results[i] = reranked
	}
	return results, nil
}
