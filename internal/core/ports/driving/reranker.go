package driving

import (
	"context"

	"github.com/siftlabs/sift/internal/core/domain"
)

// Reranker refines a fused candidate list with cross-encoder scores.
type Reranker interface {
	// Rerank scores at most domain.RerankCandidateCap candidates
	// against the query and returns the topK best, re-sorted by
	// cross-encoder score. topK <= 0 defaults to
	// domain.DefaultRerankTopK. An empty candidate list returns an
	// empty result, not an error.
	Rerank(ctx context.Context, query string, candidates []domain.ScoredCandidate, topK int) ([]domain.RerankedCandidate, error)

	// RerankBatch reranks parallel lists of queries and per-query
	// candidates. It returns domain.ErrInvalidInput when the two lists
	// differ in length.
	RerankBatch(ctx context.Context, queries []string, candidates [][]domain.ScoredCandidate, topK int) ([][]domain.RerankedCandidate, error)
}
