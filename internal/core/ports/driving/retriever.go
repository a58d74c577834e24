package driving

import (
	"context"

	"github.com/siftlabs/sift/internal/core/domain"
)

// Retriever performs hybrid retrieval: concurrent semantic and keyword
// search, score fusion with metadata signals, and top-K selection.
type Retriever interface {
	// Retrieve returns the fused, ranked candidate list for a
	// processed query. A failing search stage contributes an empty
	// result set; an error is returned only when every stage failed.
	Retrieve(ctx context.Context, query domain.ProcessedQuery, opts domain.RetrieveOptions) ([]domain.ScoredCandidate, error)
}
