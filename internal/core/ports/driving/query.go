package driving

import (
	"context"

	"github.com/siftlabs/sift/internal/core/domain"
)

// QueryProcessor turns free-text queries into ProcessedQuery values
// ready for hybrid retrieval.
type QueryProcessor interface {
	// Process cleans, tokenizes, embeds, expands, and classifies one
	// query. Degenerate input (empty or too short after cleaning)
	// returns an empty ProcessedQuery with intent unknown, not an
	// error.
	Process(ctx context.Context, text string, opts domain.ProcessOptions) (domain.ProcessedQuery, error)

	// ProcessBatch processes queries sequentially, invoking the
	// embedding provider once per item.
	ProcessBatch(ctx context.Context, texts []string, opts domain.ProcessOptions) ([]domain.ProcessedQuery, error)
}
