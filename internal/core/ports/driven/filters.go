package driven

import (
	"time"

	"github.com/siftlabs/sift/internal/core/domain"
)

// SearchFilters restrict a vector or lexical search. All populated
// filters apply conjunctively (AND). Both search stages share the same
// filter semantics.
type SearchFilters struct {
	// ContentTypes restricts to the given source types.
	// Empty disables the filter.
	ContentTypes []domain.SourceType

	// PublishedAfter is a lower bound on the parent item's publish
	// date. Nil disables the filter.
	PublishedAfter *time.Time

	// UserID restricts to chunks whose parent item's channel the user
	// is subscribed to. Empty disables the filter.
	UserID string
}

// CandidateHit is a chunk returned by a search stage together with the
// display fields of its parent content item.
type CandidateHit struct {
	// Chunk is the matched chunk.
	Chunk domain.Chunk

	// Item is the parent content item.
	Item domain.ContentItem

	// Score carries the stage's raw relevance signal: cosine distance
	// for vector search (lower is better), raw lexical rank for
	// keyword search (higher is better).
	Score float64
}
