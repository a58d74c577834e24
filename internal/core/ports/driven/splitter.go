package driven

import "github.com/siftlabs/sift/internal/core/domain"

// Splitter breaks content item text into pending chunks ready for
// embedding. Splitting is pure and deterministic for a given input.
type Splitter interface {
	// Split divides text into chunks owned by the given content item.
	// Empty text yields no chunks.
	Split(contentItemID, text string) []domain.Chunk
}
