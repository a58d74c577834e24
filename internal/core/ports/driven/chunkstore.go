package driven

import (
	"context"

	"github.com/siftlabs/sift/internal/core/domain"
)

// ChunkStore provides chunk and content-item persistence. Ingestion
// (outside this core) writes through it; retrieval adapters read
// through it when hydrating results.
type ChunkStore interface {
	// SaveContentItem stores or updates a content item.
	SaveContentItem(ctx context.Context, item *domain.ContentItem) error

	// SaveChunks stores chunks for a content item. The store enforces
	// uniqueness of (ContentItemID, Index).
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunk retrieves a chunk by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetContentItem retrieves a content item by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetContentItem(ctx context.Context, id string) (*domain.ContentItem, error)

	// SaveSubscription records that a user follows a channel. The
	// search stages consult subscriptions when a UserID filter is set.
	SaveSubscription(ctx context.Context, userID, channelID string) error

	// Close releases resources.
	Close() error
}
