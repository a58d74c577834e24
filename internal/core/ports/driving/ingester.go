package driving

import (
	"context"

	"github.com/siftlabs/sift/internal/core/domain"
)

// Ingester adds content to the corpus: it chunks item text, generates
// embeddings, and persists the results in a retrievable state.
type Ingester interface {
	// Ingest stores the item, splits its text into chunks, embeds
	// them, and saves them. It returns the number of chunks stored.
	// Without an embedding provider the chunks are saved pending and
	// become retrievable once embedded.
	Ingest(ctx context.Context, item domain.ContentItem, text string) (int, error)

	// Subscribe records that a user follows a channel, making the
	// channel's content visible under the user filter.
	Subscribe(ctx context.Context, userID, channelID string) error
}
