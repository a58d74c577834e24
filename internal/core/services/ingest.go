package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/siftlabs/sift/internal/core/domain"
	"github.com/siftlabs/sift/internal/core/ports/driven"
	"github.com/siftlabs/sift/internal/core/ports/driving"
	"github.com/siftlabs/sift/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingester = (*IngestService)(nil)

// IngestService writes content into the corpus: split, embed, persist.
// It owns the chunk state transitions; retrieval only ever reads.
type IngestService struct {
	store    driven.ChunkStore
	embedder driven.EmbeddingService
	splitter driven.Splitter
}

// NewIngestService creates an ingester. The embedder may be nil, in
// which case chunks are stored pending and skipped by retrieval until
// they are embedded.
func NewIngestService(
	store driven.ChunkStore,
	embedder driven.EmbeddingService,
	splitter driven.Splitter,
) *IngestService {
	return &IngestService{
		store:    store,
		embedder: embedder,
		splitter: splitter,
	}
}

// Ingest stores the item and its chunks. Chunks move
// pending -> processing -> processed, or to failed when embedding
// breaks; failed chunks are persisted so ingestion can be retried.
func (s *IngestService) Ingest(
	ctx context.Context, item domain.ContentItem, text string,
) (int, error) {
	if item.ID == "" {
		return 0, fmt.Errorf("%w: content item ID is required", domain.ErrInvalidInput)
	}
	if !item.SourceType.IsValid() {
		return 0, fmt.Errorf("%w: unknown source type %q", domain.ErrInvalidInput, item.SourceType)
	}
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("%w: content text is empty", domain.ErrInvalidInput)
	}

	if err := s.store.SaveContentItem(ctx, &item); err != nil {
		return 0, fmt.Errorf("saving content item: %w", err)
	}

	chunks := s.splitter.Split(item.ID, text)
	if len(chunks) == 0 {
		return 0, nil
	}
	logger.Debug("Split %q into %d chunks", item.ID, len(chunks))

	if s.embedder == nil {
		logger.Warn("No embedding provider, storing %d chunks pending", len(chunks))
		if err := s.store.SaveChunks(ctx, chunks); err != nil {
			return 0, fmt.Errorf("saving chunks: %w", err)
		}
		return len(chunks), nil
	}

	advance(chunks, domain.ChunkStateProcessing)

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err == nil && len(embeddings) != len(chunks) {
		err = fmt.Errorf("got %d embeddings for %d chunks", len(embeddings), len(chunks))
	}
	if err != nil {
		advance(chunks, domain.ChunkStateFailed)
		if saveErr := s.store.SaveChunks(ctx, chunks); saveErr != nil {
			logger.Warn("Could not persist failed chunks for %q: %v", item.ID, saveErr)
		}
		return 0, fmt.Errorf("%w: %v", domain.ErrModelInference, err)
	}

	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}
	advance(chunks, domain.ChunkStateProcessed)

	if err := s.store.SaveChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("saving chunks: %w", err)
	}

	logger.Info("Ingested %q: %d chunks processed", item.ID, len(chunks))
	return len(chunks), nil
}

// Subscribe records a user/channel follow.
func (s *IngestService) Subscribe(ctx context.Context, userID, channelID string) error {
	if userID == "" || channelID == "" {
		return fmt.Errorf("%w: user and channel IDs are required", domain.ErrInvalidInput)
	}
	if err := s.store.SaveSubscription(ctx, userID, channelID); err != nil {
		return fmt.Errorf("saving subscription: %w", err)
	}
	return nil
}

// advance moves every chunk whose state permits it to next.
func advance(chunks []domain.Chunk, next domain.ChunkState) {
	for i := range chunks {
		if chunks[i].State.CanTransition(next) {
			chunks[i].State = next
		}
	}
}
