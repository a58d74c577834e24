package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siftlabs/sift/internal/core/domain"
)

func TestIngestStoresProcessedChunks(t *testing.T) {
	store := &mockChunkStore{}
	embedder := &mockEmbeddingService{embedding: []float32{0.1, 0.2}}
	svc := NewIngestService(store, embedder, mockSplitter{})

	item := domain.ContentItem{
		ID:         "item-1",
		Title:      "Understanding React Hooks",
		SourceType: domain.SourceTypeArticle,
	}

	n, err := svc.Ingest(context.Background(), item, "first passage\nsecond passage")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, store.items, 1)
	assert.Equal(t, "item-1", store.items[0].ID)

	require.Len(t, store.chunks, 2)
	for i, chunk := range store.chunks {
		assert.Equal(t, domain.ChunkStateProcessed, chunk.State)
		assert.Equal(t, []float32{0.1, 0.2}, chunk.Embedding)
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, "item-1", chunk.ContentItemID)
	}
}

func TestIngestValidatesInput(t *testing.T) {
	svc := NewIngestService(&mockChunkStore{}, &mockEmbeddingService{embedding: []float32{1}}, mockSplitter{})

	tests := []struct {
		name string
		item domain.ContentItem
		text string
	}{
		{
			name: "missing item ID",
			item: domain.ContentItem{SourceType: domain.SourceTypePost},
			text: "some text",
		},
		{
			name: "unknown source type",
			item: domain.ContentItem{ID: "item-1", SourceType: "podcast"},
			text: "some text",
		},
		{
			name: "empty text",
			item: domain.ContentItem{ID: "item-1", SourceType: domain.SourceTypeVideo},
			text: "   \n ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Ingest(context.Background(), tt.item, tt.text)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestIngestWithoutEmbedderStoresPending(t *testing.T) {
	store := &mockChunkStore{}
	svc := NewIngestService(store, nil, mockSplitter{})

	item := domain.ContentItem{ID: "item-1", SourceType: domain.SourceTypeVideo}
	n, err := svc.Ingest(context.Background(), item, "only passage")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, store.chunks, 1)
	assert.Equal(t, domain.ChunkStatePending, store.chunks[0].State)
	assert.Nil(t, store.chunks[0].Embedding)
}

func TestIngestEmbeddingFailureMarksChunksFailed(t *testing.T) {
	store := &mockChunkStore{}
	embedder := &mockEmbeddingService{embedErr: errors.New("model not loaded")}
	svc := NewIngestService(store, embedder, mockSplitter{})

	item := domain.ContentItem{ID: "item-1", SourceType: domain.SourceTypePost}
	_, err := svc.Ingest(context.Background(), item, "a\nb")
	assert.ErrorIs(t, err, domain.ErrModelInference)

	// Failed chunks are still persisted so ingestion can be retried.
	require.Len(t, store.chunks, 2)
	for _, chunk := range store.chunks {
		assert.Equal(t, domain.ChunkStateFailed, chunk.State)
	}
}

func TestIngestEmptyTextAfterSplit(t *testing.T) {
	store := &mockChunkStore{}
	svc := NewIngestService(store, &mockEmbeddingService{embedding: []float32{1}}, noopSplitter{})

	item := domain.ContentItem{ID: "item-1", SourceType: domain.SourceTypeArticle}
	n, err := svc.Ingest(context.Background(), item, "text the splitter discards")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, store.chunks)
	// The item itself is still recorded.
	assert.Len(t, store.items, 1)
}

func TestSubscribe(t *testing.T) {
	store := &mockChunkStore{}
	svc := NewIngestService(store, nil, mockSplitter{})

	err := svc.Subscribe(context.Background(), "user-1", "channel-9")
	require.NoError(t, err)
	require.Len(t, store.subs, 1)
	assert.Equal(t, [2]string{"user-1", "channel-9"}, store.subs[0])

	err = svc.Subscribe(context.Background(), "", "channel-9")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = svc.Subscribe(context.Background(), "user-1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// noopSplitter returns no chunks regardless of input.
type noopSplitter struct{}

func (noopSplitter) Split(string, string) []domain.Chunk { return nil }
