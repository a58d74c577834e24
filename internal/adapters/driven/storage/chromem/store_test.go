package chromem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siftlabs/sift/internal/adapters/driven/storage/memory"
	"github.com/siftlabs/sift/internal/core/domain"
	"github.com/siftlabs/sift/internal/core/ports/driven"
)

func setupStore(t *testing.T) (*Store, *memory.Store) {
	t.Helper()
	backing := memory.NewStore()
	store, err := NewStore(Config{Subscriptions: backing}, backing)
	require.NoError(t, err)
	return store, backing
}

func seed(t *testing.T, store *Store, backing *memory.Store, chunkID, itemID string, embedding []float32, sourceType domain.SourceType) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, backing.SaveContentItem(ctx, &domain.ContentItem{
		ID:         itemID,
		Title:      "Item " + itemID,
		SourceType: sourceType,
		ChannelID:  "chan-" + itemID,
	}))
	chunks := []domain.Chunk{{
		ID:            chunkID,
		ContentItemID: itemID,
		Text:          "text for " + chunkID,
		Embedding:     embedding,
		State:         domain.ChunkStateProcessed,
	}}
	require.NoError(t, backing.SaveChunks(ctx, chunks))
	require.NoError(t, store.IndexChunks(ctx, chunks))
}

func TestStore_Search_OrdersByDistance(t *testing.T) {
	store, backing := setupStore(t)
	ctx := context.Background()

	seed(t, store, backing, "chunk-near", "item-1", []float32{1, 0}, domain.SourceTypeVideo)
	seed(t, store, backing, "chunk-far", "item-2", []float32{0, 1}, domain.SourceTypeVideo)

	hits, err := store.Search(ctx, []float32{1, 0}, 10, driven.SearchFilters{})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "chunk-near", hits[0].Chunk.ID)
	assert.InDelta(t, 0.0, hits[0].Score, 1e-6)
	assert.Equal(t, "chunk-far", hits[1].Chunk.ID)
	assert.Equal(t, "Item item-1", hits[0].Item.Title)
}

func TestStore_Search_EmptyIndex(t *testing.T) {
	store, _ := setupStore(t)

	hits, err := store.Search(context.Background(), []float32{1, 0}, 10, driven.SearchFilters{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestStore_Search_ContentTypeFilter(t *testing.T) {
	store, backing := setupStore(t)
	ctx := context.Background()

	seed(t, store, backing, "chunk-video", "item-1", []float32{1, 0}, domain.SourceTypeVideo)
	seed(t, store, backing, "chunk-post", "item-2", []float32{1, 0}, domain.SourceTypePost)

	hits, err := store.Search(ctx, []float32{1, 0}, 10, driven.SearchFilters{
		ContentTypes: []domain.SourceType{domain.SourceTypePost},
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "chunk-post", hits[0].Chunk.ID)
}

func TestStore_Search_UserFilter(t *testing.T) {
	store, backing := setupStore(t)
	ctx := context.Background()

	seed(t, store, backing, "chunk-a", "item-1", []float32{1, 0}, domain.SourceTypeVideo)
	seed(t, store, backing, "chunk-b", "item-2", []float32{1, 0}, domain.SourceTypeVideo)
	require.NoError(t, backing.SaveSubscription(ctx, "user-1", "chan-item-1"))

	hits, err := store.Search(ctx, []float32{1, 0}, 10, driven.SearchFilters{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "chunk-a", hits[0].Chunk.ID)
}

func TestStore_Search_UserFilterWithoutChecker(t *testing.T) {
	backing := memory.NewStore()
	store, err := NewStore(Config{}, backing)
	require.NoError(t, err)

	_, err = store.Search(context.Background(), []float32{1, 0}, 10, driven.SearchFilters{UserID: "user-1"})
	assert.Error(t, err)
}

func TestStore_IndexChunks_SkipsUnprocessed(t *testing.T) {
	store, backing := setupStore(t)
	ctx := context.Background()

	require.NoError(t, backing.SaveContentItem(ctx, &domain.ContentItem{ID: "item-1", SourceType: domain.SourceTypeVideo}))
	require.NoError(t, store.IndexChunks(ctx, []domain.Chunk{
		{ID: "chunk-pending", ContentItemID: "item-1", Embedding: []float32{1, 0}, State: domain.ChunkStatePending},
		{ID: "chunk-noembed", ContentItemID: "item-1", State: domain.ChunkStateProcessed},
	}))

	hits, err := store.Search(ctx, []float32{1, 0}, 10, driven.SearchFilters{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestStore_SaveChunks_WritesThroughAndIndexes(t *testing.T) {
	store, backing := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveContentItem(ctx, &domain.ContentItem{
		ID:         "item-1",
		Title:      "Write-through item",
		SourceType: domain.SourceTypeArticle,
	}))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{{
		ID:            "chunk-wt",
		ContentItemID: "item-1",
		Text:          "written through",
		Embedding:     []float32{1, 0},
		State:         domain.ChunkStateProcessed,
	}}))

	// Persisted in the backing store.
	chunk, err := backing.GetChunk(ctx, "chunk-wt")
	require.NoError(t, err)
	assert.Equal(t, "written through", chunk.Text)

	// And immediately searchable.
	hits, err := store.Search(ctx, []float32{1, 0}, 10, driven.SearchFilters{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "chunk-wt", hits[0].Chunk.ID)
}
