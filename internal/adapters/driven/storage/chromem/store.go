// Package chromem provides an embedded vector store backed by
// chromem-go. It indexes chunk embeddings and hydrates hits through a
// ChunkStore, so it can sit in front of any metadata backend.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"github.com/philippgille/chromem-go"

	"github.com/siftlabs/sift/internal/core/domain"
	"github.com/siftlabs/sift/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.VectorStore = (*Store)(nil)
	_ driven.ChunkStore  = (*Store)(nil)
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "chunks"

// overFetchFactor compensates for hits dropped by post-query filtering.
const overFetchFactor = 4

// Subscriptions answers user/channel follow checks for the UserID
// filter. The SQLite and in-memory stores both satisfy it.
type Subscriptions interface {
	IsSubscribed(ctx context.Context, userID, channelID string) (bool, error)
}

// Config holds configuration for the chromem store.
type Config struct {
	// Path is the persistence directory. Empty keeps the index in
	// memory only.
	Path string

	// Collection is the collection name (default: chunks).
	Collection string

	// Compress enables gzip compression of persisted documents.
	Compress bool

	// Subscriptions resolves the UserID filter. Optional; searches
	// with a UserID filter fail without it.
	Subscriptions Subscriptions
}

// Store is a chromem-go backed VectorStore.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	chunks     driven.ChunkStore
	subs       Subscriptions
}

// NewStore creates a chromem store. Chunk and item hydration goes
// through the given ChunkStore.
func NewStore(cfg Config, chunks driven.ChunkStore) (*Store, error) {
	if chunks == nil {
		return nil, fmt.Errorf("chromem: chunk store is required")
	}

	var db *chromem.DB
	var err error
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("chromem: creating database: %w", err)
		}
	}

	name := cfg.Collection
	if name == "" {
		name = DefaultCollection
	}
	collection, err := db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem: creating collection: %w", err)
	}

	return &Store{
		db:         db,
		collection: collection,
		chunks:     chunks,
		subs:       cfg.Subscriptions,
	}, nil
}

// IndexChunks adds processed chunks with embeddings to the index.
// Chunks in other states are skipped.
func (s *Store) IndexChunks(ctx context.Context, chunks []domain.Chunk) error {
	var docs []chromem.Document
	for _, chunk := range chunks {
		if !chunk.State.Retrievable() || len(chunk.Embedding) == 0 {
			continue
		}
		docs = append(docs, chromem.Document{
			ID:        chunk.ID,
			Content:   chunk.Text,
			Embedding: chunk.Embedding,
			Metadata:  map[string]string{"content_item_id": chunk.ContentItemID},
		})
	}
	if len(docs) == 0 {
		return nil
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("chromem: adding documents: %w", err)
	}
	return nil
}

// Search finds the nearest chunks by cosine distance. chromem reports
// similarity, which is converted to distance to match the VectorStore
// contract. Filters are applied after the query, over-fetching to
// compensate.
func (s *Store) Search(ctx context.Context, embedding []float32, limit int, filters driven.SearchFilters) ([]driven.CandidateHit, error) {
	if len(embedding) == 0 {
		return nil, nil
	}
	if filters.UserID != "" && s.subs == nil {
		return nil, fmt.Errorf("chromem: UserID filter requires a subscription checker")
	}

	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	n := limit * overFetchFactor
	if n <= 0 || n > count {
		n = count
	}

	results, err := s.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: embedding,
		NResults:       n,
	})
	if err != nil {
		return nil, fmt.Errorf("chromem: query: %w", err)
	}

	var hits []driven.CandidateHit
	for _, result := range results {
		chunk, err := s.chunks.GetChunk(ctx, result.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue // index ahead of metadata store
			}
			return nil, fmt.Errorf("chromem: hydrating chunk: %w", err)
		}
		if !chunk.State.Retrievable() {
			continue
		}
		item, err := s.chunks.GetContentItem(ctx, chunk.ContentItemID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("chromem: hydrating content item: %w", err)
		}

		ok, err := s.passesFilters(ctx, item, filters)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		hits = append(hits, driven.CandidateHit{
			Chunk: *chunk,
			Item:  *item,
			Score: 1 - float64(result.Similarity),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score < hits[j].Score
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// SaveContentItem delegates to the backing chunk store.
func (s *Store) SaveContentItem(ctx context.Context, item *domain.ContentItem) error {
	return s.chunks.SaveContentItem(ctx, item)
}

// SaveChunks persists chunks through the backing store and indexes the
// retrievable ones, so ingestion keeps the vector index current.
func (s *Store) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if err := s.chunks.SaveChunks(ctx, chunks); err != nil {
		return err
	}
	return s.IndexChunks(ctx, chunks)
}

// GetChunk delegates to the backing chunk store.
func (s *Store) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	return s.chunks.GetChunk(ctx, id)
}

// GetContentItem delegates to the backing chunk store.
func (s *Store) GetContentItem(ctx context.Context, id string) (*domain.ContentItem, error) {
	return s.chunks.GetContentItem(ctx, id)
}

// SaveSubscription delegates to the backing chunk store.
func (s *Store) SaveSubscription(ctx context.Context, userID, channelID string) error {
	return s.chunks.SaveSubscription(ctx, userID, channelID)
}

// Close closes the backing chunk store. The chromem database itself
// holds no open handles.
func (s *Store) Close() error {
	return s.chunks.Close()
}

// passesFilters applies SearchFilters to a hydrated item.
func (s *Store) passesFilters(ctx context.Context, item *domain.ContentItem, filters driven.SearchFilters) (bool, error) {
	if len(filters.ContentTypes) > 0 {
		found := false
		for _, ct := range filters.ContentTypes {
			if item.SourceType == ct {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}
	if filters.PublishedAfter != nil {
		if item.PublishedAt == nil || item.PublishedAt.Before(*filters.PublishedAfter) {
			return false, nil
		}
	}
	if filters.UserID != "" {
		subscribed, err := s.subs.IsSubscribed(ctx, filters.UserID, item.ChannelID)
		if err != nil {
			return false, fmt.Errorf("chromem: subscription check: %w", err)
		}
		if !subscribed {
			return false, nil
		}
	}
	return true, nil
}
