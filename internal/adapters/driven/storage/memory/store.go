// Package memory provides in-memory store implementations for local
// use and tests.
package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/siftlabs/sift/internal/core/domain"
	"github.com/siftlabs/sift/internal/core/ports/driven"
)

// Ensure the views implement the interfaces.
var (
	_ driven.ChunkStore   = (*Store)(nil)
	_ driven.VectorStore  = vectorView{}
	_ driven.LexicalStore = lexicalView{}
)

// Store is an in-memory implementation of the retrieval stores. It
// backs all three driven storage ports over the same data set, which
// keeps vector and keyword results consistent in tests.
type Store struct {
	mu     sync.RWMutex
	items  map[string]domain.ContentItem
	chunks map[string]domain.Chunk
	subs   map[string]map[string]bool // userID -> channelID set
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		items:  make(map[string]domain.ContentItem),
		chunks: make(map[string]domain.Chunk),
		subs:   make(map[string]map[string]bool),
	}
}

// Vectors returns the store's vector search view.
func (s *Store) Vectors() driven.VectorStore {
	return vectorView{s}
}

// Lexical returns the store's keyword search view.
func (s *Store) Lexical() driven.LexicalStore {
	return lexicalView{s}
}

// SaveContentItem stores or updates a content item.
func (s *Store) SaveContentItem(_ context.Context, item *domain.ContentItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = *item
	return nil
}

// SaveChunks stores chunks, replacing any existing chunk with the same
// (ContentItemID, Index).
func (s *Store) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunk := range chunks {
		for id, existing := range s.chunks {
			if existing.ContentItemID == chunk.ContentItemID && existing.Index == chunk.Index && id != chunk.ID {
				delete(s.chunks, id)
			}
		}
		s.chunks[chunk.ID] = chunk
	}
	return nil
}

// GetChunk retrieves a chunk by ID.
func (s *Store) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, ok := s.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &chunk, nil
}

// GetContentItem retrieves a content item by ID.
func (s *Store) GetContentItem(_ context.Context, id string) (*domain.ContentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &item, nil
}

// SaveSubscription records that a user follows a channel.
func (s *Store) SaveSubscription(_ context.Context, userID, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[string]bool)
	}
	s.subs[userID][channelID] = true
	return nil
}

// IsSubscribed reports whether a user follows a channel.
func (s *Store) IsSubscribed(_ context.Context, userID, channelID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	channels, ok := s.subs[userID]
	return ok && channels[channelID], nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// matchesFilters reports whether a chunk's parent item passes the
// search filters. Caller holds at least a read lock.
func (s *Store) matchesFilters(item domain.ContentItem, filters driven.SearchFilters) bool {
	if len(filters.ContentTypes) > 0 {
		found := false
		for _, ct := range filters.ContentTypes {
			if item.SourceType == ct {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filters.PublishedAfter != nil {
		if item.PublishedAt == nil || item.PublishedAt.Before(*filters.PublishedAfter) {
			return false
		}
	}
	if filters.UserID != "" {
		channels, ok := s.subs[filters.UserID]
		if !ok || !channels[item.ChannelID] {
			return false
		}
	}
	return true
}

// vectorView implements driven.VectorStore over a Store.
type vectorView struct {
	s *Store
}

// Search finds the nearest retrievable chunks by cosine distance.
func (v vectorView) Search(_ context.Context, embedding []float32, limit int, filters driven.SearchFilters) ([]driven.CandidateHit, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	var hits []driven.CandidateHit
	for _, chunk := range v.s.chunks {
		if !chunk.State.Retrievable() || len(chunk.Embedding) == 0 {
			continue
		}
		item, ok := v.s.items[chunk.ContentItemID]
		if !ok || !v.s.matchesFilters(item, filters) {
			continue
		}
		dist, ok := cosineDistance(embedding, chunk.Embedding)
		if !ok {
			continue
		}
		hits = append(hits, driven.CandidateHit{Chunk: chunk, Item: item, Score: dist})
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

// lexicalView implements driven.LexicalStore over a Store.
type lexicalView struct {
	s *Store
}

// Search evaluates the boolean query directly against chunk text.
// The rank is the total occurrence count of matching positive terms,
// mirroring the unbounded raw ranks of the SQL-backed stores.
func (l lexicalView) Search(_ context.Context, query domain.BooleanQuery, limit int, filters driven.SearchFilters) ([]driven.CandidateHit, error) {
	if query.IsEmpty() {
		return nil, nil
	}

	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	var hits []driven.CandidateHit
	for _, chunk := range l.s.chunks {
		if !chunk.State.Retrievable() {
			continue
		}
		item, ok := l.s.items[chunk.ContentItemID]
		if !ok || !l.s.matchesFilters(item, filters) {
			continue
		}
		tokens := tokenize(chunk.Text)
		matched, rank := evaluate(query, tokens)
		if !matched || rank == 0 {
			continue
		}
		hits = append(hits, driven.CandidateHit{Chunk: chunk, Item: item, Score: rank})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// evaluate folds the query's terms left to right over the token list.
// It returns whether the chunk matches and the occurrence count of the
// positive terms that did.
func evaluate(query domain.BooleanQuery, tokens []string) (bool, float64) {
	matched := false
	var rank float64
	for i, term := range query.Terms {
		count := occurrences(term, tokens)
		termMatch := count > 0
		if term.Negated {
			termMatch = !termMatch
			count = 0
		}
		if i == 0 {
			matched = termMatch
		} else if term.Op == domain.OpOr {
			matched = matched || termMatch
		} else {
			matched = matched && termMatch
		}
		if termMatch && !term.Negated {
			rank += float64(count)
		}
	}
	return matched, rank
}

// occurrences counts tokens matching the term, honouring prefix mode.
func occurrences(term domain.BoolTerm, tokens []string) int {
	count := 0
	for _, tok := range tokens {
		if term.Prefix {
			if strings.HasPrefix(tok, term.Text) {
				count++
			}
		} else if tok == term.Text {
			count++
		}
	}
	return count
}

// tokenize lowercases and splits text on non-alphanumeric runs.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		isDigit := r >= '0' && r <= '9'
		isLower := r >= 'a' && r <= 'z'
		return !isDigit && !isLower && r != '_'
	})
}

// cosineDistance returns 1 - cosine similarity. The second return is
// false when either vector has zero magnitude or lengths differ.
func cosineDistance(a, b []float32) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)), true
}
