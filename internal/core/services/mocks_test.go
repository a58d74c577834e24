package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/siftlabs/sift/internal/core/domain"
	"github.com/siftlabs/sift/internal/core/ports/driven"
)

// --- Mock implementations shared across service tests ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	embedding  []float32
	embedErr   error
	embedCalls atomic.Int64
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	m.embedCalls.Add(1)
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = m.embedding
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int             { return len(m.embedding) }
func (m *mockEmbeddingService) ModelName() string           { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                { return nil }

// mockVectorStore implements driven.VectorStore for testing.
type mockVectorStore struct {
	hits        []driven.CandidateHit
	searchErr   error
	searchCalls atomic.Int64
	lastFilters driven.SearchFilters
	lastLimit   int
}

func (m *mockVectorStore) Search(
	_ context.Context, _ []float32, limit int, filters driven.SearchFilters,
) ([]driven.CandidateHit, error) {
	m.searchCalls.Add(1)
	m.lastFilters = filters
	m.lastLimit = limit
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if limit < len(m.hits) {
		return m.hits[:limit], nil
	}
	return m.hits, nil
}

// mockLexicalStore implements driven.LexicalStore for testing.
type mockLexicalStore struct {
	hits        []driven.CandidateHit
	searchErr   error
	searchCalls atomic.Int64
	lastQuery   domain.BooleanQuery
	lastLimit   int
}

func (m *mockLexicalStore) Search(
	_ context.Context, query domain.BooleanQuery, limit int, _ driven.SearchFilters,
) ([]driven.CandidateHit, error) {
	m.searchCalls.Add(1)
	m.lastQuery = query
	m.lastLimit = limit
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if limit < len(m.hits) {
		return m.hits[:limit], nil
	}
	return m.hits, nil
}

// mockCrossEncoder implements driven.CrossEncoder for testing.
// It scores passages by descending input order unless fixed scores are
// provided, and records how many pairs it was asked to score.
type mockCrossEncoder struct {
	scores      []float64
	scoreErr    error
	pairsScored atomic.Int64
}

func (m *mockCrossEncoder) Score(_ context.Context, _ string, passages []string) ([]float64, error) {
	m.pairsScored.Add(int64(len(passages)))
	if m.scoreErr != nil {
		return nil, m.scoreErr
	}
	if m.scores != nil {
		out := make([]float64, len(passages))
		copy(out, m.scores)
		return out, nil
	}
	out := make([]float64, len(passages))
	for i := range passages {
		out[i] = 1.0 - float64(i)*0.01
	}
	return out, nil
}

func (m *mockCrossEncoder) ModelName() string            { return "mock-cross-encoder" }
func (m *mockCrossEncoder) Ping(_ context.Context) error { return nil }
func (m *mockCrossEncoder) Close() error                 { return nil }

// mockChunkStore implements driven.ChunkStore for testing. It records
// saved items, chunks, and subscriptions.
type mockChunkStore struct {
	items   []domain.ContentItem
	chunks  []domain.Chunk
	subs    [][2]string
	saveErr error
}

func (m *mockChunkStore) SaveContentItem(_ context.Context, item *domain.ContentItem) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.items = append(m.items, *item)
	return nil
}

func (m *mockChunkStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	m.chunks = append(m.chunks, chunks...)
	return nil
}

func (m *mockChunkStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	for i := range m.chunks {
		if m.chunks[i].ID == id {
			return &m.chunks[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockChunkStore) GetContentItem(_ context.Context, id string) (*domain.ContentItem, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			return &m.items[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockChunkStore) SaveSubscription(_ context.Context, userID, channelID string) error {
	m.subs = append(m.subs, [2]string{userID, channelID})
	return nil
}

func (m *mockChunkStore) Close() error { return nil }

// mockSplitter implements driven.Splitter, producing one pending chunk
// per non-empty line of input.
type mockSplitter struct{}

func (mockSplitter) Split(contentItemID, text string) []domain.Chunk {
	var chunks []domain.Chunk
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ID:            fmt.Sprintf("%s-chunk-%d", contentItemID, len(chunks)),
			ContentItemID: contentItemID,
			Index:         len(chunks),
			Text:          line,
			State:         domain.ChunkStatePending,
		})
	}
	return chunks
}

// --- Fixture helpers ---

// vecHit builds a semantic hit with the given cosine distance.
func vecHit(chunkID string, distance float64) driven.CandidateHit {
	return driven.CandidateHit{
		Chunk: domain.Chunk{
			ID:            chunkID,
			ContentItemID: "item-" + chunkID,
			Text:          "text of " + chunkID,
			State:         domain.ChunkStateProcessed,
		},
		Item: domain.ContentItem{
			ID:         "item-" + chunkID,
			Title:      "title of " + chunkID,
			SourceType: domain.SourceTypeArticle,
		},
		Score: distance,
	}
}

// lexHit builds a keyword hit with the given raw lexical rank.
func lexHit(chunkID string, rank float64) driven.CandidateHit {
	h := vecHit(chunkID, 0)
	h.Score = rank
	return h
}

// testQuery builds a ProcessedQuery with an embedding, ready for both
// stages.
func testQuery(text string) domain.ProcessedQuery {
	return domain.ProcessedQuery{
		Original:  text,
		Cleaned:   text,
		Embedding: []float32{0.1, 0.2, 0.3},
		Tokens:    Tokenize(text),
		Intent:    domain.IntentFactual,
	}
}
