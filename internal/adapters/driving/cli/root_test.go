package cli

import (
	"context"

	"github.com/siftlabs/sift/internal/core/domain"
	"github.com/siftlabs/sift/internal/core/services"
)

// stubProcessor returns a fixed processed query.
type stubProcessor struct {
	err error
}

func (s *stubProcessor) Process(_ context.Context, text string, _ domain.ProcessOptions) (domain.ProcessedQuery, error) {
	if s.err != nil {
		return domain.ProcessedQuery{}, s.err
	}
	return domain.ProcessedQuery{
		Original:  text,
		Cleaned:   text,
		Tokens:    []string{"react", "hooks"},
		Intent:    domain.IntentFactual,
		Embedding: []float32{1, 0},
	}, nil
}

func (s *stubProcessor) ProcessBatch(ctx context.Context, texts []string, opts domain.ProcessOptions) ([]domain.ProcessedQuery, error) {
	out := make([]domain.ProcessedQuery, len(texts))
	for i, text := range texts {
		q, err := s.Process(ctx, text, opts)
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}

// stubRetriever returns fixed candidates.
type stubRetriever struct {
	candidates []domain.ScoredCandidate
	err        error
}

func (s *stubRetriever) Retrieve(_ context.Context, _ domain.ProcessedQuery, _ domain.RetrieveOptions) ([]domain.ScoredCandidate, error) {
	return s.candidates, s.err
}

// stubReranker reverses nothing, just wraps candidates in order.
type stubReranker struct {
	err error
}

func (s *stubReranker) Rerank(_ context.Context, _ string, candidates []domain.ScoredCandidate, topK int) ([]domain.RerankedCandidate, error) {
	if s.err != nil {
		return nil, s.err
	}
	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}
	out := make([]domain.RerankedCandidate, len(candidates))
	for i, c := range candidates {
		out[i] = domain.RerankedCandidate{ScoredCandidate: c, RerankScore: c.FinalScore, RerankRank: i + 1}
	}
	return out, nil
}

func (s *stubReranker) RerankBatch(ctx context.Context, queries []string, candidates [][]domain.ScoredCandidate, topK int) ([][]domain.RerankedCandidate, error) {
	out := make([][]domain.RerankedCandidate, len(queries))
	for i := range queries {
		r, err := s.Rerank(ctx, queries[i], candidates[i], topK)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// stubIngester records what it was asked to ingest.
type stubIngester struct {
	lastItem domain.ContentItem
	lastText string
	chunkN   int
	err      error
	lastUser string
	lastChan string
}

func (s *stubIngester) Ingest(_ context.Context, item domain.ContentItem, text string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.lastItem = item
	s.lastText = text
	return s.chunkN, nil
}

func (s *stubIngester) Subscribe(_ context.Context, userID, channelID string) error {
	if s.err != nil {
		return s.err
	}
	s.lastUser = userID
	s.lastChan = channelID
	return nil
}

// testCandidates is a small fixed result set.
func testCandidates() []domain.ScoredCandidate {
	return []domain.ScoredCandidate{
		{
			ChunkID:       "chunk-a",
			ContentItemID: "item-1",
			Text:          "hooks let you use state in function components",
			Title:         "Understanding React Hooks",
			ChannelName:   "Dev Channel",
			SourceType:    domain.SourceTypeVideo,
			SemanticScore: 0.9,
			KeywordScore:  0.5,
			MetadataScore: 0.4,
			FinalScore:    0.73,
			Rank:          1,
			Highlights:    []string{"hooks let you use state"},
		},
		{
			ChunkID:       "chunk-b",
			ContentItemID: "item-2",
			Text:          "a thread about hooks pitfalls",
			Title:         "Hooks pitfalls",
			ChannelName:   "r/reactjs",
			SourceType:    domain.SourceTypePost,
			SemanticScore: 0.6,
			KeywordScore:  0.8,
			MetadataScore: 0.2,
			FinalScore:    0.62,
			Rank:          2,
		},
	}
}

// setupTestServices wires stub services and returns a cleanup func.
func setupTestServices() func() {
	SetServices(Services{
		Queries:   &stubProcessor{},
		Retriever: &stubRetriever{candidates: testCandidates()},
		Reranker:  &stubReranker{},
		Assembler: services.NewAssemblerService(0),
		Ingester:  &stubIngester{chunkN: 3},
	})
	return func() {
		SetServices(Services{})
	}
}
