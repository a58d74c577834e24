package domain

import "time"

// ScoredCandidate is a chunk surfaced by hybrid retrieval, carrying the
// individual signal scores and the fused final score. It is transient:
// produced during one retrieval call and never persisted.
type ScoredCandidate struct {
	// ChunkID identifies the matched chunk.
	ChunkID string

	// ContentItemID identifies the parent content item.
	ContentItemID string

	// ChunkIndex is the chunk's position within the item.
	ChunkIndex int

	// Text is the chunk body.
	Text string

	// Metadata is the chunk's free-form metadata.
	Metadata map[string]any

	// Display fields copied from the parent content item.
	Title       string
	Author      string
	ChannelName string
	SourceType  SourceType
	PublishedAt *time.Time

	// SemanticScore is the vector similarity signal in [0, 1].
	// Zero when the chunk was absent from the semantic result set.
	SemanticScore float64

	// KeywordScore is the normalised lexical relevance signal in [0, 1].
	// Zero when the chunk was absent from the keyword result set.
	KeywordScore float64

	// MetadataScore combines recency decay and engagement, in [0, 1].
	MetadataScore float64

	// FinalScore is the weighted combination of the three signals.
	FinalScore float64

	// Rank is the 1-based position in the fused ranking.
	Rank int

	// Highlights contains snippets with matched query terms.
	Highlights []string
}

// RerankedCandidate is a ScoredCandidate after cross-encoder scoring.
type RerankedCandidate struct {
	ScoredCandidate

	// RerankScore is the pairwise (query, chunk) relevance score.
	RerankScore float64

	// RerankRank is the 1-based position after reranking.
	RerankRank int
}

// Default retrieval parameters.
const (
	// DefaultTopK is the fused candidate count returned by retrieval.
	DefaultTopK = 50

	// DefaultMinScore is the fused-score floor below which candidates
	// are dropped.
	DefaultMinScore = 0.1

	// DefaultRerankTopK is the result count returned by reranking.
	DefaultRerankTopK = 5

	// RerankCandidateCap bounds how many candidates are ever scored by
	// the cross-encoder in one call. Reranking is the expensive step;
	// the cap protects latency regardless of fusion output size.
	RerankCandidateCap = 20
)

// RetrieveOptions configures one hybrid retrieval call.
type RetrieveOptions struct {
	// TopK is the maximum number of fused candidates to return.
	// Values <= 0 default to DefaultTopK.
	TopK int

	// UserID restricts results to chunks whose content item belongs to
	// a channel the user is subscribed to. Empty disables the filter.
	UserID string

	// ContentTypes restricts results to the given source types.
	// Empty disables the filter.
	ContentTypes []SourceType

	// DateRangeDays restricts results to items published within the
	// last N days. Zero disables the filter.
	DateRangeDays int

	// MinScore drops candidates whose fused score falls below it.
	// Zero defaults to DefaultMinScore; pass a negative value to
	// disable the floor.
	MinScore float64

	// Timeout bounds the whole retrieval call. Zero means no timeout
	// beyond the caller's context.
	Timeout time.Duration
}

// RetrievalWeights are the fusion coefficients for the three signals.
type RetrievalWeights struct {
	Semantic float64
	Keyword  float64
	Metadata float64
}

// DefaultRetrievalWeights returns the standard 0.6/0.3/0.1 split.
func DefaultRetrievalWeights() RetrievalWeights {
	return RetrievalWeights{Semantic: 0.6, Keyword: 0.3, Metadata: 0.1}
}

// Sum returns the total of the three weights.
func (w RetrievalWeights) Sum() float64 {
	return w.Semantic + w.Keyword + w.Metadata
}

// Normalised scales the weights so they sum to 1.0. Weights that
// already sum to zero are replaced by the defaults.
func (w RetrievalWeights) Normalised() RetrievalWeights {
	sum := w.Sum()
	if sum <= 0 {
		return DefaultRetrievalWeights()
	}
	return RetrievalWeights{
		Semantic: w.Semantic / sum,
		Keyword:  w.Keyword / sum,
		Metadata: w.Metadata / sum,
	}
}
