package driven

import "context"

// VectorStore provides semantic similarity search over chunk embeddings.
// Backed by pgvector in production; SQLite and in-memory implementations
// exist for local use and tests.
//
// Only chunks in the processed state with a non-nil embedding are
// eligible to match.
type VectorStore interface {
	// Search finds the limit nearest chunks to the query vector by
	// cosine distance, ordered ascending by distance. Each hit's Score
	// is the cosine distance in [0, 2].
	Search(ctx context.Context, embedding []float32, limit int, filters SearchFilters) ([]CandidateHit, error)
}
