package driven

import "context"

// CrossEncoder scores (query, passage) pairs jointly for reranking.
// More accurate but far more expensive than bi-encoder similarity, so
// callers cap how many pairs they submit.
//
// Implementations are expected to lazily initialise their model or
// backing server on first use, idempotently, and fall back to CPU with
// a warning when a requested accelerator is unavailable.
type CrossEncoder interface {
	// Score returns one relevance score per passage, each scoring the
	// (query, passage) pair independently of the others. The returned
	// slice has the same length and order as passages.
	Score(ctx context.Context, query string, passages []string) ([]float64, error)

	// ModelName returns the model identifier for logging.
	ModelName() string

	// Ping validates the scorer is usable, triggering lazy
	// initialisation if needed.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
