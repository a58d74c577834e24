package driven

import (
	"context"

	"github.com/siftlabs/sift/internal/core/domain"
)

// LexicalStore provides keyword search over chunk search vectors.
// The store receives a parsed BooleanQuery and translates it into its
// own dialect (tsquery for Postgres, MATCH for SQLite FTS5), keeping
// query parsing independent of any one store's syntax.
//
// Only chunks in the processed state are eligible to match.
type LexicalStore interface {
	// Search returns the limit best-matching chunks ordered descending
	// by lexical rank. Each hit's Score is the store's raw, unbounded
	// rank value; normalisation is the caller's concern.
	Search(ctx context.Context, query domain.BooleanQuery, limit int, filters SearchFilters) ([]CandidateHit, error)
}
