// Package domain defines the core business entities for Sift.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A retrievable passage of text from a content item
//   - ContentItem: An ingested video, post, or article
//   - ProcessedQuery: A cleaned, embedded, and classified user query
//   - ScoredCandidate: A chunk with fused retrieval scores
//   - RerankedCandidate: A candidate after cross-encoder scoring
//   - BooleanQuery: A parsed keyword-search expression
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
