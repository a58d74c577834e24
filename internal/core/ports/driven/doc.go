// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - VectorStore: Approximate nearest-neighbour search over chunk embeddings
//   - LexicalStore: Boolean/prefix keyword search over chunk search vectors
//   - ChunkStore: Chunk and content-item persistence
//   - Splitter: Divides content text into chunks for ingestion
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - retrieval degrades gracefully:
//
//   - EmbeddingService: Generates query embeddings. Without it, semantic
//     search is disabled and retrieval runs keyword-only.
//   - CrossEncoder: Pairwise (query, passage) relevance scoring. Without it,
//     the fused ranking is returned unreranked.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
