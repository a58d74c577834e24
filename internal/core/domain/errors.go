package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Configuration errors: fatal for the call that triggers them,
	// raised immediately and never retried.

	// ErrEmbeddingUnavailable indicates the embedding provider is not
	// configured or not initialised. Semantic search is disabled
	// without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrVectorStoreUnavailable indicates no vector store is configured.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrLexicalStoreUnavailable indicates no lexical store is configured.
	ErrLexicalStoreUnavailable = errors.New("lexical store unavailable")

	// ErrCrossEncoderUnavailable indicates the reranking model is not
	// configured or failed to initialise.
	ErrCrossEncoderUnavailable = errors.New("cross-encoder unavailable")

	// ErrAllStagesFailed indicates every search stage failed, so the
	// retrieval call has nothing to degrade to.
	ErrAllStagesFailed = errors.New("all search stages failed")

	// ErrModelInference indicates a model runtime failure mid-call.
	// Unlike store failures this is a correctness issue, not a data
	// availability issue, so it is never converted into empty results.
	ErrModelInference = errors.New("model inference failed")
)
