// Command sift is the retrieval CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/siftlabs/sift/internal/adapters/driven/config/file"
	"github.com/siftlabs/sift/internal/adapters/driven/crossencoder/llamacpp"
	"github.com/siftlabs/sift/internal/adapters/driven/embedding/ollama"
	"github.com/siftlabs/sift/internal/adapters/driven/embedding/openai"
	"github.com/siftlabs/sift/internal/adapters/driven/storage/chromem"
	"github.com/siftlabs/sift/internal/adapters/driven/storage/postgres"
	"github.com/siftlabs/sift/internal/adapters/driven/storage/sqlite"
	"github.com/siftlabs/sift/internal/adapters/driving/cli"
	"github.com/siftlabs/sift/internal/chunking"
	"github.com/siftlabs/sift/internal/core/domain"
	"github.com/siftlabs/sift/internal/core/ports/driven"
	"github.com/siftlabs/sift/internal/core/ports/driving"
	"github.com/siftlabs/sift/internal/core/services"
	"github.com/siftlabs/sift/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	vectors, lexical, chunkStore, closeStores, err := buildStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	defer embedder.Close()

	policy := services.NewFailurePolicy(failureMode(cfg))
	queries := services.NewQueryService(embedder)
	retriever := services.NewRetrieverService(vectors, lexical, weightsFromConfig(cfg), policy)
	assembler := services.NewAssemblerService(cfg.GetInt("context.token_budget"))
	var chunkOpts []chunking.Option
	if size := cfg.GetInt("chunking.size"); size > 0 {
		chunkOpts = append(chunkOpts, chunking.WithChunkSize(size))
	}
	if overlap := cfg.GetInt("chunking.overlap"); overlap > 0 {
		chunkOpts = append(chunkOpts, chunking.WithOverlap(overlap))
	}
	ingester := services.NewIngestService(chunkStore, embedder, chunking.New(chunkOpts...))

	var reranker driving.Reranker
	if cfg.GetBool("reranker.enabled") {
		encoder := llamacpp.NewCrossEncoder(llamacpp.Config{
			BaseURL: cfg.GetString("reranker.base_url"),
			Model:   cfg.GetString("reranker.model"),
		})
		defer encoder.Close()
		reranker = services.NewRerankService(encoder)
	}

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Queries:   queries,
		Retriever: retriever,
		Reranker:  reranker,
		Assembler: assembler,
		Ingester:  ingester,
	})
	return cli.Execute()
}

// buildStores wires the vector and lexical stores from config. The
// default is a local SQLite database; storage.backend = "postgres"
// switches to pgvector + tsquery, and storage.vector_backend =
// "chromem" swaps the vector side for an embedded chromem index on
// top of the SQLite metadata.
func buildStores(cfg driven.ConfigStore) (driven.VectorStore, driven.LexicalStore, driven.ChunkStore, func(), error) {
	if cfg.GetString("storage.backend") == "postgres" {
		store, err := postgres.NewStore(postgres.Config{
			DSN:      cfg.GetString("storage.postgres.dsn"),
			Password: cfg.GetString("storage.postgres.password"),
			Debug:    logger.IsVerbose(),
		})
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("opening postgres: %w", err)
		}
		if err := store.Init(context.Background()); err != nil {
			store.Close()
			return nil, nil, nil, nil, fmt.Errorf("initialising postgres schema: %w", err)
		}
		return store.Vectors(), store.Lexical(), store, func() { store.Close() }, nil
	}

	store, err := sqlite.NewStore(cfg.GetString("storage.data_dir"))
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("opening sqlite: %w", err)
	}

	vectors := store.Vectors()
	chunks := driven.ChunkStore(store)
	if cfg.GetString("storage.vector_backend") == "chromem" {
		chromemStore, err := chromem.NewStore(chromem.Config{
			Path:          cfg.GetString("storage.chromem.path"),
			Compress:      cfg.GetBool("storage.chromem.compress"),
			Subscriptions: store,
		}, store)
		if err != nil {
			store.Close()
			return nil, nil, nil, nil, fmt.Errorf("opening chromem index: %w", err)
		}
		// Writes go through the chromem layer so ingested chunks are
		// indexed as they land.
		vectors = chromemStore
		chunks = chromemStore
	}

	return vectors, store.Lexical(), chunks, func() { store.Close() }, nil
}

// buildEmbedder selects the embedding provider from config. Ollama is
// the default; embedding.provider = "openai" switches to the API.
func buildEmbedder(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	if cfg.GetString("embedding.provider") == "openai" {
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     cfg.GetString("embedding.openai.api_key"),
			BaseURL:    cfg.GetString("embedding.openai.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})
	}
	return ollama.NewEmbeddingService(ollama.Config{
		BaseURL:    cfg.GetString("embedding.ollama.base_url"),
		Model:      cfg.GetString("embedding.model"),
		Dimensions: cfg.GetInt("embedding.dimensions"),
	}), nil
}

// weightsFromConfig reads fusion weights, falling back to defaults
// when unset.
func weightsFromConfig(cfg driven.ConfigStore) domain.RetrievalWeights {
	weights := domain.RetrievalWeights{
		Semantic: cfg.GetFloat("retrieval.weights.semantic"),
		Keyword:  cfg.GetFloat("retrieval.weights.keyword"),
		Metadata: cfg.GetFloat("retrieval.weights.metadata"),
	}
	if weights.Sum() == 0 {
		return domain.DefaultRetrievalWeights()
	}
	return weights
}

// failureMode maps the retrieval.fail_closed flag onto a policy mode.
func failureMode(cfg driven.ConfigStore) services.FailureMode {
	if cfg.GetBool("retrieval.fail_closed") {
		return services.FailClosed
	}
	return services.FailOpen
}
