package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siftlabs/sift/internal/core/domain"
)

var (
	retrieveTopK     int
	retrieveMinScore float64
	retrieveTypes    []string
	retrieveDays     int
	retrieveUser     string
	retrieveRerank   bool
	retrieveJSON     bool
	retrieveContext  bool
	retrieveBudget   int
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Retrieve relevant chunks",
	Long: `Runs the full retrieval pipeline: query processing, hybrid search
(semantic + keyword) with score fusion, and optional cross-encoder
reranking. Prints the ranked chunks or an assembled context block.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveTopK, "limit", "n", domain.DefaultRerankTopK, "maximum number of results")
	retrieveCmd.Flags().Float64Var(&retrieveMinScore, "min-score", 0, "minimum fused score (0 uses the default, negative disables)")
	retrieveCmd.Flags().StringSliceVar(&retrieveTypes, "types", nil, "restrict to content types (video, post, article)")
	retrieveCmd.Flags().IntVar(&retrieveDays, "days", 0, "restrict to items published in the last N days")
	retrieveCmd.Flags().StringVar(&retrieveUser, "user", "", "restrict to channels the user is subscribed to")
	retrieveCmd.Flags().BoolVar(&retrieveRerank, "rerank", false, "rerank candidates with the cross-encoder")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output results as JSON")
	retrieveCmd.Flags().BoolVar(&retrieveContext, "context", false, "assemble results into a context block")
	retrieveCmd.Flags().IntVar(&retrieveBudget, "budget", 0, "context token budget (0 uses the default)")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if queryProcessor == nil || retriever == nil {
		return errors.New("retrieval services not configured")
	}
	if retrieveRerank && reranker == nil {
		return errors.New("reranker not configured")
	}
	if retrieveContext && assembler == nil {
		return errors.New("context assembler not configured")
	}

	contentTypes, err := parseContentTypes(retrieveTypes)
	if err != nil {
		return err
	}

	ctx := context.Background()
	processed, err := queryProcessor.Process(ctx, args[0], domain.DefaultProcessOptions())
	if err != nil {
		return fmt.Errorf("query processing failed: %w", err)
	}
	if processed.IsEmpty() {
		cmd.Println("No results found.")
		return nil
	}

	opts := domain.RetrieveOptions{
		TopK:          retrieveTopK,
		MinScore:      retrieveMinScore,
		ContentTypes:  contentTypes,
		DateRangeDays: retrieveDays,
		UserID:        retrieveUser,
	}
	// Over-fetch when reranking so the cross-encoder sees a full
	// candidate pool rather than the final page size.
	if retrieveRerank {
		opts.TopK = domain.RerankCandidateCap
	}

	candidates, err := retriever.Retrieve(ctx, processed, opts)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if retrieveRerank {
		reranked, err := reranker.Rerank(ctx, processed.Original, candidates, retrieveTopK)
		if err != nil {
			return fmt.Errorf("reranking failed: %w", err)
		}
		return outputReranked(cmd, reranked)
	}

	if len(candidates) > retrieveTopK {
		candidates = candidates[:retrieveTopK]
	}
	return outputCandidates(cmd, candidates)
}

// parseContentTypes validates the --types flag values.
func parseContentTypes(raw []string) ([]domain.SourceType, error) {
	var types []domain.SourceType
	for _, t := range raw {
		st := domain.SourceType(t)
		if !st.IsValid() {
			return nil, fmt.Errorf("unknown content type %q", t)
		}
		types = append(types, st)
	}
	return types, nil
}

func outputCandidates(cmd *cobra.Command, candidates []domain.ScoredCandidate) error {
	if retrieveContext {
		reranked := make([]domain.RerankedCandidate, len(candidates))
		for i, c := range candidates {
			reranked[i] = domain.RerankedCandidate{ScoredCandidate: c, RerankScore: c.FinalScore, RerankRank: i + 1}
		}
		return outputContext(cmd, reranked)
	}
	if retrieveJSON {
		return outputJSON(cmd, candidates)
	}

	if len(candidates) == 0 {
		cmd.Println("No results found.")
		return nil
	}
	cmd.Println("Results:")
	cmd.Println()
	for _, c := range candidates {
		cmd.Printf("  [%d] %s (%.3f)\n", c.Rank, c.Title, c.FinalScore)
		cmd.Printf("      %s · %s · sem %.2f / key %.2f / meta %.2f\n",
			c.ChannelName, c.SourceType, c.SemanticScore, c.KeywordScore, c.MetadataScore)
		if len(c.Highlights) > 0 {
			cmd.Printf("      %s\n", c.Highlights[0])
		}
		cmd.Println()
	}
	return nil
}

func outputReranked(cmd *cobra.Command, candidates []domain.RerankedCandidate) error {
	if retrieveContext {
		return outputContext(cmd, candidates)
	}
	if retrieveJSON {
		return outputJSON(cmd, candidates)
	}

	if len(candidates) == 0 {
		cmd.Println("No results found.")
		return nil
	}
	cmd.Println("Results:")
	cmd.Println()
	for _, c := range candidates {
		cmd.Printf("  [%d] %s (rerank %.3f, fused %.3f)\n", c.RerankRank, c.Title, c.RerankScore, c.FinalScore)
		cmd.Printf("      %s · %s\n", c.ChannelName, c.SourceType)
		if len(c.Highlights) > 0 {
			cmd.Printf("      %s\n", c.Highlights[0])
		}
		cmd.Println()
	}
	return nil
}

func outputContext(cmd *cobra.Command, candidates []domain.RerankedCandidate) error {
	block := assembler.Assemble(candidates, retrieveBudget)
	if retrieveJSON {
		return outputJSON(cmd, block)
	}
	cmd.Println(block.Text)
	cmd.Println()
	cmd.Printf("Citations: %d, tokens: ~%d", len(block.Citations), block.TokenCount)
	if block.Truncated {
		cmd.Print(" (truncated)")
	}
	cmd.Println()
	return nil
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
