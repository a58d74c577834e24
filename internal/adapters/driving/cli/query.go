package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/siftlabs/sift/internal/core/domain"
)

var (
	queryNoExpand      bool
	queryMaxExpansions int
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Inspect query processing",
	Long: `Runs a query through cleaning, tokenisation, intent classification,
and expansion without searching. Useful for debugging retrieval quality.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryNoExpand, "no-expand", false, "disable query expansion")
	queryCmd.Flags().IntVar(&queryMaxExpansions, "max-expansions", 0, "maximum expansions to generate (0 uses the default)")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryProcessor == nil {
		return errors.New("query processor not configured")
	}

	opts := domain.DefaultProcessOptions()
	if queryNoExpand {
		opts.Expand = false
	}
	if queryMaxExpansions > 0 {
		opts.MaxExpansions = queryMaxExpansions
	}

	processed, err := queryProcessor.Process(context.Background(), args[0], opts)
	if err != nil {
		return fmt.Errorf("query processing failed: %w", err)
	}

	cmd.Printf("Original:   %s\n", processed.Original)
	cmd.Printf("Cleaned:    %s\n", processed.Cleaned)
	cmd.Printf("Intent:     %s\n", processed.Intent)
	cmd.Printf("Tokens:     %s\n", strings.Join(processed.Tokens, ", "))
	if len(processed.Expansions) > 0 {
		cmd.Printf("Expansions: %s\n", strings.Join(processed.Expansions, "; "))
	}
	cmd.Printf("Embedding:  %d dimensions\n", len(processed.Embedding))
	return nil
}
