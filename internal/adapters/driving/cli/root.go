// Package cli provides the command-line interface for sift.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/siftlabs/sift/internal/core/ports/driving"
	"github.com/siftlabs/sift/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services the commands call, wired by the entry point.
var (
	queryProcessor driving.QueryProcessor
	retriever      driving.Retriever
	reranker       driving.Reranker
	assembler      driving.ContextAssembler
	ingester       driving.Ingester
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "sift",
	Short: "Hybrid retrieval over subscribed content",
	Long: `Sift retrieves relevant passages from ingested videos, posts, and
articles. Queries run through hybrid search (semantic + keyword) with
score fusion, and optionally through a cross-encoder reranker.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Services bundles the driving ports the commands depend on.
type Services struct {
	Queries   driving.QueryProcessor
	Retriever driving.Retriever
	Reranker  driving.Reranker
	Assembler driving.ContextAssembler
	Ingester  driving.Ingester
}

// SetServices wires the core services into the command tree. Must be
// called before Execute.
func SetServices(s Services) {
	queryProcessor = s.Queries
	retriever = s.Retriever
	reranker = s.Reranker
	assembler = s.Assembler
	ingester = s.Ingester
}

// SetVersion overrides the reported version string.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
