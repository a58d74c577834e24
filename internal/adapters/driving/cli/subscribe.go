package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var subscribeCmd = &cobra.Command{
	Use:   "subscribe [user-id] [channel-id]",
	Short: "Subscribe a user to a channel",
	Long: `Records that a user follows a channel, subreddit, or feed. Retrieval
with --user only returns content from the user's subscribed channels.`,
	Args: cobra.ExactArgs(2),
	RunE: runSubscribe,
}

func init() {
	rootCmd.AddCommand(subscribeCmd)
}

func runSubscribe(cmd *cobra.Command, args []string) error {
	if ingester == nil {
		return errors.New("ingester not configured")
	}

	if err := ingester.Subscribe(context.Background(), args[0], args[1]); err != nil {
		return fmt.Errorf("subscribe failed: %w", err)
	}

	cmd.Printf("Subscribed %s to %s\n", args[0], args[1])
	return nil
}
