package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/siftlabs/sift/internal/core/domain"
)

var (
	ingestID        string
	ingestTitle     string
	ingestAuthor    string
	ingestChannel   string
	ingestChannelID string
	ingestType      string
	ingestPublished string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Add a content item to the corpus",
	Long: `Reads item text from a file (or stdin with "-"), splits it into
chunks, embeds them, and stores the result. Ingested chunks become
retrievable immediately.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "content item ID (generated when empty)")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "item title")
	ingestCmd.Flags().StringVar(&ingestAuthor, "author", "", "item author")
	ingestCmd.Flags().StringVar(&ingestChannel, "channel", "", "channel display name")
	ingestCmd.Flags().StringVar(&ingestChannelID, "channel-id", "", "channel, subreddit, or feed ID")
	ingestCmd.Flags().StringVar(&ingestType, "type", "article", "source type (video, post, article)")
	ingestCmd.Flags().StringVar(&ingestPublished, "published", "", "publish date (YYYY-MM-DD or RFC3339)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingester == nil {
		return errors.New("ingester not configured")
	}

	text, err := readIngestText(args[0])
	if err != nil {
		return err
	}

	sourceType := domain.SourceType(ingestType)
	if !sourceType.IsValid() {
		return fmt.Errorf("unknown source type %q (want video, post, or article)", ingestType)
	}

	item := domain.ContentItem{
		ID:          ingestID,
		Title:       ingestTitle,
		Author:      ingestAuthor,
		ChannelID:   ingestChannelID,
		ChannelName: ingestChannel,
		SourceType:  sourceType,
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if ingestPublished != "" {
		published, err := parsePublished(ingestPublished)
		if err != nil {
			return err
		}
		item.PublishedAt = &published
	}

	count, err := ingester.Ingest(context.Background(), item, text)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Ingested %q: %d chunks\n", item.ID, count)
	return nil
}

// readIngestText loads the item text from a file, or stdin for "-".
func readIngestText(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// parsePublished accepts a date or a full RFC3339 timestamp.
func parsePublished(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid publish date %q (want YYYY-MM-DD or RFC3339)", value)
	}
	return t, nil
}
