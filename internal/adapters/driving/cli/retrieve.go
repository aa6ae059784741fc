package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driving"
)

// previewLength caps the chunk text printed per result.
const previewLength = 200

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <document-id> [query]",
	Short: "Show the chunks a question would retrieve",
	Long: `Run a similarity query against one document's chunks and print the best
matches with their scores. Without a query, a neutral probe is used.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntP("top", "k", 0, "Number of chunks (0 = configured top_k)")
	retrieveCmd.Flags().String("collection", domain.CollectionNotes, "Collection to query")
	needsServices(retrieveCmd)
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	topK, _ := cmd.Flags().GetInt("top")                 //nolint:errcheck // flag defined in init
	collection, _ := cmd.Flags().GetString("collection") //nolint:errcheck // flag defined in init

	req := driving.RetrieveRequest{
		DocumentID: args[0],
		Query:      strings.Join(args[1:], " "),
		TopK:       topK,
		Collection: collection,
	}
	if collection == domain.CollectionChatHistory {
		req.OwnerID = ownerID(cmd)
	}

	results, err := retrievalService.Retrieve(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}

	if len(results) == 0 {
		cmd.Println("No matching chunks.")
		return nil
	}

	cmd.Printf("Results: %d\n\n", len(results))
	for i, r := range results {
		cmd.Printf("%d. %s (score %.3f)\n", i+1, r.ID, r.Score)
		cmd.Printf("   %s\n\n", preview(r.Text))
	}
	return nil
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength]) + "..."
}
