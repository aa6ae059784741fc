package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notewise/internal/core/domain"
)

var resetCmd = &cobra.Command{
	Use:     "reset <document-id>",
	Aliases: []string{"forget"},
	Short:   "Remove a document's chunks",
	Long: `Remove every chunk of a document from the notes collection, and the
indexed chat turns about it. Use --history to also forget the conversation.`,
	Args: cobra.ExactArgs(1),
	RunE: runReset,
}

func init() {
	resetCmd.Flags().Bool("history", false, "Also forget the conversation")
	needsServices(resetCmd)
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	withHistory, _ := cmd.Flags().GetBool("history") //nolint:errcheck // flag defined in init
	if withHistory && conversationService == nil {
		return errors.New("conversation service not configured")
	}

	documentID := args[0]
	total := 0
	for _, collection := range []string{domain.CollectionNotes, domain.CollectionChatHistory} {
		n, err := ingestService.DeleteDocument(cmd.Context(), collection, documentID)
		if err != nil {
			return fmt.Errorf("deleting from %s: %w", collection, err)
		}
		total += n
	}
	cmd.Printf("Removed %d chunks of %s\n", total, documentID)

	if withHistory {
		if err := conversationService.Reset(cmd.Context(), sessionKey(cmd, documentID)); err != nil {
			return fmt.Errorf("resetting history: %w", err)
		}
		cmd.Println("Conversation forgotten.")
	}
	return nil
}
