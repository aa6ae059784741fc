package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notewise/internal/core/domain"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or reset chat history",
}

var historyShowCmd = &cobra.Command{
	Use:   "show <document-id>",
	Short: "Print the conversation about a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyResetCmd = &cobra.Command{
	Use:   "reset <document-id>",
	Short: "Forget the conversation about a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryReset,
}

func init() {
	needsServices(historyShowCmd)
	needsServices(historyResetCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyResetCmd)
	rootCmd.AddCommand(historyCmd)
}

func sessionKey(cmd *cobra.Command, documentID string) domain.SessionKey {
	return domain.SessionKey{OwnerID: ownerID(cmd), DocumentID: documentID}
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	if conversationService == nil {
		return errors.New("conversation service not configured")
	}

	turns, err := conversationService.Turns(cmd.Context(), sessionKey(cmd, args[0]))
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	if len(turns) == 0 {
		cmd.Println("No conversation yet.")
		return nil
	}
	for _, t := range turns {
		cmd.Printf("[%d] %s: %s\n", t.Seq, t.Role, t.Text)
	}
	return nil
}

func runHistoryReset(cmd *cobra.Command, args []string) error {
	if conversationService == nil {
		return errors.New("conversation service not configured")
	}

	if err := conversationService.Reset(cmd.Context(), sessionKey(cmd, args[0])); err != nil {
		return fmt.Errorf("resetting history: %w", err)
	}
	cmd.Printf("Conversation about %s forgotten.\n", args[0])
	return nil
}
