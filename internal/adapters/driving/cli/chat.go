package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driving"
)

var chatCmd = &cobra.Command{
	Use:   "chat <document-id> [question]",
	Short: "Ask questions about an ingested document",
	Long: `Ask a question about an ingested document. Answers are grounded in the
document's most relevant chunks and the conversation so far.

Without a question, an interactive session starts. Type 'exit' or press
Ctrl+D to leave. Use 'notewise history reset' to start over.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().Bool("json", false, "Print answers as JSON")
	needsServices(chatCmd)
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if noteService == nil {
		return errors.New("note service not configured")
	}
	asJSON, _ := cmd.Flags().GetBool("json") //nolint:errcheck // flag defined in init

	documentID := args[0]
	if len(args) > 1 {
		return ask(cmd, documentID, strings.Join(args[1:], " "), asJSON)
	}

	cmd.Printf("Chatting about %s. Type 'exit' to quit.\n", documentID)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		switch question {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		// One failed question does not end the session.
		if err := ask(cmd, documentID, question, asJSON); err != nil {
			cmd.PrintErrf("Error: %s\n", domain.PublicMessage(err))
		}
	}
}

func ask(cmd *cobra.Command, documentID, question string, asJSON bool) error {
	answer, err := noteService.Chat(cmd.Context(), driving.ChatRequest{
		DocumentID: documentID,
		OwnerID:    ownerID(cmd),
		Question:   question,
	})
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	if asJSON {
		data, err := json.Marshal(answer)
		if err != nil {
			return fmt.Errorf("encoding answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printAnswer(cmd, answer)
	return nil
}

func printAnswer(cmd *cobra.Command, answer *domain.ChatAnswer) {
	if answer.Degraded && answer.Answer == "" {
		cmd.Println("Warning: the model response could not be parsed.")
		return
	}
	cmd.Println(answer.Answer)
	for _, p := range answer.KeyPoints {
		cmd.Printf("  - %s\n", p)
	}
	if answer.Reference != "" {
		cmd.Printf("Reference: %s\n", answer.Reference)
	}
}
