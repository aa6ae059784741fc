package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/notewise/internal/adapters/driving/tui"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui <document-id>",
	Short: "Chat about a document in the terminal UI",
	Long: `Launch the interactive terminal chat for one ingested document.

The transcript is restored from the conversation history, and the passages
behind the latest answer can be inspected at any time.

Controls:
  Enter      - Send question
  Ctrl+P     - Show retrieved passages
  Ctrl+R     - Reset the conversation
  PgUp/PgDn  - Scroll the transcript
  F1         - Toggle help
  Esc        - Back / Quit`,
	Args: cobra.ExactArgs(1),
	RunE: runTUI,
}

func init() {
	needsServices(tuiCmd)
	rootCmd.AddCommand(tuiCmd)
}

// newTUIApp builds the chat app for the document named by args.
func newTUIApp(cmd *cobra.Command, documentID string) (*tui.App, error) {
	ports := &tui.Ports{
		Notes:        noteService,
		Conversation: conversationService,
		Retrieval:    retrievalService,
	}
	app, err := tui.NewApp(ports, sessionKey(cmd, documentID))
	if err != nil {
		return nil, fmt.Errorf("failed to create TUI: %w", err)
	}
	return app.WithContext(cmd.Context()), nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := newTUIApp(cmd, args[0])
	if err != nil {
		return err
	}

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
