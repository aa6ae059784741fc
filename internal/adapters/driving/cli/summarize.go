package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driving"
)

var summarizeCmd = &cobra.Command{
	Use:     "summarize [file]",
	Aliases: []string{"summarise"},
	Short:   "Summarise a document and index it for chat",
	Long: `Summarise a document with the configured LLM and extract its key points.

The document is indexed at the same time, so you can follow up with
'notewise chat <document-id>'. Use "-" to read from standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().String("id", "", "Document id (generated when empty)")
	summarizeCmd.Flags().String("type", "", "MIME type override, detected when empty")
	summarizeCmd.Flags().StringP("style", "s", string(domain.DefaultSummaryStyle), "Summary style, e.g. concise or bullet")
	summarizeCmd.Flags().IntP("percent", "p", domain.DefaultTargetPercent, "Summary length as a percentage of the source")
	summarizeCmd.Flags().Bool("json", false, "Print the summary as JSON")
	needsServices(summarizeCmd)
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	if noteService == nil {
		return errors.New("note service not configured")
	}

	id, _ := cmd.Flags().GetString("id")         //nolint:errcheck // flag defined in init
	mimeType, _ := cmd.Flags().GetString("type") //nolint:errcheck // flag defined in init
	style, _ := cmd.Flags().GetString("style")   //nolint:errcheck // flag defined in init
	percent, _ := cmd.Flags().GetInt("percent")  //nolint:errcheck // flag defined in init
	asJSON, _ := cmd.Flags().GetBool("json")     //nolint:errcheck // flag defined in init

	if percent < 1 || percent > 100 {
		return fmt.Errorf("--percent must be between 1 and 100, got %d", percent)
	}

	doc, err := loadDocument(cmd, args[0], mimeType)
	if err != nil {
		return err
	}

	summary, err := noteService.Summarize(cmd.Context(), driving.SummarizeRequest{
		DocumentID:    id,
		OwnerID:       ownerID(cmd),
		Style:         domain.SummaryStyle(style),
		TargetPercent: percent,
		Text:          doc.Content,
	})
	if err != nil {
		return fmt.Errorf("summarize failed: %w", err)
	}

	if asJSON {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding summary: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printSummary(cmd, doc.Title, summary)
	return nil
}

func printSummary(cmd *cobra.Command, title string, summary *domain.Summary) {
	if title != "" {
		cmd.Printf("%s\n\n", title)
	}
	cmd.Printf("Document: %s\n\n", summary.DocumentID)

	if summary.Degraded {
		cmd.Println("Warning: the model response could not be parsed. Raw output:")
		cmd.Println()
		cmd.Println(summary.Raw)
		return
	}

	cmd.Println("Summary:")
	cmd.Println(summary.Summary)
	if len(summary.KeyPoints) > 0 {
		cmd.Println()
		cmd.Println("Key points:")
		for _, p := range summary.KeyPoints {
			cmd.Printf("  - %s\n", p)
		}
	}
}
