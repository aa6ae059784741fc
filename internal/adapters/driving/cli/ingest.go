package cli

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driving"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Index documents for chat",
	Long: `Extract text from documents, split it into overlapping chunks and store
the chunk embeddings so later questions can retrieve them.

Supported inputs are plain text, markdown, PDF and Word (.docx) files. Use "-"
to read from standard input. Re-ingesting a document id replaces its chunks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("id", "", "Document id (single file only, generated when empty)")
	ingestCmd.Flags().String("type", "", "MIME type override, detected when empty")
	ingestCmd.Flags().String("collection", domain.CollectionNotes, "Target collection")
	ingestCmd.Flags().Int("chunk-size", 0, "Chunk size in characters (0 = configured)")
	ingestCmd.Flags().Int("overlap", 0, "Chunk overlap in characters (0 = configured)")
	needsServices(ingestCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	id, _ := cmd.Flags().GetString("id")                 //nolint:errcheck // flag defined in init
	mimeType, _ := cmd.Flags().GetString("type")         //nolint:errcheck // flag defined in init
	collection, _ := cmd.Flags().GetString("collection") //nolint:errcheck // flag defined in init
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")     //nolint:errcheck // flag defined in init
	overlap, _ := cmd.Flags().GetInt("overlap")          //nolint:errcheck // flag defined in init

	if id != "" && len(args) > 1 {
		return errors.New("--id can only be used with a single file")
	}

	owner := ownerID(cmd)
	for _, path := range args {
		doc, err := loadDocument(cmd, path, mimeType)
		if err != nil {
			return err
		}

		docID := id
		if docID == "" {
			docID = uuid.NewString()
		}

		result, err := ingestWithRetry(cmd.Context(), driving.IngestRequest{
			OwnerID:    owner,
			DocumentID: docID,
			Collection: collection,
			Text:       doc.Content,
			ChunkSize:  chunkSize,
			Overlap:    overlap,
		})
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}

		cmd.Printf("Ingested %s\n", displayPath(path))
		cmd.Printf("  Document: %s\n", result.DocumentID)
		cmd.Printf("  Chunks: %d", result.Chunks)
		if result.Replaced > 0 {
			cmd.Printf(" (replaced %d)", result.Replaced)
		}
		cmd.Println()
	}
	return nil
}

func displayPath(path string) string {
	if path == stdinPath {
		return "stdin"
	}
	return path
}
