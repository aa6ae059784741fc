package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notewise/internal/adapters/driving/rest"
	"github.com/custodia-labs/notewise/internal/core/domain"
)

// serverPort is the configured REST port, replaced at bootstrap.
var serverPort = domain.DefaultServerPort

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the HTTP API.

Endpoints:
  POST /v1/summarize   multipart upload (file, summaryLength, summaryType, user_id, note_id)
  POST /v1/api/chat    JSON {"chat", "user_id", "note_id"}
  POST /v1/ingest      JSON {"text", "user_id", "note_id"}
  GET  /metrics        Prometheus metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "Listen port (0 = configured server_port)")
	serveCmd.Flags().Int64("max-upload-mb", rest.DefaultMaxUploadBytes>>20, "Largest accepted upload in MiB")
	needsServices(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if noteService == nil {
		return errors.New("note service not configured")
	}

	port, _ := cmd.Flags().GetInt("port")                 //nolint:errcheck // flag defined in init
	maxUpload, _ := cmd.Flags().GetInt64("max-upload-mb") //nolint:errcheck // flag defined in init
	if port == 0 {
		port = serverPort
	}

	server, err := rest.NewServer(&rest.Ports{
		Notes:       noteService,
		Ingest:      ingestService,
		Normalisers: normaliserRegistry,
	}, rest.Config{MaxUploadBytes: maxUpload << 20})
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", port)
	cmd.Printf("REST API listening on http://localhost%s\n", addr)
	return server.Run(cmd.Context(), addr)
}
