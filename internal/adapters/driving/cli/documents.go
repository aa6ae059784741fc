package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notewise/internal/adapters/driving/backoff"
	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driving"
)

// stdinPath reads the document from standard input.
const stdinPath = "-"

// loadDocument reads path (or stdin for "-") and extracts its text.
// mimeType overrides detection when set.
func loadDocument(cmd *cobra.Command, path, mimeType string) (*domain.Document, error) {
	if normaliserRegistry == nil {
		return nil, errors.New("normaliser registry not configured")
	}

	var (
		content []byte
		err     error
	)
	if path == stdinPath {
		content, err = io.ReadAll(cmd.InOrStdin())
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	raw := &domain.RawDocument{URI: path, MIMEType: mimeType, Content: content}
	if path == stdinPath {
		raw.URI = ""
	}
	doc, err := normaliserRegistry.Normalise(cmd.Context(), raw)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", path, err)
	}
	return doc, nil
}

// ingestWithRetry ingests req, retrying transient store and embedder failures.
func ingestWithRetry(ctx context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	var result *driving.IngestResult
	err := backoff.Do(ctx, "ingest", func(ctx context.Context) error {
		var err error
		result, err = ingestService.Ingest(ctx, req)
		return err
	})
	return result, err
}
