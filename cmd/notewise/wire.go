package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/notewise/internal/adapters/driven/ai"
	"github.com/custodia-labs/notewise/internal/adapters/driven/config/file"
	"github.com/custodia-labs/notewise/internal/adapters/driven/storage"
	"github.com/custodia-labs/notewise/internal/adapters/driving/cli"
	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
	"github.com/custodia-labs/notewise/internal/core/ports/driving"
	"github.com/custodia-labs/notewise/internal/core/services"
	"github.com/custodia-labs/notewise/internal/logger"
	"github.com/custodia-labs/notewise/internal/normalisers"
	"github.com/custodia-labs/notewise/internal/normalisers/docx"
	"github.com/custodia-labs/notewise/internal/normalisers/markdown"
	"github.com/custodia-labs/notewise/internal/normalisers/pdf"
	"github.com/custodia-labs/notewise/internal/normalisers/plaintext"
)

// paths overrides on-disk locations. Empty fields use ~/.notewise.
type paths struct {
	dataDir   string
	promptDir string
}

// newBootstrap returns the function the CLI calls the first time a
// command needs the pipeline.
func newBootstrap(settingsService driving.SettingsService, p paths) cli.BootstrapFunc {
	return func(ctx context.Context, opts cli.BootstrapOptions) (*cli.Services, error) {
		settings, err := settingsService.Get()
		if err != nil {
			return nil, fmt.Errorf("loading settings: %w", err)
		}
		if opts.Ephemeral {
			settings.Store.Backend = domain.StoreBackendMemory
			settings.History.Backend = domain.HistoryBackendMemory
		}
		return wire(ctx, settings, p)
	}
}

// wire builds every service from settings. Everything opened before a
// failure is closed again.
func wire(ctx context.Context, settings *domain.AppSettings, p paths) (_ *cli.Services, err error) {
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	defer func() {
		if err != nil {
			_ = closeAll()
		}
	}()

	embedder, err := ai.CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: run 'notewise settings embedding'", domain.ErrEmbeddingUnavailable)
	}
	closers = append(closers, embedder.Close)

	llm, err := ai.CreateAndValidateLLMService(ctx, &settings.LLM)
	if err != nil {
		// Ingestion and retrieval still work without a model.
		logger.Warn("%v", err)
		llm = nil
	}
	if llm != nil {
		closers = append(closers, llm.Close)
	} else {
		logger.Debug("no LLM configured, summarize and chat are disabled")
	}

	store := settings.Store
	if store.Dimensions <= 0 {
		store.Dimensions = embedder.Dimensions()
	}
	backends, err := storage.Open(ctx, store, settings.History, p.dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	closers = append(closers, backends.Close)

	vectors, err := services.NewVectorStore(embedder, backends.Index, settings.OperationTimeout)
	if err != nil {
		return nil, err
	}
	ingest, err := services.NewIngestService(vectors, settings.Chunking)
	if err != nil {
		return nil, err
	}
	retrieval := services.NewRetrievalService(vectors, settings.TopK)
	conversation := services.NewConversationManager(backends.History, settings.History.MaxTurns)

	promptStore, err := file.NewPromptStore(p.promptDir)
	if err != nil {
		return nil, fmt.Errorf("opening prompts: %w", err)
	}
	notes := services.NewNoteService(ingest, retrieval, conversation, vectors, llm,
		services.WithPromptStore(promptStore),
		services.WithTurnIndexing(settings.History.IndexTurns),
	)

	logger.Debug("services ready: store=%s history=%s embedder=%s",
		backends.Index.Backend(), settings.History.Backend, embedder.ModelName())

	return &cli.Services{
		Notes:        notes,
		Ingest:       ingest,
		Retrieval:    retrieval,
		Conversation: conversation,
		Normalisers:  newNormaliserRegistry(),
		ServerPort:   settings.ServerPort,
		Close:        closeAll,
	}, nil
}

func newNormaliserRegistry() driven.NormaliserRegistry {
	return normalisers.NewRegistry(
		plaintext.New(),
		markdown.New(),
		docx.New(),
		pdf.New(),
	)
}
