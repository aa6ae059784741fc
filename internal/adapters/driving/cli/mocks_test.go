package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driving"
	"github.com/custodia-labs/notewise/internal/normalisers"
	"github.com/custodia-labs/notewise/internal/normalisers/markdown"
	"github.com/custodia-labs/notewise/internal/normalisers/plaintext"
)

// mockNoteService implements driving.NoteService for testing.
type mockNoteService struct {
	summary   *domain.Summary
	answer    *domain.ChatAnswer
	err       error
	summaries []driving.SummarizeRequest
	chats     []driving.ChatRequest
}

func (m *mockNoteService) Summarize(_ context.Context, req driving.SummarizeRequest) (*domain.Summary, error) {
	m.summaries = append(m.summaries, req)
	if m.err != nil {
		return nil, m.err
	}
	if m.summary != nil {
		return m.summary, nil
	}
	id := req.DocumentID
	if id == "" {
		id = "generated-id"
	}
	return &domain.Summary{DocumentID: id, Summary: "A short summary.", KeyPoints: []string{"first point"}}, nil
}

func (m *mockNoteService) Chat(_ context.Context, req driving.ChatRequest) (*domain.ChatAnswer, error) {
	m.chats = append(m.chats, req)
	if m.err != nil {
		return nil, m.err
	}
	if m.answer != nil {
		return m.answer, nil
	}
	return &domain.ChatAnswer{Answer: "answer to " + req.Question}, nil
}

// mockIngestService implements driving.IngestService for testing.
type mockIngestService struct {
	mu       sync.Mutex
	errs     []error
	requests []driving.IngestRequest
	deleted  []string
	perDoc   int
}

func (m *mockIngestService) Ingest(_ context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	collection := req.Collection
	if collection == "" {
		collection = domain.CollectionNotes
	}
	return &driving.IngestResult{DocumentID: req.DocumentID, Collection: collection, Chunks: 2}, nil
}

func (m *mockIngestService) DeleteDocument(_ context.Context, collection, documentID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, collection+"/"+documentID)
	return m.perDoc, nil
}

func (m *mockIngestService) snapshot() ([]driving.IngestRequest, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]driving.IngestRequest(nil), m.requests...), append([]string(nil), m.deleted...)
}

// mockRetrievalService implements driving.RetrievalService for testing.
type mockRetrievalService struct {
	results  []domain.QueryResult
	err      error
	requests []driving.RetrieveRequest
}

func (m *mockRetrievalService) Retrieve(_ context.Context, req driving.RetrieveRequest) ([]domain.QueryResult, error) {
	m.requests = append(m.requests, req)
	return m.results, m.err
}

// mockConversationService implements driving.ConversationService for testing.
type mockConversationService struct {
	turns  []domain.Turn
	err    error
	resets []domain.SessionKey
	keys   []domain.SessionKey
}

func (m *mockConversationService) AppendTurn(
	_ context.Context, _ domain.SessionKey, role domain.Role, text string,
) (domain.Turn, error) {
	return domain.Turn{Role: role, Text: text}, nil
}

func (m *mockConversationService) Turns(_ context.Context, key domain.SessionKey) ([]domain.Turn, error) {
	m.keys = append(m.keys, key)
	return m.turns, m.err
}

func (m *mockConversationService) Render(context.Context, domain.SessionKey) (string, error) {
	return "", m.err
}

func (m *mockConversationService) Reset(_ context.Context, key domain.SessionKey) error {
	m.resets = append(m.resets, key)
	return m.err
}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings       domain.AppSettings
	validateErr    error
	embeddingErr   error
	llmErr         error
	embeddingCalls []string
	llmCalls       []string
	backends       []domain.StoreBackend
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.embeddingCalls = append(m.embeddingCalls, string(provider)+"|"+model+"|"+apiKey)
	m.settings.Embedding = domain.EmbeddingSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.llmCalls = append(m.llmCalls, string(provider)+"|"+model+"|"+apiKey)
	m.settings.LLM = domain.LLMSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetStoreBackend(backend domain.StoreBackend) error {
	m.backends = append(m.backends, backend)
	m.settings.Store.Backend = backend
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.embeddingErr }

func (m *mockSettingsService) ValidateLLMConfig() error { return m.llmErr }

// testServices are the mocks installed by setupTestServices.
type testServices struct {
	notes        *mockNoteService
	ingest       *mockIngestService
	retrieval    *mockRetrievalService
	conversation *mockConversationService
	settings     *mockSettingsService
}

// setupTestServices installs mock services and returns a cleanup function
// that restores the previous ones and resets command flags.
func setupTestServices() (*testServices, func()) {
	prev := struct {
		settings     driving.SettingsService
		notes        driving.NoteService
		ingest       driving.IngestService
		retrieval    driving.RetrievalService
		conversation driving.ConversationService
		bootstrap    BootstrapFunc
		port         int
	}{settingsService, noteService, ingestService, retrievalService, conversationService, bootstrap, serverPort}
	prevRegistry := normaliserRegistry

	ts := &testServices{
		notes:        &mockNoteService{},
		ingest:       &mockIngestService{},
		retrieval:    &mockRetrievalService{},
		conversation: &mockConversationService{},
		settings:     newMockSettingsService(),
	}
	settingsService = ts.settings
	noteService = ts.notes
	ingestService = ts.ingest
	retrievalService = ts.retrieval
	conversationService = ts.conversation
	normaliserRegistry = normalisers.NewRegistry(plaintext.New(), markdown.New())
	bootstrap = nil
	opened = nil

	return ts, func() {
		settingsService = prev.settings
		noteService = prev.notes
		ingestService = prev.ingest
		retrievalService = prev.retrieval
		conversationService = prev.conversation
		normaliserRegistry = prevRegistry
		bootstrap = prev.bootstrap
		serverPort = prev.port
		opened = nil
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}
}

// execute runs the root command with args and stdin, returning combined output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every changed flag to its default so tests do not
// leak values through the shared command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			if !f.Changed {
				return
			}
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				var vals []string
				if def := strings.Trim(f.DefValue, "[]"); def != "" {
					vals = strings.Split(def, ",")
				}
				_ = sv.Replace(vals)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}
	reset(cmd.Flags())
	reset(cmd.PersistentFlags())
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
