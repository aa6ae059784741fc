package services

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notewise/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
)

// --- Mock implementations ---

const mockDims = 32

// mockEmbedder implements driven.Embedder with a deterministic
// bag-of-words hash, so texts sharing words land close together.
type mockEmbedder struct {
	mu       sync.Mutex
	calls    int
	failOn   string
	failWith error
	delay    time.Duration
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.failOn != "" && strings.Contains(text, m.failOn) {
		if m.failWith != nil {
			return nil, m.failWith
		}
		return nil, errors.New("provider exploded")
	}
	return hashVector(text), nil
}

func (m *mockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func hashVector(text string) []float32 {
	v := make([]float32, mockDims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%mockDims]++
	}
	v[0] += 0.01
	return v
}

// mockBatchEmbedder adds EmbedBatch to mockEmbedder.
type mockBatchEmbedder struct {
	mockEmbedder
	batches int
	short   bool
}

func (m *mockBatchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.batches++
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if m.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

// mockIndex wraps the memory index and can inject failures.
type mockIndex struct {
	*memory.VectorIndex
	queryErr   error
	replaceErr error
	leak       []domain.QueryResult
}

func (m *mockIndex) Query(
	ctx context.Context, collection string, vector []float32, topK int, filter domain.Filter,
) ([]domain.QueryResult, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	results, err := m.VectorIndex.Query(ctx, collection, vector, topK, filter)
	return append(results, m.leak...), err
}

func (m *mockIndex) Replace(
	ctx context.Context, collection string, filter domain.Filter, records []domain.VectorRecord,
) (int, error) {
	if m.replaceErr != nil {
		return 0, m.replaceErr
	}
	return m.VectorIndex.Replace(ctx, collection, filter, records)
}

// mockLLM implements driven.LLMService with a canned response.
type mockLLM struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
	opts     []driven.GenerateOptions
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	return m.response, m.err
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return m.err }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// mockPromptStore implements driven.PromptStore.
type mockPromptStore struct {
	templates map[string]string
	err       error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.templates[name], nil
}

func (m *mockPromptStore) Reload() {}

// mockHistoryStore wraps the memory store and can fail appends.
type mockHistoryStore struct {
	*memory.HistoryStore
	appendErr error
}

func (m *mockHistoryStore) Append(
	ctx context.Context, key domain.SessionKey, turn domain.Turn, maxTurns int,
) (domain.Turn, error) {
	if m.appendErr != nil {
		return domain.Turn{}, m.appendErr
	}
	return m.HistoryStore.Append(ctx, key, turn, maxTurns)
}

// --- Fixtures ---

type fixture struct {
	embedder     *mockEmbedder
	index        *mockIndex
	store        *VectorStore
	ingest       *IngestService
	retrieval    *RetrievalService
	conversation *ConversationManager
	llm          *mockLLM
	notes        *NoteService
}

func newFixture(t *testing.T, opts ...NoteServiceOption) *fixture {
	t.Helper()
	f := &fixture{
		embedder: &mockEmbedder{},
		index:    &mockIndex{VectorIndex: memory.NewVectorIndex()},
		llm:      &mockLLM{},
	}
	var err error
	f.store, err = NewVectorStore(f.embedder, f.index, time.Second)
	require.NoError(t, err)
	f.ingest, err = NewIngestService(f.store, domain.ChunkingSettings{Size: 100, Overlap: 20})
	require.NoError(t, err)
	f.retrieval = NewRetrievalService(f.store, domain.DefaultTopK)
	f.conversation = NewConversationManager(memory.NewHistoryStore(), domain.DefaultMaxTurns)
	f.notes = NewNoteService(f.ingest, f.retrieval, f.conversation, f.store, f.llm, opts...)
	return f
}
