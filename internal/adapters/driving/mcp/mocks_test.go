package mcp

import (
	"context"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driving"
)

// mockNoteService is a mock implementation of driving.NoteService.
type mockNoteService struct {
	summary     *domain.Summary
	answer      *domain.ChatAnswer
	err         error
	lastSummary driving.SummarizeRequest
	lastChat    driving.ChatRequest
}

func (m *mockNoteService) Summarize(_ context.Context, req driving.SummarizeRequest) (*domain.Summary, error) {
	m.lastSummary = req
	return m.summary, m.err
}

func (m *mockNoteService) Chat(_ context.Context, req driving.ChatRequest) (*domain.ChatAnswer, error) {
	m.lastChat = req
	return m.answer, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result *driving.IngestResult
	err    error
	last   driving.IngestRequest
}

func (m *mockIngestService) Ingest(_ context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	m.last = req
	return m.result, m.err
}

func (m *mockIngestService) DeleteDocument(_ context.Context, _, _ string) (int, error) {
	return 0, m.err
}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results []domain.QueryResult
	err     error
	last    driving.RetrieveRequest
}

func (m *mockRetrievalService) Retrieve(_ context.Context, req driving.RetrieveRequest) ([]domain.QueryResult, error) {
	m.last = req
	return m.results, m.err
}

// mockConversationService is a mock implementation of driving.ConversationService.
type mockConversationService struct {
	transcript string
	err        error
	resetKey   domain.SessionKey
	renderKey  domain.SessionKey
}

func (m *mockConversationService) AppendTurn(
	_ context.Context, _ domain.SessionKey, role domain.Role, text string,
) (domain.Turn, error) {
	return domain.Turn{Role: role, Text: text}, m.err
}

func (m *mockConversationService) Turns(_ context.Context, _ domain.SessionKey) ([]domain.Turn, error) {
	return nil, m.err
}

func (m *mockConversationService) Render(_ context.Context, key domain.SessionKey) (string, error) {
	m.renderKey = key
	return m.transcript, m.err
}

func (m *mockConversationService) Reset(_ context.Context, key domain.SessionKey) error {
	m.resetKey = key
	return m.err
}
