package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driving"
)

// MockNoteService implements driving.NoteService for testing.
type MockNoteService struct {
	ChatFunc func(ctx context.Context, req driving.ChatRequest) (*domain.ChatAnswer, error)
	requests []driving.ChatRequest
}

func (m *MockNoteService) Summarize(context.Context, driving.SummarizeRequest) (*domain.Summary, error) {
	return &domain.Summary{}, nil
}

func (m *MockNoteService) Chat(ctx context.Context, req driving.ChatRequest) (*domain.ChatAnswer, error) {
	m.requests = append(m.requests, req)
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	return &domain.ChatAnswer{Answer: "ok"}, nil
}

// MockConversationService implements driving.ConversationService for testing.
type MockConversationService struct {
	TurnsFunc func(ctx context.Context, key domain.SessionKey) ([]domain.Turn, error)
	ResetErr  error
	resets    int
}

func (m *MockConversationService) AppendTurn(
	_ context.Context, _ domain.SessionKey, role domain.Role, text string,
) (domain.Turn, error) {
	return domain.Turn{Role: role, Text: text}, nil
}

func (m *MockConversationService) Turns(ctx context.Context, key domain.SessionKey) ([]domain.Turn, error) {
	if m.TurnsFunc != nil {
		return m.TurnsFunc(ctx, key)
	}
	return nil, nil
}

func (m *MockConversationService) Render(context.Context, domain.SessionKey) (string, error) {
	return "", nil
}

func (m *MockConversationService) Reset(context.Context, domain.SessionKey) error {
	m.resets++
	return m.ResetErr
}

// MockRetrievalService implements driving.RetrievalService for testing.
type MockRetrievalService struct {
	Results  []domain.QueryResult
	Err      error
	requests []driving.RetrieveRequest
}

func (m *MockRetrievalService) Retrieve(_ context.Context, req driving.RetrieveRequest) ([]domain.QueryResult, error) {
	m.requests = append(m.requests, req)
	return m.Results, m.Err
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ports   *Ports
		wantErr error
	}{
		{
			name:  "all ports",
			ports: &Ports{Notes: &MockNoteService{}, Conversation: &MockConversationService{}, Retrieval: &MockRetrievalService{}},
		},
		{
			name:  "retrieval is optional",
			ports: &Ports{Notes: &MockNoteService{}, Conversation: &MockConversationService{}},
		},
		{
			name:    "missing notes",
			ports:   &Ports{Conversation: &MockConversationService{}},
			wantErr: ErrMissingNoteService,
		},
		{
			name:    "missing conversation",
			ports:   &Ports{Notes: &MockNoteService{}},
			wantErr: ErrMissingConversationService,
		},
		{
			name:    "nil ports",
			ports:   nil,
			wantErr: ErrInvalidPorts,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
