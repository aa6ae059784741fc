package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
	"github.com/custodia-labs/notewise/internal/core/ports/driving"
)

// Ensure ConversationManager implements the interface.
var _ driving.ConversationService = (*ConversationManager)(nil)

// ConversationManager keeps a bounded transcript per (owner, document)
// session. Oldest turns are evicted first once maxTurns is exceeded.
// Access to one session is serialised; sessions never share state.
type ConversationManager struct {
	store    driven.HistoryStore
	maxTurns int
	locks    *KeyedMutex
	now      func() time.Time
}

// NewConversationManager creates a manager. A non-positive maxTurns uses
// domain.DefaultMaxTurns.
func NewConversationManager(store driven.HistoryStore, maxTurns int) *ConversationManager {
	if maxTurns <= 0 {
		maxTurns = domain.DefaultMaxTurns
	}
	return &ConversationManager{
		store:    store,
		maxTurns: maxTurns,
		locks:    NewKeyedMutex(),
		now:      time.Now,
	}
}

// MaxTurns returns the per-session bound.
func (m *ConversationManager) MaxTurns() int {
	return m.maxTurns
}

// AppendTurn adds a turn to the session.
func (m *ConversationManager) AppendTurn(
	ctx context.Context, key domain.SessionKey, role domain.Role, text string,
) (domain.Turn, error) {
	turns, err := m.appendTurns(ctx, key, domain.Turn{Role: role, Text: text})
	if err != nil {
		return domain.Turn{}, err
	}
	return turns[0], nil
}

// AppendExchange adds a question and its answer as adjacent turns, so
// concurrent chats on one session never interleave their pairs.
func (m *ConversationManager) AppendExchange(
	ctx context.Context, key domain.SessionKey, question, answer string,
) ([]domain.Turn, error) {
	return m.appendTurns(ctx, key,
		domain.Turn{Role: domain.RoleUser, Text: question},
		domain.Turn{Role: domain.RoleAssistant, Text: answer},
	)
}

func (m *ConversationManager) appendTurns(
	ctx context.Context, key domain.SessionKey, turns ...domain.Turn,
) ([]domain.Turn, error) {
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("conversation: %w", err)
	}
	for _, t := range turns {
		if !t.Role.IsValid() {
			return nil, fmt.Errorf("conversation: %w: unknown role %q", domain.ErrInvalidInput, t.Role)
		}
	}

	unlock, err := m.locks.Lock(ctx, key.Encode())
	if err != nil {
		return nil, fmt.Errorf("conversation: %w", err)
	}
	defer unlock()

	stored := make([]domain.Turn, 0, len(turns))
	for _, t := range turns {
		t.CreatedAt = m.now().UTC()
		saved, err := m.store.Append(ctx, key, t, m.maxTurns)
		if err != nil {
			return nil, fmt.Errorf("conversation: append: %w", err)
		}
		stored = append(stored, saved)
	}
	return stored, nil
}

// Turns returns the session's turns, oldest first.
func (m *ConversationManager) Turns(ctx context.Context, key domain.SessionKey) ([]domain.Turn, error) {
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("conversation: %w", err)
	}

	unlock, err := m.locks.Lock(ctx, key.Encode())
	if err != nil {
		return nil, fmt.Errorf("conversation: %w", err)
	}
	defer unlock()

	turns, err := m.store.Turns(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("conversation: turns: %w", err)
	}
	return turns, nil
}

// Render joins the session's turns as "{role}: {text}" lines in
// chronological order. An empty session renders to "".
func (m *ConversationManager) Render(ctx context.Context, key domain.SessionKey) (string, error) {
	turns, err := m.Turns(ctx, key)
	if err != nil {
		return "", err
	}
	return RenderTurns(turns), nil
}

// Reset forgets the session.
func (m *ConversationManager) Reset(ctx context.Context, key domain.SessionKey) error {
	if err := key.Validate(); err != nil {
		return fmt.Errorf("conversation: %w", err)
	}

	unlock, err := m.locks.Lock(ctx, key.Encode())
	if err != nil {
		return fmt.Errorf("conversation: %w", err)
	}
	defer unlock()

	if err := m.store.Clear(ctx, key); err != nil {
		return fmt.Errorf("conversation: reset: %w", err)
	}
	return nil
}

// RenderTurns formats turns as a transcript.
func RenderTurns(turns []domain.Turn) string {
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = t.Line()
	}
	return strings.Join(lines, "\n")
}
