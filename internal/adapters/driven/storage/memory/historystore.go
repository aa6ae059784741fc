package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

type session struct {
	seq   int64
	turns []domain.Turn
}

// HistoryStore is an in-memory implementation of driven.HistoryStore.
// History is lost when the process exits.
type HistoryStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	now      func() time.Time
}

// NewHistoryStore creates a new in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// Append stores the turn and trims the session to maxTurns.
func (h *HistoryStore) Append(
	ctx context.Context, key domain.SessionKey, turn domain.Turn, maxTurns int,
) (domain.Turn, error) {
	if err := ctx.Err(); err != nil {
		return domain.Turn{}, err
	}
	if err := key.Validate(); err != nil {
		return domain.Turn{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[key.Encode()]
	if !ok {
		s = &session{}
		h.sessions[key.Encode()] = s
	}
	s.seq++
	turn.Seq = s.seq
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = h.now()
	}
	s.turns = append(s.turns, turn)
	if maxTurns > 0 && len(s.turns) > maxTurns {
		s.turns = append([]domain.Turn(nil), s.turns[len(s.turns)-maxTurns:]...)
	}
	return turn, nil
}

// Turns returns a copy of the session's turns, oldest first.
func (h *HistoryStore) Turns(ctx context.Context, key domain.SessionKey) ([]domain.Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[key.Encode()]
	if !ok {
		return []domain.Turn{}, nil
	}
	return append([]domain.Turn{}, s.turns...), nil
}

// Clear removes the session entirely, including its sequence counter.
func (h *HistoryStore) Clear(ctx context.Context, key domain.SessionKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, key.Encode())
	return nil
}

// Close is a no-op.
func (h *HistoryStore) Close() error {
	return nil
}
