package driven

import (
	"context"

	"github.com/custodia-labs/notewise/internal/core/domain"
)

// HistoryStore keeps the bounded turn list of each conversation session.
// Callers serialise access per session key; stores need not.
type HistoryStore interface {
	// Append stores the turn, assigning the next sequence number, and
	// evicts the oldest turns so at most maxTurns remain.
	Append(ctx context.Context, key domain.SessionKey, turn domain.Turn, maxTurns int) (domain.Turn, error)

	// Turns returns the session's turns in chronological order.
	// An unknown session returns an empty slice.
	Turns(ctx context.Context, key domain.SessionKey) ([]domain.Turn, error)

	// Clear removes all turns of the session.
	Clear(ctx context.Context, key domain.SessionKey) error

	// Close releases resources.
	Close() error
}
