package driving

import (
	"context"

	"github.com/custodia-labs/notewise/internal/core/domain"
)

// ConversationService keeps bounded per-session chat transcripts.
type ConversationService interface {
	// AppendTurn adds a turn, evicting the oldest beyond the bound.
	AppendTurn(ctx context.Context, key domain.SessionKey, role domain.Role, text string) (domain.Turn, error)

	// Turns returns the session's turns oldest first.
	Turns(ctx context.Context, key domain.SessionKey) ([]domain.Turn, error)

	// Render joins turns as "{role}: {text}" lines. Empty sessions render "".
	Render(ctx context.Context, key domain.SessionKey) (string, error)

	// Reset forgets the session.
	Reset(ctx context.Context, key domain.SessionKey) error
}
