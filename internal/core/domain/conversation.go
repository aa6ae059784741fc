package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies who produced a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// SessionKey identifies one conversation: a user talking about one document.
type SessionKey struct {
	OwnerID    string
	DocumentID string
}

// String returns the key for display, as "owner/document". Both halves may
// contain "/", so String is not unique; use Encode for storage and locking.
func (k SessionKey) String() string {
	return k.OwnerID + "/" + k.DocumentID
}

// Encode returns an unambiguous key for maps, locks and external stores.
// The owner id is length prefixed, so distinct keys never encode alike.
func (k SessionKey) Encode() string {
	return fmt.Sprintf("%d:%s/%s", len(k.OwnerID), k.OwnerID, k.DocumentID)
}

// Validate returns ErrInvalidInput when either half of the key is missing.
func (k SessionKey) Validate() error {
	if strings.TrimSpace(k.OwnerID) == "" || strings.TrimSpace(k.DocumentID) == "" {
		return fmt.Errorf("%w: session requires owner and document id", ErrInvalidInput)
	}
	return nil
}

// Turn is one message of a conversation.
type Turn struct {
	// Seq is the monotonic sequence number within the session, starting at 1.
	Seq int64

	// Role is who produced the turn.
	Role Role

	// Text is the message content.
	Text string

	// CreatedAt is when the turn was appended.
	CreatedAt time.Time
}

// Line renders the turn as a transcript line.
func (t Turn) Line() string {
	return fmt.Sprintf("%s: %s", t.Role, t.Text)
}

// DefaultMaxTurns bounds a session to ten question/answer exchanges.
const DefaultMaxTurns = 20
