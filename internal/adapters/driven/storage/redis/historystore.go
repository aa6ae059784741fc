// Package redis provides a driven.HistoryStore backed by Redis lists, for
// deployments where several processes share conversation history.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

const keyPrefix = "notewise:history:"

// HistoryStore keeps each session as a capped Redis list of JSON turns
// plus a sequence counter.
type HistoryStore struct {
	client redis.UniversalClient
}

// New connects to the Redis server at addr.
func New(addr string) *HistoryStore {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr}))
}

// NewWithClient wraps an existing client.
func NewWithClient(client redis.UniversalClient) *HistoryStore {
	return &HistoryStore{client: client}
}

type storedTurn struct {
	Seq       int64     `json:"seq"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func turnsKey(key domain.SessionKey) string { return keyPrefix + key.Encode() + ":turns" }
func seqKey(key domain.SessionKey) string   { return keyPrefix + key.Encode() + ":seq" }

// Append pushes the turn and trims the list to the newest maxTurns.
func (h *HistoryStore) Append(
	ctx context.Context, key domain.SessionKey, turn domain.Turn, maxTurns int,
) (domain.Turn, error) {
	if err := key.Validate(); err != nil {
		return domain.Turn{}, err
	}
	seq, err := h.client.Incr(ctx, seqKey(key)).Result()
	if err != nil {
		return domain.Turn{}, wrap("append", err)
	}
	turn.Seq = seq
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	turn.CreatedAt = turn.CreatedAt.UTC()

	payload, err := json.Marshal(storedTurn{
		Seq: turn.Seq, Role: string(turn.Role), Text: turn.Text, CreatedAt: turn.CreatedAt,
	})
	if err != nil {
		return domain.Turn{}, fmt.Errorf("encoding turn: %w", err)
	}

	_, err = h.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, turnsKey(key), payload)
		if maxTurns > 0 {
			pipe.LTrim(ctx, turnsKey(key), int64(-maxTurns), -1)
		}
		return nil
	})
	if err != nil {
		return domain.Turn{}, wrap("append", err)
	}
	return turn, nil
}

// Turns returns the stored turns, oldest first.
func (h *HistoryStore) Turns(ctx context.Context, key domain.SessionKey) ([]domain.Turn, error) {
	raw, err := h.client.LRange(ctx, turnsKey(key), 0, -1).Result()
	if err != nil {
		return nil, wrap("turns", err)
	}
	turns := make([]domain.Turn, 0, len(raw))
	for _, item := range raw {
		var st storedTurn
		if err := json.Unmarshal([]byte(item), &st); err != nil {
			return nil, fmt.Errorf("decoding turn: %w", err)
		}
		turns = append(turns, domain.Turn{
			Seq: st.Seq, Role: domain.Role(st.Role), Text: st.Text, CreatedAt: st.CreatedAt,
		})
	}
	return turns, nil
}

// Clear deletes the session list and its counter.
func (h *HistoryStore) Clear(ctx context.Context, key domain.SessionKey) error {
	if err := h.client.Del(ctx, turnsKey(key), seqKey(key)).Err(); err != nil {
		return wrap("clear", err)
	}
	return nil
}

// Close closes the client.
func (h *HistoryStore) Close() error {
	return h.client.Close()
}

// wrap hides connection details, which carry the server address.
func wrap(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: redis %s failed", domain.ErrStoreUnavailable, op)
}
