package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
)

// Ensure historyStore implements the interface.
var _ driven.HistoryStore = (*historyStore)(nil)

type historyStore struct {
	store *Store
}

func (h *historyStore) Append(
	ctx context.Context, key domain.SessionKey, turn domain.Turn, maxTurns int,
) (domain.Turn, error) {
	if err := key.Validate(); err != nil {
		return domain.Turn{}, err
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	turn.CreatedAt = turn.CreatedAt.UTC()

	tx, err := h.store.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Turn{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO history_sessions (session_key, last_seq) VALUES (?, 1)
		ON CONFLICT(session_key) DO UPDATE SET last_seq = last_seq + 1
		RETURNING last_seq
	`, key.Encode()).Scan(&turn.Seq)
	if err != nil {
		return domain.Turn{}, fmt.Errorf("advancing sequence: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO history_turns (session_key, seq, role, content, created_at) VALUES (?, ?, ?, ?, ?)",
		key.Encode(), turn.Seq, string(turn.Role), turn.Text, turn.CreatedAt)
	if err != nil {
		return domain.Turn{}, fmt.Errorf("writing turn: %w", err)
	}

	if maxTurns > 0 {
		_, err = tx.ExecContext(ctx,
			"DELETE FROM history_turns WHERE session_key = ? AND seq <= ?",
			key.Encode(), turn.Seq-int64(maxTurns))
		if err != nil {
			return domain.Turn{}, fmt.Errorf("evicting turns: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Turn{}, fmt.Errorf("committing transaction: %w", err)
	}
	return turn, nil
}

func (h *historyStore) Turns(ctx context.Context, key domain.SessionKey) ([]domain.Turn, error) {
	rows, err := h.store.db.QueryContext(ctx,
		"SELECT seq, role, content, created_at FROM history_turns WHERE session_key = ? ORDER BY seq",
		key.Encode())
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	turns := []domain.Turn{}
	for rows.Next() {
		var (
			t    domain.Turn
			role string
		)
		if err := rows.Scan(&t.Seq, &role, &t.Text, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		t.Role = domain.Role(role)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}
	return turns, nil
}

func (h *historyStore) Clear(ctx context.Context, key domain.SessionKey) error {
	tx, err := h.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		"DELETE FROM history_turns WHERE session_key = ?",
		"DELETE FROM history_sessions WHERE session_key = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, key.Encode()); err != nil {
			return fmt.Errorf("clearing session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (h *historyStore) Close() error {
	return h.store.Close()
}
