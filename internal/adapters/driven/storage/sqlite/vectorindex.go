package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/notewise/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
)

// Ensure vectorIndex implements the interface.
var _ driven.VectorIndex = (*vectorIndex)(nil)

type vectorIndex struct {
	store *Store
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (v *vectorIndex) EnsureCollection(ctx context.Context, collection string) error {
	if collection == "" {
		return fmt.Errorf("%w: collection name required", domain.ErrInvalidInput)
	}
	_, err := v.store.db.ExecContext(ctx,
		"INSERT INTO collections (name) VALUES (?) ON CONFLICT(name) DO NOTHING", collection)
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	return nil
}

func (v *vectorIndex) Upsert(ctx context.Context, collection string, records []domain.VectorRecord) error {
	return v.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireCollection(ctx, tx, collection); err != nil {
			return err
		}
		return insertRecords(ctx, tx, collection, records)
	})
}

func (v *vectorIndex) Replace(
	ctx context.Context, collection string, filter domain.Filter, records []domain.VectorRecord,
) (int, error) {
	if len(filter) == 0 {
		return 0, fmt.Errorf("%w: replace requires a filter", domain.ErrInvalidInput)
	}
	var removed int
	err := v.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireCollection(ctx, tx, collection); err != nil {
			return err
		}
		n, err := deleteMatching(ctx, tx, collection, filter)
		if err != nil {
			return err
		}
		removed = n
		return insertRecords(ctx, tx, collection, records)
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (v *vectorIndex) Query(
	ctx context.Context, collection string, vector []float32, topK int, filter domain.Filter,
) ([]domain.QueryResult, error) {
	if err := requireCollection(ctx, v.store.db, collection); err != nil {
		return nil, err
	}

	where, args := filterClause(collection, filter)
	rows, err := v.store.db.QueryContext(ctx,
		"SELECT id, content, metadata, embedding FROM chunks WHERE "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var results []domain.QueryResult
	for rows.Next() {
		var (
			id, content, metaJSON string
			blob                  []byte
		)
		if err := rows.Scan(&id, &content, &metaJSON, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		var metadata map[string]string
		if err := json.Unmarshal([]byte(metaJSON), &metadata); err != nil {
			return nil, fmt.Errorf("decoding metadata of %s: %w", id, err)
		}
		if !filter.Matches(metadata) {
			continue
		}
		embedding, err := vecmath.Decode(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding of %s: %w", id, err)
		}
		results = append(results, domain.QueryResult{
			ID:       id,
			Text:     content,
			Metadata: metadata,
			Score:    vecmath.Cosine(vector, embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	if results == nil {
		return []domain.QueryResult{}, nil
	}
	return vecmath.Rank(results, topK), nil
}

func (v *vectorIndex) Delete(ctx context.Context, collection string, filter domain.Filter) (int, error) {
	if len(filter) == 0 {
		return 0, fmt.Errorf("%w: delete requires a filter", domain.ErrInvalidInput)
	}
	var removed int
	err := v.inTx(ctx, func(tx *sql.Tx) error {
		n, err := deleteMatching(ctx, tx, collection, filter)
		removed = n
		return err
	})
	return removed, err
}

func (v *vectorIndex) Backend() string {
	return string(domain.StoreBackendSQLite)
}

func (v *vectorIndex) Close() error {
	return v.store.Close()
}

func (v *vectorIndex) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func requireCollection(ctx context.Context, q querier, collection string) error {
	var name string
	err := q.QueryRowContext(ctx, "SELECT name FROM collections WHERE name = ?", collection).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: collection %q", domain.ErrNotFound, collection)
	}
	if err != nil {
		return fmt.Errorf("looking up collection: %w", err)
	}
	return nil
}

func insertRecords(ctx context.Context, q querier, collection string, records []domain.VectorRecord) error {
	for i := range records {
		rec := &records[i]
		metaJSON, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata of %s: %w", rec.ID, err)
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO chunks (collection, id, document_id, owner_id, chunk_index, content, metadata, embedding)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(collection, id) DO UPDATE SET
				document_id = excluded.document_id,
				owner_id = excluded.owner_id,
				chunk_index = excluded.chunk_index,
				content = excluded.content,
				metadata = excluded.metadata,
				embedding = excluded.embedding
		`, collection, rec.ID, rec.DocumentID, rec.OwnerID, rec.Index, rec.Text,
			string(metaJSON), vecmath.Encode(rec.Embedding))
		if err != nil {
			return fmt.Errorf("writing chunk %s: %w", rec.ID, err)
		}
	}
	return nil
}

func deleteMatching(ctx context.Context, q querier, collection string, filter domain.Filter) (int, error) {
	where, args := filterClause(collection, filter)
	res, err := q.ExecContext(ctx, "DELETE FROM chunks WHERE "+where, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted chunks: %w", err)
	}
	return int(n), nil
}

// filterClause translates a metadata filter into a WHERE clause over the
// JSON metadata column. Keys are sorted so the SQL text is stable.
func filterClause(collection string, filter domain.Filter) (string, []any) {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := []string{"collection = ?"}
	args := []any{collection}
	for _, k := range keys {
		path := `$."` + strings.ReplaceAll(k, `"`, `\"`) + `"`
		if filter[k] == "" {
			clauses = append(clauses, "json_extract(metadata, ?) IS NULL")
			args = append(args, path)
			continue
		}
		clauses = append(clauses, "json_extract(metadata, ?) = ?")
		args = append(args, path, filter[k])
	}
	return strings.Join(clauses, " AND "), args
}
