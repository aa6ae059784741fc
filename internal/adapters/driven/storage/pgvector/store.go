// Package pgvector provides a driven.VectorIndex backed by PostgreSQL with
// the pgvector extension. Each collection maps to its own table.
package pgvector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorIndex = (*Store)(nil)

// tablePrefix namespaces collection tables within a shared database.
const tablePrefix = "notewise_"

// undefinedTable is the SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// DB is the minimal database interface Store depends on (pgxpool or pgxmock).
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Store is a pgvector-backed vector index.
type Store struct {
	db        DB
	dimension int
}

// New connects to PostgreSQL using dsn. The DSN never appears in errors.
func New(ctx context.Context, dsn string, dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: pgvector requires store.dimensions", domain.ErrInvalidConfiguration)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: pgvector: connect failed", domain.ErrStoreUnavailable)
	}
	return NewWithDB(pool, dimension), nil
}

// NewWithDB wraps an existing pool.
func NewWithDB(db DB, dimension int) *Store {
	return &Store{db: db, dimension: dimension}
}

func tableIdent(collection string) string {
	return pgx.Identifier{tablePrefix + collection}.Sanitize()
}

// EnsureCollection creates the extension, table and document index.
func (s *Store) EnsureCollection(ctx context.Context, collection string) error {
	if collection == "" {
		return fmt.Errorf("%w: collection name required", domain.ErrInvalidInput)
	}
	table := tableIdent(collection)
	index := pgx.Identifier{tablePrefix + collection + "_document_idx"}.Sanitize()
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	embedding vector(%d),
	document TEXT,
	metadata JSONB,
	updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
)`, table, s.dimension),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s ((metadata ->> 'document_id'))", index, table),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return wrap("ensure collection", err)
		}
	}
	return nil
}

// Upsert writes all records in one transaction.
func (s *Store) Upsert(ctx context.Context, collection string, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		return s.insert(ctx, tx, collection, records)
	})
}

// Replace deletes records matching filter and writes records in one transaction.
func (s *Store) Replace(
	ctx context.Context, collection string, filter domain.Filter, records []domain.VectorRecord,
) (int, error) {
	if len(filter) == 0 {
		return 0, fmt.Errorf("%w: replace requires a filter", domain.ErrInvalidInput)
	}
	var removed int
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		where, args := filterClause(filter, 1)
		tag, err := tx.Exec(ctx, "DELETE FROM "+tableIdent(collection)+" WHERE "+where, args...)
		if err != nil {
			return wrap("replace", err)
		}
		removed = int(tag.RowsAffected())
		return s.insert(ctx, tx, collection, records)
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Query returns the nearest records by cosine distance.
func (s *Store) Query(
	ctx context.Context, collection string, vector []float32, topK int, filter domain.Filter,
) ([]domain.QueryResult, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query dimension %d, want %d", domain.ErrInvalidInput, len(vector), s.dimension)
	}
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	where, args := filterClause(filter, 2)
	args = append([]any{pgv.NewVector(vector)}, args...)
	args = append(args, topK)
	sql := fmt.Sprintf(
		"SELECT id, document, metadata, 1 - (embedding <=> $1) AS score FROM %s WHERE %s "+
			"ORDER BY embedding <=> $1 ASC, id ASC LIMIT $%d",
		tableIdent(collection), where, len(args))

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrap("query", err)
	}
	defer rows.Close()

	results := make([]domain.QueryResult, 0, topK)
	for rows.Next() {
		var (
			id, document string
			metadataRaw  []byte
			score        float64
		)
		if err := rows.Scan(&id, &document, &metadataRaw, &score); err != nil {
			return nil, wrap("scan", err)
		}
		metadata := make(map[string]string)
		if len(metadataRaw) > 0 {
			if err := json.Unmarshal(metadataRaw, &metadata); err != nil {
				return nil, fmt.Errorf("pgvector: decode metadata of %s: %w", id, err)
			}
		}
		results = append(results, domain.QueryResult{ID: id, Text: document, Metadata: metadata, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("query rows", err)
	}
	return results, nil
}

// Delete removes records matching filter.
func (s *Store) Delete(ctx context.Context, collection string, filter domain.Filter) (int, error) {
	if len(filter) == 0 {
		return 0, fmt.Errorf("%w: delete requires a filter", domain.ErrInvalidInput)
	}
	where, args := filterClause(filter, 1)
	tag, err := s.db.Exec(ctx, "DELETE FROM "+tableIdent(collection)+" WHERE "+where, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
			return 0, nil
		}
		return 0, wrap("delete", err)
	}
	return int(tag.RowsAffected()), nil
}

// Backend returns "pgvector".
func (s *Store) Backend() string {
	return string(domain.StoreBackendPGVector)
}

// Close releases the pool.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func (s *Store) insert(ctx context.Context, tx pgx.Tx, collection string, records []domain.VectorRecord) error {
	stmt := fmt.Sprintf(`INSERT INTO %s (id, embedding, document, metadata, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
	embedding = excluded.embedding,
	document = excluded.document,
	metadata = excluded.metadata,
	updated_at = excluded.updated_at`, tableIdent(collection))
	now := time.Now().UTC()
	for i := range records {
		rec := &records[i]
		if len(rec.Embedding) != s.dimension {
			return fmt.Errorf("%w: record %q dimension %d, want %d",
				domain.ErrInvalidInput, rec.ID, len(rec.Embedding), s.dimension)
		}
		metadata, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("pgvector: marshal metadata for %q: %w", rec.ID, err)
		}
		if _, err := tx.Exec(ctx, stmt, rec.ID, pgv.NewVector(rec.Embedding), rec.Text, metadata, now); err != nil {
			return wrap("upsert", err)
		}
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return wrap("begin tx", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("pgvector: rollback failed: %v; original error: %w", rbErr, err)
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = wrap("commit", commitErr)
		}
	}()
	return fn(tx)
}

// filterClause builds a WHERE clause over the JSONB metadata column, with
// placeholders numbered from start. Keys are sorted so the SQL is stable.
func filterClause(filter domain.Filter, start int) (string, []any) {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := []string{"1=1"}
	args := make([]any, 0, len(keys)*2)
	pos := start
	for _, k := range keys {
		if filter[k] == "" {
			clauses = append(clauses, fmt.Sprintf("metadata ->> $%d IS NULL", pos))
			args = append(args, k)
			pos++
			continue
		}
		clauses = append(clauses, fmt.Sprintf("metadata ->> $%d = $%d", pos, pos+1))
		args = append(args, k, filter[k])
		pos += 2
	}
	return strings.Join(clauses, " AND "), args
}

// wrap classifies a database error. Missing tables become ErrNotFound;
// everything else is reported as the store being unavailable.
func wrap(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == undefinedTable {
			return fmt.Errorf("%w: pgvector %s: collection does not exist", domain.ErrNotFound, op)
		}
		return fmt.Errorf("%w: pgvector %s: %s (%s)", domain.ErrStoreUnavailable, op, pgErr.Message, pgErr.Code)
	}
	return fmt.Errorf("%w: pgvector %s failed", domain.ErrStoreUnavailable, op)
}
