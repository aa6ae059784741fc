package pgvector

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notewise/internal/core/domain"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return NewWithDB(mockPool, 2), mockPool
}

func record(doc string, index int, text string, vec ...float32) domain.VectorRecord {
	return domain.VectorRecord{
		ChunkRecord: domain.NewChunkRecord("u1", doc, index, text),
		Embedding:   vec,
	}
}

func TestStore_EnsureCollection(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("CREATE EXTENSION IF NOT EXISTS vector").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "notewise_notes"`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS "notewise_notes_document_idx"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.EnsureCollection(context.Background(), domain.CollectionNotes))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Upsert(t *testing.T) {
	t.Run("Should write records in a transaction", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "notewise_notes"`).
			WithArgs("A:0", pgxmock.AnyArg(), "alpha", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		err := store.Upsert(context.Background(), domain.CollectionNotes, []domain.VectorRecord{record("A", 0, "alpha", 1, 0)})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should roll back on dimension mismatch", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := store.Upsert(context.Background(), domain.CollectionNotes, []domain.VectorRecord{record("A", 0, "alpha", 1)})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should not touch the database for no records", func(t *testing.T) {
		store, mock := newMockStore(t)

		require.NoError(t, store.Upsert(context.Background(), domain.CollectionNotes, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_Replace(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "notewise_notes" WHERE 1=1 AND metadata ->> \$1 = \$2`).
		WithArgs(domain.MetaDocumentID, "A").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(`INSERT INTO "notewise_notes"`).
		WithArgs("A:0", pgxmock.AnyArg(), "fresh", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	removed, err := store.Replace(context.Background(), domain.CollectionNotes, domain.DocumentFilter("A"),
		[]domain.VectorRecord{record("A", 0, "fresh", 0, 1)})
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Query(t *testing.T) {
	t.Run("Should return ranked results with metadata", func(t *testing.T) {
		store, mock := newMockStore(t)

		rows := mock.NewRows([]string{"id", "document", "metadata", "score"}).
			AddRow("A:0", "alpha", []byte(`{"document_id":"A","owner_id":"u1"}`), 0.98).
			AddRow("A:1", "beta", []byte(`{"document_id":"A","owner_id":"u1"}`), 0.5)
		mock.ExpectQuery(`SELECT id, document, metadata, 1 - \(embedding <=> \$1\) AS score FROM "notewise_notes" `+
			`WHERE 1=1 AND metadata ->> \$2 = \$3 AND metadata ->> \$4 = \$5 ORDER BY (.+) LIMIT \$6`).
			WithArgs(pgxmock.AnyArg(), domain.MetaDocumentID, "A", domain.MetaOwnerID, "u1", 2).
			WillReturnRows(rows)

		filter := domain.Filter{domain.MetaDocumentID: "A", domain.MetaOwnerID: "u1"}
		results, err := store.Query(context.Background(), domain.CollectionNotes, []float32{1, 0}, 2, filter)
		require.NoError(t, err)

		require.Len(t, results, 2)
		assert.Equal(t, "alpha", results[0].Text)
		assert.Equal(t, "A", results[0].Metadata[domain.MetaDocumentID])
		assert.InDelta(t, 0.98, results[0].Score, 1e-9)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should reject wrong dimension", func(t *testing.T) {
		store, _ := newMockStore(t)

		_, err := store.Query(context.Background(), domain.CollectionNotes, []float32{1}, 2, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("Should map missing table to not found", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery("SELECT id").WillReturnError(&pgconn.PgError{Code: undefinedTable, Message: "relation missing"})

		_, err := store.Query(context.Background(), "missing", []float32{1, 0}, 2, nil)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Should redact connection failures", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery("SELECT id").WillReturnError(errors.New("dial tcp 10.0.0.5:5432: connection refused"))

		_, err := store.Query(context.Background(), domain.CollectionNotes, []float32{1, 0}, 2, nil)
		require.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.NotContains(t, err.Error(), "10.0.0.5")
	})
}

func TestStore_Delete(t *testing.T) {
	t.Run("Should reject empty filter", func(t *testing.T) {
		store, _ := newMockStore(t)

		_, err := store.Delete(context.Background(), domain.CollectionNotes, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("Should report removed rows", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(`DELETE FROM "notewise_notes"`).
			WithArgs(domain.MetaDocumentID, "A").
			WillReturnResult(pgxmock.NewResult("DELETE", 4))

		n, err := store.Delete(context.Background(), domain.CollectionNotes, domain.DocumentFilter("A"))
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})

	t.Run("Should treat a missing table as empty", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec("DELETE FROM").WillReturnError(&pgconn.PgError{Code: undefinedTable})

		n, err := store.Delete(context.Background(), "missing", domain.DocumentFilter("A"))
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestFilterClause_AbsentKey(t *testing.T) {
	where, args := filterClause(domain.Filter{"kind": ""}, 1)

	assert.Equal(t, "1=1 AND metadata ->> $1 IS NULL", where)
	assert.Equal(t, []any{"kind"}, args)
}

func TestStore_Backend(t *testing.T) {
	store, _ := newMockStore(t)
	assert.Equal(t, "pgvector", store.Backend())
}
