// Package storage selects the vector index and history store implementations
// named in the application settings.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/notewise/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/notewise/internal/adapters/driven/storage/pgvector"
	"github.com/custodia-labs/notewise/internal/adapters/driven/storage/qdrant"
	"github.com/custodia-labs/notewise/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/notewise/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
)

// Backends holds the opened storage adapters.
type Backends struct {
	Index   driven.VectorIndex
	History driven.HistoryStore
}

// Close releases both adapters.
func (b *Backends) Close() error {
	var errs []error
	if b.Index != nil {
		errs = append(errs, b.Index.Close())
	}
	if b.History != nil {
		errs = append(errs, b.History.Close())
	}
	return errors.Join(errs...)
}

// Open creates the configured backends. dataDir is used by the sqlite
// backend; empty means the default location. Index and history share one
// database when both use sqlite.
func Open(ctx context.Context, store domain.StoreSettings, history domain.HistorySettings, dataDir string) (*Backends, error) {
	var db *sqlite.Store
	openSQLite := func() (*sqlite.Store, error) {
		if db != nil {
			return db, nil
		}
		s, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, err
		}
		db = s
		return db, nil
	}

	index, err := openIndex(ctx, store, openSQLite)
	if err != nil {
		return nil, err
	}
	hist, err := openHistory(history, openSQLite)
	if err != nil {
		_ = index.Close()
		return nil, err
	}
	return &Backends{Index: index, History: hist}, nil
}

func openIndex(
	ctx context.Context, settings domain.StoreSettings, openSQLite func() (*sqlite.Store, error),
) (driven.VectorIndex, error) {
	switch settings.Backend {
	case domain.StoreBackendMemory:
		return memory.NewVectorIndex(), nil
	case domain.StoreBackendSQLite, "":
		s, err := openSQLite()
		if err != nil {
			return nil, err
		}
		return s.VectorIndex(), nil
	case domain.StoreBackendPGVector:
		if settings.DSN == "" {
			return nil, fmt.Errorf("%w: pgvector requires store.dsn", domain.ErrInvalidConfiguration)
		}
		return pgvector.New(ctx, settings.DSN, settings.Dimensions)
	case domain.StoreBackendQdrant:
		return qdrant.New(settings.URL(), settings.APIKey, settings.Dimensions)
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidConfiguration, settings.Backend)
	}
}

func openHistory(
	settings domain.HistorySettings, openSQLite func() (*sqlite.Store, error),
) (driven.HistoryStore, error) {
	switch settings.Backend {
	case domain.HistoryBackendMemory, "":
		return memory.NewHistoryStore(), nil
	case domain.HistoryBackendSQLite:
		s, err := openSQLite()
		if err != nil {
			return nil, err
		}
		return s.HistoryStore(), nil
	case domain.HistoryBackendRedis:
		if settings.RedisAddr == "" {
			return nil, fmt.Errorf("%w: redis history requires history.redis_addr", domain.ErrInvalidConfiguration)
		}
		return redis.New(settings.RedisAddr), nil
	default:
		return nil, fmt.Errorf("%w: unknown history backend %q", domain.ErrInvalidConfiguration, settings.Backend)
	}
}
