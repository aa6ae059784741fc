package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/notewise/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory implementation of driven.VectorIndex.
// Queries are brute-force cosine scans.
type VectorIndex struct {
	mu          sync.RWMutex
	collections map[string]map[string]domain.VectorRecord
}

// NewVectorIndex creates a new in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		collections: make(map[string]map[string]domain.VectorRecord),
	}
}

// EnsureCollection creates the collection if absent.
func (v *VectorIndex) EnsureCollection(_ context.Context, collection string) error {
	if collection == "" {
		return fmt.Errorf("%w: collection name required", domain.ErrInvalidInput)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.collections[collection]; !ok {
		v.collections[collection] = make(map[string]domain.VectorRecord)
	}
	return nil
}

// Upsert writes all records, overwriting existing ids.
func (v *VectorIndex) Upsert(ctx context.Context, collection string, records []domain.VectorRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	coll, err := v.collection(collection)
	if err != nil {
		return err
	}
	for i := range records {
		coll[records[i].ID] = cloneRecord(records[i])
	}
	return nil
}

// Replace removes records matching filter and writes records under one lock.
func (v *VectorIndex) Replace(
	ctx context.Context, collection string, filter domain.Filter, records []domain.VectorRecord,
) (int, error) {
	if len(filter) == 0 {
		return 0, fmt.Errorf("%w: replace requires a filter", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	coll, err := v.collection(collection)
	if err != nil {
		return 0, err
	}
	removed := deleteMatching(coll, filter)
	for i := range records {
		coll[records[i].ID] = cloneRecord(records[i])
	}
	return removed, nil
}

// Query returns up to topK records matching filter, nearest first.
func (v *VectorIndex) Query(
	ctx context.Context, collection string, vector []float32, topK int, filter domain.Filter,
) ([]domain.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	coll, err := v.collection(collection)
	if err != nil {
		return nil, err
	}

	results := make([]domain.QueryResult, 0, len(coll))
	for _, rec := range coll {
		if !filter.Matches(rec.Metadata) {
			continue
		}
		results = append(results, domain.QueryResult{
			ID:       rec.ID,
			Text:     rec.Text,
			Metadata: copyMetadata(rec.Metadata),
			Score:    vecmath.Cosine(vector, rec.Embedding),
		})
	}
	return vecmath.Rank(results, topK), nil
}

// Delete removes records matching filter.
func (v *VectorIndex) Delete(ctx context.Context, collection string, filter domain.Filter) (int, error) {
	if len(filter) == 0 {
		return 0, fmt.Errorf("%w: delete requires a filter", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	coll, ok := v.collections[collection]
	if !ok {
		return 0, nil
	}
	return deleteMatching(coll, filter), nil
}

// Backend returns "memory".
func (v *VectorIndex) Backend() string {
	return string(domain.StoreBackendMemory)
}

// Close is a no-op.
func (v *VectorIndex) Close() error {
	return nil
}

// Len returns the number of records in a collection.
func (v *VectorIndex) Len(collection string) int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.collections[collection])
}

// collection returns the named collection. Caller holds the lock.
func (v *VectorIndex) collection(name string) (map[string]domain.VectorRecord, error) {
	coll, ok := v.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: collection %q", domain.ErrNotFound, name)
	}
	return coll, nil
}

func deleteMatching(coll map[string]domain.VectorRecord, filter domain.Filter) int {
	removed := 0
	for id, rec := range coll {
		if filter.Matches(rec.Metadata) {
			delete(coll, id)
			removed++
		}
	}
	return removed
}

func cloneRecord(rec domain.VectorRecord) domain.VectorRecord {
	out := rec
	out.Metadata = copyMetadata(rec.Metadata)
	out.Embedding = append([]float32(nil), rec.Embedding...)
	return out
}

func copyMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
