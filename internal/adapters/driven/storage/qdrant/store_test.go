package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notewise/internal/core/domain"
)

// fakeQdrant implements just enough of the Qdrant REST API for the adapter.
type fakeQdrant struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	apiKey      string
	seenKey     string
	failUpserts bool
}

func newFakeQdrant(t *testing.T) (*fakeQdrant, *httptest.Server) {
	t.Helper()
	f := &fakeQdrant{collections: make(map[string]map[string]map[string]any)}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeQdrant) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seenKey = r.Header.Get("api-key")

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "collections" {
		http.NotFound(w, r)
		return
	}
	name := parts[1]
	points, ok := f.collections[name]

	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	switch {
	case len(parts) == 3 && parts[2] == "exists":
		writeJSON(w, http.StatusOK, map[string]any{"result": map[string]any{"exists": ok}})
	case len(parts) == 2 && r.Method == http.MethodPut:
		if ok {
			writeJSON(w, http.StatusConflict, map[string]any{"status": map[string]any{"error": "exists"}})
			return
		}
		f.collections[name] = make(map[string]map[string]any)
		writeJSON(w, http.StatusOK, map[string]any{"result": true})
	case !ok:
		writeJSON(w, http.StatusNotFound, map[string]any{
			"status": map[string]any{"error": "Collection `" + name + "` doesn't exist!"},
		})
	case len(parts) == 3 && parts[2] == "points" && r.Method == http.MethodPut:
		if f.failUpserts {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": map[string]any{"error": "down"}})
			return
		}
		for _, p := range body["points"].([]any) {
			point := p.(map[string]any)
			points[point["id"].(string)] = point
		}
		writeJSON(w, http.StatusOK, map[string]any{"result": map[string]any{"status": "completed"}})
	case len(parts) == 4 && parts[3] == "search":
		var hits []map[string]any
		for id, point := range points {
			if matches(body["filter"], id, point["payload"].(map[string]any)) {
				hits = append(hits, map[string]any{"id": id, "score": 0.5, "payload": point["payload"]})
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"result": hits})
	case len(parts) == 4 && parts[3] == "count":
		n := 0
		for id, point := range points {
			if matches(body["filter"], id, point["payload"].(map[string]any)) {
				n++
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"result": map[string]any{"count": n}})
	case len(parts) == 4 && parts[3] == "delete":
		for id, point := range points {
			if matches(body["filter"], id, point["payload"].(map[string]any)) {
				delete(points, id)
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"result": map[string]any{"status": "completed"}})
	default:
		http.NotFound(w, r)
	}
}

func matches(filter any, id string, payload map[string]any) bool {
	f, ok := filter.(map[string]any)
	if !ok {
		return true
	}
	if not, ok := f["must_not"].([]any); ok {
		for _, c := range not {
			for _, keep := range c.(map[string]any)["has_id"].([]any) {
				if keep == id {
					return false
				}
			}
		}
	}
	for _, c := range f["must"].([]any) {
		cond := c.(map[string]any)
		if empty, ok := cond["is_empty"].(map[string]any); ok {
			if _, present := payload[empty["key"].(string)]; present {
				return false
			}
			continue
		}
		want := cond["match"].(map[string]any)["value"]
		if payload[cond["key"].(string)] != want {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func record(doc string, index int, text string) domain.VectorRecord {
	return domain.VectorRecord{
		ChunkRecord: domain.NewChunkRecord("u1", doc, index, text),
		Embedding:   []float32{1, 0},
	}
}

func TestNew_InvalidConfiguration(t *testing.T) {
	_, err := New("http://localhost:6333", "", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = New("not a url", "", 2)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestStore_RoundTrip(t *testing.T) {
	fake, srv := newFakeQdrant(t)
	store, err := New(srv.URL, "secret", 2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, domain.CollectionNotes))
	require.NoError(t, store.EnsureCollection(ctx, domain.CollectionNotes))
	assert.Equal(t, "secret", fake.seenKey)

	require.NoError(t, store.Upsert(ctx, domain.CollectionNotes, []domain.VectorRecord{
		record("A", 0, "alpha"),
		record("B", 0, "beta"),
	}))

	results, err := store.Query(ctx, domain.CollectionNotes, []float32{1, 0}, 5, domain.DocumentFilter("A"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "A:0", results[0].ID)
	assert.Equal(t, "alpha", results[0].Text)
	assert.Equal(t, "A", results[0].Metadata[domain.MetaDocumentID])
	assert.NotContains(t, results[0].Metadata, payloadText)
}

func TestStore_Replace(t *testing.T) {
	_, srv := newFakeQdrant(t)
	store, err := New(srv.URL, "", 2)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx, domain.CollectionNotes))
	require.NoError(t, store.Upsert(ctx, domain.CollectionNotes, []domain.VectorRecord{
		record("A", 0, "a0"),
		record("A", 1, "a1"),
	}))

	removed, err := store.Replace(ctx, domain.CollectionNotes, domain.DocumentFilter("A"),
		[]domain.VectorRecord{record("A", 0, "fresh")})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	results, err := store.Query(ctx, domain.CollectionNotes, []float32{1, 0}, 5, domain.DocumentFilter("A"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fresh", results[0].Text)
}

func TestStore_ReplaceKeepsRecordsWhenWriteFails(t *testing.T) {
	fake, srv := newFakeQdrant(t)
	store, err := New(srv.URL, "", 2)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx, domain.CollectionNotes))
	require.NoError(t, store.Upsert(ctx, domain.CollectionNotes, []domain.VectorRecord{
		record("A", 0, "a0"),
		record("A", 1, "a1"),
	}))

	fake.mu.Lock()
	fake.failUpserts = true
	fake.mu.Unlock()

	_, err = store.Replace(ctx, domain.CollectionNotes, domain.DocumentFilter("A"),
		[]domain.VectorRecord{record("A", 0, "fresh")})
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)

	results, err := store.Query(ctx, domain.CollectionNotes, []float32{1, 0}, 5, domain.DocumentFilter("A"))
	require.NoError(t, err)
	require.Len(t, results, 2)
	texts := []string{results[0].Text, results[1].Text}
	assert.ElementsMatch(t, []string{"a0", "a1"}, texts)
}

func TestStore_ReplaceLeavesOtherDocuments(t *testing.T) {
	_, srv := newFakeQdrant(t)
	store, err := New(srv.URL, "", 2)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx, domain.CollectionNotes))
	require.NoError(t, store.Upsert(ctx, domain.CollectionNotes, []domain.VectorRecord{
		record("A", 0, "a0"),
		record("B", 0, "b0"),
	}))

	removed, err := store.Replace(ctx, domain.CollectionNotes, domain.DocumentFilter("A"), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	results, err := store.Query(ctx, domain.CollectionNotes, []float32{1, 0}, 5, domain.DocumentFilter("B"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b0", results[0].Text)

	results, err = store.Query(ctx, domain.CollectionNotes, []float32{1, 0}, 5, domain.DocumentFilter("A"))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStore_Errors(t *testing.T) {
	_, srv := newFakeQdrant(t)
	store, err := New(srv.URL, "", 2)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("unknown collection", func(t *testing.T) {
		_, err := store.Query(ctx, "missing", []float32{1, 0}, 2, nil)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete on unknown collection", func(t *testing.T) {
		n, err := store.Delete(ctx, "missing", domain.DocumentFilter("A"))
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("empty delete filter", func(t *testing.T) {
		_, err := store.Delete(ctx, domain.CollectionNotes, domain.Filter{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := store.Query(ctx, domain.CollectionNotes, []float32{1}, 2, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestStore_UnreachableServerIsRedacted(t *testing.T) {
	store, err := New("http://127.0.0.1:1", "", 2)
	require.NoError(t, err)

	err = store.EnsureCollection(context.Background(), domain.CollectionNotes)
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.NotContains(t, err.Error(), "127.0.0.1")
}

func TestPointID_Stable(t *testing.T) {
	assert.Equal(t, pointID("notes", "A:0"), pointID("notes", "A:0"))
	assert.NotEqual(t, pointID("notes", "A:0"), pointID("chat_history", "A:0"))
}
