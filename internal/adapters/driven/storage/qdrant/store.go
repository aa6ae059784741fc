// Package qdrant provides a driven.VectorIndex backed by a Qdrant server
// over its REST API.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/custodia-labs/notewise/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorIndex = (*Store)(nil)

// Payload fields reserved by this adapter.
const (
	payloadText     = "text"
	payloadRecordID = "record_id"
)

const defaultTimeout = 10 * time.Second

// Store is a Qdrant-backed vector index.
type Store struct {
	client    *resty.Client
	dimension int
}

// New creates a store for the server at baseURL. The URL and API key never
// appear in returned errors.
func New(baseURL, apiKey string, dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: qdrant requires store.dimensions", domain.ErrInvalidConfiguration)
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("%w: invalid qdrant url", domain.ErrInvalidConfiguration)
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetHeader("api-key", apiKey)
	}
	return &Store{client: client, dimension: dimension}, nil
}

// pointID maps a record id onto the UUID space Qdrant accepts.
func pointID(collection, recordID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(collection+"/"+recordID)).String()
}

type apiError struct {
	Status struct {
		Error string `json:"error"`
	} `json:"status"`
}

type searchHit struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// EnsureCollection creates the collection with cosine distance if absent.
func (s *Store) EnsureCollection(ctx context.Context, collection string) error {
	if collection == "" {
		return fmt.Errorf("%w: collection name required", domain.ErrInvalidInput)
	}
	var exists struct {
		Result struct {
			Exists bool `json:"exists"`
		} `json:"result"`
	}
	if err := s.do(ctx, "ensure collection", http.MethodGet, "/collections/"+collection+"/exists", nil, &exists); err != nil {
		return err
	}
	if exists.Result.Exists {
		return nil
	}
	body := map[string]any{
		"vectors": map[string]any{"size": s.dimension, "distance": "Cosine"},
	}
	err := s.do(ctx, "ensure collection", http.MethodPut, "/collections/"+collection, body, nil)
	if errors.Is(err, errConflict) {
		return nil
	}
	return err
}

// Upsert writes all records in one request.
func (s *Store) Upsert(ctx context.Context, collection string, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]map[string]any, 0, len(records))
	for i := range records {
		rec := &records[i]
		if len(rec.Embedding) != s.dimension {
			return fmt.Errorf("%w: record %q dimension %d, want %d",
				domain.ErrInvalidInput, rec.ID, len(rec.Embedding), s.dimension)
		}
		payload := make(map[string]any, len(rec.Metadata)+2)
		for k, v := range rec.Metadata {
			payload[k] = v
		}
		payload[payloadText] = rec.Text
		payload[payloadRecordID] = rec.ID
		points = append(points, map[string]any{
			"id":      pointID(collection, rec.ID),
			"vector":  rec.Embedding,
			"payload": payload,
		})
	}
	path := "/collections/" + collection + "/points?wait=true"
	return s.do(ctx, "upsert", http.MethodPut, path, map[string]any{"points": points}, nil)
}

// Replace writes records first, then deletes the records matching filter
// that the write did not overwrite. Qdrant has no multi-operation
// transactions: a failed write leaves the previous records untouched, and a
// failed cleanup leaves stale records beside the new ones, never none.
func (s *Store) Replace(
	ctx context.Context, collection string, filter domain.Filter, records []domain.VectorRecord,
) (int, error) {
	if len(filter) == 0 {
		return 0, fmt.Errorf("%w: replace requires a filter", domain.ErrInvalidInput)
	}
	existing, err := s.count(ctx, "replace", collection, filter)
	if err != nil {
		return 0, err
	}
	if err := s.Upsert(ctx, collection, records); err != nil {
		return 0, err
	}
	if existing == 0 {
		return 0, nil
	}

	stale := buildFilter(filter)
	if len(records) > 0 {
		keep := make([]string, 0, len(records))
		for i := range records {
			keep = append(keep, pointID(collection, records[i].ID))
		}
		stale["must_not"] = []any{map[string]any{"has_id": keep}}
	}
	err = s.do(ctx, "replace", http.MethodPost, "/collections/"+collection+"/points/delete?wait=true",
		map[string]any{"filter": stale}, nil)
	if err != nil {
		return 0, err
	}
	return existing, nil
}

// Query searches the collection with a payload filter.
func (s *Store) Query(
	ctx context.Context, collection string, vector []float32, topK int, filter domain.Filter,
) ([]domain.QueryResult, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query dimension %d, want %d", domain.ErrInvalidInput, len(vector), s.dimension)
	}
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	request := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	if f := buildFilter(filter); f != nil {
		request["filter"] = f
	}
	var response struct {
		Result []searchHit `json:"result"`
	}
	if err := s.do(ctx, "query", http.MethodPost, "/collections/"+collection+"/points/search", request, &response); err != nil {
		return nil, err
	}

	results := make([]domain.QueryResult, 0, len(response.Result))
	for _, hit := range response.Result {
		results = append(results, toResult(hit))
	}
	return vecmath.Rank(results, topK), nil
}

// Delete counts then removes records matching filter.
func (s *Store) Delete(ctx context.Context, collection string, filter domain.Filter) (int, error) {
	if len(filter) == 0 {
		return 0, fmt.Errorf("%w: delete requires a filter", domain.ErrInvalidInput)
	}
	n, err := s.count(ctx, "delete", collection, filter)
	if err != nil || n == 0 {
		return 0, err
	}
	err = s.do(ctx, "delete", http.MethodPost, "/collections/"+collection+"/points/delete?wait=true",
		map[string]any{"filter": buildFilter(filter)}, nil)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// count returns how many records match filter. An unknown collection has none.
func (s *Store) count(ctx context.Context, op, collection string, filter domain.Filter) (int, error) {
	var count struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := s.do(ctx, op, http.MethodPost, "/collections/"+collection+"/points/count",
		map[string]any{"filter": buildFilter(filter), "exact": true}, &count)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count.Result.Count, nil
}

// Backend returns "qdrant".
func (s *Store) Backend() string {
	return string(domain.StoreBackendQdrant)
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (s *Store) Close() error {
	return nil
}

var errConflict = errors.New("qdrant: conflict")

func (s *Store) do(ctx context.Context, op, method, path string, body, out any) error {
	req := s.client.R().SetContext(ctx).SetError(&apiError{})
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// Transport errors embed the URL; report only the operation.
		return fmt.Errorf("%w: qdrant %s: request failed", domain.ErrStoreUnavailable, op)
	}
	if !resp.IsError() {
		return nil
	}

	msg := http.StatusText(resp.StatusCode())
	if apiErr, ok := resp.Error().(*apiError); ok && apiErr.Status.Error != "" {
		msg = apiErr.Status.Error
	}
	switch resp.StatusCode() {
	case http.StatusNotFound:
		return fmt.Errorf("%w: qdrant %s: %s", domain.ErrNotFound, op, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", errConflict, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: qdrant %s: %s", domain.ErrInvalidInput, op, msg)
	default:
		return fmt.Errorf("%w: qdrant %s: %s (%d)", domain.ErrStoreUnavailable, op, msg, resp.StatusCode())
	}
}

// buildFilter translates a metadata filter into Qdrant's must clause.
func buildFilter(filter domain.Filter) map[string]any {
	if len(filter) == 0 {
		return nil
	}
	must := make([]any, 0, len(filter))
	for key, val := range filter {
		if val == "" {
			must = append(must, map[string]any{"is_empty": map[string]any{"key": key}})
			continue
		}
		must = append(must, map[string]any{
			"key":   key,
			"match": map[string]any{"value": val},
		})
	}
	return map[string]any{"must": must}
}

func toResult(hit searchHit) domain.QueryResult {
	result := domain.QueryResult{
		ID:       fmt.Sprint(hit.ID),
		Score:    hit.Score,
		Metadata: make(map[string]string, len(hit.Payload)),
	}
	for k, v := range hit.Payload {
		str, ok := v.(string)
		if !ok {
			str = fmt.Sprint(v)
		}
		switch k {
		case payloadText:
			result.Text = str
		case payloadRecordID:
			result.ID = str
		default:
			result.Metadata[k] = str
		}
	}
	return result
}
