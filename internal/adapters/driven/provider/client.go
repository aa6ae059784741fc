// Package provider holds the HTTP plumbing shared by the embedding and LLM
// adapters: a resty client with retry on transient statuses, and response
// checks that keep endpoints and credentials out of returned errors.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Retry settings for transient provider failures.
const (
	RetryCount       = 2
	RetryWaitTime    = 200 * time.Millisecond
	RetryMaxWaitTime = 2 * time.Second
)

// maxMessageLen bounds the provider message copied into errors.
const maxMessageLen = 200

// StatusError is a non-2xx provider response.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: API returned status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: API returned status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Temporary reports whether the status may clear on retry.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode >= http.StatusInternalServerError
}

// NewClient returns a JSON client for baseURL that retries network errors
// and transient statuses.
func NewClient(baseURL string, timeout time.Duration) *resty.Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(RetryCount).
		SetRetryWaitTime(RetryWaitTime).
		SetRetryMaxWaitTime(RetryMaxWaitTime)
	client.AddRetryCondition(retryCondition)
	return client
}

func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return !isContextError(err)
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}

// Check turns a resty result into an error. Transport errors lose their
// URL; status errors carry the provider's own message, truncated.
func Check(name string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", name, Redact(err))
	}
	if resp == nil {
		return fmt.Errorf("%s: no response", name)
	}
	if resp.IsError() || resp.StatusCode() >= 300 {
		return &StatusError{
			Provider:   name,
			StatusCode: resp.StatusCode(),
			Message:    errorMessage(resp.Body()),
		}
	}
	return nil
}

// Redact strips the request URL, which may carry an API key, from err.
func Redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// errorMessage extracts the message from the error envelopes used by
// OpenAI, Anthropic and Ollama.
func errorMessage(body []byte) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &nested) == nil && nested.Error.Message != "" {
		return truncate(nested.Error.Message)
	}
	var flat struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &flat) == nil && flat.Error != "" {
		return truncate(flat.Error)
	}
	return truncate(strings.TrimSpace(string(body)))
}

func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	return s[:maxMessageLen] + "..."
}

// ToFloat32 narrows a decoded JSON vector.
func ToFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
