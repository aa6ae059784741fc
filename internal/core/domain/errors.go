package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a document type no normaliser can read.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrInvalidConfiguration indicates bad chunking or service parameters.
	// It is a caller bug and must not be retried.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrEmbeddingFailed indicates the embedding provider could not produce a vector.
	// Callers may retry with backoff; the pipeline never retries on its own.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrStoreUnavailable indicates the vector or history store could not be reached.
	// Callers may retry with backoff.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrSynthesisParse indicates the language model returned unparseable output.
	// It is logged and replaced by a degraded result, never returned to callers.
	ErrSynthesisParse = errors.New("synthesis parse failure")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Summarisation and chat are disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Ingestion and retrieval are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// ErrorClass groups errors by how a caller should react to them.
type ErrorClass string

const (
	// ErrorClassConfiguration errors need a configuration or input fix.
	ErrorClassConfiguration ErrorClass = "configuration"

	// ErrorClassTransient errors may succeed when retried.
	ErrorClassTransient ErrorClass = "transient"

	// ErrorClassInternal covers everything else.
	ErrorClassInternal ErrorClass = "internal"
)

// Classify maps an error onto the class a caller uses for retry decisions.
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidConfiguration),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrUnsupportedType),
		errors.Is(err, ErrLLMUnavailable),
		errors.Is(err, ErrEmbeddingUnavailable):
		return ErrorClassConfiguration
	case errors.Is(err, ErrEmbeddingFailed), errors.Is(err, ErrStoreUnavailable):
		return ErrorClassTransient
	default:
		return ErrorClassInternal
	}
}

// IsRetryable reports whether a caller may retry the failed operation.
func IsRetryable(err error) bool {
	return Classify(err) == ErrorClassTransient
}

// PublicMessage returns a generic failure message that distinguishes the
// error class without exposing storage endpoints or provider responses.
func PublicMessage(err error) string {
	switch Classify(err) {
	case ErrorClassConfiguration:
		return "request rejected: invalid configuration or input"
	case ErrorClassTransient:
		if errors.Is(err, ErrEmbeddingFailed) {
			return "temporarily unable to embed document, try again"
		}
		return "temporarily unable to reach document store, try again"
	case ErrorClassInternal:
		return "internal error"
	default:
		return ""
	}
}
