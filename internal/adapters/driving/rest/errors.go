package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/logger"
)

// Error codes returned in the response body.
const (
	ErrBadRequestCode         = "BAD_REQUEST"
	ErrUnsupportedTypeCode    = "UNSUPPORTED_MEDIA_TYPE"
	ErrTooLargeCode           = "PAYLOAD_TOO_LARGE"
	ErrServiceUnavailableCode = "SERVICE_UNAVAILABLE"
	ErrInternalCode           = "INTERNAL_ERROR"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError maps a service error onto a status and a message that never
// carries store endpoints or provider responses.
func respondError(c *gin.Context, err error) {
	status, code, message := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	} else {
		logger.Debug("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Code: code, Message: message})
}

func classify(err error) (status int, code, message string) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, ErrTooLargeCode, "upload is too large"
	case errors.Is(err, domain.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, ErrUnsupportedTypeCode, err.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrBadRequestCode, err.Error()
	case errors.Is(err, domain.ErrLLMUnavailable), errors.Is(err, domain.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable, ErrServiceUnavailableCode, domain.PublicMessage(err)
	case domain.IsRetryable(err):
		return http.StatusServiceUnavailable, ErrServiceUnavailableCode, domain.PublicMessage(err)
	default:
		return http.StatusInternalServerError, ErrInternalCode, "internal error"
	}
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Code: ErrBadRequestCode, Message: message})
}
