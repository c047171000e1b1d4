package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"codedesk/internal/types"
)

// ErrorResponse is the stable error envelope every failing route returns.
// Callers never see a raw stack trace.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Agent     string `json:"agent,omitempty"`
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(code types.ErrorCode) int {
	switch code {
	case types.ErrCodeInvalidRequest, types.ErrCodeUnknownWorkflow, types.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case types.ErrCodeNotFound:
		return http.StatusNotFound
	case types.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case types.ErrCodeModelNotAvailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the structured error envelope for any engine error.
func respondError(c *gin.Context, err error) {
	var ce *types.CodedError
	if errors.As(err, &ce) {
		c.JSON(statusFor(ce.Code), ErrorResponse{
			Code:      string(ce.Code),
			Message:   ce.Message,
			RequestID: ce.RequestID,
			Agent:     string(ce.Agent),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Code:    string(types.ErrCodeInternal),
		Message: err.Error(),
	})
}

// respondBadRequest is for transport-level validation failures before the
// engine is involved.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    string(types.ErrCodeInvalidRequest),
		Message: message,
	})
}
