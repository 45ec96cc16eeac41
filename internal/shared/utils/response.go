// Package utils provides HTTP response helpers shared by the gin handlers.
package utils

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stagewatch/internal/shared/errors"
)

// APIResponse is the envelope every endpoint returns.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorInfo carries the error taxonomy out to the caller.
type ErrorInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse sends a successful response with custom status code.
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// ErrorResponse sends an error response with custom status code and message.
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error:   &ErrorInfo{Type: "error", Message: message},
	})
}

// ErrorResponseWithError maps an application error onto an HTTP status.
// Non-AppError causes stay opaque so internals do not leak.
func ErrorResponseWithError(c *gin.Context, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		ErrorResponse(c, http.StatusInternalServerError, "internal server error")
		return
	}

	c.JSON(statusFor(appErr.Type), APIResponse{
		Success: false,
		Error: &ErrorInfo{
			Type:    string(appErr.Type),
			Message: appErr.Message,
			Details: appErr.Details,
		},
	})
}

func statusFor(t errors.ErrorType) int {
	switch t {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	case errors.ErrorTypeConflict, errors.ErrorTypePersistenceConflict:
		return http.StatusConflict
	case errors.ErrorTypeTransientSource:
		return http.StatusServiceUnavailable
	case errors.ErrorTypePermanentSource, errors.ErrorTypeResolutionAmbiguous:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NoContentResponse sends a no content response.
func NoContentResponse(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
