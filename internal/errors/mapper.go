// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// codedError carries an HTTP status alongside a user-facing message.
type codedError struct {
	status int
	msg    string
}

func (e *codedError) Error() string { return e.msg }

// Map converts repo/infra errors into an HTTP status + message pair.
// Keeps the service layer clean by centralizing error mapping.
func Map(err error) (int, string) {
	var coded *codedError
	switch {
	case err == nil:
		return http.StatusOK, ""

	case errors.As(err, &coded):
		return coded.status, coded.msg

	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "record not found"

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"

	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "request was canceled"

	default:
		// fallback → bubble up error message for debugging
		return http.StatusInternalServerError, err.Error()
	}
}

// JSON writes the mapped error to the response as {"error": msg}.
func JSON(c *gin.Context, err error) {
	status, msg := Map(err)
	c.JSON(status, gin.H{"error": msg})
}

// InvalidArgument creates a 400 error.
// Use this in the service layer for bad input validation.
func InvalidArgument(msg string) error {
	return &codedError{status: http.StatusBadRequest, msg: msg}
}

// NotFound creates a 404 error.
func NotFound(msg string) error {
	return &codedError{status: http.StatusNotFound, msg: msg}
}
