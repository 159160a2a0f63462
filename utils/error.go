package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error codes surfaced to callers of booking and availability operations.
const (
	CodeNotFound            = "NOT_FOUND"
	CodeForbidden           = "FORBIDDEN"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeSlotConflict        = "SLOT_CONFLICT"
	CodeValidation          = "VALIDATION_ERROR"
	CodeProvisioningFailure = "PROVISIONING_FAILURE"
)

// AppError is a coded domain error. Two AppErrors match under errors.Is when their codes match.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

var (
	ErrNotFound            = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrForbidden           = &AppError{Code: CodeForbidden, Message: "forbidden"}
	ErrInvalidTransition   = &AppError{Code: CodeInvalidTransition, Message: "invalid transition"}
	ErrSlotConflict        = &AppError{Code: CodeSlotConflict, Message: "slot unavailable"}
	ErrValidation          = &AppError{Code: CodeValidation, Message: "validation failed"}
	ErrProvisioningFailure = &AppError{Code: CodeProvisioningFailure, Message: "meeting provisioning failed"}
)

func NewNotFound(format string, args ...any) error {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewForbidden(format string, args ...any) error {
	return &AppError{Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidTransition(format string, args ...any) error {
	return &AppError{Code: CodeInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func NewSlotConflict(format string, args ...any) error {
	return &AppError{Code: CodeSlotConflict, Message: fmt.Sprintf(format, args...)}
}

func NewValidation(format string, args ...any) error {
	return &AppError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func NewProvisioningFailure(err error) error {
	return &AppError{Code: CodeProvisioningFailure, Message: "meeting provisioning failed", Err: err}
}

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	case CodeInvalidTransition, CodeSlotConflict:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeProvisioningFailure:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("Unhandled panic", zap.Any("error", err))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// RespondError writes err as JSON with the status of its code. Unknown errors are logged and hidden.
func RespondError(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(StatusFor(err), ErrorResponse{Code: appErr.Code, Message: appErr.Message})
		return
	}
	GetLogger().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal Server Error"})
}
