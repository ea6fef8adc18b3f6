// Package errx carries infrastructure errors together with the HTTP status
// the API should answer with.
package errx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
)

const (
	SystemErrorMessage   = "internal server error"
	RedisErrorMessage    = "redis operation failed"
	RedisNotFoundMessage = "redis key not found"
	DatabaseErrorMessage = "database operation failed"
)

// AppError wraps an underlying error with an HTTP status and a message that is
// safe to show to clients.
type AppError struct {
	Err     error
	Status  int
	Message string
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError.
func New(err error, status int, message string) *AppError {
	return &AppError{Err: err, Status: status, Message: message}
}

// WrapRedis maps a Redis failure to an AppError. A missing key becomes 404,
// everything else 502.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}
	return New(err, http.StatusBadGateway, RedisErrorMessage)
}

// WrapDatabase marks err as a storage failure.
func WrapDatabase(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusInternalServerError, DatabaseErrorMessage)
}

// Status returns the HTTP status carried by err, or fallback when err is not
// an AppError.
func Status(err error, fallback int) (int, string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Message
	}
	return fallback, SystemErrorMessage
}
