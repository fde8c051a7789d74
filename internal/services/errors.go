package services

import (
	"errors"
	"fmt"

	"github.com/stockkeep/apiserver/internal/store"
)

var (
	// ErrNotFound covers both missing records and records owned by someone else.
	ErrNotFound = store.ErrNotFound
	// ErrDuplicateEmail is returned when registering an email that is taken.
	ErrDuplicateEmail = store.ErrDuplicateEmail

	// ErrInvalidCredentials does not say which of email or password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// ValidationError reports malformed or missing client input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalidf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
