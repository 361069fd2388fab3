// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// ErrSchema indicates malformed input or missing required columns.
	ErrSchema = errors.New("schema error")
	// ErrModelNotFound indicates inference was attempted before any model was trained.
	ErrModelNotFound = errors.New("model not found")
	// ErrLoad indicates an encoder or artifact could not be initialized.
	ErrLoad = errors.New("load error")
	// ErrDimensionMismatch indicates stored embeddings and the classifier
	// disagree on vector length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrRetrainInProgress indicates another retraining run holds the lock.
	ErrRetrainInProgress = errors.New("retraining already in progress")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
