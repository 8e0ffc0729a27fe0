// Package common defines shared sentinel errors and small helpers used across
// Mink components. Callers should use errors.Is to match the sentinel values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Rejected before any cryptographic or storage work.
	ErrValidation = errors.New("validation failed")

	// State conflicts: duplicate username/email, circular folder parent.
	ErrConflict = errors.New("conflict")

	// Auth failures (bad credentials, bad token, inactive account).
	ErrUnauthorized = errors.New("unauthorized")

	// Admin-only operation attempted by a regular user.
	ErrForbidden = errors.New("forbidden")

	// Generic internal flow control.
	ErrInternal = errors.New("internal error")
)

// TransactionError reports a failed multi-row atomic operation. The wrapped
// error explains the cause; no partial writes were persisted.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s failed: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }
