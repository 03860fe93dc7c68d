package repository

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthenticated is returned when no current principal can be resolved.
	ErrUnauthenticated = errors.New("unauthenticated: no current principal")

	// ErrNotFound is returned by lookups that intentionally do not fall back
	// to creating a default document.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports required fields that were blank before a write.
// No store call is made when validation fails.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: missing " + strings.Join(e.Fields, ", ")
}

// StoreError wraps an underlying document-store failure. Repositories never
// retry; retry policy belongs to the caller.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
