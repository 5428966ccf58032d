package storage

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("object not found")
	ErrKeyExists    = errors.New("object already exists")
	ErrInvalidKey   = errors.New("invalid storage key") // empty, absolute or escaping the base path
	ErrTooLarge     = errors.New("object exceeds maximum size")
	ErrAccessDenied = errors.New("access denied")
)

// StorageError ties a backend failure to the call and artifact key.
type StorageError struct {
	Op  string // Put, Get, Delete, URL or Exists
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsPermanent reports whether retrying the same call cannot succeed. Artifact
// jobs fail immediately on these instead of burning their attempts.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrInvalidKey) ||
		errors.Is(err, ErrTooLarge) ||
		errors.Is(err, ErrAccessDenied)
}
