package worker

import (
	"context"
	"encoding/json"
	"errors"
)

// JobHandler executes one job type.
type JobHandler interface {
	// Type returns the job type identifier. It must match the job_type
	// stored with the job.
	Type() string

	// Handle runs the job. The returned result is stored with the completed
	// job and shown by the job status endpoint. Wrap the error with
	// NewPermanentError when retrying cannot help.
	Handle(ctx context.Context, payload []byte) (json.RawMessage, error)
}

// PermanentError marks a job failure that must not be retried.
type PermanentError struct {
	Err error
}

// Error implements the error interface.
func (e *PermanentError) Error() string {
	return e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to work with PermanentError.
func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewPermanentError wraps err as a PermanentError.
func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err wraps a PermanentError.
func IsPermanent(err error) bool {
	var permErr *PermanentError
	return errors.As(err, &permErr)
}
