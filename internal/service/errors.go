package service

import (
	"errors"
	"fmt"
)

// The archive pipeline reports typed failures so the HTTP layer can map them
// 1:1 to status codes; transport errors never escape bare.

var (
	// ErrNotFound covers both a missing record and a record owned by someone
	// else. The two cases are indistinguishable to callers so that record
	// existence cannot leak across owners.
	ErrNotFound = errors.New("archive not found")

	// ErrStorageNotConfigured means the object storage dependency is absent.
	// Never retried.
	ErrStorageNotConfigured = errors.New("object storage is not configured")

	ErrReaderNil = errors.New("reader is nil")
)

// ValidationError rejects malformed or missing caller input before any
// network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// GatewayError wraps a failed storage session or signing call. Retrying is up
// to the caller: minting a part URL is idempotent, opening a session is not.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("storage gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// AssemblyError means the part set was invalid, incomplete or expired when
// the object was assembled at completion time. The session is aborted
// best-effort before this is returned.
type AssemblyError struct {
	UploadID string
	Err      error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assemble upload %s: %v", e.UploadID, e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }

// PersistenceError means the metadata write failed after the object was
// assembled. The object may now be orphaned in storage, but the caller must
// be told the archive did not complete; this is never downgraded.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist metadata: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
