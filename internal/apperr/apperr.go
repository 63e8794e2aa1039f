package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrRowNotFound signals the target row is absent or already retired.
	// It aborts a workflow deliberately and is never a storage fault.
	ErrRowNotFound = errors.New("row not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")

	// Caller-facing aggregate workflow outcomes.
	ErrContentCreationFailed = errors.New("content creation failed")
	ErrContentUpdateFailed   = errors.New("content update failed")
	ErrContentDeletionFailed = errors.New("content deletion failed")
)

// BlobWriteFault means staging a file into the blob store failed.
// It always aborts the workflow before any DB write.
type BlobWriteFault struct {
	Path string
	Err  error
}

func (e *BlobWriteFault) Error() string {
	if e == nil {
		return ""
	}
	if e.Path != "" {
		return fmt.Sprintf("blob write fault at %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("blob write fault: %v", e.Err)
}

func (e *BlobWriteFault) Unwrap() error { return e.Err }

// StorageFault means a DB statement failed. It always rolls back the
// enclosing transaction.
type StorageFault struct {
	Op  string
	Err error
}

func (e *StorageFault) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("storage fault in %s: %v", e.Op, e.Err)
}

func (e *StorageFault) Unwrap() error { return e.Err }

func Storage(op string, err error) *StorageFault {
	return &StorageFault{Op: op, Err: err}
}

// IsRowNotFound reports whether err carries the deliberate-abort sentinel.
func IsRowNotFound(err error) bool { return errors.Is(err, ErrRowNotFound) }
