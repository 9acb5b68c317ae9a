package triage

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable reports that every storage tier failed; mutations
	// are no-ops for the rest of the session. Surfaced once at startup.
	ErrStorageUnavailable = errors.New("triage: storage unavailable")
	// ErrDeletionFailed is the match target for DeletionError.
	ErrDeletionFailed = errors.New("triage: deletion failed")
)

// DeletionError reports a failed bulk deletion. The queue is left intact and
// no category records are written; Failed tells the caller how many assets to
// re-prompt for.
type DeletionError struct {
	Failed int
	cause  error
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("triage: deletion of %d assets failed: %v", e.Failed, e.cause)
}

func (e *DeletionError) Unwrap() error {
	return e.cause
}

func (e *DeletionError) Is(target error) bool {
	return target == ErrDeletionFailed
}

func newDeletionError(failed int, cause error) error {
	return &DeletionError{Failed: failed, cause: cause}
}
