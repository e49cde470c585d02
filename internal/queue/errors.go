package queue

import (
	"errors"
	"fmt"
)

var (
	// ErrQueueFull rejects a submission when the queue is at capacity.
	ErrQueueFull = errors.New("queue is full")
	// ErrDuplicateRequester rejects a submission from a requester who
	// already holds a record.
	ErrDuplicateRequester = errors.New("requester already has a request in the queue")
	// ErrNotFound reports that no record exists for the given requester.
	ErrNotFound = errors.New("no request found for requester")
	// ErrSaveFailed marks durability failures; the in-memory mutation has
	// still been applied. Match with errors.Is.
	ErrSaveFailed = errors.New("queue snapshot save failed")
)

// SaveError wraps a Persister failure that occurred after the in-memory
// mutation succeeded. Surfaces confirm the operation to the user and warn
// the operator that durability is degraded.
type SaveError struct {
	Op  string
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("%s: snapshot save failed: %v", e.Op, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

func (e *SaveError) Is(target error) bool { return target == ErrSaveFailed }
