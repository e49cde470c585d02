package queue

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"darkroom/internal/logging"
)

// Persister stores and retrieves whole-queue snapshots. Implementations
// must overwrite atomically enough that a crash mid-save leaves the
// previous snapshot intact.
type Persister interface {
	Load() ([]RequestRecord, error)
	Save(records []RequestRecord) error
	Remove() error
}

// Engine is the request-queue core. All access to the record collection
// goes through its methods; the zero value is not usable, construct with
// New.
type Engine struct {
	mu       sync.RWMutex
	capacity int
	records  []RequestRecord
	index    map[int64]int
	store    Persister
	logger   *slog.Logger

	now func() time.Time
}

// DefaultCapacity bounds the queue when no capacity is configured.
const DefaultCapacity = 50

// New builds an engine hydrated from the persister's snapshot. A missing
// or unreadable snapshot degrades to an empty queue; corruption is logged
// and never fatal.
func New(store Persister, capacity int, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	e := &Engine{
		capacity: capacity,
		index:    make(map[int64]int),
		store:    store,
		logger:   logger.With(logging.String("component", "queue")),
		now:      time.Now,
	}
	e.hydrate()
	return e
}

// Capacity returns the configured admission bound.
func (e *Engine) Capacity() int { return e.capacity }

func (e *Engine) hydrate() {
	loaded, err := e.store.Load()
	if err != nil {
		e.logger.Warn("snapshot unreadable, starting with empty queue", logging.Error(err))
		return
	}
	dropped := 0
	for _, rec := range loaded {
		if !rec.Valid() {
			dropped++
			continue
		}
		if _, exists := e.index[rec.RequesterID]; exists {
			dropped++
			continue
		}
		e.index[rec.RequesterID] = len(e.records)
		e.records = append(e.records, rec)
	}
	if dropped > 0 {
		e.logger.Warn("dropped invalid snapshot records",
			logging.Int("dropped", dropped),
			logging.Int("kept", len(e.records)))
	}
	if len(e.records) > 0 {
		e.logger.Info("queue restored from snapshot", logging.Int("records", len(e.records)))
	}
}

// Submit appends a new pending record and persists the queue. It returns
// the record's 1-based position. Admission fails with ErrQueueFull or
// ErrDuplicateRequester; a *SaveError still counts as a successful
// admission.
func (e *Engine) Submit(sub Submission) (int, error) {
	if sub.RequesterID == 0 {
		return 0, fmt.Errorf("submit: requester id is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.records) >= e.capacity {
		return 0, ErrQueueFull
	}
	if _, exists := e.index[sub.RequesterID]; exists {
		return 0, ErrDuplicateRequester
	}

	rec := sub.record(e.now().Truncate(time.Second))
	e.index[rec.RequesterID] = len(e.records)
	e.records = append(e.records, rec)
	position := len(e.records)

	if err := e.persistLocked("submit"); err != nil {
		return position, err
	}
	return position, nil
}

// Cancel removes the requester's record regardless of status and persists.
// The record is deleted outright, so resubmission is immediately allowed.
func (e *Engine) Cancel(requesterID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, ok := e.index[requesterID]
	if !ok {
		return ErrNotFound
	}

	e.records = append(e.records[:idx], e.records[idx+1:]...)
	delete(e.index, requesterID)
	for i := idx; i < len(e.records); i++ {
		e.index[e.records[i].RequesterID] = i
	}

	return e.persistLocked("cancel")
}

// MarkDone transitions the requester's record to done and persists. It
// returns the display name for confirmation messaging. Authorization is
// the caller's responsibility; both surfaces gate this before calling.
func (e *Engine) MarkDone(requesterID int64) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, ok := e.index[requesterID]
	if !ok {
		return "", ErrNotFound
	}

	e.records[idx].Status = StatusDone
	name := e.records[idx].DisplayName

	if err := e.persistLocked("mark done"); err != nil {
		return name, err
	}
	return name, nil
}

// StatusOf reports the requester's current status. Pure read.
func (e *Engine) StatusOf(requesterID int64) (Status, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	idx, ok := e.index[requesterID]
	if !ok {
		return "", false
	}
	return e.records[idx].Status, true
}

// List returns a point-in-time copy of the queue in insertion order.
func (e *Engine) List() []RequestRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()

	cp := make([]RequestRecord, len(e.records))
	copy(cp, e.records)
	return cp
}

// Len reports the current queue size.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.records)
}

// ResetAll unconditionally empties the queue and removes the snapshot
// file. Resetting an already-empty queue is a no-op without error.
func (e *Engine) ResetAll() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.records = nil
	e.index = make(map[int64]int)

	if err := e.store.Remove(); err != nil {
		return &SaveError{Op: "reset", Err: err}
	}
	return nil
}

// Replace swaps the whole queue for the provided records, used by the
// dashboard's snapshot restore. The snapshot is validated wholesale:
// invalid records, duplicate requesters, or an over-capacity snapshot
// reject the restore without touching the current queue.
func (e *Engine) Replace(records []RequestRecord) error {
	if len(records) > e.capacity {
		return ErrQueueFull
	}
	index := make(map[int64]int, len(records))
	for i, rec := range records {
		if !rec.Valid() {
			return fmt.Errorf("restore: record %d is invalid", i+1)
		}
		if _, exists := index[rec.RequesterID]; exists {
			return ErrDuplicateRequester
		}
		index[rec.RequesterID] = i
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.records = append([]RequestRecord(nil), records...)
	e.index = index

	return e.persistLocked("restore")
}

// persistLocked saves the current records; callers must hold the write
// lock. Save failures leave the in-memory state intact and surface as
// *SaveError.
func (e *Engine) persistLocked(op string) error {
	cp := make([]RequestRecord, len(e.records))
	copy(cp, e.records)
	if err := e.store.Save(cp); err != nil {
		e.logger.Error("snapshot save failed",
			logging.String("op", op),
			logging.Error(err))
		return &SaveError{Op: op, Err: err}
	}
	return nil
}
