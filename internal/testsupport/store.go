package testsupport

import (
	"testing"

	"darkroom/internal/config"
	"darkroom/internal/journal"
	"darkroom/internal/logging"
	"darkroom/internal/queue"
	"darkroom/internal/snapshot"
)

// NewEngine builds a queue engine backed by a snapshot store under the test
// config's data directory.
func NewEngine(t testing.TB, cfg *config.Config) *queue.Engine {
	t.Helper()

	store := snapshot.NewStore(cfg.SnapshotPath())
	return queue.New(store, cfg.Queue.Capacity, logging.NewNop())
}

// MustOpenJournal opens the audit journal for tests and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Journal {
	t.Helper()

	jrnl, err := journal.Open(cfg.JournalPath())
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		jrnl.Close()
	})
	return jrnl
}

// Submit enqueues a request for tests and returns its queue position.
func Submit(t testing.TB, engine *queue.Engine, requesterID int64, displayName string) int {
	t.Helper()

	position, err := engine.Submit(queue.Submission{
		RequesterID: requesterID,
		DisplayName: displayName,
		PayloadRef:  "file-ref",
		Caption:     "brighten this one",
	})
	if err != nil {
		t.Fatalf("engine.Submit: %v", err)
	}
	return position
}
