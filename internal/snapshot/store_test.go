package snapshot_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"darkroom/internal/queue"
	"darkroom/internal/snapshot"
)

func sampleRecords() []queue.RequestRecord {
	return []queue.RequestRecord{
		{
			RequesterID: 123456,
			DisplayName: "@renata",
			Kind:        queue.KindPhoto,
			PayloadRef:  "AgACAgIAAxkBAAI",
			Caption:     "make it warmer",
			Status:      queue.StatusPending,
			SubmittedAt: time.Date(2026, time.March, 4, 18, 30, 0, 0, time.Local),
		},
		{
			RequesterID: 789,
			DisplayName: "Sam",
			Kind:        queue.KindPhoto,
			PayloadRef:  "AgACAgIAAxkBAAJ",
			Caption:     queue.NoCaption,
			Status:      queue.StatusDone,
			SubmittedAt: time.Date(2026, time.March, 3, 9, 0, 15, 0, time.Local),
		},
	}
}

func TestSaveThenLoadPreservesRecords(t *testing.T) {
	store := snapshot.NewStore(filepath.Join(t.TempDir(), "queue.json"))

	want := sampleRecords()
	if err := store.Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].RequesterID != want[i].RequesterID ||
			got[i].DisplayName != want[i].DisplayName ||
			got[i].Status != want[i].Status ||
			got[i].Caption != want[i].Caption ||
			!got[i].SubmittedAt.Equal(want[i].SubmittedAt) {
			t.Fatalf("record %d mismatch: got %#v want %#v", i, got[i], want[i])
		}
	}
}

func TestSaveCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "queue.json")
	store := snapshot.NewStore(path)

	if err := store.Save(sampleRecords()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected snapshot file at %s: %v", path, err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("expected temp file to be renamed away")
	}
}

func TestLoadMissingFileYieldsEmptyQueue(t *testing.T) {
	store := snapshot.NewStore(filepath.Join(t.TempDir(), "absent.json"))

	records, err := store.Load()
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if records != nil {
		t.Fatalf("expected nil records, got %#v", records)
	}
}

func TestLoadCorruptFileReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := snapshot.NewStore(path).Load(); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	store := snapshot.NewStore(path)

	if err := store.Save(sampleRecords()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Remove(); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := store.Remove(); err != nil {
		t.Fatalf("second Remove failed: %v", err)
	}
}

func TestWireFormatFieldNames(t *testing.T) {
	data, err := snapshot.Encode(sampleRecords()[:1])
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	text := string(data)
	for _, field := range []string{
		`"requesterId": 123456`,
		`"displayName": "@renata"`,
		`"status": "pending"`,
		`"kind": "photo"`,
		`"payloadRef": "AgACAgIAAxkBAAI"`,
		`"caption": "make it warmer"`,
		`"submittedAt": "2026-03-04 18:30:00"`,
	} {
		if !strings.Contains(text, field) {
			t.Fatalf("encoded snapshot missing %s:\n%s", field, text)
		}
	}
}

func TestDecodeAcceptsRFC3339Timestamps(t *testing.T) {
	data := []byte(`[{"requesterId":1,"displayName":"a","status":"pending","kind":"photo","payloadRef":"ref","caption":"c","submittedAt":"2026-03-04T18:30:00Z"}]`)

	records, err := snapshot.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := time.Date(2026, time.March, 4, 18, 30, 0, 0, time.UTC)
	if !records[0].SubmittedAt.Equal(want) {
		t.Fatalf("expected %v, got %v", want, records[0].SubmittedAt)
	}
}

func TestDecodeToleratesUnparseableTimestamp(t *testing.T) {
	data := []byte(`[{"requesterId":1,"displayName":"a","status":"pending","kind":"photo","payloadRef":"ref","caption":"c","submittedAt":"yesterday"}]`)

	records, err := snapshot.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !records[0].SubmittedAt.IsZero() {
		t.Fatalf("expected zero time, got %v", records[0].SubmittedAt)
	}
}
