package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"darkroom/internal/queue"
)

// Store reads and writes queue snapshots at a fixed path.
type Store struct {
	path string
}

// record is the wire form of a queue.RequestRecord. The field names and
// the submittedAt layout are a compatibility contract with existing
// snapshot files; change them and old queues stop loading.
type record struct {
	RequesterID int64  `json:"requesterId"`
	DisplayName string `json:"displayName"`
	Status      string `json:"status"`
	Kind        string `json:"kind"`
	PayloadRef  string `json:"payloadRef"`
	Caption     string `json:"caption"`
	SubmittedAt string `json:"submittedAt"`
}

// NewStore builds a store writing to the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the snapshot file location.
func (s *Store) Path() string { return s.path }

// Load reads the snapshot. A missing file yields an empty queue and no
// error; unreadable content returns the underlying error so the caller
// can decide to degrade.
func (s *Store) Load() ([]queue.RequestRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	return Decode(data)
}

// Save overwrites the snapshot with the full record sequence.
func (s *Store) Save(records []queue.RequestRecord) error {
	data, err := Encode(records)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Remove deletes the snapshot file. A missing file is not an error.
func (s *Store) Remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return nil
}

// Decode parses the snapshot wire format into engine records.
func Decode(data []byte) ([]queue.RequestRecord, error) {
	var raw []record
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	records := make([]queue.RequestRecord, 0, len(raw))
	for _, r := range raw {
		records = append(records, queue.RequestRecord{
			RequesterID: r.RequesterID,
			DisplayName: r.DisplayName,
			Kind:        queue.Kind(r.Kind),
			PayloadRef:  r.PayloadRef,
			Caption:     r.Caption,
			Status:      queue.Status(r.Status),
			SubmittedAt: parseTimestamp(r.SubmittedAt),
		})
	}
	return records, nil
}

// Encode renders engine records in the snapshot wire format.
func Encode(records []queue.RequestRecord) ([]byte, error) {
	raw := make([]record, 0, len(records))
	for _, rec := range records {
		raw = append(raw, record{
			RequesterID: rec.RequesterID,
			DisplayName: rec.DisplayName,
			Status:      string(rec.Status),
			Kind:        string(rec.Kind),
			PayloadRef:  rec.PayloadRef,
			Caption:     rec.Caption,
			SubmittedAt: rec.SubmittedAt.Format(queue.TimeLayout),
		})
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.ParseInLocation(queue.TimeLayout, value, time.Local); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}
