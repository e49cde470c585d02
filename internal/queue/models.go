package queue

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a request record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDone      Status = "done"
	StatusCancelled Status = "cancelled"
)

// Kind tags the medium of a request. Only photos are supported today; the
// tag exists so new media kinds do not force a schema change.
type Kind string

const KindPhoto Kind = "photo"

// NoCaption is the sentinel stored when a requester sends no caption.
const NoCaption = "No caption"

// TimeLayout is the fixed timestamp format used in the snapshot file and
// everywhere a submission time is rendered.
const TimeLayout = "2006-01-02 15:04:05"

var allStatuses = []Status{StatusPending, StatusDone, StatusCancelled}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(value)))
	if normalized == KindPhoto {
		return normalized, true
	}
	return "", false
}

// RequestRecord is one unit of work in the intake queue.
type RequestRecord struct {
	RequesterID int64
	DisplayName string
	Kind        Kind
	PayloadRef  string
	Caption     string
	Status      Status
	SubmittedAt time.Time
}

// Submission carries the caller-supplied fields of a new request. The
// engine owns Status and SubmittedAt.
type Submission struct {
	RequesterID int64
	DisplayName string
	Kind        Kind
	PayloadRef  string
	Caption     string
}

func (s Submission) record(now time.Time) RequestRecord {
	rec := RequestRecord{
		RequesterID: s.RequesterID,
		DisplayName: strings.TrimSpace(s.DisplayName),
		Kind:        s.Kind,
		PayloadRef:  strings.TrimSpace(s.PayloadRef),
		Caption:     strings.TrimSpace(s.Caption),
		Status:      StatusPending,
		SubmittedAt: now,
	}
	if rec.DisplayName == "" {
		rec.DisplayName = fmt.Sprintf("Requester %d", s.RequesterID)
	}
	if rec.Kind == "" {
		rec.Kind = KindPhoto
	}
	if rec.Caption == "" {
		rec.Caption = NoCaption
	}
	return rec
}

// Valid reports whether a record satisfies the structural invariants the
// engine requires before admitting it from a snapshot or restore.
func (r RequestRecord) Valid() bool {
	if r.RequesterID == 0 {
		return false
	}
	if _, ok := statusSet[r.Status]; !ok {
		return false
	}
	if _, ok := ParseKind(string(r.Kind)); !ok {
		return false
	}
	return true
}
