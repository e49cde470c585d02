// Package snapshot persists the request queue as a single JSON file with
// whole-queue overwrite semantics. Saves write to a temp file and rename
// into place so a crash mid-write leaves the previous snapshot intact.
// Absence of the file is equivalent to an empty queue.
package snapshot
