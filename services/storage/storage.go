package storage

import (
	"context"
	"errors"
)

// ErrLogNotFound is returned by UpdateOne when there is no meeting log to
// update. Load never returns it; an absent log loads as empty.
var ErrLogNotFound = errors.New("meeting log not found")

// Storage is the Meeting Log. Every operation is a whole-log
// read/modify/write with no locking, so concurrent writers can lose
// updates. Records come back in append order.
type Storage interface {
	// Load returns all records. An absent or unreadable log is empty.
	Load(ctx context.Context) ([]MeetingRecord, error)
	// Append adds records after the existing ones, creating the log if needed.
	Append(ctx context.Context, records []MeetingRecord) error
	// UpdateOne applies mutate to the first record for which match is true
	// and reports whether a record matched.
	UpdateOne(ctx context.Context, match func(*MeetingRecord) bool, mutate func(*MeetingRecord)) (bool, error)
}

// firstMatch returns the index of the earliest record satisfying match, or -1.
func firstMatch(records []MeetingRecord, match func(*MeetingRecord) bool) int {
	for i := range records {
		if match(&records[i]) {
			return i
		}
	}
	return -1
}
