// Package synclog defines the bounded audit trail of synchronization runs.
package synclog

import "time"

// DefaultRetention is the number of entries kept when no bound is configured.
const DefaultRetention = 10

// Counts holds per-channel todo totals observed during a sync pass.
type Counts struct {
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

// Total returns pending + completed.
func (c Counts) Total() int {
	return c.Pending + c.Completed
}

// Entry records the outcome of one synchronization pass.
type Entry struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Counts        map[string]Counts `json:"counts"`
	FannedOut     int               `json:"fanned_out"`
	IssuesCreated int               `json:"issues_created"`
	Errors        []string          `json:"errors"`
}

// Failed reports whether any step of the pass recorded an error.
func (e *Entry) Failed() bool {
	return len(e.Errors) > 0
}

// Log is the persisted sync log: the last sync time and the retained history,
// oldest first.
type Log struct {
	LastSync *time.Time `json:"last_sync"`
	History  []Entry    `json:"sync_history"`
}

// Append adds entry as the most recent record and evicts the oldest entries so
// that at most maxEntries remain. maxEntries <= 0 uses DefaultRetention.
func (l *Log) Append(entry Entry, maxEntries int) {
	if maxEntries <= 0 {
		maxEntries = DefaultRetention
	}

	ts := entry.Timestamp
	l.LastSync = &ts
	l.History = append(l.History, entry)

	if len(l.History) > maxEntries {
		l.History = append([]Entry(nil), l.History[len(l.History)-maxEntries:]...)
	}
}

// Latest returns the most recent entry, if any.
func (l *Log) Latest() (Entry, bool) {
	if len(l.History) == 0 {
		return Entry{}, false
	}
	return l.History[len(l.History)-1], true
}
