// Package session holds the per-session calculation log.
//
// A Log is a plain state object. Adapters load it from a storage.SessionStore
// keyed by their own session ID, pass it through Calculate, and store it back.
// Nothing in this package keeps process-wide state.
package session

import "time"

// State tags whether a log has recorded anything yet.
type State string

const (
	StateEmpty    State = "empty"
	StateNonEmpty State = "nonEmpty"
)

// Entry is one recorded calculation. Entries are values and are never
// modified after being appended.
type Entry struct {
	Fasting      int       `json:"fasting"`
	Postprandial int       `json:"postprandial"`
	HbA1c        float64   `json:"hba1c"`
	RecordedAt   time.Time `json:"recordedAt"`
}

// Log is an append-only, insertion-ordered sequence of entries.
// A Log is not safe for concurrent use; stores serialize access per session.
type Log struct {
	state   State
	entries []Entry
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{state: StateEmpty}
}

// RestoreLog rebuilds a log from previously snapshotted entries, preserving
// their order.
func RestoreLog(entries []Entry) *Log {
	l := NewLog()
	for _, e := range entries {
		l.Append(e)
	}
	return l
}

// Append adds an entry to the end of the log. It always succeeds.
func (l *Log) Append(e Entry) {
	l.entries = append(l.entries, e)
	l.state = StateNonEmpty
}

// Snapshot returns a copy of the entries in insertion order. The result is
// empty, never nil, for a fresh log.
func (l *Log) Snapshot() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of recorded entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// State returns StateEmpty until the first append, StateNonEmpty afterwards.
func (l *Log) State() State {
	if l.state == "" {
		return StateEmpty
	}
	return l.state
}
