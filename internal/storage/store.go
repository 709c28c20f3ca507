// Package storage provides keyed session storage for calculation logs.
package storage

import (
	"context"
	"time"

	"github.com/jwulff/glucotrack/internal/session"
)

// UpdateFunc receives the current log for a session (empty if the session is
// new) and returns the log to store.
type UpdateFunc func(log *session.Log) (*session.Log, error)

// SessionStore keeps one session.Log per session ID. Logs in different
// sessions are never visible to each other.
type SessionStore interface {
	// Load returns the log for id, or ErrNotFound if the session is unknown.
	Load(ctx context.Context, id string) (*session.Log, error)

	// Update runs fn against the session's log and stores the result.
	// Updates to the same id are serialized.
	Update(ctx context.Context, id string, fn UpdateFunc) (*session.Log, error)

	// Delete ends a session and discards its log.
	Delete(ctx context.Context, id string) error

	// Expire discards sessions not touched since before and returns how many
	// were removed.
	Expire(ctx context.Context, before time.Time) (int, error)

	// Count returns the number of live sessions.
	Count(ctx context.Context) (int, error)

	// Lifecycle
	Close() error
}

// ErrNotFound is returned when a record is not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e ErrNotFound) Error() string {
	return e.Resource + " not found: " + e.ID
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	_, ok := err.(ErrNotFound)
	return ok
}

// SessionNotFound builds the ErrNotFound for an unknown session ID.
func SessionNotFound(id string) ErrNotFound {
	return ErrNotFound{Resource: "session", ID: id}
}
