// Package memory provides a map-backed implementation of storage.SessionStore.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jwulff/glucotrack/internal/session"
	"github.com/jwulff/glucotrack/internal/storage"
)

type record struct {
	entries  []session.Entry
	lastSeen time.Time
}

// Store keeps session logs in process memory.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*record
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*record),
		now:      time.Now,
	}
}

func (s *Store) Load(_ context.Context, id string) (*session.Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[id]
	if !ok {
		return nil, storage.SessionNotFound(id)
	}
	rec.lastSeen = s.now()
	return session.RestoreLog(rec.entries), nil
}

func (s *Store) Update(_ context.Context, id string, fn storage.UpdateFunc) (*session.Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := session.NewLog()
	if rec, ok := s.sessions[id]; ok {
		current = session.RestoreLog(rec.entries)
	}

	updated, err := fn(current)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		updated = current
	}
	s.put(id, updated)
	return session.RestoreLog(updated.Snapshot()), nil
}

// put stores a snapshot so later edits by the caller never reach the store.
func (s *Store) put(id string, log *session.Log) {
	var entries []session.Entry
	if log != nil {
		entries = log.Snapshot()
	}
	s.sessions[id] = &record{entries: entries, lastSeen: s.now()}
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *Store) Expire(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, rec := range s.sessions {
		if rec.lastSeen.Before(before) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions), nil
}

// Close drops every session.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]*record)
	return nil
}

// Verify interface compliance
var _ storage.SessionStore = (*Store)(nil)
