// Package memory is an in-process record store, used in tests and when no
// persistent backend is available.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"tally/internal/core"
	"tally/internal/docstore"
)

type Store struct {
	mu    sync.Mutex
	items map[string][]core.Record // keyed by collection path
	hub   *docstore.Hub
}

func New() *Store {
	return &Store{
		items: make(map[string][]core.Record),
		hub:   docstore.NewHub(),
	}
}

func (s *Store) Close() error {
	s.hub.Close()
	return nil
}

// Create stores the record, assigning its ID and timestamp.
func (s *Store) Create(_ context.Context, path docstore.CollectionPath, rec core.Record) (core.Record, error) {
	if err := path.Validate(); err != nil {
		return core.Record{}, err
	}
	if err := rec.Validate(); err != nil {
		return core.Record{}, err
	}

	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	key := path.String()
	s.items[key] = append(s.items[key], rec)
	snapshot := s.snapshotLocked(key)
	s.mu.Unlock()

	s.hub.Publish(path, snapshot)
	return rec, nil
}

func (s *Store) DeleteOne(_ context.Context, path docstore.CollectionPath, id string) error {
	s.mu.Lock()
	key := path.String()
	recs := s.items[key]
	idx := -1
	for i, r := range recs {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("delete record %s: %w", id, docstore.ErrNotFound)
	}
	s.items[key] = append(recs[:idx], recs[idx+1:]...)
	snapshot := s.snapshotLocked(key)
	s.mu.Unlock()

	s.hub.Publish(path, snapshot)
	return nil
}

// BatchDelete removes the given records, all or nothing.
func (s *Store) BatchDelete(_ context.Context, path docstore.CollectionPath, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	key := path.String()
	recs := s.items[key]
	byID := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		byID[r.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			s.mu.Unlock()
			return fmt.Errorf("batch delete record %s: %w", id, docstore.ErrNotFound)
		}
	}
	doomed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		doomed[id] = struct{}{}
	}
	kept := recs[:0]
	for _, r := range recs {
		if _, ok := doomed[r.ID]; !ok {
			kept = append(kept, r)
		}
	}
	s.items[key] = kept
	snapshot := s.snapshotLocked(key)
	s.mu.Unlock()

	s.hub.Publish(path, snapshot)
	return nil
}

func (s *Store) ListAll(_ context.Context, path docstore.CollectionPath) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(path.String()), nil
}

func (s *Store) Subscribe(path docstore.CollectionPath) *docstore.Subscription {
	return s.hub.Subscribe(path)
}

func (s *Store) Refresh(_ context.Context, path docstore.CollectionPath) error {
	s.mu.Lock()
	snapshot := s.snapshotLocked(path.String())
	s.mu.Unlock()
	s.hub.Publish(path, snapshot)
	return nil
}

// snapshotLocked copies and sorts the collection; callers hold s.mu.
func (s *Store) snapshotLocked(key string) []core.Record {
	recs := make([]core.Record, len(s.items[key]))
	copy(recs, s.items[key])
	core.SortNewestFirst(recs)
	return recs
}
