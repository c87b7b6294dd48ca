// memory based implementation for testing purposes
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cyp0633/librecur/storage"
	"github.com/google/uuid"
)

// Store implements storage.Store interface using an in-memory map
type Store struct {
	mu      sync.RWMutex
	records map[string]*storage.Record
	now     func() time.Time
}

// New creates a new in-memory storage
func New() *Store {
	return &Store{
		records: make(map[string]*storage.Record),
		now:     time.Now,
	}
}

// copyRecord detaches a record from the caller's slices.
func copyRecord(rec *storage.Record) *storage.Record {
	c := *rec
	c.ChangeExceptions = slices.Clone(rec.ChangeExceptions)
	c.DeleteExceptions = slices.Clone(rec.DeleteExceptions)
	c.Participants = slices.Clone(rec.Participants)
	return &c
}

func (s *Store) GetRecord(_ context.Context, id string) (*storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "record not found",
		}
	}

	return copyRecord(rec), nil
}

func (s *Store) PutRecord(_ context.Context, rec *storage.Record) error {
	if rec == nil {
		return &storage.Error{
			Type:    storage.ErrInvalidInput,
			Message: "record is nil",
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := s.now().UTC()
	if existing, ok := s.records[rec.ID]; ok {
		rec.Created = existing.Created
	} else if rec.Created.IsZero() {
		rec.Created = now
	}
	rec.Modified = now
	s.records[rec.ID] = copyRecord(rec)

	return nil
}

func (s *Store) DeleteRecord(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "record not found",
		}
	}
	delete(s.records, id)

	return nil
}

func (s *Store) ListSeries(_ context.Context, recurrenceID string) ([]storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	master, ok := s.records[recurrenceID]
	if !ok {
		return nil, &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "series not found",
		}
	}

	records := []storage.Record{*copyRecord(master)}
	var exceptions []storage.Record
	for id, rec := range s.records {
		if id != recurrenceID && rec.RecurrenceID == recurrenceID {
			exceptions = append(exceptions, *copyRecord(rec))
		}
	}
	slices.SortFunc(exceptions, func(a, b storage.Record) int {
		return a.RecurrencePosition - b.RecurrencePosition
	})

	return append(records, exceptions...), nil
}
