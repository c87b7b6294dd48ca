package appointment

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/cyp0633/librecur/storage"
)

// Service runs the appointment workflows against a store.
type Service struct {
	engine *recurrence.Engine
	store  storage.Store
}

// NewService creates a service using engine for all recurrence calculations.
func NewService(engine *recurrence.Engine, store storage.Store) *Service {
	return &Service{engine: engine, store: store}
}

// Get loads an appointment.
func (s *Service) Get(ctx context.Context, id string) (Appointment, error) {
	rec, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	return FromRecord(s.engine, *rec)
}

// Save stores a, assigning an ID if it has none. A new master is linked to
// itself.
func (s *Service) Save(ctx context.Context, a Appointment) (Appointment, error) {
	rec, err := ToRecord(s.engine, a)
	if err != nil {
		return Appointment{}, err
	}
	if err := s.store.PutRecord(ctx, &rec); err != nil {
		return Appointment{}, err
	}
	if a.IsRecurring() && rec.RecurrenceID == "" {
		rec.RecurrenceID = rec.ID
		if err := s.store.PutRecord(ctx, &rec); err != nil {
			return Appointment{}, err
		}
	}
	return FromRecord(s.engine, rec)
}

// Expand returns the occurrences of the series with the given ID that
// overlap [from, until), ordered by start. Change exceptions are returned as
// stored, in place of the occurrences they replace.
func (s *Service) Expand(ctx context.Context, id string, from, until time.Time) ([]Appointment, error) {
	records, err := s.store.ListSeries(ctx, id)
	if err != nil {
		return nil, err
	}
	master, err := FromRecord(s.engine, records[0])
	if err != nil {
		return nil, err
	}
	if !master.IsRecurring() {
		return []Appointment{master}, nil
	}

	rs, err := s.engine.Calculate(master.Series(), recurrence.Query{RangeStart: from, RangeEnd: until})
	if err != nil {
		return nil, err
	}
	if rs.Truncated {
		return nil, &recurrence.Error{Type: recurrence.ErrTypeBudgetExhausted, Message: "series " + id}
	}

	out := make([]Appointment, 0, rs.Len())
	for _, occ := range rs.Occurrences {
		inst := master.Clone()
		inst.Rule = recurrence.Rule{}
		inst.Exceptions = recurrence.Exceptions{}
		inst.Start, inst.End = occ.Start, occ.End
		inst.RecurrencePosition = occ.Position
		inst.RecurrenceDate = occ.Date
		out = append(out, inst)
	}
	for _, rec := range records[1:] {
		ex, err := FromRecord(s.engine, rec)
		if err != nil {
			return nil, err
		}
		if overlaps(ex, from, until) {
			out = append(out, ex)
		}
	}
	slices.SortStableFunc(out, func(a, b Appointment) int { return a.Start.Compare(b.Start) })
	return out, nil
}

// CreateChangeException stores edit as a change exception of its master,
// which is identified by edit.RecurrenceID. If the master cannot be stored,
// the exception record is removed again.
func (s *Service) CreateChangeException(ctx context.Context, edit Appointment) (ChangeException, error) {
	master, err := s.Get(ctx, edit.RecurrenceID)
	if err != nil {
		return ChangeException{}, fmt.Errorf("failed to load master: %w", err)
	}
	ce, err := PrepareChangeException(s.engine, edit, master)
	if err != nil {
		return ChangeException{}, err
	}
	if ce.Exception, err = s.Save(ctx, ce.Exception); err != nil {
		return ChangeException{}, err
	}
	if ce.Master, err = s.Save(ctx, ce.Master); err != nil {
		if derr := s.store.DeleteRecord(ctx, ce.Exception.ID); derr != nil && !storage.IsNotFound(derr) {
			return ChangeException{}, errors.Join(err, fmt.Errorf("failed to remove exception %s: %w", ce.Exception.ID, derr))
		}
		return ChangeException{}, err
	}
	return ce, nil
}

// DeleteOccurrence removes the occurrence on date from the series and
// deletes its change exception, if any.
func (s *Service) DeleteOccurrence(ctx context.Context, masterID string, date time.Time) (Appointment, error) {
	records, err := s.store.ListSeries(ctx, masterID)
	if err != nil {
		return Appointment{}, err
	}
	master, err := FromRecord(s.engine, records[0])
	if err != nil {
		return Appointment{}, err
	}
	updated, err := DeleteOccurrence(s.engine, master, date)
	if err != nil {
		return Appointment{}, err
	}
	day := recurrence.NormalizeDate(date)
	for _, rec := range records[1:] {
		if rec.RecurrenceDate.Equal(day) {
			if err := s.store.DeleteRecord(ctx, rec.ID); err != nil && !storage.IsNotFound(err) {
				return Appointment{}, err
			}
		}
	}
	return s.Save(ctx, updated)
}

// Update applies edit to the stored appointment with the same ID. Fields
// edit leaves empty keep their stored values, and participants have to
// confirm again when the times changed. The second result reports whether
// the change may cause new scheduling conflicts.
func (s *Service) Update(ctx context.Context, edit Appointment) (Appointment, bool, error) {
	original, err := s.Get(ctx, edit.ID)
	if err != nil {
		return Appointment{}, false, err
	}
	updated := FillMissing(edit, original)
	inheritDefaults(&updated, original)
	updated.RecurrenceID = original.RecurrenceID
	updated.Created = original.Created

	conflicts, err := ConflictRelevantChange(s.engine, updated, original)
	if err != nil {
		return Appointment{}, false, err
	}
	if updated, _, err = ResetConfirmations(s.engine, updated, original); err != nil {
		return Appointment{}, false, err
	}
	saved, err := s.Save(ctx, updated)
	return saved, conflicts, err
}

func overlaps(a Appointment, from, until time.Time) bool {
	if !until.IsZero() && !a.Start.Before(until) {
		return false
	}
	if !from.IsZero() && !a.End.After(from) {
		return false
	}
	return true
}
