package appointment

import (
	"errors"
	"time"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/google/uuid"
)

// ChangeException is the result of PrepareChangeException.
type ChangeException struct {
	// Exception is the new instance replacing one occurrence.
	Exception Appointment
	// Master is the series with the occurrence's date added to its change
	// exceptions.
	Master Appointment
	// Occurrence is the regular occurrence being replaced.
	Occurrence recurrence.Occurrence
}

var errNotMaster = &recurrence.Error{Type: recurrence.ErrTypePosition, Message: "appointment is not a recurring master"}

// ResolveOccurrence finds the occurrence of master addressed by a position,
// or by a date when position is zero. A date outside the series, or a
// deleted one, yields a foreign exception date error.
func ResolveOccurrence(engine *recurrence.Engine, master Appointment, position int, date time.Time) (recurrence.Occurrence, error) {
	if !master.IsMaster() {
		return recurrence.Occurrence{}, errNotMaster
	}
	series := master.Series()

	var occ recurrence.Occurrence
	var err error
	switch {
	case position > 0:
		occ, err = engine.OccurrenceAt(series, position)
	case !date.IsZero():
		occ, err = engine.PositionOf(series, date)
		if errors.Is(err, recurrence.ErrCannotPosition) {
			return occ, &recurrence.Error{
				Type:    recurrence.ErrTypeForeignException,
				Message: "no occurrence on " + recurrence.NormalizeDate(date).Format(time.DateOnly),
				Err:     err,
			}
		}
	default:
		err = &recurrence.Error{Type: recurrence.ErrTypePosition, Message: "neither position nor date given"}
	}
	if err != nil {
		return occ, err
	}

	if master.Exceptions.Deleted.Contains(occ.Date) {
		return occ, &recurrence.Error{
			Type:    recurrence.ErrTypeForeignException,
			Message: "occurrence on " + occ.Date.Format(time.DateOnly) + " has been deleted",
		}
	}
	return occ, nil
}

// ExceptionBounds returns start and end of the occurrence addressed by
// position or date.
func ExceptionBounds(engine *recurrence.Engine, master Appointment, position int, date time.Time) (time.Time, time.Time, error) {
	occ, err := ResolveOccurrence(engine, master, position, date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return occ.Start, occ.End, nil
}

// PrepareChangeException turns edit into a change exception of master.
//
// The occurrence is taken from edit's RecurrencePosition, or its
// RecurrenceDate. It must occur in the series and must not be changed
// already. Fields edit leaves empty are inherited from master, and its
// times default to those of the occurrence. If edit moves the occurrence to
// another day, that day must not already be taken by the series.
//
// Neither edit nor master is modified.
func PrepareChangeException(engine *recurrence.Engine, edit, master Appointment) (ChangeException, error) {
	occ, err := ResolveOccurrence(engine, master, edit.RecurrencePosition, edit.RecurrenceDate)
	if err != nil {
		return ChangeException{}, err
	}
	if master.Exceptions.Changed.Contains(occ.Date) {
		return ChangeException{}, &recurrence.Error{
			Type:    recurrence.ErrTypeConflict,
			Message: "a change exception already exists on " + occ.Date.Format(time.DateOnly),
		}
	}

	ex := edit.Clone()
	ex.ID = uuid.NewString()
	ex.RecurrenceID = master.ID
	ex.RecurrencePosition = occ.Position
	ex.RecurrenceDate = occ.Date
	ex.Rule = recurrence.Rule{}
	ex.Exceptions = recurrence.Exceptions{}
	if ex.Start.IsZero() {
		ex.Start = occ.Start
	}
	if ex.End.IsZero() {
		ex.End = ex.Start.Add(occ.End.Sub(occ.Start))
	}
	inheritDefaults(&ex, master)

	moved := recurrence.NormalizeDate(ex.Start)
	if loc, err := engine.Location(ex.Series()); err == nil && !ex.AllDay {
		moved = localDay(ex.Start, loc)
	}
	if !moved.Equal(occ.Date) {
		taken, err := engine.IsOccurrenceDate(master.Series(), moved, occ.Date)
		if err != nil {
			return ChangeException{}, err
		}
		if taken {
			return ChangeException{}, &recurrence.Error{
				Type:    recurrence.ErrTypeConflict,
				Message: "the series already occurs on " + moved.Format(time.DateOnly),
			}
		}
	}

	updated := master.Clone()
	if updated.Exceptions, err = master.Exceptions.WithChanged(occ.Date); err != nil {
		return ChangeException{}, err
	}
	return ChangeException{Exception: ex, Master: updated, Occurrence: occ}, nil
}

// DeleteOccurrence returns master with the occurrence on date removed from
// the series. A change exception on that date is dropped as well.
func DeleteOccurrence(engine *recurrence.Engine, master Appointment, date time.Time) (Appointment, error) {
	occ, err := ResolveOccurrence(engine, master, 0, date)
	if err != nil {
		return master, err
	}
	updated := master.Clone()
	updated.Exceptions = master.Exceptions.WithDeleted(occ.Date)
	return updated, nil
}

func inheritDefaults(ex *Appointment, master Appointment) {
	if ex.FolderID == "" {
		ex.FolderID = master.FolderID
	}
	if ex.CreatedBy == "" {
		ex.CreatedBy = master.CreatedBy
	}
	if ex.Organizer == "" {
		ex.Organizer = master.Organizer
	}
	if ex.Title == "" {
		ex.Title = master.Title
	}
	if ex.Location == "" {
		ex.Location = master.Location
	}
	if ex.ShownAs == ShownAsUnset {
		ex.ShownAs = master.ShownAs
	}
	if ex.TimeZone == "" {
		ex.TimeZone = master.TimeZone
		ex.AllDay = master.AllDay
	}
	if len(ex.Participants) == 0 {
		ex.Participants = append([]Participant(nil), master.Participants...)
	}
}

func localDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
