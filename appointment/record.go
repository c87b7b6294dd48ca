package appointment

import (
	"fmt"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/cyp0633/librecur/storage"
)

// FromRecord converts a stored record, decoding and correcting its
// recurrence string.
func FromRecord(engine *recurrence.Engine, rec storage.Record) (Appointment, error) {
	rule, err := engine.Decode(rec.Recurrence)
	if err != nil {
		return Appointment{}, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	a := Appointment{
		ID:                 rec.ID,
		RecurrenceID:       rec.RecurrenceID,
		FolderID:           rec.FolderID,
		CreatedBy:          rec.CreatedBy,
		ModifiedBy:         rec.ModifiedBy,
		Organizer:          rec.Organizer,
		Title:              rec.Title,
		Location:           rec.Location,
		ShownAs:            ShownAs(rec.ShownAs),
		Start:              rec.Start,
		End:                rec.End,
		AllDay:             rec.AllDay,
		TimeZone:           rec.TimeZone,
		Rule:               rule,
		Exceptions:         recurrence.NewExceptions(rec.ChangeExceptions, rec.DeleteExceptions),
		RecurrencePosition: rec.RecurrencePosition,
		RecurrenceDate:     rec.RecurrenceDate,
		Created:            rec.Created,
		Modified:           rec.Modified,
	}
	for _, p := range rec.Participants {
		a.Participants = append(a.Participants, Participant{
			ID:           p.ID,
			Type:         ParticipantType(p.Type),
			Confirmation: Confirmation(p.Confirmation),
			Message:      p.Message,
		})
	}
	return a, nil
}

// ToRecord converts a to its stored form. The rule is anchored at the
// recurring start of the appointment and validated before encoding.
func ToRecord(engine *recurrence.Engine, a Appointment) (storage.Record, error) {
	rule := a.Rule
	if rule.IsRecurring() {
		start, err := engine.RecurringStart(a.Series())
		if err != nil {
			return storage.Record{}, err
		}
		rule.Start = start
	}
	encoded, err := recurrence.Encode(rule)
	if err != nil {
		return storage.Record{}, err
	}

	rec := storage.Record{
		ID:                 a.ID,
		RecurrenceID:       a.RecurrenceID,
		FolderID:           a.FolderID,
		CreatedBy:          a.CreatedBy,
		ModifiedBy:         a.ModifiedBy,
		Organizer:          a.Organizer,
		Title:              a.Title,
		Location:           a.Location,
		ShownAs:            int(a.ShownAs),
		Start:              a.Start,
		End:                a.End,
		AllDay:             a.AllDay,
		TimeZone:           a.TimeZone,
		Recurrence:         encoded,
		ChangeExceptions:   a.Exceptions.Changed.Dates(),
		DeleteExceptions:   a.Exceptions.Deleted.Dates(),
		RecurrencePosition: a.RecurrencePosition,
		RecurrenceDate:     a.RecurrenceDate,
		Created:            a.Created,
		Modified:           a.Modified,
	}
	for _, p := range a.Participants {
		rec.Participants = append(rec.Participants, storage.Participant{
			ID:           p.ID,
			Type:         int(p.Type),
			Confirmation: int(p.Confirmation),
			Message:      p.Message,
		})
	}
	return rec, nil
}
