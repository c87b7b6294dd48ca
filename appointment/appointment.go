// Package appointment models calendar instances on top of the recurrence
// engine: recurring masters, their change exceptions, and the workflows that
// create and compare them.
package appointment

import (
	"slices"
	"time"

	"github.com/cyp0633/librecur/recurrence"
)

// ShownAs is the free/busy status of an appointment.
type ShownAs int

const (
	ShownAsUnset ShownAs = iota
	Reserved
	Temporary
	Absent
	Free
)

// Blocks reports whether the status makes the time unavailable.
func (s ShownAs) Blocks() bool { return s != Free }

// Confirmation is a participant's reply.
type Confirmation int

const (
	ConfirmNone Confirmation = iota
	ConfirmAccepted
	ConfirmDeclined
	ConfirmTentative
)

// ParticipantType tells what kind of entity takes part.
type ParticipantType int

const (
	UserParticipant ParticipantType = iota + 1
	GroupParticipant
	ResourceParticipant
	ExternalParticipant
)

// Participant is an attendee of an appointment.
type Participant struct {
	ID           string
	Type         ParticipantType
	Confirmation Confirmation
	Message      string
}

// Appointment is a single appointment, a recurring master or a change
// exception of a master. A master's RecurrenceID equals its ID; an
// exception's RecurrenceID is the ID of its master.
type Appointment struct {
	ID           string
	RecurrenceID string
	FolderID     string
	CreatedBy    string
	ModifiedBy   string
	Organizer    string

	Title    string
	Location string
	ShownAs  ShownAs

	Start    time.Time
	End      time.Time
	AllDay   bool
	TimeZone string

	Rule       recurrence.Rule
	Exceptions recurrence.Exceptions

	// RecurrencePosition and RecurrenceDate identify the occurrence an
	// exception replaces.
	RecurrencePosition int
	RecurrenceDate     time.Time

	Participants []Participant

	Created  time.Time
	Modified time.Time
}

// IsRecurring reports whether the appointment repeats.
func (a Appointment) IsRecurring() bool { return a.Rule.IsRecurring() }

// IsMaster reports whether the appointment is the master of a series.
func (a Appointment) IsMaster() bool {
	return a.Rule.IsRecurring() && (a.RecurrenceID == "" || a.RecurrenceID == a.ID)
}

// IsException reports whether the appointment replaces an occurrence.
func (a Appointment) IsException() bool {
	return a.RecurrenceID != "" && a.RecurrenceID != a.ID
}

// Series returns the recurrence view of the appointment.
func (a Appointment) Series() recurrence.Series {
	return recurrence.Series{
		Rule:       a.Rule,
		Start:      a.Start,
		End:        a.End,
		TimeZone:   a.TimeZone,
		AllDay:     a.AllDay,
		Exceptions: a.Exceptions,
	}
}

// Clone returns a copy that shares no slices with a.
func (a Appointment) Clone() Appointment {
	a.Participants = slices.Clone(a.Participants)
	return a
}

// Participant returns the participant with the given ID.
func (a Appointment) Participant(id string) (Participant, bool) {
	i := slices.IndexFunc(a.Participants, func(p Participant) bool { return p.ID == id })
	if i < 0 {
		return Participant{}, false
	}
	return a.Participants[i], true
}
