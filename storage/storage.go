// Package storage defines how appointment records are persisted. The
// recurrence rule travels as its encoded string; everything else is plain
// values.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Error types
type ErrorType string

const (
	ErrNotFound      ErrorType = "not_found"
	ErrAlreadyExists ErrorType = "already_exists"
	ErrInvalidInput  ErrorType = "invalid_input"
)

// Error represents a storage-related error
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err, or an error it wraps, is a storage error
// of type ErrNotFound.
func IsNotFound(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Type == ErrNotFound
}

// Participant is a stored attendee.
type Participant struct {
	ID           string `json:"id"`
	Type         int    `json:"type"`
	Confirmation int    `json:"confirmation"`
	Message      string `json:"message,omitempty"`
}

// Record is a stored appointment.
type Record struct {
	ID           string
	RecurrenceID string
	FolderID     string
	CreatedBy    string
	ModifiedBy   string
	Organizer    string
	Title        string
	Location     string
	ShownAs      int

	Start    time.Time
	End      time.Time
	AllDay   bool
	TimeZone string

	// Recurrence is the encoded rule, empty for single appointments.
	Recurrence       string
	ChangeExceptions []time.Time
	DeleteExceptions []time.Time

	RecurrencePosition int
	RecurrenceDate     time.Time

	Participants []Participant

	Created  time.Time
	Modified time.Time
}

// Store interface connects the appointment layer with your backend storage
// (e.g. database). Please use the error types provided.
type Store interface {
	// GetRecord retrieves a record by ID.
	GetRecord(ctx context.Context, id string) (*Record, error)
	// PutRecord creates or replaces a record. An empty ID is assigned a new
	// one. Created is kept on update and Modified is always refreshed.
	PutRecord(ctx context.Context, rec *Record) error
	// DeleteRecord removes a record.
	DeleteRecord(ctx context.Context, id string) error
	// ListSeries returns the master with the given ID and all its change
	// exceptions, master first.
	ListSeries(ctx context.Context, recurrenceID string) ([]Record, error)
}
