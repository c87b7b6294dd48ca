// Package sqlite implements storage.Store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cyp0633/librecur/storage"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS appointments (
	id                  TEXT PRIMARY KEY,
	recurrence_id       TEXT NOT NULL DEFAULT '',
	folder_id           TEXT NOT NULL DEFAULT '',
	created_by          TEXT NOT NULL DEFAULT '',
	modified_by         TEXT NOT NULL DEFAULT '',
	organizer           TEXT NOT NULL DEFAULT '',
	title               TEXT NOT NULL DEFAULT '',
	location            TEXT NOT NULL DEFAULT '',
	shown_as            INTEGER NOT NULL DEFAULT 0,
	start_ms            INTEGER,
	end_ms              INTEGER,
	all_day             INTEGER NOT NULL DEFAULT 0,
	timezone            TEXT NOT NULL DEFAULT '',
	recurrence          TEXT NOT NULL DEFAULT '',
	change_exceptions   TEXT NOT NULL DEFAULT '',
	delete_exceptions   TEXT NOT NULL DEFAULT '',
	recurrence_position INTEGER NOT NULL DEFAULT 0,
	recurrence_date_ms  INTEGER,
	participants        TEXT NOT NULL DEFAULT '[]',
	created_ms          INTEGER,
	modified_ms         INTEGER
);
CREATE INDEX IF NOT EXISTS idx_appointments_recurrence_id ON appointments (recurrence_id);
`

const columns = `id, recurrence_id, folder_id, created_by, modified_by, organizer, title, location,
	shown_as, start_ms, end_ms, all_day, timezone, recurrence, change_exceptions, delete_exceptions,
	recurrence_position, recurrence_date_ms, participants, created_ms, modified_ms`

// Store is a storage.Store backed by a SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at dsn.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return &Store{db: db, now: time.Now}, nil
}

// Migrate creates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetRecord(ctx context.Context, id string) (*storage.Record, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM appointments WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &storage.Error{Type: storage.ErrNotFound, Message: "record not found"}
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) PutRecord(ctx context.Context, rec *storage.Record) error {
	if rec == nil {
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "record is nil"}
	}
	participants, err := json.Marshal(rec.Participants)
	if err != nil {
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "cannot encode participants", Err: err}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := s.now().UTC().Truncate(time.Millisecond)

	var created sql.NullInt64
	err = tx.QueryRowContext(ctx, "SELECT created_ms FROM appointments WHERE id = ?", rec.ID).Scan(&created)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if rec.Created.IsZero() {
			rec.Created = now
		}
	case err != nil:
		return fmt.Errorf("failed to look up record: %w", err)
	default:
		rec.Created = fromMillis(created)
	}
	rec.Modified = now

	_, err = tx.ExecContext(ctx, "INSERT OR REPLACE INTO appointments ("+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RecurrenceID, rec.FolderID, rec.CreatedBy, rec.ModifiedBy, rec.Organizer,
		rec.Title, rec.Location, rec.ShownAs,
		toMillis(rec.Start), toMillis(rec.End), rec.AllDay, rec.TimeZone,
		rec.Recurrence, joinDates(rec.ChangeExceptions), joinDates(rec.DeleteExceptions),
		rec.RecurrencePosition, toMillis(rec.RecurrenceDate), string(participants),
		toMillis(rec.Created), toMillis(rec.Modified),
	)
	if err != nil {
		return fmt.Errorf("failed to store record: %w", err)
	}
	return tx.Commit()
}

func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM appointments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &storage.Error{Type: storage.ErrNotFound, Message: "record not found"}
	}
	return nil
}

func (s *Store) ListSeries(ctx context.Context, recurrenceID string) ([]storage.Record, error) {
	master, err := s.GetRecord(ctx, recurrenceID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+columns+
		" FROM appointments WHERE recurrence_id = ? AND id <> ? ORDER BY recurrence_position", recurrenceID, recurrenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	defer rows.Close()

	records := []storage.Record{*master}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*storage.Record, error) {
	var (
		rec                                   storage.Record
		start, end, recDate, created, modifed sql.NullInt64
		changed, deleted, participants        string
	)
	err := row.Scan(&rec.ID, &rec.RecurrenceID, &rec.FolderID, &rec.CreatedBy, &rec.ModifiedBy, &rec.Organizer,
		&rec.Title, &rec.Location, &rec.ShownAs,
		&start, &end, &rec.AllDay, &rec.TimeZone,
		&rec.Recurrence, &changed, &deleted,
		&rec.RecurrencePosition, &recDate, &participants,
		&created, &modifed)
	if err != nil {
		return nil, err
	}

	rec.Start = fromMillis(start)
	rec.End = fromMillis(end)
	rec.RecurrenceDate = fromMillis(recDate)
	rec.Created = fromMillis(created)
	rec.Modified = fromMillis(modifed)
	if rec.ChangeExceptions, err = splitDates(changed); err != nil {
		return nil, err
	}
	if rec.DeleteExceptions, err = splitDates(deleted); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(participants), &rec.Participants); err != nil {
		return nil, fmt.Errorf("failed to decode participants of %s: %w", rec.ID, err)
	}
	return &rec, nil
}

func toMillis(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(n sql.NullInt64) time.Time {
	if !n.Valid {
		return time.Time{}
	}
	return time.UnixMilli(n.Int64).UTC()
}

// joinDates stores dates as comma separated epoch milliseconds.
func joinDates(dates []time.Time) string {
	parts := make([]string, 0, len(dates))
	for _, d := range dates {
		parts = append(parts, strconv.FormatInt(d.UnixMilli(), 10))
	}
	return strings.Join(parts, ",")
}

func splitDates(s string) ([]time.Time, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	dates := make([]time.Time, 0, len(parts))
	for _, p := range parts {
		ms, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid exception date %q: %w", p, err)
		}
		dates = append(dates, time.UnixMilli(ms).UTC())
	}
	return dates, nil
}
