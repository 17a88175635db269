package report

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Action is the kind of raw attendance event.
type Action string

const (
	ActionLogin  Action = "Login"
	ActionLogout Action = "Logout"
)

// ParseAction maps the raw action column onto an Action.
func ParseAction(s string) (Action, error) {
	switch s {
	case string(ActionLogin):
		return ActionLogin, nil
	case string(ActionLogout):
		return ActionLogout, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Date is a calendar date with no time-of-day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates a timestamp to its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses the canonical YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// String renders the canonical YYYY-MM-DD form.
func (d Date) String() string {
	return d.Time().Format("2006-01-02")
}

// DetailLabel renders the per-date detail partition name, e.g. 10-Jan-2024.
func (d Date) DetailLabel() string {
	return d.Time().Format("02-Jan-2006")
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// RawRow is one row from an event source, untyped as exported.
type RawRow struct {
	Timestamp string
	Email     string
	Name      string
	Action    string
}

// Event is a normalized attendance event.
type Event struct {
	Email  string
	At     time.Time
	Action Action
}

// Person is an entry from the roster.
type Person struct {
	ID     string
	Name   string
	Email  string
	Active bool
}

// DailyRecord pairs one person's first login and first logout for one date.
// Hours is set only when both sides are present.
type DailyRecord struct {
	Email  string
	Date   Date
	Login  *time.Time
	Logout *time.Time
	Hours  *float64
}

// Ledger cell values written to the sheet.
const (
	StatusPresent = "P"
	StatusAbsent  = "A"

	RemarkAllGood  = "All good"
	RemarkNoLogout = "Logout not done"
	RemarkNoLogin  = "Login not done"
	RemarkAbsent   = "Absent"
)

// StatusRecord is the classified outcome for one active person on one date.
type StatusRecord struct {
	PersonID string
	Date     Date
	Status   string
	Remarks  string
}

// DetailRow is a roster-joined daily record, written per date as backing
// detail for the ledger cells.
type DetailRow struct {
	PersonID string
	Name     string
	Email    string
	Date     Date
	Login    *time.Time
	Logout   *time.Time
	Hours    *float64
}

// CommitStatus marks how a date's detail write went.
type CommitStatus string

const (
	CommitSuccess CommitStatus = "Success"
	CommitFailed  CommitStatus = "Failed"
)

// ProcessLogEntry records that a date was committed to the ledger. A Failed
// status means only the per-date detail write was lost; the date still
// counts as processed.
type ProcessLogEntry struct {
	ID       string
	LoggedAt time.Time
	Date     Date
	Status   CommitStatus
	Location string
}

// ErrLedgerNotFound is returned by LedgerStore.ReadLedger before the ledger
// has been bootstrapped.
var ErrLedgerNotFound = errors.New("ledger not found")

// EventSource yields the raw check-in/check-out rows.
type EventSource interface {
	ReadEvents(ctx context.Context) ([]RawRow, error)
}

// RosterSource yields the people roster, active and inactive.
type RosterSource interface {
	ReadRoster(ctx context.Context) ([]Person, error)
}

// LedgerStore reads and writes the wide per-person, per-date ledger.
type LedgerStore interface {
	ReadLedger(ctx context.Context) (*Ledger, error)
	CreateLedger(ctx context.Context, l *Ledger) error
	WriteLedger(ctx context.Context, l *Ledger) error
}

// ProcessLogStore is the append-only record of committed dates.
type ProcessLogStore interface {
	ReadLog(ctx context.Context) ([]ProcessLogEntry, error)
	AppendLog(ctx context.Context, entries []ProcessLogEntry) error
}

// DateDetailStore persists the per-date detail rows. Writes are best effort;
// a failure is recorded in the process log but does not abort the run.
type DateDetailStore interface {
	WriteDateDetail(ctx context.Context, date Date, rows []DetailRow) error
}

// Stores bundles the injected collaborators the engine runs against.
type Stores struct {
	Events EventSource
	Roster RosterSource
	Ledger LedgerStore
	Log    ProcessLogStore
	Detail DateDetailStore
}
