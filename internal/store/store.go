package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BL-Elavarasu/AttendanceReport/internal/config"
	"github.com/BL-Elavarasu/AttendanceReport/internal/report"
)

// Store persists attendance data behind the engine's store interfaces. The
// same implementation serves Postgres and SQLite; queries are written with ?
// placeholders and rebound for Postgres.
type Store struct {
	db     *sql.DB
	driver string
}

// New wraps an open connection and ensures the schema exists.
func New(ctx context.Context, db *DB) (*Store, error) {
	s := &Store{db: db.Client, driver: db.Driver}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS attendance_events (
		id TEXT PRIMARY KEY,
		occurred_at TEXT NOT NULL,
		email TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		action TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS people (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_rows (
		person_id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_cells (
		person_id TEXT NOT NULL,
		log_date TEXT NOT NULL,
		status TEXT NOT NULL,
		remarks TEXT NOT NULL,
		PRIMARY KEY (person_id, log_date)
	)`,
	`CREATE TABLE IF NOT EXISTS process_log (
		id TEXT PRIMARY KEY,
		logged_at TEXT NOT NULL,
		log_date TEXT NOT NULL,
		status TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS date_details (
		label TEXT NOT NULL,
		person_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		log_date TEXT NOT NULL,
		login_at TEXT,
		logout_at TEXT,
		hours REAL,
		PRIMARY KEY (label, person_id)
	)`,
}

func (s *Store) initSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind converts ? placeholders to $n for the Postgres driver.
func (s *Store) rebind(query string) string {
	if s.driver != config.BackendPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ReadEvents returns all raw events ordered by occurrence.
func (s *Store) ReadEvents(ctx context.Context) ([]report.RawRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT occurred_at, email, name, action
		FROM attendance_events
		ORDER BY occurred_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []report.RawRow
	for rows.Next() {
		var row report.RawRow
		if err := rows.Scan(&row.Timestamp, &row.Email, &row.Name, &row.Action); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ReadRoster returns all people, active and inactive.
func (s *Store) ReadRoster(ctx context.Context) ([]report.Person, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email, active FROM people ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []report.Person
	for rows.Next() {
		var p report.Person
		var active int64
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &active); err != nil {
			return nil, err
		}
		p.Active = active != 0
		out = append(out, p)
	}
	return out, rows.Err()
}

// ReadLedger reconstructs the wide ledger from its row and cell tables.
// An empty row table means the ledger was never bootstrapped.
func (s *Store) ReadLedger(ctx context.Context) (*report.Ledger, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT person_id, name, email FROM ledger_rows ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ledger := &report.Ledger{Cells: make(map[string]map[report.Date]report.Cell)}
	for rows.Next() {
		var row report.LedgerRow
		if err := rows.Scan(&row.PersonID, &row.Name, &row.Email); err != nil {
			return nil, err
		}
		ledger.Rows = append(ledger.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ledger.Rows) == 0 {
		return nil, report.ErrLedgerNotFound
	}

	cellRows, err := s.db.QueryContext(ctx, `
		SELECT person_id, log_date, status, remarks FROM ledger_cells ORDER BY log_date
	`)
	if err != nil {
		return nil, err
	}
	defer cellRows.Close()
	for cellRows.Next() {
		var personID, logDate, status, remarks string
		if err := cellRows.Scan(&personID, &logDate, &status, &remarks); err != nil {
			return nil, err
		}
		d, err := report.ParseDate(logDate)
		if err != nil {
			return nil, fmt.Errorf("ledger cell date %q: %w", logDate, err)
		}
		if !ledger.HasDate(d) {
			ledger.Dates = append(ledger.Dates, d)
		}
		if ledger.Cells[personID] == nil {
			ledger.Cells[personID] = make(map[report.Date]report.Cell)
		}
		ledger.Cells[personID][d] = report.Cell{Status: status, Remarks: remarks}
	}
	return ledger, cellRows.Err()
}

// CreateLedger bootstraps the ledger row set.
func (s *Store) CreateLedger(ctx context.Context, l *report.Ledger) error {
	return s.WriteLedger(ctx, l)
}

// WriteLedger upserts the ledger rows and every cell.
func (s *Store) WriteLedger(ctx context.Context, l *report.Ledger) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	upsertRow := s.rebind(`
		INSERT INTO ledger_rows (person_id, position, name, email)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (person_id) DO UPDATE SET
			position = excluded.position,
			name = excluded.name,
			email = excluded.email
	`)
	for i, row := range l.Rows {
		if _, err := tx.ExecContext(ctx, upsertRow, row.PersonID, i, row.Name, row.Email); err != nil {
			return err
		}
	}

	upsertCell := s.rebind(`
		INSERT INTO ledger_cells (person_id, log_date, status, remarks)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (person_id, log_date) DO UPDATE SET
			status = excluded.status,
			remarks = excluded.remarks
	`)
	for personID, cells := range l.Cells {
		for d, cell := range cells {
			if _, err := tx.ExecContext(ctx, upsertCell, personID, d.String(), cell.Status, cell.Remarks); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// ReadLog returns every process log entry, oldest first.
func (s *Store) ReadLog(ctx context.Context) ([]report.ProcessLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, logged_at, log_date, status, location FROM process_log ORDER BY logged_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []report.ProcessLogEntry
	for rows.Next() {
		var entry report.ProcessLogEntry
		var loggedAt, logDate, status string
		if err := rows.Scan(&entry.ID, &loggedAt, &logDate, &status, &entry.Location); err != nil {
			return nil, err
		}
		if entry.LoggedAt, err = time.Parse(time.RFC3339, loggedAt); err != nil {
			return nil, fmt.Errorf("process log timestamp %q: %w", loggedAt, err)
		}
		if entry.Date, err = report.ParseDate(logDate); err != nil {
			return nil, fmt.Errorf("process log date %q: %w", logDate, err)
		}
		entry.Status = report.CommitStatus(status)
		out = append(out, entry)
	}
	return out, rows.Err()
}

// AppendLog appends entries; the log is never updated in place.
func (s *Store) AppendLog(ctx context.Context, entries []report.ProcessLogEntry) error {
	insert := s.rebind(`
		INSERT INTO process_log (id, logged_at, log_date, status, location)
		VALUES (?, ?, ?, ?, ?)
	`)
	for _, entry := range entries {
		_, err := s.db.ExecContext(ctx, insert,
			entry.ID,
			entry.LoggedAt.UTC().Format(time.RFC3339),
			entry.Date.String(),
			string(entry.Status),
			entry.Location,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteDateDetail replaces the detail partition for one date.
func (s *Store) WriteDateDetail(ctx context.Context, date report.Date, rows []report.DetailRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	label := date.DetailLabel()
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM date_details WHERE label = ?`), label); err != nil {
		return err
	}
	insert := s.rebind(`
		INSERT INTO date_details (label, person_id, name, email, log_date, login_at, logout_at, hours)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	for _, row := range rows {
		_, err := tx.ExecContext(ctx, insert,
			label, row.PersonID, row.Name, row.Email, row.Date.String(),
			nullableTime(row.Login), nullableTime(row.Logout), nullableFloat(row.Hours),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
