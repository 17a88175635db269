package report

import (
	"context"
	"errors"
	"testing"
	"time"
)

// memStores implements all five store interfaces in memory.
type memStores struct {
	rows       []RawRow
	roster     []Person
	ledger     *Ledger
	logEntries []ProcessLogEntry

	detailWrites map[Date][]DetailRow
	failDetail   map[Date]bool

	creates      int
	ledgerWrites int
}

func newMemStores() *memStores {
	return &memStores{
		detailWrites: make(map[Date][]DetailRow),
		failDetail:   make(map[Date]bool),
	}
}

func (m *memStores) ReadEvents(ctx context.Context) ([]RawRow, error) { return m.rows, nil }

func (m *memStores) ReadRoster(ctx context.Context) ([]Person, error) { return m.roster, nil }

func (m *memStores) ReadLedger(ctx context.Context) (*Ledger, error) {
	if m.ledger == nil {
		return nil, ErrLedgerNotFound
	}
	return m.ledger, nil
}

func (m *memStores) CreateLedger(ctx context.Context, l *Ledger) error {
	m.creates++
	m.ledger = l
	return nil
}

func (m *memStores) WriteLedger(ctx context.Context, l *Ledger) error {
	m.ledgerWrites++
	m.ledger = l
	return nil
}

func (m *memStores) ReadLog(ctx context.Context) ([]ProcessLogEntry, error) {
	return m.logEntries, nil
}

func (m *memStores) AppendLog(ctx context.Context, entries []ProcessLogEntry) error {
	m.logEntries = append(m.logEntries, entries...)
	return nil
}

func (m *memStores) WriteDateDetail(ctx context.Context, date Date, rows []DetailRow) error {
	if m.failDetail[date] {
		return errors.New("quota exceeded")
	}
	m.detailWrites[date] = rows
	return nil
}

func (m *memStores) stores() Stores {
	return Stores{Events: m, Roster: m, Ledger: m, Log: m, Detail: m}
}

func fixedNow() time.Time {
	return time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
}

func testEngine(m *memStores) *Engine {
	return New(m.stores(), Options{
		Location:         "blr",
		CurrentMonthOnly: true,
		Now:              fixedNow,
	})
}

func TestRunFullDayScenario(t *testing.T) {
	m := newMemStores()
	m.roster = []Person{
		{ID: "E1", Name: "Priya", Email: "p@x.com", Active: true},
		{ID: "E2", Name: "Quentin", Email: "q@x.com", Active: true},
	}
	m.rows = []RawRow{
		{Timestamp: "1/10/2024 9:00:00", Email: "p@x.com", Name: "Priya", Action: "Login"},
		{Timestamp: "1/10/2024 18:00:00", Email: "p@x.com", Name: "Priya", Action: "Logout"},
		{Timestamp: "1/11/2024 9:00:00", Email: "p@x.com", Name: "Priya", Action: "Login"},
	}

	summary, err := testEngine(m).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !summary.LedgerCreated || m.creates != 1 {
		t.Fatalf("first run must bootstrap the ledger (created=%v creates=%d)", summary.LedgerCreated, m.creates)
	}
	if len(summary.NewDates) != 2 {
		t.Fatalf("new dates = %v", summary.NewDates)
	}

	jan10, jan11 := d(2024, 1, 10), d(2024, 1, 11)
	if cell, _ := m.ledger.Cell("E1", jan10); cell.Status != StatusPresent || cell.Remarks != RemarkAllGood {
		t.Fatalf("E1 on Jan 10 = %+v, want P / All good", cell)
	}
	if cell, _ := m.ledger.Cell("E1", jan11); cell.Remarks != RemarkNoLogout {
		t.Fatalf("E1 on Jan 11 = %+v, want Logout not done", cell)
	}
	// Q had no events at all; both dates must be filled, never blank.
	for _, day := range []Date{jan10, jan11} {
		cell, ok := m.ledger.Cell("E2", day)
		if !ok || cell.Status != StatusAbsent || cell.Remarks != RemarkAbsent {
			t.Fatalf("E2 on %v = %+v (ok=%v), want A / Absent", day, cell, ok)
		}
	}

	// Detail rows carry the computed hours for the paired day.
	details := m.detailWrites[jan10]
	if len(details) != 1 || details[0].Hours == nil || *details[0].Hours != 9.0 {
		t.Fatalf("Jan 10 details = %+v", details)
	}
	if len(m.logEntries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(m.logEntries))
	}
	for _, entry := range m.logEntries {
		if entry.Status != CommitSuccess || entry.ID == "" || entry.Location != "blr" {
			t.Fatalf("bad log entry: %+v", entry)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	m := newMemStores()
	m.roster = []Person{{ID: "E1", Name: "Priya", Email: "p@x.com", Active: true}}
	m.rows = []RawRow{
		{Timestamp: "1/10/2024 9:00:00", Email: "p@x.com", Action: "Login"},
		{Timestamp: "1/10/2024 18:00:00", Email: "p@x.com", Action: "Logout"},
	}

	eng := testEngine(m)
	if _, err := eng.Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	cellBefore, _ := m.ledger.Cell("E1", d(2024, 1, 10))

	summary, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if len(summary.NewDates) != 0 {
		t.Fatalf("second run found new dates: %v", summary.NewDates)
	}
	if len(m.logEntries) != 1 {
		t.Fatalf("duplicate log entries after re-run: %d", len(m.logEntries))
	}
	if len(m.ledger.Dates) != 1 {
		t.Fatalf("duplicate date columns after re-run: %v", m.ledger.Dates)
	}
	if cellAfter, _ := m.ledger.Cell("E1", d(2024, 1, 10)); cellAfter != cellBefore {
		t.Fatalf("committed cell changed on re-run: %+v -> %+v", cellBefore, cellAfter)
	}
	if m.ledgerWrites != 1 {
		t.Fatalf("ledger rewritten on a no-op run: %d writes", m.ledgerWrites)
	}
}

func TestRunDetailFailureIsLocalAndFinal(t *testing.T) {
	m := newMemStores()
	m.roster = []Person{{ID: "E1", Name: "Priya", Email: "p@x.com", Active: true}}
	m.rows = []RawRow{
		{Timestamp: "1/10/2024 9:00:00", Email: "p@x.com", Action: "Login"},
		{Timestamp: "1/11/2024 9:00:00", Email: "p@x.com", Action: "Login"},
	}
	m.failDetail[d(2024, 1, 10)] = true

	eng := testEngine(m)
	summary, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("run must survive a detail write failure: %v", err)
	}
	if len(summary.Failed) != 1 || summary.Failed[0] != d(2024, 1, 10) {
		t.Fatalf("failed dates = %v", summary.Failed)
	}
	if len(summary.Succeeded) != 1 || summary.Succeeded[0] != d(2024, 1, 11) {
		t.Fatalf("succeeded dates = %v", summary.Succeeded)
	}
	// The ledger columns for the failed date are still committed.
	if _, ok := m.ledger.Cell("E1", d(2024, 1, 10)); !ok {
		t.Fatalf("ledger columns missing for failed-detail date")
	}

	var failedEntries int
	for _, entry := range m.logEntries {
		if entry.Status == CommitFailed {
			failedEntries++
		}
	}
	if failedEntries != 1 {
		t.Fatalf("expected 1 Failed entry, got %d", failedEntries)
	}

	// The Failed entry still marks the date processed: a re-run with the
	// same events must not touch it again.
	m.failDetail = map[Date]bool{}
	summary, err = eng.Run(context.Background())
	if err != nil {
		t.Fatalf("re-run failed: %v", err)
	}
	if len(summary.NewDates) != 0 {
		t.Fatalf("failed date was reprocessed: %v", summary.NewDates)
	}
}

func TestRunInactivePeopleAreExcluded(t *testing.T) {
	m := newMemStores()
	m.roster = []Person{
		{ID: "E1", Name: "Priya", Email: "p@x.com", Active: true},
		{ID: "E9", Name: "Former", Email: "f@x.com", Active: false},
	}
	m.rows = []RawRow{
		{Timestamp: "1/10/2024 9:00:00", Email: "p@x.com", Action: "Login"},
		{Timestamp: "1/10/2024 9:05:00", Email: "f@x.com", Action: "Login"},
	}

	if _, err := testEngine(m).Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if _, ok := m.ledger.Cells["E9"]; ok {
		t.Fatalf("inactive person must not reach the ledger")
	}
	for _, row := range m.ledger.Rows {
		if row.PersonID == "E9" {
			t.Fatalf("inactive person bootstrapped into ledger rows")
		}
	}
	details := m.detailWrites[d(2024, 1, 10)]
	if len(details) != 1 || details[0].PersonID != "E1" {
		t.Fatalf("details include non-roster rows: %+v", details)
	}
}

func TestRunNewlyInactiveLedgerRowGetsAbsentFill(t *testing.T) {
	m := newMemStores()
	// Existing ledger carries E2 from an earlier roster snapshot.
	m.ledger = NewLedger([]Person{
		{ID: "E1", Name: "Priya", Email: "p@x.com", Active: true},
		{ID: "E2", Name: "Quentin", Email: "q@x.com", Active: true},
	})
	m.roster = []Person{{ID: "E1", Name: "Priya", Email: "p@x.com", Active: true}}
	m.rows = []RawRow{
		{Timestamp: "1/10/2024 9:00:00", Email: "p@x.com", Action: "Login"},
	}

	if _, err := testEngine(m).Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	cell, ok := m.ledger.Cell("E2", d(2024, 1, 10))
	if !ok || cell.Status != StatusAbsent || cell.Remarks != RemarkAbsent {
		t.Fatalf("stale ledger row not filled: %+v (ok=%v)", cell, ok)
	}
}

func TestRunEmptyRosterIsFatal(t *testing.T) {
	m := newMemStores()
	m.roster = []Person{{ID: "E9", Email: "f@x.com", Active: false}}
	m.rows = []RawRow{
		{Timestamp: "1/10/2024 9:00:00", Email: "p@x.com", Action: "Login"},
	}

	if _, err := testEngine(m).Run(context.Background()); err == nil {
		t.Fatalf("expected error for roster with no active people")
	}
	if m.creates != 0 || len(m.logEntries) != 0 {
		t.Fatalf("fatal error must not mutate stores")
	}
}

func TestRunSkipCountsSurfaceInSummary(t *testing.T) {
	m := newMemStores()
	m.roster = []Person{{ID: "E1", Email: "p@x.com", Active: true}}
	m.rows = []RawRow{
		{Timestamp: "garbage", Email: "p@x.com", Action: "Login"},
		{},
		{Timestamp: "1/10/2024 9:00:00", Email: "p@x.com", Action: "Login"},
	}

	summary, err := testEngine(m).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if summary.Rows.BadTimestamp != 1 || summary.Rows.Blank != 1 {
		t.Fatalf("skip counts missing: %+v", summary.Rows)
	}
}
