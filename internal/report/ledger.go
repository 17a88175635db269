package report

import (
	"fmt"
	"sort"
)

// Cell is one date's pair of values for one person.
type Cell struct {
	Status  string
	Remarks string
}

// LedgerRow identifies one person row of the ledger.
type LedgerRow struct {
	PersonID string
	Name     string
	Email    string
}

// Ledger is the wide per-person, per-date attendance table. Rows keep their
// insertion order; Dates are always ascending, and within a date the Status
// value precedes Remarks wherever the ledger is rendered.
type Ledger struct {
	Rows  []LedgerRow
	Dates []Date
	Cells map[string]map[Date]Cell
}

// NewLedger bootstraps a ledger from the active roster with no date columns.
func NewLedger(roster []Person) *Ledger {
	l := &Ledger{Cells: make(map[string]map[Date]Cell)}
	for _, p := range roster {
		if !p.Active {
			continue
		}
		l.Rows = append(l.Rows, LedgerRow{PersonID: p.ID, Name: p.Name, Email: p.Email})
	}
	return l
}

// HasDate reports whether the ledger already carries columns for d.
func (l *Ledger) HasDate(d Date) bool {
	for _, existing := range l.Dates {
		if existing == d {
			return true
		}
	}
	return false
}

// Cell returns the cell for (personID, date) if set.
func (l *Ledger) Cell(personID string, d Date) (Cell, bool) {
	cells, ok := l.Cells[personID]
	if !ok {
		return Cell{}, false
	}
	c, ok := cells[d]
	return c, ok
}

// Merge left-merges the classified records for newDates into the ledger.
// Every existing row is kept; rows with no record for a new date are filled
// with the absent cell. Dates already present are skipped entirely so a
// re-run cannot duplicate or overwrite committed columns.
func (l *Ledger) Merge(records []StatusRecord, newDates []Date) {
	if l.Cells == nil {
		l.Cells = make(map[string]map[Date]Cell)
	}

	byKey := make(map[string]map[Date]Cell)
	for _, rec := range records {
		if byKey[rec.PersonID] == nil {
			byKey[rec.PersonID] = make(map[Date]Cell)
		}
		byKey[rec.PersonID][rec.Date] = Cell{Status: rec.Status, Remarks: rec.Remarks}
	}

	for _, d := range newDates {
		if l.HasDate(d) {
			continue
		}
		l.Dates = append(l.Dates, d)
		for _, row := range l.Rows {
			cell, ok := byKey[row.PersonID][d]
			if !ok {
				cell = Cell{Status: StatusAbsent, Remarks: RemarkAbsent}
			}
			if l.Cells[row.PersonID] == nil {
				l.Cells[row.PersonID] = make(map[Date]Cell)
			}
			l.Cells[row.PersonID][d] = cell
		}
	}
	sort.Slice(l.Dates, func(i, j int) bool { return l.Dates[i].Before(l.Dates[j]) })
}

// ledger header labels for the tabular encoding.
const (
	headerPersonID = "Admit ID"
	headerName     = "Name"
	headerEmail    = "Email"
	headerStatus   = "Status"
	headerRemarks  = "Remarks"
)

const ledgerFixedCols = 3

// EncodeRows renders the ledger in the two-row multi-level header layout:
// row 0 carries the person headers and each date label twice, row 1 carries
// the Status/Remarks sub-labels.
func (l *Ledger) EncodeRows() [][]string {
	width := ledgerFixedCols + 2*len(l.Dates)
	top := make([]string, 0, width)
	sub := make([]string, 0, width)
	top = append(top, headerPersonID, headerName, headerEmail)
	sub = append(sub, "", "", "")
	for _, d := range l.Dates {
		label := d.String()
		top = append(top, label, label)
		sub = append(sub, headerStatus, headerRemarks)
	}

	out := [][]string{top, sub}
	for _, row := range l.Rows {
		line := make([]string, 0, width)
		line = append(line, row.PersonID, row.Name, row.Email)
		for _, d := range l.Dates {
			cell := l.Cells[row.PersonID][d]
			line = append(line, cell.Status, cell.Remarks)
		}
		out = append(out, line)
	}
	return out
}

// DecodeLedgerRows parses the two-row header layout back into a ledger.
func DecodeLedgerRows(rows [][]string) (*Ledger, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("ledger table needs two header rows, got %d rows", len(rows))
	}
	top := rows[0]
	if len(top) < ledgerFixedCols || (len(top)-ledgerFixedCols)%2 != 0 {
		return nil, fmt.Errorf("ledger header has %d columns, want %d plus date pairs", len(top), ledgerFixedCols)
	}

	l := &Ledger{Cells: make(map[string]map[Date]Cell)}
	for col := ledgerFixedCols; col < len(top); col += 2 {
		d, err := ParseDate(top[col])
		if err != nil {
			return nil, fmt.Errorf("ledger date column %q: %w", top[col], err)
		}
		l.Dates = append(l.Dates, d)
	}

	for _, line := range rows[2:] {
		if len(line) == 0 || line[0] == "" {
			continue
		}
		row := LedgerRow{PersonID: line[0]}
		if len(line) > 1 {
			row.Name = line[1]
		}
		if len(line) > 2 {
			row.Email = line[2]
		}
		l.Rows = append(l.Rows, row)
		cells := make(map[Date]Cell, len(l.Dates))
		for i, d := range l.Dates {
			col := ledgerFixedCols + 2*i
			var cell Cell
			if col < len(line) {
				cell.Status = line[col]
			}
			if col+1 < len(line) {
				cell.Remarks = line[col+1]
			}
			cells[d] = cell
		}
		l.Cells[row.PersonID] = cells
	}
	return l, nil
}
