package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Options configures one engine run.
type Options struct {
	// Location names the configured source/sink set; recorded in the
	// process log and summary.
	Location string
	// CurrentMonthOnly restricts events to the current calendar month and
	// skips the backlog retention cutoff.
	CurrentMonthOnly bool
	// DetailPause is the fixed wait between successive per-date detail
	// writes, respecting the store's write quota.
	DetailPause time.Duration
	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// Summary reports what a run did. Non-fatal skips are counted here rather
// than logged, so callers can assert on them.
type Summary struct {
	RunID         string
	Location      string
	Rows          NormalizeStats
	ActivePeople  int
	DailyRecords  int
	ComputedDates []Date
	NewDates      []Date
	Succeeded     []Date
	Failed        []Date
	LedgerCreated bool
}

// Engine turns raw events into committed ledger columns. It holds no state
// between runs; everything durable lives behind the injected stores.
type Engine struct {
	stores Stores
	opts   Options
}

// New builds an engine over the given stores.
func New(stores Stores, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DetailPause < 0 {
		opts.DetailPause = 0
	}
	return &Engine{stores: stores, opts: opts}
}

// Run executes one batch: normalize, pair, classify, diff against the
// process log, merge new date columns into the ledger, write per-date
// details, and append log entries. A per-date detail failure is recorded as
// Failed and the run continues; any other error aborts.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	now := e.opts.Now()
	summary := Summary{RunID: uuid.NewString(), Location: e.opts.Location}

	rawRows, err := e.stores.Events.ReadEvents(ctx)
	if err != nil {
		return summary, fmt.Errorf("read events: %w", err)
	}
	events, stats := Normalize(rawRows, NormalizeOptions{
		CurrentMonthOnly: e.opts.CurrentMonthOnly,
		Now:              now,
	})
	summary.Rows = stats

	daily := BuildDailyRecords(events)
	summary.DailyRecords = len(daily)

	roster, err := e.stores.Roster.ReadRoster(ctx)
	if err != nil {
		return summary, fmt.Errorf("read roster: %w", err)
	}
	active := activeOnly(roster)
	summary.ActivePeople = len(active)
	if len(active) == 0 {
		return summary, errors.New("roster has no active people")
	}

	details := joinRoster(active, daily)
	summary.ComputedDates = distinctDates(details)

	logged, err := e.stores.Log.ReadLog(ctx)
	if err != nil {
		return summary, fmt.Errorf("read process log: %w", err)
	}
	newDates := NewDates(summary.ComputedDates, logged, e.opts.CurrentMonthOnly, now)
	summary.NewDates = newDates
	if len(newDates) == 0 {
		return summary, nil
	}

	ledger, err := e.stores.Ledger.ReadLedger(ctx)
	if errors.Is(err, ErrLedgerNotFound) {
		ledger = NewLedger(active)
		if err := e.stores.Ledger.CreateLedger(ctx, ledger); err != nil {
			return summary, fmt.Errorf("create ledger: %w", err)
		}
		summary.LedgerCreated = true
	} else if err != nil {
		return summary, fmt.Errorf("read ledger: %w", err)
	}

	records := BuildStatusRecords(active, details, newDates)
	ledger.Merge(records, newDates)
	if err := e.stores.Ledger.WriteLedger(ctx, ledger); err != nil {
		return summary, fmt.Errorf("write ledger: %w", err)
	}

	entries := make([]ProcessLogEntry, 0, len(newDates))
	for i, d := range newDates {
		if i > 0 && e.opts.DetailPause > 0 {
			select {
			case <-time.After(e.opts.DetailPause):
			case <-ctx.Done():
				return summary, ctx.Err()
			}
		}
		status := CommitSuccess
		if err := e.stores.Detail.WriteDateDetail(ctx, d, detailsFor(details, d)); err != nil {
			status = CommitFailed
			summary.Failed = append(summary.Failed, d)
		} else {
			summary.Succeeded = append(summary.Succeeded, d)
		}
		entries = append(entries, ProcessLogEntry{
			ID:       uuid.NewString(),
			LoggedAt: e.opts.Now(),
			Date:     d,
			Status:   status,
			Location: e.opts.Location,
		})
	}
	if err := e.stores.Log.AppendLog(ctx, entries); err != nil {
		return summary, fmt.Errorf("append process log: %w", err)
	}
	return summary, nil
}

// BuildStatusRecords classifies every (active person, date) pair for the
// given dates. People with no daily record on a date classify as absent.
func BuildStatusRecords(active []Person, details []DetailRow, dates []Date) []StatusRecord {
	byKey := make(map[string]map[Date]*DailyRecord)
	for i := range details {
		d := details[i]
		if byKey[d.PersonID] == nil {
			byKey[d.PersonID] = make(map[Date]*DailyRecord)
		}
		byKey[d.PersonID][d.Date] = &DailyRecord{
			Email:  d.Email,
			Date:   d.Date,
			Login:  d.Login,
			Logout: d.Logout,
			Hours:  d.Hours,
		}
	}

	records := make([]StatusRecord, 0, len(active)*len(dates))
	for _, d := range dates {
		for _, p := range active {
			status, remarks := ClassifyRecord(byKey[p.ID][d])
			records = append(records, StatusRecord{
				PersonID: p.ID,
				Date:     d,
				Status:   status,
				Remarks:  remarks,
			})
		}
	}
	return records
}

func activeOnly(roster []Person) []Person {
	out := make([]Person, 0, len(roster))
	for _, p := range roster {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

// joinRoster inner-joins daily records with the active roster on email.
// Records from people not on the active roster are dropped.
func joinRoster(active []Person, daily []DailyRecord) []DetailRow {
	byEmail := make(map[string]Person, len(active))
	for _, p := range active {
		byEmail[p.Email] = p
	}
	out := make([]DetailRow, 0, len(daily))
	for _, rec := range daily {
		p, ok := byEmail[rec.Email]
		if !ok {
			continue
		}
		out = append(out, DetailRow{
			PersonID: p.ID,
			Name:     p.Name,
			Email:    p.Email,
			Date:     rec.Date,
			Login:    rec.Login,
			Logout:   rec.Logout,
			Hours:    rec.Hours,
		})
	}
	return out
}

func distinctDates(details []DetailRow) []Date {
	seen := make(map[Date]struct{})
	var out []Date
	for _, d := range details {
		if _, ok := seen[d.Date]; ok {
			continue
		}
		seen[d.Date] = struct{}{}
		out = append(out, d.Date)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func detailsFor(details []DetailRow, d Date) []DetailRow {
	var out []DetailRow
	for _, row := range details {
		if row.Date == d {
			out = append(out, row)
		}
	}
	return out
}
