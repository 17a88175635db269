package report

import (
	"strings"
	"time"
)

// timestampLayouts are tried in order when parsing the raw timestamp column.
// Form exports write M/D/YYYY with no leading zeros, older dumps use the
// dashed forms.
var timestampLayouts = []string{
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02-Jan-2006 15:04:05",
}

// NormalizeStats counts rows dropped during normalization. Dropped rows are
// never fatal; callers decide whether the counts are worth reporting.
type NormalizeStats struct {
	Total         int
	Blank         int
	BadTimestamp  int
	BadAction     int
	OutsideFilter int
}

// NormalizeOptions controls event normalization.
type NormalizeOptions struct {
	// CurrentMonthOnly keeps only events whose timestamp falls in the
	// calendar month of Now.
	CurrentMonthOnly bool
	Now              time.Time
}

// Normalize cleans raw rows into typed events. Blank rows and rows with an
// unparseable timestamp or unknown action are dropped and counted.
func Normalize(rows []RawRow, opts NormalizeOptions) ([]Event, NormalizeStats) {
	stats := NormalizeStats{Total: len(rows)}
	events := make([]Event, 0, len(rows))
	for _, row := range rows {
		if isBlank(row) {
			stats.Blank++
			continue
		}
		at, ok := parseTimestamp(row.Timestamp)
		if !ok {
			stats.BadTimestamp++
			continue
		}
		action, err := ParseAction(strings.TrimSpace(row.Action))
		if err != nil {
			stats.BadAction++
			continue
		}
		if opts.CurrentMonthOnly {
			y, m, _ := opts.Now.Date()
			if at.Year() != y || at.Month() != m {
				stats.OutsideFilter++
				continue
			}
		}
		events = append(events, Event{
			Email:  strings.TrimSpace(row.Email),
			At:     at,
			Action: action,
		})
	}
	return events, stats
}

func isBlank(row RawRow) bool {
	return strings.TrimSpace(row.Timestamp) == "" &&
		strings.TrimSpace(row.Email) == "" &&
		strings.TrimSpace(row.Name) == "" &&
		strings.TrimSpace(row.Action) == ""
}

func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
