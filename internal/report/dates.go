package report

import (
	"sort"
	"time"
)

// NewDates returns the computed dates not yet present in the process log,
// ascending. Log entries count regardless of their commit status: a Failed
// detail write still marks the date as processed.
//
// When currentMonthOnly is false, dates before the first day of the previous
// calendar month (relative to now) are dropped as aged-out backlog. The
// current-month mode needs no extra cutoff because the normalizer already
// filtered the events.
func NewDates(computed []Date, logged []ProcessLogEntry, currentMonthOnly bool, now time.Time) []Date {
	seen := make(map[Date]struct{}, len(logged))
	for _, entry := range logged {
		seen[entry.Date] = struct{}{}
	}

	var cutoff Date
	if !currentMonthOnly {
		cutoff = firstOfPreviousMonth(now)
	}

	var out []Date
	added := make(map[Date]struct{}, len(computed))
	for _, d := range computed {
		if _, ok := seen[d]; ok {
			continue
		}
		if _, ok := added[d]; ok {
			continue
		}
		if !currentMonthOnly && d.Before(cutoff) {
			continue
		}
		added[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func firstOfPreviousMonth(now time.Time) Date {
	y, m, _ := now.Date()
	firstOfMonth := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	prev := firstOfMonth.AddDate(0, -1, 0)
	return DateOf(prev)
}
