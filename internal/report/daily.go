package report

import (
	"math"
	"sort"
)

// BuildDailyRecords groups events by (date, email) and pairs the earliest
// login with the earliest logout of each group. Groups with only one action
// kind leave the other side nil. The input order breaks timestamp ties, so
// the result is deterministic for a given input.
func BuildDailyRecords(events []Event) []DailyRecord {
	type key struct {
		date  Date
		email string
	}

	indexed := make([]Event, len(events))
	copy(indexed, events)
	sort.SliceStable(indexed, func(i, j int) bool {
		di, dj := DateOf(indexed[i].At), DateOf(indexed[j].At)
		if di != dj {
			return di.Before(dj)
		}
		if indexed[i].Email != indexed[j].Email {
			return indexed[i].Email < indexed[j].Email
		}
		return indexed[i].At.Before(indexed[j].At)
	})

	records := make(map[key]*DailyRecord)
	var order []key
	for _, evt := range indexed {
		k := key{date: DateOf(evt.At), email: evt.Email}
		rec, ok := records[k]
		if !ok {
			rec = &DailyRecord{Email: evt.Email, Date: k.date}
			records[k] = rec
			order = append(order, k)
		}
		at := evt.At
		switch evt.Action {
		case ActionLogin:
			if rec.Login == nil {
				rec.Login = &at
			}
		case ActionLogout:
			if rec.Logout == nil {
				rec.Logout = &at
			}
		}
	}

	out := make([]DailyRecord, 0, len(order))
	for _, k := range order {
		rec := records[k]
		if rec.Login != nil && rec.Logout != nil {
			h := roundHours(rec.Logout.Sub(*rec.Login).Hours())
			rec.Hours = &h
		}
		out = append(out, *rec)
	}
	return out
}

// roundHours rounds to two decimal places, matching the sheet format.
func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
