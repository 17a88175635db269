package report

import (
	"testing"
	"time"
)

func TestNormalizeCountsDrops(t *testing.T) {
	rows := []RawRow{
		{Timestamp: "1/10/2024 9:00:00", Email: "p@x.com", Name: "P", Action: "Login"},
		{},                    // all blank
		{Timestamp: "not a time", Email: "q@x.com", Action: "Login"},
		{Timestamp: "1/10/2024 9:05:00", Email: "q@x.com", Action: "Break"},
	}
	events, stats := Normalize(rows, NormalizeOptions{Now: time.Now()})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if stats.Total != 4 || stats.Blank != 1 || stats.BadTimestamp != 1 || stats.BadAction != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestNormalizeParsesFormLayout(t *testing.T) {
	events, _ := Normalize([]RawRow{
		{Timestamp: "1/2/2024 18:30:00", Email: " p@x.com ", Action: "Logout"},
	}, NormalizeOptions{Now: time.Now()})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	evt := events[0]
	if evt.Email != "p@x.com" {
		t.Fatalf("email not trimmed: %q", evt.Email)
	}
	want := time.Date(2024, 1, 2, 18, 30, 0, 0, time.UTC)
	if !evt.At.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", evt.At, want)
	}
	if evt.Action != ActionLogout {
		t.Fatalf("action = %v", evt.Action)
	}
}

func TestNormalizeCurrentMonthFilter(t *testing.T) {
	now := time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)
	rows := []RawRow{
		{Timestamp: "2/10/2024 9:00:00", Email: "p@x.com", Action: "Login"},
		{Timestamp: "1/10/2024 9:00:00", Email: "p@x.com", Action: "Login"},
		{Timestamp: "2/10/2023 9:00:00", Email: "p@x.com", Action: "Login"}, // same month, prior year
	}
	events, stats := Normalize(rows, NormalizeOptions{CurrentMonthOnly: true, Now: now})
	if len(events) != 1 {
		t.Fatalf("expected 1 event after filter, got %d", len(events))
	}
	if stats.OutsideFilter != 2 {
		t.Fatalf("expected 2 filtered rows, got %d", stats.OutsideFilter)
	}
}
