package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/BL-Elavarasu/AttendanceReport/internal/config"
	"github.com/BL-Elavarasu/AttendanceReport/internal/metrics"
	"github.com/BL-Elavarasu/AttendanceReport/internal/report"
	"github.com/BL-Elavarasu/AttendanceReport/internal/source"
	"github.com/BL-Elavarasu/AttendanceReport/internal/store"
)

// One-shot batch run for a single location.
func main() {
	configPath := flag.String("config", "", "path to locations config (overrides CONFIG_PATH)")
	currentMonth := flag.Bool("current-month", false, "restrict to current-month events and dates")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: report [flags] <location>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	location := flag.Arg(0)

	if *configPath != "" {
		os.Setenv("CONFIG_PATH", *configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *currentMonth {
		cfg.CurrentMonthOnly = true
	}

	summary, err := run(context.Background(), cfg, location)
	if err != nil {
		log.Fatalf("run %s failed: %v", location, err)
	}
	logSummary(summary)
}

func run(ctx context.Context, cfg config.App, location string) (report.Summary, error) {
	loc, err := cfg.Location(location)
	if err != nil {
		return report.Summary{}, err
	}

	db, err := store.Open(loc)
	if err != nil {
		return report.Summary{}, fmt.Errorf("open backend: %w", err)
	}
	defer db.Close()

	st, err := store.New(ctx, db)
	if err != nil {
		return report.Summary{}, fmt.Errorf("init store: %w", err)
	}

	stores := report.Stores{
		Events: st,
		Roster: st,
		Ledger: st,
		Log:    st,
		Detail: st,
	}
	if loc.EventsCSVDir != "" {
		stores.Events = source.NewCSVDir(loc.EventsCSVDir)
	}

	eng := report.New(stores, report.Options{
		Location:         location,
		CurrentMonthOnly: cfg.CurrentMonthOnly,
		DetailPause:      loc.DetailPause(),
	})

	start := time.Now()
	summary, err := eng.Run(ctx)
	if err != nil {
		metrics.ObserveFailure(location, time.Since(start).Seconds())
		return summary, err
	}
	metrics.ObserveRun(summary, time.Since(start).Seconds())
	return summary, nil
}

func logSummary(s report.Summary) {
	log.Printf("run %s location=%s rows=%d (blank=%d bad_ts=%d bad_action=%d filtered=%d)",
		s.RunID, s.Location, s.Rows.Total, s.Rows.Blank, s.Rows.BadTimestamp, s.Rows.BadAction, s.Rows.OutsideFilter)
	log.Printf("active=%d daily=%d computed=%d new=%d created_ledger=%v",
		s.ActivePeople, s.DailyRecords, len(s.ComputedDates), len(s.NewDates), s.LedgerCreated)
	if len(s.NewDates) == 0 {
		log.Printf("no new dates, nothing to commit")
		return
	}
	for _, d := range s.Succeeded {
		log.Printf("date %s committed", d)
	}
	for _, d := range s.Failed {
		log.Printf("date %s detail write failed, logged as Failed", d)
	}
}
