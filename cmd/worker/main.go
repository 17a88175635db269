package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/BL-Elavarasu/AttendanceReport/internal/config"
	"github.com/BL-Elavarasu/AttendanceReport/internal/metrics"
	"github.com/BL-Elavarasu/AttendanceReport/internal/queue"
	"github.com/BL-Elavarasu/AttendanceReport/internal/report"
	"github.com/BL-Elavarasu/AttendanceReport/internal/source"
	"github.com/BL-Elavarasu/AttendanceReport/internal/store"
)

// Worker consumes run triggers and executes report runs. Locations with an
// events CSV drop directory are also watched, so a new export triggers a run
// without an API call.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(store.NewRedis(cfg.RedisAddr).Client, "attendance:runs")
	}

	if err := watchDropDirs(ctx, cfg, q); err != nil {
		log.Printf("WARNING: drop dir watch disabled: %v", err)
	}

	triggers, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for triggers...")
	for trig := range triggers {
		log.Printf("trigger location=%s reason=%s", trig.Location, trig.Reason)
		summary, err := runLocation(ctx, cfg, trig.Location)
		if err != nil {
			log.Printf("run %s failed: %v", trig.Location, err)
			continue
		}
		log.Printf("run %s done: %d new dates, %d succeeded, %d failed",
			summary.RunID, len(summary.NewDates), len(summary.Succeeded), len(summary.Failed))
	}

	log.Println("worker stopped")
}

func runLocation(ctx context.Context, cfg config.App, location string) (report.Summary, error) {
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

// watchDropDirs enqueues a trigger whenever a csv export lands in a
// location's drop directory.
func watchDropDirs(ctx context.Context, cfg config.App, q queue.Queue) error {
	dirs := make(map[string]string) // dir -> location
	for name, loc := range cfg.Locations {
		if loc.EventsCSVDir != "" {
			dirs[loc.EventsCSVDir] = name
		}
	}
	if len(dirs) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		log.Printf("watching %s for exports", dir)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				if !strings.EqualFold(filepath.Ext(event.Name), ".csv") {
					continue
				}
				location := dirs[filepath.Dir(event.Name)]
				if location == "" {
					continue
				}
				trig := queue.Trigger{
					Location: location,
					Reason:   "watcher:" + filepath.Base(event.Name),
				}
				if err := q.Publish(ctx, trig); err != nil {
					log.Printf("enqueue trigger for %s failed: %v", location, err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("watcher error: %v", err)
			}
		}
	}()
	return nil
}
