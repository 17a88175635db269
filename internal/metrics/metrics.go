// Package metrics exposes prometheus counters for report runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/BL-Elavarasu/AttendanceReport/internal/report"
)

var (
	// Runs counts report runs by location and result.
	Runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_report_runs_total",
		Help: "Report runs by location and result.",
	}, []string{"location", "result"})

	// DatesCommitted counts dates committed to the process log by status.
	DatesCommitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_report_dates_committed_total",
		Help: "Dates committed to the process log by status.",
	}, []string{"location", "status"})

	// RowsSkipped counts raw rows dropped during normalization.
	RowsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_report_rows_skipped_total",
		Help: "Raw event rows dropped during normalization.",
	}, []string{"location", "reason"})

	// RunDuration tracks wall time of report runs.
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attendance_report_run_duration_seconds",
		Help:    "Wall time of report runs.",
		Buckets: prometheus.DefBuckets,
	}, []string{"location"})
)

// ObserveRun records counters from a completed run summary.
func ObserveRun(sum report.Summary, seconds float64) {
	loc := sum.Location
	Runs.WithLabelValues(loc, "ok").Inc()
	RunDuration.WithLabelValues(loc).Observe(seconds)

	DatesCommitted.WithLabelValues(loc, string(report.CommitSuccess)).Add(float64(len(sum.Succeeded)))
	DatesCommitted.WithLabelValues(loc, string(report.CommitFailed)).Add(float64(len(sum.Failed)))

	RowsSkipped.WithLabelValues(loc, "blank").Add(float64(sum.Rows.Blank))
	RowsSkipped.WithLabelValues(loc, "bad_timestamp").Add(float64(sum.Rows.BadTimestamp))
	RowsSkipped.WithLabelValues(loc, "bad_action").Add(float64(sum.Rows.BadAction))
	RowsSkipped.WithLabelValues(loc, "outside_filter").Add(float64(sum.Rows.OutsideFilter))
}

// ObserveFailure records a run that ended in a fatal error.
func ObserveFailure(location string, seconds float64) {
	Runs.WithLabelValues(location, "error").Inc()
	RunDuration.WithLabelValues(location).Observe(seconds)
}
