// Package source provides file-based event sources for locations fed by
// exported check-in logs rather than a live event table.
package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BL-Elavarasu/AttendanceReport/internal/report"
)

// Export column headers as written by the check-in form.
const (
	colTimestamp = "Timestamp"
	colEmail     = "Email Address"
	colName      = "Full Name"
	colAction    = "Select your action"
)

// CSVDir reads raw events from the newest .csv export in a drop directory.
// The path may also point directly at a single export file.
type CSVDir struct {
	Path string
}

// NewCSVDir creates a source over a drop directory or file.
func NewCSVDir(path string) *CSVDir {
	return &CSVDir{Path: path}
}

// ReadEvents parses the newest export. Row-level problems are left in the
// raw rows for the normalizer to count; only structural failures (missing
// file, unreadable CSV, missing header columns) are errors.
func (s *CSVDir) ReadEvents(ctx context.Context) ([]report.RawRow, error) {
	path, err := s.newestExport()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse export %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("export %s is empty", filepath.Base(path))
	}

	idx, err := headerIndex(records[0])
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", filepath.Base(path), err)
	}

	rows := make([]report.RawRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, report.RawRow{
			Timestamp: field(rec, idx[colTimestamp]),
			Email:     field(rec, idx[colEmail]),
			Name:      field(rec, idx[colName]),
			Action:    field(rec, idx[colAction]),
		})
	}
	return rows, nil
}

func (s *CSVDir) newestExport() (string, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return "", fmt.Errorf("event export path: %w", err)
	}
	if !info.IsDir() {
		return s.Path, nil
	}

	entries, err := os.ReadDir(s.Path)
	if err != nil {
		return "", err
	}
	var newest string
	var newestMod int64
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || fi.ModTime().UnixNano() > newestMod {
			newest = entry.Name()
			newestMod = fi.ModTime().UnixNano()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("no .csv exports in %s", s.Path)
	}
	return filepath.Join(s.Path, newest), nil
}

func headerIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colTimestamp, colEmail, colAction} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}
	if _, ok := idx[colName]; !ok {
		idx[colName] = -1
	}
	return idx, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}
