package result

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"qrscan/pkg/config"
	"qrscan/pkg/metrics"
	"strings"
	"testing"
	"time"
)

func TestWriteAllResults(t *testing.T) {
	rec := metrics.NewRecorder(false)
	_ = rec.Record("Submit", metrics.MNetwork, func() error { return nil })
	_ = rec.Record("Submit", metrics.MNetwork, func() error { return errors.New("refused") })
	_ = rec.Record("Scan", metrics.MHardwareRead, func() error { return nil })

	dir := filepath.Join(t.TempDir(), "results")
	w := NewWriter(dir, config.SourceCore)
	w.now = func() time.Time { return time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC) }

	paths, err := w.WriteAllResults(rec)
	if err != nil {
		t.Fatalf("WriteAllResults() error = %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v, want 2 files", paths)
	}
	if base := filepath.Base(paths[0]); base != "RAW_SCore_T2026-01-02-15-04-05.csv" {
		t.Errorf("raw filename = %s", base)
	}

	raw := readCSV(t, paths[0])
	if len(raw) != 4 {
		t.Fatalf("raw rows = %d, want header + 3", len(raw))
	}
	if raw[0][0] != "Component" {
		t.Errorf("raw header = %v", raw[0])
	}

	stats := readCSV(t, paths[1])
	if len(stats) != 3 {
		t.Fatalf("stats rows = %d, want header + 2", len(stats))
	}
	var submitRow []string
	for _, row := range stats[1:] {
		if row[0] == "Submit" {
			submitRow = row
		}
	}
	if submitRow == nil {
		t.Fatalf("no Submit row in %v", stats)
	}
	if submitRow[2] != "2" || submitRow[3] != "1" {
		t.Errorf("submit count/failures = %s/%s, want 2/1", submitRow[2], submitRow[3])
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return rows
}
