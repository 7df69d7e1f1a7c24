package result

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"qrscan/pkg/config"
	"qrscan/pkg/metrics"
	"strconv"
	"time"
)

// Writer is responsible for creating and writing metric result files.
type Writer struct {
	resultsPath string
	source      config.SourceType
	now         func() time.Time
}

// NewWriter creates a new writer for result files.
func NewWriter(resultsPath string, source config.SourceType) *Writer {
	return &Writer{
		resultsPath: resultsPath,
		source:      source,
		now:         time.Now,
	}
}

// WriteAllResults writes the raw samples and their summaries, returning the file paths.
func (w *Writer) WriteAllResults(rec *metrics.Recorder) ([]string, error) {
	if err := os.MkdirAll(w.resultsPath, 0755); err != nil {
		return nil, fmt.Errorf("could not create results directory %s: %w", w.resultsPath, err)
	}

	rawPath, err := w.writeRawResults(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to write raw results: %w", err)
	}
	statPath, err := w.writeStatResults(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to write statistical results: %w", err)
	}
	return []string{rawPath, statPath}, nil
}

// generateFilename creates a standardized filename for a result file.
// Example: RAW_SKeyboard_T2026-01-02-15-04-05.csv
func (w *Writer) generateFilename(fileType string) string {
	timestamp := w.now().Format("2006-01-02-15-04-05")
	base := fmt.Sprintf("%s_S%s_T%s.csv", fileType, w.source, timestamp)
	return filepath.Join(w.resultsPath, base)
}

// writeRawResults saves the wall-clock time of every recorded operation.
func (w *Writer) writeRawResults(rec *metrics.Recorder) (string, error) {
	filePath := w.generateFilename("RAW")
	return filePath, writeCSV(filePath,
		[]string{"Component", "MetricType", "Failed", "ExecutionTime_us"},
		func(cw *csv.Writer) error {
			for _, s := range rec.Series() {
				for _, sm := range s.Samples {
					row := []string{s.Name, s.Type.String(), strconv.FormatBool(sm.Failed), strconv.FormatInt(sm.WallClock.Microseconds(), 10)}
					if err := cw.Write(row); err != nil {
						return fmt.Errorf("failed to write row to %s: %w", filePath, err)
					}
				}
			}
			return nil
		})
}

// writeStatResults saves summary statistics for each component.
func (w *Writer) writeStatResults(rec *metrics.Recorder) (string, error) {
	filePath := w.generateFilename("STATS")
	return filePath, writeCSV(filePath,
		[]string{"Component", "MetricType", "Count", "Failures", "Mean_us", "Median_us", "Min_us", "Max_us", "P95_us"},
		func(cw *csv.Writer) error {
			for _, s := range metrics.Summarize(rec) {
				row := []string{
					s.Name,
					s.Type.String(),
					strconv.Itoa(s.Count),
					strconv.Itoa(s.Failures),
					strconv.FormatInt(s.Mean.Microseconds(), 10),
					strconv.FormatInt(s.P50.Microseconds(), 10),
					strconv.FormatInt(s.Min.Microseconds(), 10),
					strconv.FormatInt(s.Max.Microseconds(), 10),
					strconv.FormatInt(s.P95.Microseconds(), 10),
				}
				if err := cw.Write(row); err != nil {
					return fmt.Errorf("failed to write stats row for %s: %w", s.Name, err)
				}
			}
			return nil
		})
}

func writeCSV(filePath string, header []string, rows func(*csv.Writer) error) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("could not create results file %s: %w", filePath, err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header to %s: %w", filePath, err)
	}
	if err := rows(cw); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
