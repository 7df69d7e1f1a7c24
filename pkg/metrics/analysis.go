package metrics

import (
	"fmt"
	"io"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// StatSummary holds final statistical results for one series.
type StatSummary struct {
	Name     string
	Type     MeasurementType
	Count    int
	Failures int
	Mean     time.Duration
	P50      time.Duration // Median
	P95      time.Duration
	Min      time.Duration
	Max      time.Duration
}

// Summarize computes a StatSummary for every series of the recorder.
func Summarize(r *Recorder) []StatSummary {
	var out []StatSummary
	for _, s := range r.Series() {
		if len(s.Samples) == 0 {
			continue
		}
		out = append(out, summarize(s))
	}
	return out
}

func summarize(s *Series) StatSummary {
	floats := toMicros(s.Durations())
	sort.Float64s(floats)

	return StatSummary{
		Name:     s.Name,
		Type:     s.Type,
		Count:    len(floats),
		Failures: s.Failures(),
		Mean:     fromMicros(stat.Mean(floats, nil)),
		P50:      fromMicros(stat.Quantile(0.5, stat.Empirical, floats, nil)),
		P95:      fromMicros(stat.Quantile(0.95, stat.Empirical, floats, nil)),
		Min:      fromMicros(floats[0]),
		Max:      fromMicros(floats[len(floats)-1]),
	}
}

// PrintSummary writes one line per series to w.
func PrintSummary(w io.Writer, r *Recorder) {
	summaries := Summarize(r)
	fmt.Fprintln(w, "-------------------------------------------------")
	fmt.Fprintln(w, "--- Operation Times ---")
	fmt.Fprintln(w, "-------------------------------------------------")
	if len(summaries) == 0 {
		fmt.Fprintln(w, "no operations recorded")
	}
	for _, s := range summaries {
		fmt.Fprintf(w, "%-14s (%s) n=%d failed=%d median=%s p95=%s max=%s\n",
			s.Name, s.Type, s.Count, s.Failures,
			s.P50.Round(time.Microsecond), s.P95.Round(time.Microsecond), s.Max.Round(time.Microsecond))
	}
	fmt.Fprintln(w, "-------------------------------------------------")
}

// toMicros converts a slice of time.Duration to a slice of float64 (in microseconds).
func toMicros(d []time.Duration) []float64 {
	floats := make([]float64, len(d))
	for i, v := range d {
		floats[i] = float64(v.Microseconds())
	}
	return floats
}

func fromMicros(us float64) time.Duration {
	return time.Duration(us * float64(time.Microsecond))
}
