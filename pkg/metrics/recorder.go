package metrics

import (
	"qrscan/pkg/log"
	"sort"
	"sync"
	"time"
)

// Recorder collects wall-clock samples for the operations of one station run.
// It is safe for concurrent use; submissions record from a background goroutine.
// A nil *Recorder records nothing.
type Recorder struct {
	printDebug bool

	mu     sync.Mutex
	series map[string]*Series
}

// NewRecorder creates a new, empty recorder.
func NewRecorder(printDebug bool) *Recorder {
	return &Recorder{
		printDebug: printDebug,
		series:     make(map[string]*Series),
	}
}

// Record wraps a function call, measuring its wall-clock time.
// The error of f is returned unchanged.
func (r *Recorder) Record(name string, mType MeasurementType, f func() error) error {
	if r == nil {
		return f()
	}
	start := time.Now()
	opErr := f()
	r.add(name, mType, Sample{WallClock: time.Since(start), Failed: opErr != nil})
	return opErr
}

func (r *Recorder) add(name string, mType MeasurementType, s Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	series, ok := r.series[name]
	if !ok {
		series = &Series{Name: name, Type: mType}
		r.series[name] = series
	}
	series.Samples = append(series.Samples, s)

	if r.printDebug {
		log.Debug("[METRIC: %s] Wall: %s, Failed: %t", name, s.WallClock, s.Failed)
	}
}

// Series returns a copy of every series, sorted by name.
func (r *Recorder) Series() []*Series {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Series, 0, len(r.series))
	for _, s := range r.series {
		cp := &Series{Name: s.Name, Type: s.Type, Samples: make([]Sample, len(s.Samples))}
		copy(cp.Samples, s.Samples)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get returns a copy of the named series, or nil if nothing was recorded under it.
func (r *Recorder) Get(name string) *Series {
	for _, s := range r.Series() {
		if s.Name == name {
			return s
		}
	}
	return nil
}
