package metrics

import "time"

// MeasurementType defines the measurement observed.
type MeasurementType uint

const (
	MLogic MeasurementType = iota
	MHardwareRead
	MDiskRead
	MNetwork
)

func (mt MeasurementType) String() string {
	switch mt {
	case MLogic:
		return "Logic"
	case MHardwareRead:
		return "HardwareRead"
	case MDiskRead:
		return "DiskRead"
	case MNetwork:
		return "Network"
	default:
		return "Unknown"
	}
}

// Sample is one timed execution of a named operation.
type Sample struct {
	WallClock time.Duration
	Failed    bool
}

// Series holds every sample recorded under one name.
type Series struct {
	Name    string
	Type    MeasurementType
	Samples []Sample
}

// Durations returns the wall-clock time of each sample in recording order.
func (s *Series) Durations() []time.Duration {
	out := make([]time.Duration, len(s.Samples))
	for i, sm := range s.Samples {
		out[i] = sm.WallClock
	}
	return out
}

// Failures counts the samples whose operation returned an error.
func (s *Series) Failures() int {
	n := 0
	for _, sm := range s.Samples {
		if sm.Failed {
			n++
		}
	}
	return n
}
