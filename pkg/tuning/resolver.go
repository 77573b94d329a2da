package tuning

import (
	"github.com/metalblueberry/intonation/pkg/notes"
)

// Gate decides whether a sample is reliable enough to be resolved.
type Gate struct {
	MinFrequency  float64 `yaml:"min_frequency"`
	MinConfidence float64 `yaml:"min_confidence"`
}

// DefaultGate rejects silence, the noise floor and unsure detections.
func DefaultGate() Gate {
	return Gate{
		MinFrequency:  50.0,
		MinConfidence: 0.90,
	}
}

// Reliable reports whether s passes the gate. NaN never does.
func (g Gate) Reliable(s Sample) bool {
	return s.Frequency > g.MinFrequency && s.Confidence > g.MinConfidence
}

// Resolver maps samples onto the nearest note of a table and records them
// in a State.
type Resolver struct {
	table *notes.Table
	gate  Gate
}

func NewResolver(table *notes.Table, gate Gate) *Resolver {
	return &Resolver{
		table: table,
		gate:  gate,
	}
}

func (r *Resolver) Table() *notes.Table {
	return r.table
}

// Resolve stores a reliable sample in state and returns the new snapshot.
// Unreliable samples leave state untouched and return false.
func (r *Resolver) Resolve(s Sample, state *State) (Snapshot, bool) {
	if !r.gate.Reliable(s) {
		return Snapshot{}, false
	}

	nearest := r.table.Nearest(s.Frequency)
	snap := Snapshot{
		NearestIndex: nearest.Index,
		Frequency:    s.Frequency,
		Confidence:   s.Confidence,
		Timestamp:    s.Timestamp,
	}
	state.store(snap)
	return snap, true
}
