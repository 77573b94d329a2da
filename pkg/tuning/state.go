package tuning

import (
	"sync"
	"time"

	"github.com/metalblueberry/intonation/pkg/circular"
)

// Sentinel is the frequency reported while there is no reliable reading.
const Sentinel = -1.0

// Sample is a single pitch estimate delivered by a pitch detector.
type Sample struct {
	Frequency  float64
	Confidence float64
	Timestamp  time.Time
}

// Snapshot is an immutable copy of the tuning state.
type Snapshot struct {
	NearestIndex int
	Frequency    float64
	Confidence   float64
	Timestamp    time.Time
}

// Valid reports whether the snapshot holds an accepted reading.
func (s Snapshot) Valid() bool {
	return s.Frequency != Sentinel
}

func emptySnapshot() Snapshot {
	return Snapshot{
		NearestIndex: 0,
		Frequency:    Sentinel,
	}
}

// State holds the latest accepted reading.
//
// Only a Resolver writes to it. Any number of goroutines may read it through
// Snapshot and History.
type State struct {
	mu      sync.RWMutex
	current Snapshot
	history *circular.Buffer[Snapshot]
}

// NewState returns a state with no reading that remembers the last
// historySize accepted readings.
func NewState(historySize int) *State {
	return &State{
		current: emptySnapshot(),
		history: circular.CreateBuffer[Snapshot](historySize),
	}
}

// Snapshot returns the current reading.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// History appends the recent accepted readings to dst, oldest first.
func (s *State) History(dst []Snapshot) []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Retrieve(dst)
}

// Reset drops the current reading and the history.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = emptySnapshot()
	s.history.Reset()
}

func (s *State) store(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = snap
	s.history.Push(snap)
}
