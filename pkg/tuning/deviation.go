package tuning

import (
	"errors"
	"fmt"
	"math"

	"github.com/metalblueberry/intonation/pkg/notes"
)

var (
	// ErrNoReading is returned while the state still holds the sentinel.
	ErrNoReading = errors.New("no reliable reading yet")

	// ErrBetweenNotes is returned when a reading is so far from its note
	// that it belongs to the neighbour. The next sample resolves it again.
	ErrBetweenNotes = errors.New("reading is between two notes")
)

// Bucket is a coarse, signed distance from the nearest note.
type Bucket int

const (
	Flat3 Bucket = iota - 3
	Flat2
	Flat1
	InTune
	Sharp1
	Sharp2
	Sharp3
)

// Fractions of the half gap to the neighbouring note.
const (
	inTuneLimit = 0.05
	level1Limit = 0.33
	level2Limit = 0.66
	level3Limit = 0.999
)

// Level returns -3 (very flat) to +3 (very sharp).
func (b Bucket) Level() int {
	return int(b)
}

func (b Bucket) String() string {
	switch b {
	case Flat3:
		return "---"
	case Flat2:
		return "--"
	case Flat1:
		return "-"
	case InTune:
		return "in tune"
	case Sharp1:
		return "+"
	case Sharp2:
		return "++"
	case Sharp3:
		return "+++"
	}
	return fmt.Sprintf("Bucket(%d)", int(b))
}

// Deviation describes how far a reading is from its nearest note.
type Deviation struct {
	Note   notes.ReferenceNote
	Diff   float64 // signed, in Hz
	Bucket Bucket
}

// Frequency returns the measured frequency.
func (d Deviation) Frequency() float64 {
	return d.Note.Frequency + d.Diff
}

// Cents returns the signed distance in cents.
func (d Deviation) Cents() float64 {
	return 1200 * math.Log2(d.Frequency()/d.Note.Frequency)
}

// Deviation buckets a snapshot against the half gap to the neighbouring
// note in the direction of the error.
func (r *Resolver) Deviation(snap Snapshot) (Deviation, error) {
	if !snap.Valid() {
		return Deviation{}, ErrNoReading
	}

	note, err := r.table.Lookup(snap.NearestIndex)
	if err != nil {
		return Deviation{}, fmt.Errorf("deviation: %w", err)
	}

	lower, upper, err := r.table.HalfGaps(snap.NearestIndex)
	if err != nil {
		return Deviation{}, fmt.Errorf("deviation: %w", err)
	}

	d := Deviation{
		Note: note,
		Diff: snap.Frequency - note.Frequency,
	}

	sharp := snap.Frequency > note.Frequency
	bound := lower
	if sharp {
		bound = upper
	}

	level, ok := bucketLevel(math.Abs(d.Diff) / bound)
	if !ok {
		return d, ErrBetweenNotes
	}

	if sharp {
		d.Bucket = Bucket(level)
	} else {
		d.Bucket = Bucket(-level)
	}
	return d, nil
}

func bucketLevel(fraction float64) (int, bool) {
	switch {
	case fraction < inTuneLimit:
		return 0, true
	case fraction < level1Limit:
		return 1, true
	case fraction < level2Limit:
		return 2, true
	case fraction < level3Limit:
		return 3, true
	}
	return 0, false
}
