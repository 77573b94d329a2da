package notes

import (
	"errors"
	"fmt"
	"math"
)

/*
 * Returned when a note is looked up outside of the catalogue.
 */
var ErrOutOfRange = errors.New("note index out of range")

/*
 * Data structure describing an entry used to build a catalogue.
 */
type Entry struct {
	Name      string
	Frequency float64
}

/*
 * Data structure representing a reference note of a catalogue.
 */
type ReferenceNote struct {
	Name      string
	Frequency float64
	Index     int
}

/*
 * An immutable catalogue of reference notes, ordered by ascending frequency.
 */
type Table struct {
	notes []ReferenceNote
}

/*
 * Creates a catalogue from a list of entries.
 *
 * The entries must be sorted by strictly increasing frequency and there
 * must be at least two of them, so that every note has a neighbour.
 */
func NewTable(entries []Entry) (*Table, error) {
	n := len(entries)

	if n < 2 {
		return nil, fmt.Errorf("note table needs at least 2 entries, got %d", n)
	}

	notes := make([]ReferenceNote, n)
	prev := 0.0

	for i, e := range entries {
		freq := e.Frequency

		/*
		 * Reject anything that would break the nearest note search.
		 */
		if math.IsNaN(freq) || math.IsInf(freq, 0) || freq <= 0 {
			return nil, fmt.Errorf("note %q has invalid frequency %v", e.Name, freq)
		}

		if i > 0 && freq <= prev {
			return nil, fmt.Errorf("note %q (%.4f Hz) is not above %q (%.4f Hz)", e.Name, freq, entries[i-1].Name, prev)
		}

		notes[i] = ReferenceNote{
			Name:      e.Name,
			Frequency: freq,
			Index:     i,
		}

		prev = freq
	}

	t := Table{
		notes: notes,
	}

	return &t, nil
}

/*
 * Returns the number of notes in the catalogue.
 */
func (t *Table) Len() int {
	return len(t.notes)
}

/*
 * Returns a copy of all notes in the catalogue.
 */
func (t *Table) Notes() []ReferenceNote {
	out := make([]ReferenceNote, len(t.notes))
	copy(out, t.notes)
	return out
}

/*
 * Returns the note at a certain index.
 */
func (t *Table) Lookup(i int) (ReferenceNote, error) {

	if i < 0 || i >= len(t.notes) {
		return ReferenceNote{}, fmt.Errorf("lookup %d of %d: %w", i, len(t.notes), ErrOutOfRange)
	}

	return t.notes[i], nil
}

/*
 * Returns the first note with the given name.
 */
func (t *Table) ByName(name string) (ReferenceNote, bool) {

	for _, note := range t.notes {

		if note.Name == name {
			return note, true
		}

	}

	return ReferenceNote{}, false
}

/*
 * Finds the note closest to a frequency.
 *
 * Input outside of the catalogue is never rejected, the closest edge note
 * is returned instead. On equal distance the lower note wins.
 */
func (t *Table) Nearest(frequency float64) ReferenceNote {
	notes := t.notes
	best := 0
	bestDist := math.Abs(notes[0].Frequency - frequency)

	/*
	 * Only replace the candidate on a strict improvement.
	 */
	for i := 1; i < len(notes); i++ {
		dist := math.Abs(notes[i].Frequency - frequency)

		if dist < bestDist {
			best = i
			bestDist = dist
		}

	}

	return notes[best]
}

/*
 * Returns the half gaps to the lower and upper neighbour of a note.
 *
 * At the edges of the catalogue the missing gap is replaced by the gap on
 * the other side.
 */
func (t *Table) HalfGaps(i int) (lower float64, upper float64, err error) {
	notes := t.notes
	n := len(notes)

	if i < 0 || i >= n {
		return 0, 0, fmt.Errorf("half gaps of %d: %w", i, ErrOutOfRange)
	}

	freq := notes[i].Frequency

	if i+1 < n {
		upper = (notes[i+1].Frequency - freq) / 2
	}

	if i > 0 {
		lower = (freq - notes[i-1].Frequency) / 2
	}

	if i == 0 {
		lower = upper
	} else if i == n-1 {
		upper = lower
	}

	return lower, upper, nil
}
