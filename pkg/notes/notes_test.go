package notes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable_Validation(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{"empty", nil},
		{"single", []Entry{{"A4", 440}}},
		{"descending", []Entry{{"A4", 440}, {"G4", 392}}},
		{"duplicate", []Entry{{"A4", 440}, {"A4'", 440}}},
		{"zero", []Entry{{"X", 0}, {"A4", 440}}},
		{"nan", []Entry{{"X", math.NaN()}, {"A4", 440}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.entries)
			assert.Error(t, err)
		})
	}
}

func TestStandard_StrictlyIncreasing(t *testing.T) {
	table := Standard()
	all := table.Notes()
	require.Equal(t, table.Len(), len(all))

	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].Frequency, all[i-1].Frequency, all[i].Name)
		assert.Equal(t, i, all[i].Index)
	}
}

func TestStandard_CoversGuitar(t *testing.T) {
	table := Standard()

	for _, name := range StandardTuning {
		open, ok := table.ByName(name)
		require.True(t, ok, name)

		/*
		 * Both the open string and its 12th fret harmonic must have a
		 * neighbour on either side.
		 */
		assert.Greater(t, open.Index, 0)
		harmonic := table.Nearest(2 * open.Frequency)
		assert.Less(t, harmonic.Index, table.Len()-1)
	}
}

func TestLookup(t *testing.T) {
	table := Standard()

	note, err := table.Lookup(0)
	require.NoError(t, err)
	assert.Equal(t, "B1", note.Name)

	_, err = table.Lookup(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = table.Lookup(table.Len())
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestNearest_EdgesAndTies(t *testing.T) {
	table, err := NewTable([]Entry{{"E2", 82.41}, {"F2", 87.31}, {"F#2", 92.5}})
	require.NoError(t, err)

	assert.Equal(t, "E2", table.Nearest(10).Name)
	assert.Equal(t, "F#2", table.Nearest(5000).Name)
	assert.Equal(t, "E2", table.Nearest(84.0).Name)

	// Exactly between E2 and F2.
	assert.Equal(t, "E2", table.Nearest((82.41+87.31)/2).Name)
}

func TestNearest_NoCloserEntry(t *testing.T) {
	table := Standard()
	all := table.Notes()

	for f := 40.0; f < 2500; f += 0.37 {
		got := table.Nearest(f)
		dist := math.Abs(got.Frequency - f)

		for _, other := range all {
			assert.GreaterOrEqual(t, math.Abs(other.Frequency-f), dist)
		}

		lower, upper, err := table.HalfGaps(got.Index)
		require.NoError(t, err)

		/*
		 * Inside the catalogue the nearest note is never further away
		 * than half the local spacing.
		 */
		if f >= all[0].Frequency && f <= all[len(all)-1].Frequency {

			if f > got.Frequency {
				assert.LessOrEqual(t, dist, upper+1e-9)
			} else {
				assert.LessOrEqual(t, dist, lower+1e-9)
			}

		}

	}

}

func TestHalfGaps(t *testing.T) {
	table, err := NewTable([]Entry{{"E2", 82.41}, {"F2", 87.31}, {"F#2", 92.51}})
	require.NoError(t, err)

	lower, upper, err := table.HalfGaps(0)
	require.NoError(t, err)
	assert.InDelta(t, 2.45, upper, 1e-9)
	assert.InDelta(t, upper, lower, 1e-9)

	lower, upper, err = table.HalfGaps(1)
	require.NoError(t, err)
	assert.InDelta(t, 2.45, lower, 1e-9)
	assert.InDelta(t, 2.6, upper, 1e-9)

	lower, upper, err = table.HalfGaps(2)
	require.NoError(t, err)
	assert.InDelta(t, 2.6, lower, 1e-9)
	assert.InDelta(t, lower, upper, 1e-9)

	_, _, err = table.HalfGaps(3)
	assert.ErrorIs(t, err, ErrOutOfRange)
}
