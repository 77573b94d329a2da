package intonation

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalblueberry/intonation/pkg/tuning"
)

var openStrings = [Strings]float64{82.41, 110.00, 146.83, 196.00, 246.94, 329.63}

func at(hz, confidence float64) tuning.Sample {
	return tuning.Sample{Frequency: hz, Confidence: confidence, Timestamp: time.Unix(100, 0)}
}

func TestSession_CompleteInTune(t *testing.T) {
	s := NewSession(DefaultOptions(), nil)

	for i, open := range openStrings {
		ordinal := i + 1
		offset := 1.0
		if i%2 == 1 {
			offset = -1.0
		}

		status, err := s.Observe(ordinal, at(open, 0.99))
		require.NoError(t, err)
		assert.Equal(t, OpenCaptured, status)
		assert.Equal(t, HintPlayHarmonic, s.Hint())

		status, err = s.Observe(ordinal, at(2*open+offset, 0.99))
		require.NoError(t, err)
		assert.Equal(t, Verified, status)
	}

	assert.True(t, s.Complete())
	assert.Equal(t, HintDone, s.Hint())
	_, ok := s.Current()
	assert.False(t, ok)

	verdicts, ok := s.Verdicts()
	require.True(t, ok)

	for i, v := range verdicts {
		assert.Equal(t, InTune, v, "string %d", i+1)
	}

	// Every string went through all three steps.
	assert.Len(t, s.Transitions(), 3*Strings)
}

func TestSession_LowTuningsInTune(t *testing.T) {
	tests := []struct {
		name  string
		opens [Strings]float64
	}{
		{"b standard", [Strings]float64{61.74, 82.41, 110.00, 146.83, 185.00, 246.94}},
		{"drop c", [Strings]float64{65.41, 98.00, 130.81, 174.61, 220.00, 293.66}},
		{"c sharp", [Strings]float64{69.30, 92.50, 123.47, 164.81, 207.65, 277.18}},
		{"drop d", [Strings]float64{73.42, 110.00, 146.83, 196.00, 246.94, 329.63}},
	}

	for _, tt := range tests {
		for _, offset := range []float64{1, -1} {
			t.Run(fmt.Sprintf("%s %+.0f", tt.name, offset), func(t *testing.T) {
				s := NewSession(DefaultOptions(), nil)

				for i, open := range tt.opens {
					_, err := s.Observe(i+1, at(open, 0.99))
					require.NoError(t, err)
					status, err := s.Observe(i+1, at(2*open+offset, 0.99))
					require.NoError(t, err)
					require.Equal(t, Verified, status)
				}

				verdicts, ok := s.Verdicts()
				require.True(t, ok)
				for i, v := range verdicts {
					assert.Equal(t, InTune, v, "string %d at %v Hz", i+1, tt.opens[i])
				}
			})
		}
	}
}

func TestSession_MinTolerance(t *testing.T) {
	opts := DefaultOptions()
	opts.MinToleranceHz = 0

	// 12 cents of 123.48 Hz is well under 1 Hz.
	s := NewSession(opts, nil)
	_, err := s.Observe(1, at(61.74, 0.99))
	require.NoError(t, err)
	_, err = s.Observe(1, at(2*61.74+1, 0.99))
	require.NoError(t, err)

	slot, err := s.Slot(1)
	require.NoError(t, err)
	assert.Equal(t, Sharp, slot.Verdict)
}

func TestSession_HarmonicMismatch(t *testing.T) {
	s := NewSession(DefaultOptions(), nil)

	_, err := s.Observe(1, at(82.41, 0.99))
	require.NoError(t, err)

	status, err := s.Observe(1, at(2*82.41+50, 0.99))
	assert.ErrorIs(t, err, ErrHarmonicMismatch)
	assert.Equal(t, OpenCaptured, status)
	assert.Equal(t, HintNotHarmonic, s.Hint())

	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 1, mismatch.Ordinal)
	assert.InDelta(t, 164.82, mismatch.ExpectedHz, 1e-9)

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, 1, current)

	slot, err := s.Slot(1)
	require.NoError(t, err)
	assert.Equal(t, OpenCaptured, slot.Status)
	assert.Zero(t, slot.HarmonicHz)

	// The real harmonic still gets accepted afterwards.
	status, err = s.Observe(1, at(164.82, 0.99))
	require.NoError(t, err)
	assert.Equal(t, Verified, status)
}

func TestSession_Verdicts(t *testing.T) {
	tests := []struct {
		name     string
		harmonic float64
		want     Verdict
	}{
		{"sharp", 2*110.0 + 3, Sharp},
		{"flat", 2*110.0 - 3, Flat},
		{"in tune", 2 * 110.0, InTune},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(DefaultOptions(), nil)
			_, err := s.Observe(1, at(110, 0.99))
			require.NoError(t, err)
			_, err = s.Observe(1, at(tt.harmonic, 0.99))
			require.NoError(t, err)

			slot, err := s.Slot(1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, slot.Verdict)
			assert.InDelta(t, tt.harmonic-220, slot.ErrorHz, 1e-9)
		})
	}
}

func TestSession_IgnoresUnqualified(t *testing.T) {
	s := NewSession(DefaultOptions(), nil)

	for _, sample := range []tuning.Sample{
		at(82.41, 0.98),
		at(82.41, 0.5),
		at(tuning.Sentinel, 1),
		at(0, 1),
		at(math.Inf(1), 1),
		at(math.Inf(-1), 1),
		at(math.NaN(), 1),
	} {
		status, err := s.Observe(1, sample)
		require.NoError(t, err)
		assert.Equal(t, Pending, status)
	}

	assert.Empty(t, s.Transitions())
	assert.Equal(t, HintPlayOpen, s.Hint())
}

func TestSession_Ordering(t *testing.T) {
	s := NewSession(DefaultOptions(), nil)

	status, err := s.Observe(2, at(110, 0.99))
	assert.ErrorIs(t, err, ErrOutOfOrder)
	assert.Equal(t, Pending, status)

	_, err = s.Observe(0, at(110, 0.99))
	assert.ErrorIs(t, err, ErrUnknownString)
	_, err = s.Observe(7, at(110, 0.99))
	assert.ErrorIs(t, err, ErrUnknownString)

	_, err = s.Observe(1, at(82.41, 0.99))
	require.NoError(t, err)
	_, err = s.Observe(1, at(164.82, 0.99))
	require.NoError(t, err)

	// A verified string does not regress.
	status, err = s.Observe(1, at(90, 0.99))
	require.NoError(t, err)
	assert.Equal(t, Verified, status)

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, 2, current)
}

func TestSession_ObserveCurrent(t *testing.T) {
	s := NewSession(DefaultOptions(), nil)

	for _, open := range openStrings {
		_, err := s.ObserveCurrent(at(open, 0.99))
		require.NoError(t, err)
		_, err = s.ObserveCurrent(at(2*open, 0.99))
		require.NoError(t, err)
	}

	require.True(t, s.Complete())
	before := s.Slots()

	status, err := s.ObserveCurrent(at(500, 1))
	require.NoError(t, err)
	assert.Equal(t, Verified, status)
	assert.Equal(t, before, s.Slots())
}

func TestSession_OnTransition(t *testing.T) {
	var seen []Transition
	opts := DefaultOptions()
	opts.OnTransition = func(tr Transition) {
		seen = append(seen, tr)
	}

	s := NewSession(opts, nil)
	s.Observe(1, at(82.41, 0.99))
	s.Observe(1, at(164.82, 0.99))

	require.Len(t, seen, 3)
	assert.Equal(t, Transition{Ordinal: 1, From: Pending, To: OpenCaptured, At: time.Unix(100, 0)}, seen[0])
	assert.Equal(t, HarmonicCaptured, seen[1].To)
	assert.Equal(t, Verified, seen[2].To)
	assert.Equal(t, seen, s.Transitions())
}

func TestSession_NeverSkipsAString(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		s := NewSession(DefaultOptions(), nil)

		for step := 0; step < 60; step++ {
			ordinal := rng.Intn(Strings + 2)
			open := openStrings[rng.Intn(Strings)]
			hz := open * float64(1+rng.Intn(2))
			confidence := 0.95 + rng.Float64()*0.05
			s.Observe(ordinal, at(hz, confidence))

			slots := s.Slots()

			for k := 1; k < Strings; k++ {
				if slots[k].Status != Pending {
					require.Equal(t, Verified, slots[k-1].Status, "run %d step %d", run, step)
				}
			}
		}
	}
}

func TestSession_Labels(t *testing.T) {
	s := NewSession(DefaultOptions(), nil)
	slots := s.Slots()

	for i, slot := range slots {
		assert.Equal(t, i+1, slot.Ordinal)
		assert.Equal(t, StandardLabels[i], slot.Label)
	}

	_, err := s.Slot(9)
	assert.ErrorIs(t, err, ErrUnknownString)
	assert.NotEqual(t, s.ID(), NewSession(DefaultOptions(), nil).ID())
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "open captured", OpenCaptured.String())
	assert.Equal(t, "sharp", Sharp.String())
	assert.Equal(t, "play the harmonic, not another note", HintNotHarmonic.String())
	assert.Equal(t, "Status(9)", Status(9).String())
}

func TestSession_LogsDuration(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, nil))

	// Sample timestamps are long before the session started.
	s := NewSession(DefaultOptions(), logger)
	for i, open := range openStrings {
		_, err := s.Observe(i+1, at(open, 0.99))
		require.NoError(t, err)
		_, err = s.Observe(i+1, at(2*open, 0.99))
		require.NoError(t, err)
	}

	require.True(t, s.Complete())
	assert.Contains(t, out.String(), "intonation check complete")
	assert.Contains(t, out.String(), "took=")
	assert.NotContains(t, out.String(), "took=-")
}
