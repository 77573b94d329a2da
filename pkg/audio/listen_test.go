package audio

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalblueberry/intonation/pkg/estimator"
	"github.com/metalblueberry/intonation/pkg/tuning"
)

type chunks struct {
	frames [][]float32
	rate   float64
	err    error
}

func (c chunks) Run(ctx context.Context, fn func([]float32, float64)) error {
	for _, f := range c.frames {
		if ctx.Err() != nil {
			return nil
		}
		fn(f, c.rate)
	}
	return c.err
}

func sineChunks(freq, rate float64, size, count int) [][]float32 {
	out := make([][]float32, count)
	for c := range out {
		out[c] = make([]float32, size)
		for i := range out[c] {
			n := float64(c*size + i)
			out[c][i] = float32(0.5 * math.Sin(2*math.Pi*freq*n/rate))
		}
	}
	return out
}

func TestListen_Sine(t *testing.T) {
	src := chunks{frames: sineChunks(220, 44100, 512, 16), rate: 44100}
	est := estimator.Create(4096, estimator.DEFAULT_LOW_FREQUENCY, estimator.DEFAULT_HIGH_FREQUENCY)

	var fed []tuning.Sample
	err := Listen(context.Background(), src, est, func(s tuning.Sample) {
		fed = append(fed, s)
	})
	require.NoError(t, err)
	require.NotEmpty(t, fed)

	last := fed[len(fed)-1]
	assert.InDelta(t, 220, last.Frequency, 1)
	assert.Greater(t, last.Confidence, 0.9)
}

func TestListen_SourceError(t *testing.T) {
	boom := errors.New("device unplugged")
	src := chunks{rate: 44100, err: boom}
	est := estimator.Create(4096, estimator.DEFAULT_LOW_FREQUENCY, estimator.DEFAULT_HIGH_FREQUENCY)

	err := Listen(context.Background(), src, est, func(tuning.Sample) {})
	assert.ErrorIs(t, err, boom)
}

func TestListen_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := chunks{frames: sineChunks(110, 44100, 512, 4), rate: 44100}
	est := estimator.Create(4096, estimator.DEFAULT_LOW_FREQUENCY, estimator.DEFAULT_HIGH_FREQUENCY)

	calls := 0
	err := Listen(ctx, src, est, func(tuning.Sample) { calls++ })
	assert.NoError(t, err)
	assert.Zero(t, calls)
}
