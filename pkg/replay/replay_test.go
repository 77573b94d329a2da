package replay

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalblueberry/intonation/pkg/engine"
	"github.com/metalblueberry/intonation/pkg/intonation"
	"github.com/metalblueberry/intonation/pkg/notes"
	"github.com/metalblueberry/intonation/pkg/tuning"
)

func TestDecode(t *testing.T) {
	s, err := Decode(strings.NewReader(`
samples:
  - {hz: 110, confidence: 0.95, at: 0s}
  - {hz: 111.5, confidence: 0.99, at: 250ms}
`))
	require.NoError(t, err)
	require.Len(t, s.Samples, 2)
	assert.Equal(t, Step{Hz: 111.5, Confidence: 0.99, At: 250 * time.Millisecond}, s.Samples[1])

	start := time.Unix(1000, 0)
	stamped := s.Stamped(start)
	assert.Equal(t, start.Add(250*time.Millisecond), stamped[1].Timestamp)
	assert.Equal(t, 110.0, stamped[0].Frequency)
}

func TestDecode_Empty(t *testing.T) {
	s, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, s.Samples)
}

func TestDecode_Errors(t *testing.T) {
	tests := map[string]string{
		"unknown field": "samples:\n  - {hz: 1, pitch: 2}\n",
		"bad duration":  "samples:\n  - {hz: 1, at: soon}\n",
		"going back":    "samples:\n  - {hz: 1, at: 2s}\n  - {hz: 1, at: 1s}\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestPlay_Cancelled(t *testing.T) {
	s := Script{Samples: []Step{{Hz: 1}, {Hz: 2, At: time.Hour}}}
	ctx, cancel := context.WithCancel(context.Background())

	var fed []tuning.Sample
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := s.Play(ctx, time.Now(), true, func(sample tuning.Sample) {
		fed = append(fed, sample)
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, fed, 1)
}

func TestPlay_SixStrings(t *testing.T) {
	f, err := os.Open("testdata/six_strings.yaml")
	require.NoError(t, err)
	defer f.Close()

	script, err := Decode(f)
	require.NoError(t, err)

	e := engine.New(notes.Standard())
	session := e.StartIntonation()
	require.NoError(t, script.Play(context.Background(), time.Unix(0, 0), false, e.Feed))

	require.True(t, session.Complete())
	verdicts, _ := session.Verdicts()
	for i, v := range verdicts {
		assert.Equal(t, intonation.InTune, v, "string %d", i+1)
	}

	r, err := e.Reading()
	require.NoError(t, err)
	assert.Equal(t, "E5", r.Note.Name)
}
