package replay

import (
	"context"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/metalblueberry/intonation/pkg/tuning"
)

// Script is a recorded sequence of pitch samples.
//
//	samples:
//	  - {hz: 82.41, confidence: 0.99, at: 0s}
//	  - {hz: 164.9, confidence: 0.99, at: 1.5s}
type Script struct {
	Samples []Step `yaml:"samples"`
}

// Step is one sample at an offset from the start of the script.
type Step struct {
	Hz         float64       `yaml:"hz"`
	Confidence float64       `yaml:"confidence"`
	At         time.Duration `yaml:"at"`
}

// Decode parses a script. Offsets must not decrease.
func Decode(r io.Reader) (Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return Script{}, fmt.Errorf("decode replay: %w", err)
	}

	for i := 1; i < len(s.Samples); i++ {
		if s.Samples[i].At < s.Samples[i-1].At {
			return Script{}, fmt.Errorf("decode replay: sample %d at %s is before sample %d at %s",
				i, s.Samples[i].At, i-1, s.Samples[i-1].At)
		}
	}
	return s, nil
}

// Stamped returns the samples timestamped relative to start.
func (s Script) Stamped(start time.Time) []tuning.Sample {
	out := make([]tuning.Sample, len(s.Samples))
	for i, step := range s.Samples {
		out[i] = tuning.Sample{
			Frequency:  step.Hz,
			Confidence: step.Confidence,
			Timestamp:  start.Add(step.At),
		}
	}
	return out
}

// Play calls feed for every sample, waiting for its offset when realtime is
// set. It stops early when ctx is done.
func (s Script) Play(ctx context.Context, start time.Time, realtime bool, feed func(tuning.Sample)) error {
	for _, sample := range s.Stamped(start) {
		if realtime {
			wait := time.Until(sample.Timestamp)
			if wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				case <-timer.C:
				}
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		feed(sample)
	}
	return nil
}
