package intonation

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/metalblueberry/intonation/pkg/tuning"
)

// StandardLabels names the strings of a guitar in standard tuning, lowest
// first.
var StandardLabels = [Strings]string{"Low E", "A", "D", "G", "B", "High E"}

// Options configures the capture and verdict policy of a session.
type Options struct {
	// CaptureConfidence is the confidence a sample must exceed to be
	// captured.
	CaptureConfidence float64 `yaml:"capture_confidence"`

	// HarmonicWindowCents is how far a harmonic may be from the octave of
	// the open string before it is rejected as a different note.
	HarmonicWindowCents float64 `yaml:"harmonic_window_cents"`

	// VerdictToleranceCents is how far a harmonic may be from the octave
	// of the open string and still count as in tune.
	VerdictToleranceCents float64 `yaml:"verdict_tolerance_cents"`

	// MinToleranceHz is the smallest tolerance in Hz. On low strings a few
	// cents are less than the resolution of a pitch detector.
	MinToleranceHz float64 `yaml:"min_tolerance_hz"`

	Labels [Strings]string `yaml:"labels"`

	// OnTransition, when set, is called for every status change while the
	// session lock is held. It must not call back into the session.
	OnTransition func(Transition) `yaml:"-"`
}

func DefaultOptions() Options {
	return Options{
		CaptureConfidence:     0.98,
		HarmonicWindowCents:   50,
		VerdictToleranceCents: 12,
		MinToleranceHz:        1.5,
		Labels:                StandardLabels,
	}
}

// Session walks the six strings of an instrument one at a time, capturing
// the open pitch and the 12th fret harmonic of each and deriving whether the
// string plays sharp or flat at the octave.
//
// Strings are checked in order. This is a usability policy: the acoustics
// would allow any order.
type Session struct {
	id      uuid.UUID
	started time.Time
	opts    Options
	logger  *slog.Logger

	mu          sync.RWMutex
	slots       [Strings]Slot
	current     int
	mismatch    bool
	transitions []Transition
}

// NewSession returns a session with all strings pending.
func NewSession(opts Options, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		id:      uuid.New(),
		started: time.Now(),
		opts:    opts,
	}
	s.logger = logger.With("session", s.id.String())

	for i := range s.slots {
		s.slots[i] = Slot{
			Ordinal: i + 1,
			Label:   opts.Labels[i],
			Status:  Pending,
		}
	}
	return s
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) Started() time.Time {
	return s.started
}

// Observe offers a sample for the string with the given ordinal (1 to 6) and
// returns the status of that string afterwards.
//
// Samples below the capture confidence are ignored. Samples for strings
// after the current one are refused with ErrOutOfOrder; samples for strings
// already verified are ignored. A harmonic too far from the octave of the
// open string returns a *MismatchError and leaves the string waiting.
func (s *Session) Observe(ordinal int, sample tuning.Sample) (Status, error) {
	if ordinal < 1 || ordinal > Strings {
		return Pending, fmt.Errorf("string %d: %w", ordinal, ErrUnknownString)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observe(ordinal-1, sample)
}

// ObserveCurrent offers a sample to the string being checked.
func (s *Session) ObserveCurrent(sample tuning.Sample) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == Strings {
		return Verified, nil
	}
	return s.observe(s.current, sample)
}

func (s *Session) observe(idx int, sample tuning.Sample) (Status, error) {
	slot := &s.slots[idx]

	if idx < s.current {
		return slot.Status, nil
	}

	if idx > s.current {
		return slot.Status, fmt.Errorf("string %d while string %d is %s: %w",
			idx+1, s.current+1, s.slots[s.current].Status, ErrOutOfOrder)
	}

	if !s.qualifies(sample) {
		return slot.Status, nil
	}

	at := sample.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	switch slot.Status {
	case Pending:
		slot.OpenHz = sample.Frequency
		s.mismatch = false
		s.advance(slot, OpenCaptured, at)
		s.logger.Debug("open captured", "string", slot.Ordinal, "hz", slot.OpenHz)

	case OpenCaptured:
		expected := 2 * slot.OpenHz
		cents := centsBetween(sample.Frequency, expected)

		if math.Abs(cents) > s.opts.HarmonicWindowCents {
			s.mismatch = true
			s.logger.Debug("harmonic rejected", "string", slot.Ordinal, "expected", expected, "hz", sample.Frequency)
			return slot.Status, &MismatchError{
				Ordinal:    slot.Ordinal,
				ExpectedHz: expected,
				GotHz:      sample.Frequency,
				Cents:      cents,
			}
		}

		slot.HarmonicHz = sample.Frequency
		s.mismatch = false
		s.advance(slot, HarmonicCaptured, at)

		slot.ErrorHz = slot.HarmonicHz - expected
		slot.Verdict = s.verdict(slot.ErrorHz, expected)
		s.advance(slot, Verified, at)
		s.current++
		s.logger.Debug("string verified",
			"string", slot.Ordinal,
			"open", slot.OpenHz,
			"harmonic", slot.HarmonicHz,
			"error_hz", slot.ErrorHz,
			"verdict", slot.Verdict.String(),
		)

		if s.current == Strings {
			s.logger.Info("intonation check complete", "took", time.Since(s.started))
		}
	}

	return slot.Status, nil
}

func (s *Session) qualifies(sample tuning.Sample) bool {
	return sample.Frequency != tuning.Sentinel &&
		sample.Frequency > 0 &&
		!math.IsInf(sample.Frequency, 0) &&
		sample.Confidence > s.opts.CaptureConfidence
}

func (s *Session) verdict(errorHz, expected float64) Verdict {
	tolerance := math.Max(
		expected*(math.Exp2(s.opts.VerdictToleranceCents/1200)-1),
		s.opts.MinToleranceHz,
	)

	switch {
	case errorHz > tolerance:
		return Sharp
	case errorHz < -tolerance:
		return Flat
	}
	return InTune
}

func (s *Session) advance(slot *Slot, to Status, at time.Time) {
	t := Transition{
		Ordinal: slot.Ordinal,
		From:    slot.Status,
		To:      to,
		At:      at,
	}
	slot.Status = to
	s.transitions = append(s.transitions, t)

	if s.opts.OnTransition != nil {
		s.opts.OnTransition(t)
	}
}

// Current returns the ordinal of the string being checked, or false once the
// session is complete.
func (s *Session) Current() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == Strings {
		return 0, false
	}
	return s.current + 1, true
}

func (s *Session) Slot(ordinal int) (Slot, error) {
	if ordinal < 1 || ordinal > Strings {
		return Slot{}, fmt.Errorf("string %d: %w", ordinal, ErrUnknownString)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots[ordinal-1], nil
}

func (s *Session) Slots() [Strings]Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots
}

func (s *Session) Complete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current == Strings
}

// Verdicts returns the verdict of every string once the session is complete.
func (s *Session) Verdicts() ([Strings]Verdict, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out [Strings]Verdict

	if s.current != Strings {
		return out, false
	}

	for i, slot := range s.slots {
		out[i] = slot.Verdict
	}
	return out, true
}

func (s *Session) Hint() Hint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case s.current == Strings:
		return HintDone
	case s.slots[s.current].Status == Pending:
		return HintPlayOpen
	case s.mismatch:
		return HintNotHarmonic
	}
	return HintPlayHarmonic
}

// Transitions returns a copy of every status change so far.
func (s *Session) Transitions() []Transition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Transition, len(s.transitions))
	copy(out, s.transitions)
	return out
}

func centsBetween(f, reference float64) float64 {
	return 1200 * math.Log2(f/reference)
}
