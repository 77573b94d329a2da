package intonation

import (
	"errors"
	"fmt"
	"time"
)

// Strings is the number of slots in a session.
const Strings = 6

var (
	ErrHarmonicMismatch = errors.New("harmonic does not match the open string")
	ErrOutOfOrder       = errors.New("string is not the current one")
	ErrUnknownString    = errors.New("unknown string")
)

// Status is the progress of one string. It only moves forward.
type Status int

const (
	Pending Status = iota
	OpenCaptured
	HarmonicCaptured
	Verified
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case OpenCaptured:
		return "open captured"
	case HarmonicCaptured:
		return "harmonic captured"
	case Verified:
		return "verified"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Verdict is the intonation result of a verified string.
type Verdict int

const (
	Unknown Verdict = iota
	InTune
	Sharp
	Flat
)

func (v Verdict) String() string {
	switch v {
	case Unknown:
		return "unknown"
	case InTune:
		return "in tune"
	case Sharp:
		return "sharp"
	case Flat:
		return "flat"
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// Hint tells the player what the session is waiting for.
type Hint int

const (
	HintPlayOpen Hint = iota
	HintPlayHarmonic
	HintNotHarmonic
	HintDone
)

func (h Hint) String() string {
	switch h {
	case HintPlayOpen:
		return "play the open string"
	case HintPlayHarmonic:
		return "play the 12th fret harmonic"
	case HintNotHarmonic:
		return "play the harmonic, not another note"
	case HintDone:
		return "all strings checked"
	}
	return fmt.Sprintf("Hint(%d)", int(h))
}

// Slot is the state of one string.
type Slot struct {
	Ordinal    int
	Label      string
	Status     Status
	OpenHz     float64
	HarmonicHz float64
	Verdict    Verdict
	// ErrorHz is HarmonicHz - 2*OpenHz, set once verified.
	ErrorHz float64
}

// Transition records a status change of a slot.
type Transition struct {
	Ordinal int
	From    Status
	To      Status
	At      time.Time
}

// MismatchError is returned when a captured harmonic is too far from the
// octave of the open string. The slot keeps waiting for a harmonic.
type MismatchError struct {
	Ordinal    int
	ExpectedHz float64
	GotHz      float64
	Cents      float64
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("string %d: expected harmonic near %.2f Hz, got %.2f Hz (%+.0f cents)",
		e.Ordinal, e.ExpectedHz, e.GotHz, e.Cents)
}

func (e *MismatchError) Unwrap() error {
	return ErrHarmonicMismatch
}
