package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/metalblueberry/intonation/pkg/intonation"
	"github.com/metalblueberry/intonation/pkg/metrics"
	"github.com/metalblueberry/intonation/pkg/notes"
	"github.com/metalblueberry/intonation/pkg/tuning"
)

const defaultHistory = 256

// Engine routes pitch samples through the resolver into the tuning state
// and, while one is running, into an intonation session.
//
// Feed and Run belong to the single producer goroutine. Everything else may
// be called from any goroutine.
type Engine struct {
	resolver *tuning.Resolver
	state    *tuning.State
	logger   *slog.Logger
	metrics  *metrics.Metrics

	gate        tuning.Gate
	intonation  intonation.Options
	historySize int

	mu      sync.RWMutex
	session *intonation.Session
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithGate(gate tuning.Gate) Option {
	return func(e *Engine) {
		e.gate = gate
	}
}

func WithIntonation(opts intonation.Options) Option {
	return func(e *Engine) {
		e.intonation = opts
	}
}

// WithHistory sets how many accepted readings are kept for Trail.
func WithHistory(n int) Option {
	return func(e *Engine) {
		e.historySize = n
	}
}

func New(table *notes.Table, opts ...Option) *Engine {
	e := &Engine{
		logger:      slog.Default(),
		gate:        tuning.DefaultGate(),
		intonation:  intonation.DefaultOptions(),
		historySize: defaultHistory,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.resolver = tuning.NewResolver(table, e.gate)
	e.state = tuning.NewState(e.historySize)
	return e
}

func (e *Engine) Table() *notes.Table {
	return e.resolver.Table()
}

// Feed resolves one sample. It never blocks on readers for longer than a
// state update.
func (e *Engine) Feed(s tuning.Sample) {
	snap, ok := e.resolver.Resolve(s, e.state)
	if !ok {
		e.metrics.SampleDropped()
		return
	}
	e.metrics.SampleAccepted()

	session := e.Intonation()
	if session == nil {
		return
	}

	_, err := session.ObserveCurrent(tuning.Sample{
		Frequency:  snap.Frequency,
		Confidence: snap.Confidence,
		Timestamp:  snap.Timestamp,
	})

	switch {
	case errors.Is(err, intonation.ErrHarmonicMismatch):
		e.metrics.Mismatch()
	case err != nil:
		e.logger.Warn("intonation sample refused", "err", err)
	}
}

// Run feeds samples until the channel is closed or ctx is done. Nothing is
// drained on cancellation.
func (e *Engine) Run(ctx context.Context, samples <-chan tuning.Sample) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-samples:
			if !ok {
				return nil
			}
			e.Feed(s)
		}
	}
}

// Reading is what presentation shows for the latest accepted sample.
type Reading struct {
	Note       notes.ReferenceNote
	Frequency  float64
	Confidence float64
	Diff       float64
	Bucket     tuning.Bucket
	Timestamp  time.Time
}

// Reading returns the latest reading. With tuning.ErrBetweenNotes the note
// and frequency are still filled in but the bucket is meaningless.
func (e *Engine) Reading() (Reading, error) {
	snap := e.state.Snapshot()

	d, err := e.resolver.Deviation(snap)
	if err != nil && !errors.Is(err, tuning.ErrBetweenNotes) {
		return Reading{}, err
	}

	r := Reading{
		Note:       d.Note,
		Frequency:  snap.Frequency,
		Confidence: snap.Confidence,
		Diff:       d.Diff,
		Bucket:     d.Bucket,
		Timestamp:  snap.Timestamp,
	}
	return r, err
}

// Snapshot returns the raw tuning state.
func (e *Engine) Snapshot() tuning.Snapshot {
	return e.state.Snapshot()
}

// Trail appends the distance in cents of each recent reading to dst, oldest
// first.
func (e *Engine) Trail(dst []float64) []float64 {
	for _, snap := range e.state.History(nil) {
		d, err := e.resolver.Deviation(snap)
		if err != nil && !errors.Is(err, tuning.ErrBetweenNotes) {
			continue
		}
		dst = append(dst, d.Cents())
	}
	return dst
}

// ResetTuning forgets the current reading.
func (e *Engine) ResetTuning() {
	e.state.Reset()
}

// StartIntonation resets the tuning state and replaces any running session
// with a fresh one.
func (e *Engine) StartIntonation() *intonation.Session {
	opts := e.intonation
	user := opts.OnTransition
	opts.OnTransition = func(t intonation.Transition) {
		e.metrics.Transition(t.To.String())

		if t.To == intonation.Verified && t.Ordinal == intonation.Strings {
			e.metrics.SessionCompleted()
		}

		if user != nil {
			user(t)
		}
	}

	session := intonation.NewSession(opts, e.logger)
	e.state.Reset()

	e.mu.Lock()
	e.session = session
	e.mu.Unlock()

	e.metrics.SessionStarted()
	e.logger.Info("intonation session started", "session", session.ID().String())
	return session
}

// StopIntonation detaches the running session, if any.
func (e *Engine) StopIntonation() {
	e.mu.Lock()
	session := e.session
	e.session = nil
	e.mu.Unlock()

	if session != nil {
		e.logger.Info("intonation session stopped", "session", session.ID().String(), "complete", session.Complete())
	}
}

// Intonation returns the running session or nil.
func (e *Engine) Intonation() *intonation.Session {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session
}
