package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/metalblueberry/intonation/pkg/audio"
	"github.com/metalblueberry/intonation/pkg/config"
	"github.com/metalblueberry/intonation/pkg/engine"
	"github.com/metalblueberry/intonation/pkg/estimator"
	"github.com/metalblueberry/intonation/pkg/intonation"
	"github.com/metalblueberry/intonation/pkg/metrics"
	"github.com/metalblueberry/intonation/pkg/notes"
	"github.com/metalblueberry/intonation/pkg/tuning"
)

const reportInterval = 100 * time.Millisecond

func newListenCmd(g *globals) *cobra.Command {
	var (
		device      string
		metricsAddr string
		session     bool
		duration    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Listen to the microphone and log every note change",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if device != "" {
				cfg.Audio.Device = device
			}
			if metricsAddr != "" {
				cfg.Metrics.Addr = metricsAddr
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}
			return listen(ctx, cfg, session)
		},
	}

	cmd.Flags().StringVar(&device, "device", "", "input device name, overrides the config")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&session, "intonation", false, "run an intonation session instead of plain tuning")
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop after this long, 0 runs until interrupted")
	return cmd
}

func listen(ctx context.Context, cfg config.Config, session bool) error {
	logger := slog.Default()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := cfg.Intonation
	opts.OnTransition = func(t intonation.Transition) {
		logger.Info("string progressed", "string", t.Ordinal, "from", t.From.String(), "to", t.To.String())
	}

	eng := engine.New(notes.Standard(),
		engine.WithLogger(logger),
		engine.WithMetrics(metrics.New(reg)),
		engine.WithGate(cfg.Tuner),
		engine.WithIntonation(opts),
		engine.WithHistory(cfg.History),
	)

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio: %w", err)
	}
	defer portaudio.Terminate()

	capture, err := audio.Open(audio.Config{
		Device:          cfg.Audio.Device,
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
		HighLatency:     cfg.Audio.HighLatency,
	})
	if err != nil {
		return err
	}
	defer capture.Close()

	est := estimator.Create(cfg.Audio.Window, estimator.DEFAULT_LOW_FREQUENCY, estimator.DEFAULT_HIGH_FREQUENCY)
	logger.Info("listening", "device", capture.DeviceName(), "rate", capture.SampleRate())

	var s *intonation.Session
	if session {
		s = eng.StartIntonation()
		logger.Info(s.Hint().String(), "string", 1)
	}

	grp, ctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		return audio.Listen(ctx, capture, est, eng.Feed)
	})

	grp.Go(func() error {
		return report(ctx, eng, s, logger)
	})

	if cfg.Metrics.Addr != "" {
		grp.Go(func() error {
			return serveMetrics(ctx, cfg.Metrics.Addr, reg, logger)
		})
	}

	if err := grp.Wait(); err != nil && !errors.Is(err, errDone) {
		return err
	}
	return nil
}

// report logs the reading whenever the note changes, and the session hint
// whenever it changes. It returns once the session is complete.
func report(ctx context.Context, eng *engine.Engine, s *intonation.Session, logger *slog.Logger) error {
	ticker := time.NewTicker(reportInterval)
	defer ticker.Stop()

	previous := ""
	hint := intonation.HintPlayOpen

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		r, err := eng.Reading()
		switch {
		case err == nil && r.Note.Name != previous:
			logger.Info("note", "name", r.Note.Name, "hz", r.Frequency, "diff", r.Diff, "bucket", r.Bucket.String())
			previous = r.Note.Name
		case errors.Is(err, tuning.ErrBetweenNotes):
			logger.Debug("between notes", "hz", r.Frequency)
		}

		if s == nil {
			continue
		}

		if h := s.Hint(); h != hint {
			current, _ := s.Current()
			logger.Info(h.String(), "string", current)
			hint = h
		}

		if verdicts, ok := s.Verdicts(); ok {
			for i, slot := range s.Slots() {
				logger.Info("intonation", "string", slot.Label, "verdict", verdicts[i].String(), "error_hz", slot.ErrorHz)
			}
			return errDone
		}
	}
}

var errDone = errors.New("intonation session complete")

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
