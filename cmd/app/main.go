package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gordonklaus/portaudio"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/metalblueberry/intonation/pkg/audio"
	"github.com/metalblueberry/intonation/pkg/config"
	"github.com/metalblueberry/intonation/pkg/engine"
	"github.com/metalblueberry/intonation/pkg/estimator"
	"github.com/metalblueberry/intonation/pkg/notes"
)

const (
	screenWidth  = 640
	screenHeight = 480
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("app failed", "err", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		device     string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:           "app",
		Short:         "Guitar tuner and intonation checker",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if device != "" {
				cfg.Audio.Device = device
			}
			initLogger(debug || cfg.Log.Debug)
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath(), "config file")
	cmd.Flags().StringVar(&device, "device", "", "input device name, overrides the config")
	cmd.Flags().BoolVar(&debug, "debug", false, "debug logging")
	return cmd
}

func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	slog.SetDefault(slog.New(handler))
}

func run(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

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
	eng := engine.New(notes.Standard(),
		engine.WithGate(cfg.Tuner),
		engine.WithIntonation(cfg.Intonation),
		engine.WithHistory(cfg.History),
	)

	slog.Info("listening", "device", capture.DeviceName(), "rate", capture.SampleRate())

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return audio.Listen(gctx, capture, est, eng.Feed)
	})

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Intonation")
	err = ebiten.RunGame(newGame(gctx, eng))
	cancel()

	if werr := g.Wait(); werr != nil {
		return werr
	}
	if err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
