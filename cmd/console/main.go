package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/metalblueberry/intonation/pkg/config"
)

type globals struct {
	configPath string
	debug      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("console failed", "err", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:           "console",
		Short:         "Headless guitar tuner and intonation checker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&g.configPath, "config", config.DefaultPath(), "config file")
	cmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "debug logging")

	cmd.AddCommand(
		newListenCmd(g),
		newReplayCmd(g),
		newDevicesCmd(),
		newConfigCmd(g),
	)
	return cmd
}

// load reads the config and sets up logging from it.
func (g *globals) load() (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return cfg, err
	}
	initLogger(g.debug || cfg.Log.Debug)
	return cfg, nil
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
