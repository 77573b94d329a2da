package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/metalblueberry/intonation/pkg/intonation"
	"github.com/metalblueberry/intonation/pkg/tuning"
)

var ErrInvalid = errors.New("invalid config")

// Config holds everything the binaries can tune.
type Config struct {
	Tuner      tuning.Gate        `yaml:"tuner"`
	Intonation intonation.Options `yaml:"intonation"`
	Audio      Audio              `yaml:"audio"`
	History    int                `yaml:"history"`
	Log        Log                `yaml:"log"`
	Metrics    Metrics            `yaml:"metrics"`
}

type Audio struct {
	// Device selects the first input whose name contains it. Empty picks
	// the default input.
	Device          string `yaml:"device"`
	FramesPerBuffer int    `yaml:"frames_per_buffer"`
	HighLatency     bool   `yaml:"high_latency"`
	// Window is the number of samples the estimator analyses at once.
	Window int `yaml:"window"`
}

type Log struct {
	Debug bool `yaml:"debug"`
}

type Metrics struct {
	// Addr serves Prometheus metrics when set, e.g. ":9090".
	Addr string `yaml:"addr"`
}

// DefaultPath is where the binaries look for a config unless told
// otherwise.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "intonation.yaml"
	}
	return filepath.Join(dir, "intonation", "config.yaml")
}

func DefaultConfig() Config {
	return Config{
		Tuner:      tuning.DefaultGate(),
		Intonation: intonation.DefaultOptions(),
		Audio: Audio{
			FramesPerBuffer: 1024,
			HighLatency:     true,
			Window:          8192,
		},
		History: 256,
	}
}

// Load reads the config at path on top of the defaults. A missing file
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read the config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// WriteDefault writes the default config to path, creating its directory.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c Config) Validate() error {
	switch {
	case c.Tuner.MinConfidence < 0 || c.Tuner.MinConfidence >= 1:
		return fmt.Errorf("%w: tuner.min_confidence must be in [0, 1)", ErrInvalid)
	case c.Tuner.MinFrequency < 0:
		return fmt.Errorf("%w: tuner.min_frequency must not be negative", ErrInvalid)
	case c.Intonation.CaptureConfidence < 0 || c.Intonation.CaptureConfidence >= 1:
		return fmt.Errorf("%w: intonation.capture_confidence must be in [0, 1)", ErrInvalid)
	case c.Intonation.HarmonicWindowCents <= 0:
		return fmt.Errorf("%w: intonation.harmonic_window_cents must be positive", ErrInvalid)
	case c.Intonation.VerdictToleranceCents < 0 || c.Intonation.VerdictToleranceCents > c.Intonation.HarmonicWindowCents:
		return fmt.Errorf("%w: intonation.verdict_tolerance_cents must be between 0 and the harmonic window", ErrInvalid)
	case c.Intonation.MinToleranceHz < 0:
		return fmt.Errorf("%w: intonation.min_tolerance_hz must not be negative", ErrInvalid)
	case c.Audio.FramesPerBuffer <= 0:
		return fmt.Errorf("%w: audio.frames_per_buffer must be positive", ErrInvalid)
	case c.Audio.Window < 2*c.Audio.FramesPerBuffer:
		return fmt.Errorf("%w: audio.window must hold at least two buffers", ErrInvalid)
	case c.History <= 0:
		return fmt.Errorf("%w: history must be positive", ErrInvalid)
	}
	return nil
}
