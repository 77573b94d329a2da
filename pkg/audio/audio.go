package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"
)

var ErrNoInput = errors.New("no matching input device")

type Config struct {
	// Device selects the first input whose name contains it. Empty picks
	// the default input.
	Device          string
	FramesPerBuffer int
	HighLatency     bool
}

// Capture reads mono frames from an input device.
//
// portaudio.Initialize must have been called before Open.
type Capture struct {
	stream *portaudio.Stream
	device *portaudio.DeviceInfo
	buffer []float32
}

// Inputs lists the devices that can record.
func Inputs() ([]*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return filterInputs(devices), nil
}

func filterInputs(devices []*portaudio.DeviceInfo) []*portaudio.DeviceInfo {
	var inputs []*portaudio.DeviceInfo
	for _, device := range devices {
		if device.MaxInputChannels > 0 {
			inputs = append(inputs, device)
		}
	}
	return inputs
}

func matchInput(devices []*portaudio.DeviceInfo, pattern string) *portaudio.DeviceInfo {
	for _, device := range filterInputs(devices) {
		if strings.Contains(device.Name, pattern) {
			return device
		}
	}
	return nil
}

// Open selects an input device and opens a blocking mono stream on it.
func Open(cfg Config) (*Capture, error) {
	var input *portaudio.DeviceInfo

	if cfg.Device == "" {
		var err error
		input, err = portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("default input: %w", err)
		}
	} else {
		devices, err := portaudio.Devices()
		if err != nil {
			return nil, fmt.Errorf("list devices: %w", err)
		}
		input = matchInput(devices, cfg.Device)
		if input == nil {
			return nil, fmt.Errorf("%w: %q", ErrNoInput, cfg.Device)
		}
	}

	p := portaudio.LowLatencyParameters(input, nil)
	if cfg.HighLatency {
		p = portaudio.HighLatencyParameters(input, nil)
	}
	p.Input.Channels = 1
	p.Output.Channels = 0
	p.FramesPerBuffer = cfg.FramesPerBuffer

	c := &Capture{
		device: input,
		buffer: make([]float32, cfg.FramesPerBuffer),
	}

	stream, err := portaudio.OpenStream(p, c.buffer)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", input.Name, err)
	}
	c.stream = stream
	return c, nil
}

func (c *Capture) DeviceName() string {
	return c.device.Name
}

func (c *Capture) SampleRate() float64 {
	return c.stream.Info().SampleRate
}

// Run reads frames until ctx is done and hands every buffer to fn. The
// buffer is reused, fn must not keep it.
func (c *Capture) Run(ctx context.Context, fn func(frames []float32, sampleRate float64)) error {
	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	defer c.stream.Stop()

	rate := c.SampleRate()
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		if err := c.stream.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				continue
			}
			return fmt.Errorf("read stream: %w", err)
		}
		fn(c.buffer, rate)
	}
}

func (c *Capture) Close() error {
	return c.stream.Close()
}
