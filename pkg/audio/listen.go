package audio

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/metalblueberry/intonation/pkg/tuning"
)

// Source delivers frames until ctx is done. *Capture is a Source.
type Source interface {
	Run(ctx context.Context, fn func(frames []float32, sampleRate float64)) error
}

// Analyzer turns buffered frames into pitch samples.
type Analyzer interface {
	ProcessFloat32(samples []float32, sampleRate float64)
	Analyze() (tuning.Sample, error)
}

// Listen reads src into a and calls feed with a new sample whenever fresh
// frames arrived. Analysis runs on its own goroutine so a slow analysis
// never blocks the device; frames arriving meanwhile are coalesced into the
// next analysis.
//
// feed is only ever called from one goroutine.
func Listen(ctx context.Context, src Source, a Analyzer, feed func(tuning.Sample)) error {
	ready := make(chan struct{}, 1)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(ready)

		return src.Run(ctx, func(frames []float32, sampleRate float64) {
			a.ProcessFloat32(frames, sampleRate)

			select {
			case ready <- struct{}{}:
			default:
			}
		})
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case _, ok := <-ready:
				if !ok {
					return nil
				}

				s, err := a.Analyze()
				if err != nil {
					return err
				}
				feed(s)
			}
		}
	})

	return g.Wait()
}
