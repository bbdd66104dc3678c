package sampler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/khaledhikmat/vs-blink/model"
	"github.com/khaledhikmat/vs-blink/service/lgr"
)

// ErrEmptyFrame is returned by a Source when a read produced no usable
// image. The loop treats it as transient.
var ErrEmptyFrame = errors.New("empty frame")

// Source yields frames in order. Read blocks until a frame arrives. Any
// error other than ErrEmptyFrame ends the loop.
type Source[F any] interface {
	Read(ctx context.Context) (F, error)
}

// Display receives one call per processed frame. Either method returning
// true is the operator asking to stop.
type Display[F any] interface {
	Show(frame F) bool
	// Poll is called instead of Show when there is nothing to show yet
	Poll() bool
}

type LoopOptions struct {
	// Pause after an empty frame
	Backoff     time.Duration
	StatsPeriod time.Duration
	OnStats     func(model.SamplerStats)
}

// Run drives the single-threaded read, sample, display loop until ctx is
// cancelled, the display asks to stop or the source fails for good. The
// stop conditions are checked once per iteration.
func (c *Controller[F]) Run(ctx context.Context, src Source[F], disp Display[F], opts LoopOptions) error {
	lastStats := time.Now()
	defer func() {
		c.report(opts)
	}()

	for {
		if ctx.Err() != nil {
			lgr.Logger.InfoContext(ctx, "sampling loop context cancelled")
			return nil
		}

		frame, err := src.Read(ctx)
		if errors.Is(err, ErrEmptyFrame) {
			c.stats.EmptyFrames++
			lgr.Logger.WarnContext(ctx,
				"dropped or empty frame, check the Wi-Fi connection",
				slog.Int("emptyFrames", c.stats.EmptyFrames),
				slog.Duration("backoff", opts.Backoff),
			)
			sleep(ctx, opts.Backoff)
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		out := c.Process(ctx, frame)

		var stop bool
		if out.Show {
			stop = disp.Show(out.Display)
		} else {
			stop = disp.Poll()
		}

		if c.opts.Release != nil {
			c.opts.Release(frame)
		}

		if opts.StatsPeriod > 0 && time.Since(lastStats) >= opts.StatsPeriod {
			c.report(opts)
			lastStats = time.Now()
		}

		if stop {
			lgr.Logger.InfoContext(ctx, "stop requested from the display", slog.Int("frames", c.frames))
			return nil
		}
	}
}

func (c *Controller[F]) report(opts LoopOptions) {
	if opts.OnStats != nil {
		opts.OnStats(c.Stats())
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
