// Package sampler decides, frame by frame, whether the detector runs and which
// image the display gets.
//
// The controller is generic over the image type so the policy does not depend
// on OpenCV: the pipeline instantiates it with gocv.Mat, tests with plain
// values.
package sampler

import (
	"context"
	"log/slog"
	"time"

	"github.com/khaledhikmat/vs-blink/model"
	"github.com/khaledhikmat/vs-blink/service/lgr"
)

// Result is what the detector produces for one sample frame. Ownership of
// Annotated passes to the controller.
type Result[F any] struct {
	Detections []model.Detection
	Annotated  F
}

type Detector[F any] interface {
	Detect(ctx context.Context, frame F) (Result[F], error)
}

type Notifier interface {
	Notify(ctx context.Context) error
}

// Policy is satisfied by inference.IService
type Policy interface {
	CanSkipFrame(frames int) bool
	Interval() int
}

type Options[F any] struct {
	Detector Detector[F]
	Notifier Notifier
	Policy   Policy
	Label    string
	// HoldUntilSampled hides the raw feed until the first inference has
	// produced an annotated frame.
	HoldUntilSampled bool
	// Release frees an annotated frame once it is superseded. May be nil.
	Release func(F)
	// OnDetections sees every successful detection set. May be nil.
	OnDetections func(ctx context.Context, detections []model.Detection)
}

// Outcome describes one Process call
type Outcome[F any] struct {
	// Display is borrowed: it is either the caller's raw frame or the
	// controller's cached annotated frame. Only valid when Show is true.
	Display  F
	Show     bool
	Frame    int
	Sampled  bool
	Matched  bool
	Notified bool
	Err      error
}

type Controller[F any] struct {
	opts Options[F]

	frames    int
	cached    F
	hasCached bool

	startTime     time.Time
	totalProcTime time.Duration
	stats         model.SamplerStats
}

func New[F any](opts Options[F]) *Controller[F] {
	return &Controller[F]{
		opts:      opts,
		startTime: time.Now(),
		stats: model.SamplerStats{
			Name:     "sampler",
			Interval: opts.Policy.Interval(),
		},
	}
}

// Process handles one successfully read frame. Empty frames must not be
// passed in: they do not count towards the sampling interval.
func (c *Controller[F]) Process(ctx context.Context, frame F) Outcome[F] {
	c.frames++
	c.stats.Frames++

	out := Outcome[F]{Frame: c.frames}

	if c.opts.Policy.CanSkipFrame(c.frames) {
		c.stats.SkippedFrames++
	} else {
		out.Sampled = true
		c.stats.SampledFrames++
		c.sample(lgr.WithSpan(ctx), frame, &out)
	}

	switch {
	case c.hasCached:
		out.Display, out.Show = c.cached, true
	case !c.opts.HoldUntilSampled:
		out.Display, out.Show = frame, true
	}

	return out
}

func (c *Controller[F]) sample(ctx context.Context, frame F, out *Outcome[F]) {
	start := time.Now()
	res, err := c.opts.Detector.Detect(ctx, frame)
	c.totalProcTime += time.Since(start)

	if err != nil {
		c.stats.DetectorErrors++
		out.Err = err
		lgr.Logger.ErrorContext(ctx,
			"detector failed, skipping frame",
			slog.Int("frame", c.frames),
			slog.Any("error", err),
		)
		return
	}

	c.stats.Detections += len(res.Detections)
	if c.opts.OnDetections != nil {
		c.opts.OnDetections(ctx, res.Detections)
	}

	if HasLabel(res.Detections, c.opts.Label) {
		out.Matched = true
		c.stats.Matches++

		lgr.Logger.InfoContext(ctx,
			"target detected, sending trigger",
			slog.String("label", c.opts.Label),
			slog.Int("frame", c.frames),
		)

		out.Notified = true
		if err := c.opts.Notifier.Notify(ctx); err != nil {
			c.stats.NotifierErrors++
			out.Err = err
			lgr.Logger.WarnContext(ctx,
				"could not reach the device",
				slog.Int("frame", c.frames),
				slog.Any("error", err),
			)
		} else {
			c.stats.Notifications++
		}
	}

	c.replaceCached(res.Annotated)
}

func (c *Controller[F]) replaceCached(f F) {
	if c.hasCached && c.opts.Release != nil {
		c.opts.Release(c.cached)
	}
	c.cached = f
	c.hasCached = true
}

// Frames is the number of frames processed so far
func (c *Controller[F]) Frames() int {
	return c.frames
}

func (c *Controller[F]) Stats() model.SamplerStats {
	s := c.stats
	s.Uptime = int64(time.Since(c.startTime).Seconds())
	if s.SampledFrames > 0 {
		s.AvgProcTime = c.totalProcTime.Seconds() / float64(s.SampledFrames)
	}
	return s
}

// Close releases the cached annotated frame
func (c *Controller[F]) Close() {
	if c.hasCached && c.opts.Release != nil {
		c.opts.Release(c.cached)
	}
	var zero F
	c.cached = zero
	c.hasCached = false
}

// HasLabel reports whether any detection carries label. It stops at the
// first match.
func HasLabel(detections []model.Detection, label string) bool {
	for _, d := range detections {
		if d.Label == label {
			return true
		}
	}
	return false
}
