package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/mdobak/go-xerrors"
	"gocv.io/x/gocv"

	"github.com/khaledhikmat/vs-blink/model"
	"github.com/khaledhikmat/vs-blink/sampler"
	"github.com/khaledhikmat/vs-blink/service/config"
)

// Framer is a sampler.Source over gocv Mats. Frames returned by Read belong
// to the caller and must be closed.
type Framer interface {
	sampler.Source[gocv.Mat]
	Stats() model.FramerStats
	Close() error
}

func newFramer(source model.Source) (Framer, error) {
	if source.FramerType == config.FramerTypeRandom {
		return newRandomFramer(source), nil
	}

	f, err := newStreamFramer(source)
	if err != nil {
		return nil, err
	}
	return f, nil
}

type framerCounters struct {
	name        string
	source      model.Source
	startTime   time.Time
	frames      int
	emptyFrames int
}

func (c *framerCounters) Stats() model.FramerStats {
	uptime := int64(time.Since(c.startTime).Seconds())
	fps := 0
	if uptime > 0 {
		fps = int(float64(c.frames) / float64(uptime))
	}
	return model.FramerStats{
		Name:        c.name,
		Source:      c.source.Name,
		Frames:      c.frames,
		EmptyFrames: c.emptyFrames,
		Uptime:      uptime,
		FPS:         fps,
	}
}

type streamFramer struct {
	framerCounters
	webcam *gocv.VideoCapture
}

// newStreamFramer opens the network stream. Failing to open it is the one
// fatal error of the run.
func newStreamFramer(source model.Source) (*streamFramer, error) {
	webcam, err := gocv.OpenVideoCapture(source.URL)
	if err != nil {
		return nil, xerrors.New(fmt.Sprintf("opening video stream %s", source.URL), err)
	}

	if !webcam.IsOpened() {
		webcam.Close()
		return nil, xerrors.New(fmt.Sprintf("opening video stream %s: capture not opened", source.URL))
	}

	return &streamFramer{
		framerCounters: framerCounters{
			name:      "streamFramer",
			source:    source,
			startTime: time.Now(),
		},
		webcam: webcam,
	}, nil
}

func (f *streamFramer) Read(_ context.Context) (gocv.Mat, error) {
	img := gocv.NewMat()
	if ok := f.webcam.Read(&img); !ok || img.Empty() {
		f.emptyFrames++
		img.Close() // Crucial to close the image to avoid memory leaks
		return gocv.Mat{}, sampler.ErrEmptyFrame
	}

	f.frames++
	return img, nil
}

func (f *streamFramer) Close() error {
	return f.webcam.Close()
}

// randomFramer produces noise frames at a steady rate so the pipeline can run
// without a phone
type randomFramer struct {
	framerCounters
	ticker *time.Ticker
}

func newRandomFramer(source model.Source) *randomFramer {
	return &randomFramer{
		framerCounters: framerCounters{
			name:      "randomFramer",
			source:    source,
			startTime: time.Now(),
		},
		ticker: time.NewTicker(time.Second / 30),
	}
}

func (f *randomFramer) Read(ctx context.Context) (gocv.Mat, error) {
	select {
	case <-ctx.Done():
		return gocv.Mat{}, ctx.Err()
	case <-f.ticker.C:
	}

	img := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3) // 480x640 with 3 channels (BGR)
	gocv.RandU(&img, gocv.NewScalar(0, 0, 0, 0), gocv.NewScalar(255, 255, 255, 0))

	f.frames++
	return img, nil
}

func (f *randomFramer) Close() error {
	f.ticker.Stop()
	return nil
}
