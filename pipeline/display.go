package pipeline

import (
	"log/slog"
	"time"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-blink/pipeline/broadcast"
	"github.com/khaledhikmat/vs-blink/sampler"
	"github.com/khaledhikmat/vs-blink/service/config"
	"github.com/khaledhikmat/vs-blink/service/lgr"
)

// Display is the sink for the selected frame. Frames are borrowed for the
// duration of Show.
type Display interface {
	sampler.Display[gocv.Mat]
	Close() error
}

func newDisplay(cfgSvc config.IService) (Display, error) {
	switch cfgSvc.GetDisplayType() {
	case config.DisplayTypeWindow:
		return newWindowDisplay(cfgSvc.GetWindowTitle()), nil
	case config.DisplayTypeMjpeg:
		d, err := newMjpegDisplay(cfgSvc.GetMjpegAddr(), cfgSvc.GetModeMaxShutdownTime())
		if err != nil {
			return nil, err
		}
		return d, nil
	case config.DisplayTypeNone:
		return nullDisplay{}, nil
	default:
		return nil, xerrors.Errorf("unknown display type %q", cfgSvc.GetDisplayType())
	}
}

type windowDisplay struct {
	window *gocv.Window
}

func newWindowDisplay(title string) *windowDisplay {
	return &windowDisplay{window: gocv.NewWindow(title)}
}

func (d *windowDisplay) Show(frame gocv.Mat) bool {
	d.window.IMShow(frame)
	return d.Poll()
}

// Poll pumps the GUI events and reports whether q was pressed
func (d *windowDisplay) Poll() bool {
	return d.window.WaitKey(1)&0xFF == 'q'
}

func (d *windowDisplay) Close() error {
	d.window.Close()
	return nil
}

// mjpegDisplay serves the selected frames as an MJPEG stream for headless
// runs. It has no keyboard, so only a signal stops the loop.
type mjpegDisplay struct {
	server *broadcast.MjpegServer
}

func newMjpegDisplay(addr string, shutdownTime time.Duration) (*mjpegDisplay, error) {
	server := broadcast.NewMjpegServer(addr, shutdownTime)
	if err := server.Start(); err != nil {
		return nil, err
	}
	return &mjpegDisplay{server: server}, nil
}

func (d *mjpegDisplay) Show(frame gocv.Mat) bool {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		lgr.Logger.Warn("could not encode frame", slog.Any("error", err))
		return false
	}
	defer buf.Close()

	d.server.Update(buf.GetBytes())
	return false
}

func (d *mjpegDisplay) Poll() bool {
	return false
}

func (d *mjpegDisplay) Close() error {
	return d.server.Close()
}

type nullDisplay struct{}

func (nullDisplay) Show(gocv.Mat) bool { return false }
func (nullDisplay) Poll() bool         { return false }
func (nullDisplay) Close() error       { return nil }
