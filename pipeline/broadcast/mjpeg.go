// Package broadcast serves encoded frames to browsers as an MJPEG stream.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hybridgroup/mjpeg"
	"github.com/mdobak/go-xerrors"

	"github.com/khaledhikmat/vs-blink/service/lgr"
)

type MjpegServer struct {
	stream       *mjpeg.Stream
	server       *http.Server
	shutdownTime time.Duration
}

func NewMjpegServer(addr string, shutdownTime time.Duration) *MjpegServer {
	stream := mjpeg.NewStream()

	mux := http.NewServeMux()
	mux.Handle("/", stream)

	return &MjpegServer{
		stream: stream,
		server: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 60 * time.Second,
		},
		shutdownTime: shutdownTime,
	}
}

// Start binds the address and serves in the background
func (s *MjpegServer) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return xerrors.New(fmt.Sprintf("listening on %s", s.server.Addr), err)
	}

	go s.serve(ln)
	return nil
}

func (s *MjpegServer) serve(ln net.Listener) {
	lgr.Logger.Info("mjpeg display listening", slog.String("addr", ln.Addr().String()))
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lgr.Logger.Error("mjpeg display server stopped", slog.Any("error", xerrors.New(err)))
	}
}

// Update pushes one JPEG to every connected viewer
func (s *MjpegServer) Update(jpeg []byte) {
	s.stream.UpdateJPEG(jpeg)
}

// Close waits up to the shutdown time for viewers to go away, then drops
// them. Viewer connections never end on their own.
func (s *MjpegServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTime)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		lgr.Logger.Warn(
			"mjpeg viewers still connected, closing them",
			slog.Duration("waited", s.shutdownTime),
			slog.Any("error", xerrors.New(err)),
		)
		if err := s.server.Close(); err != nil {
			return xerrors.New("closing mjpeg display server", err)
		}
	}

	return nil
}
