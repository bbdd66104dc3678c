package sampler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/khaledhikmat/vs-blink/model"
	"github.com/khaledhikmat/vs-blink/service/inference"
	"github.com/khaledhikmat/vs-blink/service/notifier"
)

var errStreamClosed = errors.New("stream closed")

// scriptedSource replays a script: a positive entry is a frame with that
// sequence number, 0 is an empty read, -1 ends the stream.
type scriptedSource struct {
	script []int
	pos    int
	cancel context.CancelFunc
}

func (s *scriptedSource) Read(_ context.Context) (img, error) {
	if s.pos >= len(s.script) {
		if s.cancel != nil {
			s.cancel()
		}
		return img{}, errStreamClosed
	}
	v := s.script[s.pos]
	s.pos++
	switch {
	case v == 0:
		return img{}, ErrEmptyFrame
	case v < 0:
		return img{}, errStreamClosed
	}
	return img{seq: v}, nil
}

type recordingDisplay struct {
	shown  []img
	polls  int
	stopAt int // stop after this many calls, 0 never
}

func (d *recordingDisplay) Show(f img) bool {
	d.shown = append(d.shown, f)
	return d.stopAt > 0 && len(d.shown)+d.polls >= d.stopAt
}

func (d *recordingDisplay) Poll() bool {
	d.polls++
	return d.stopAt > 0 && len(d.shown)+d.polls >= d.stopAt
}

func TestRunEmptyFramesDoNotShiftSampling(t *testing.T) {
	det := &scriptedDetector{script: map[int][]model.Detection{6: {person()}}}
	n := notifier.NewFake(nil)
	var released []img
	c := newController(3, det, n, &released)

	src := &scriptedSource{script: []int{1, 0, 2, 0, 0, 3, 4, 0, 5, 6}}
	disp := &recordingDisplay{stopAt: 6}

	var stats []model.SamplerStats
	err := c.Run(context.Background(), src, disp, LoopOptions{
		Backoff: time.Millisecond,
		OnStats: func(s model.SamplerStats) { stats = append(stats, s) },
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(det.calls) != 2 || det.calls[0] != 3 || det.calls[1] != 6 {
		t.Errorf("detector calls = %v, want [3 6]", det.calls)
	}
	if n.Calls() != 1 {
		t.Errorf("notifier called %d times, want 1", n.Calls())
	}
	if len(disp.shown) != 6 {
		t.Fatalf("shown %d frames, want one per real frame", len(disp.shown))
	}
	if len(stats) != 1 {
		t.Fatalf("got %d stats reports, want the final one", len(stats))
	}
	if stats[0].EmptyFrames != 4 || stats[0].Frames != 6 || stats[0].SampledFrames != 2 {
		t.Errorf("final stats = %+v", stats[0])
	}

	// Raw frames are released after display, plus the superseded annotation of frame 3
	var raw, annotated int
	for _, r := range released {
		if r.annotated {
			annotated++
		} else {
			raw++
		}
	}
	if raw != 6 || annotated != 1 {
		t.Errorf("released raw=%d annotated=%d, want 6 and 1", raw, annotated)
	}
}

func TestRunStopsOnDisplayRequest(t *testing.T) {
	c := newController(1, &scriptedDetector{}, notifier.NewFake(nil), nil)
	src := &scriptedSource{script: []int{1, 2, 3, 4, 5}}
	disp := &recordingDisplay{stopAt: 2}

	if err := c.Run(context.Background(), src, disp, LoopOptions{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if c.Frames() != 2 {
		t.Errorf("processed %d frames, want 2", c.Frames())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := newController(1, &scriptedDetector{}, notifier.NewFake(nil), nil)
	src := &scriptedSource{script: []int{1, 2}, cancel: cancel}

	if err := c.Run(ctx, src, &recordingDisplay{}, LoopOptions{}); err != nil {
		t.Fatalf("Run() error = %v, cancellation is a clean stop", err)
	}
	if c.Frames() != 2 {
		t.Errorf("processed %d frames, want 2", c.Frames())
	}
}

func TestRunReturnsSourceFailure(t *testing.T) {
	c := newController(1, &scriptedDetector{}, notifier.NewFake(nil), nil)
	src := &scriptedSource{script: []int{1, -1, 2}}

	err := c.Run(context.Background(), src, &recordingDisplay{}, LoopOptions{})
	if !errors.Is(err, errStreamClosed) {
		t.Fatalf("Run() error = %v, want %v", err, errStreamClosed)
	}
}

func TestRunPollsWhileHolding(t *testing.T) {
	c := New(Options[img]{
		Detector:         &scriptedDetector{},
		Notifier:         notifier.NewFake(nil),
		Policy:           inference.NewInterval(3),
		Label:            "person",
		HoldUntilSampled: true,
	})
	disp := &recordingDisplay{stopAt: 4}
	src := &scriptedSource{script: []int{1, 2, 3, 4}}

	if err := c.Run(context.Background(), src, disp, LoopOptions{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if disp.polls != 2 || len(disp.shown) != 2 {
		t.Errorf("polls=%d shown=%d, want 2 and 2", disp.polls, len(disp.shown))
	}
}

func TestRunNotifierTimeoutKeepsLooping(t *testing.T) {
	det := &scriptedDetector{script: map[int][]model.Detection{1: {person()}, 2: {person()}}}
	n := notifier.NewFake(context.DeadlineExceeded)
	c := newController(1, det, n, nil)
	src := &scriptedSource{script: []int{1, 2, 3}}
	disp := &recordingDisplay{stopAt: 3}

	if err := c.Run(context.Background(), src, disp, LoopOptions{}); err != nil {
		t.Fatalf("Run() error = %v, notifier faults must not surface", err)
	}
	if c.Frames() != 3 || n.Calls() != 2 {
		t.Errorf("frames=%d notifier calls=%d, want 3 and 2", c.Frames(), n.Calls())
	}
}
