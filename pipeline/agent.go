package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/khaledhikmat/vs-blink/model"
	"github.com/khaledhikmat/vs-blink/sampler"
	"github.com/khaledhikmat/vs-blink/service/config"
	"github.com/khaledhikmat/vs-blink/service/lgr"
)

// Agent opens the source, loads the detector and runs the sampling loop
// until the context is cancelled or the operator presses q. Only failures to
// set the run up are returned; everything after that is logged and reported.
func Agent(canxCtx context.Context, svcs ServicesFactory, reporter Reporter) error {
	runID := uuid.New()
	ctx := lgr.WithRun(canxCtx, runID)

	source := svcs.CfgSvc.GetSource()
	params := svcs.CfgSvc.GetDetectorParameters()
	label := svcs.CfgSvc.GetTargetLabel()

	lgr.Logger.InfoContext(ctx,
		"agent starting....",
		slog.String("runID", runID.String()),
		slog.String("source", source.Name),
		slog.String("framerType", source.FramerType),
		slog.String("url", source.URL),
		slog.String("model", params.ModelPath),
		slog.String("target", label),
		slog.Int("interval", svcs.InferenceSvc.Interval()),
		slog.String("notifier", svcs.NotifierSvc.Target()),
		slog.String("gocv", gocv.Version()),
		slog.String("openCV", gocv.OpenCVVersion()),
	)

	framer, err := newFramer(source)
	if err != nil {
		return model.GenError("agent", err,
			map[string]interface{}{"url": source.URL},
			"could not open video stream from %s, check the URL and that both devices share the Wi-Fi", source.Name)
	}
	defer framer.Close()

	lgr.Logger.InfoContext(ctx, "camera stream connected", slog.String("source", source.Name))

	detector, err := NewYolo8Detector(params, label)
	if err != nil {
		return model.GenError("agent", err,
			map[string]interface{}{"model": params.ModelPath},
			"could not load the detector")
	}
	defer detector.Close()

	display, err := newDisplay(svcs.CfgSvc)
	if err != nil {
		return model.GenError("agent", err, nil, "could not create the display")
	}
	defer func() {
		if err := display.Close(); err != nil {
			lgr.Logger.ErrorContext(ctx, "error closing display", slog.Any("error", err))
		}
	}()

	ctrl := sampler.New(sampler.Options[gocv.Mat]{
		Detector:         detector,
		Notifier:         svcs.NotifierSvc,
		Policy:           svcs.InferenceSvc,
		Label:            label,
		HoldUntilSampled: svcs.CfgSvc.GetWarmupDisplay() == config.WarmupDisplayHold,
		Release: func(m gocv.Mat) {
			m.Close() // Crucial to close the image to avoid memory leaks
		},
		OnDetections: func(ctx context.Context, detections []model.Detection) {
			if !params.Logging {
				return
			}
			if err := svcs.DataSvc.NewDetections(source.Name, filterLabel(detections, label)); err != nil {
				lgr.Logger.ErrorContext(ctx, "error logging detections", slog.Any("error", err))
			}
		},
	})
	defer ctrl.Close()

	startTime := time.Now()
	agentStats := model.AgentStats{
		ID:     runID.String(),
		Source: source.Name,
	}

	lgr.Logger.InfoContext(ctx, "starting detection... press q to quit")

	err = ctrl.Run(ctx, framer, display, sampler.LoopOptions{
		Backoff:     svcs.CfgSvc.GetEmptyFrameBackoff(),
		StatsPeriod: svcs.CfgSvc.GetStatsPeriod(),
		OnStats: func(stats model.SamplerStats) {
			stats.RunID = runID.String()
			reporter.Stats(stats)
			reporter.Stats(framer.Stats())

			agentStats.Uptime = int64(time.Since(startTime).Seconds())
			reporter.Stats(agentStats)
		},
	})
	if err != nil {
		reporter.Error(model.GenError("agent", err,
			map[string]interface{}{"url": source.URL},
			"video stream failed"))
	}

	lgr.Logger.InfoContext(ctx,
		"agent stopped",
		slog.Int("frames", ctrl.Frames()),
		slog.Duration("uptime", time.Since(startTime)),
	)

	return nil
}

func filterLabel(detections []model.Detection, label string) []model.Detection {
	filtered := []model.Detection{}
	for _, d := range detections {
		if d.Label == label {
			filtered = append(filtered, d)
		}
	}
	return filtered
}
