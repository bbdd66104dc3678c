package mode

import (
	"context"
	"log/slog"

	"github.com/khaledhikmat/vs-blink/model"
	"github.com/khaledhikmat/vs-blink/pipeline"
	"github.com/khaledhikmat/vs-blink/service/data"
	"github.com/khaledhikmat/vs-blink/service/lgr"
)

type Processor func(canxCtx context.Context, svcs pipeline.ServicesFactory) error

// journal routes agent stats and errors to the data service
type journal struct {
	dataSvc data.IService
}

func (j journal) Stats(stats interface{}) {
	procStats(j.dataSvc, stats)
}

func (j journal) Error(err interface{}) {
	procError(j.dataSvc, err)
}

func procStats(datasvc data.IService, stats interface{}) {
	switch stats := stats.(type) {
	case model.AgentStats:
		procAgentStats(datasvc, stats)
	case model.FramerStats:
		procFramerStats(datasvc, stats)
	case model.SamplerStats:
		procSamplerStats(datasvc, stats)
	default:
		lgr.Logger.Error(
			"unknown stats type",
			slog.Any("stats", stats),
		)
	}
}

func procAgentStats(datasvc data.IService, stats model.AgentStats) {
	err := datasvc.NewAgentStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store agent stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procFramerStats(datasvc data.IService, stats model.FramerStats) {
	err := datasvc.NewFramerStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store framer stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procSamplerStats(datasvc data.IService, stats model.SamplerStats) {
	lgr.Logger.Info(
		"sampler stats",
		slog.Int("frames", stats.Frames),
		slog.Int("sampled", stats.SampledFrames),
		slog.Int("empty", stats.EmptyFrames),
		slog.Int("matches", stats.Matches),
		slog.Int("notifications", stats.Notifications),
		slog.Int("notifierErrors", stats.NotifierErrors),
		slog.Int("detectorErrors", stats.DetectorErrors),
		slog.Float64("avgProcTime", stats.AvgProcTime),
	)

	err := datasvc.NewSamplerStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store sampler stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procError(datasvc data.IService, err interface{}) {
	lgr.Logger.Error("agent error", slog.Any("error", err))

	errTemp := datasvc.NewError(err)
	if errTemp != nil {
		lgr.Logger.Error(
			"failed to store error",
			slog.Any("error", errTemp),
		)
	}
}
