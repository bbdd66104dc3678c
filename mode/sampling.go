package mode

import (
	"context"

	"github.com/khaledhikmat/vs-blink/pipeline"
	"github.com/khaledhikmat/vs-blink/service/inference"
	"github.com/khaledhikmat/vs-blink/service/lgr"
)

// Reduced runs the detector on one frame out of every SAMPLE_INTERVAL and
// keeps showing the last annotated frame in between.
func Reduced(canxCtx context.Context, svcs pipeline.ServicesFactory) error {
	lgr.Logger.Info("reduced frame rate mode")
	return run(canxCtx, svcs)
}

// Full runs the detector on every frame regardless of SAMPLE_INTERVAL
func Full(canxCtx context.Context, svcs pipeline.ServicesFactory) error {
	lgr.Logger.Info("full frame rate mode")
	svcs.InferenceSvc = inference.NewInterval(1)
	return run(canxCtx, svcs)
}

func run(canxCtx context.Context, svcs pipeline.ServicesFactory) error {
	j := journal{dataSvc: svcs.DataSvc}

	err := pipeline.Agent(canxCtx, svcs, j)
	if err != nil {
		j.Error(err)
		return err
	}

	return nil
}
