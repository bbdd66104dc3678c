package pipeline

import (
	"github.com/khaledhikmat/vs-blink/service/config"
	"github.com/khaledhikmat/vs-blink/service/data"
	"github.com/khaledhikmat/vs-blink/service/inference"
	"github.com/khaledhikmat/vs-blink/service/notifier"
)

type ServicesFactory struct {
	CfgSvc       config.IService
	DataSvc      data.IService
	InferenceSvc inference.IService
	NotifierSvc  notifier.IService
}

// Reporter receives stats (model.*Stats values) and errors
// (model.CustomError or error) produced while the agent runs.
type Reporter interface {
	Stats(stats interface{})
	Error(err interface{})
}
