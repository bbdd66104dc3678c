package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-blink/mode"
	"github.com/khaledhikmat/vs-blink/pipeline"
	"github.com/khaledhikmat/vs-blink/service/config"
	"github.com/khaledhikmat/vs-blink/service/data"
	"github.com/khaledhikmat/vs-blink/service/inference"
	"github.com/khaledhikmat/vs-blink/service/lgr"
	"github.com/khaledhikmat/vs-blink/service/notifier"
)

var modeProcessors = map[string]mode.Processor{
	"reduced": mode.Reduced,
	"full":    mode.Full,
}

func init() {
	// HighGUI windows must be driven from the main thread
	runtime.LockOSThread()
}

func main() {
	os.Exit(run())
}

func run() int {
	rootCtx := context.Background()
	canxCtx, canxFn := context.WithCancel(rootCtx)
	defer canxFn()

	// Hook up a signal handler to cancel the context
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			lgr.Logger.Info(
				"received kill signal",
				slog.Any("signal", sig),
			)
			canxFn()
		case <-canxCtx.Done():
		}
	}()

	// Load env vars if we are in DEV mode
	if os.Getenv("RUN_TIME_ENV") == "dev" || os.Getenv("RUN_TIME_ENV") == "" {
		if _, err := os.Stat(".env"); err == nil {
			lgr.Logger.Info("loading env vars from .env file")
			if err := godotenv.Load(); err != nil {
				lgr.Logger.Error("error loading .env file", slog.Any("error", xerrors.New(err.Error())))
				return 1
			}
		}
	}

	cfgSvc, err := config.NewEnv()
	if err != nil {
		lgr.Logger.Error("invalid configuration", slog.Any("error", err))
		return 1
	}

	lgr.Init(lgr.Options{
		Format: cfgSvc.GetLogFormat(),
		Level:  cfgSvc.GetLogLevel(),
		Folder: cfgSvc.GetLogFolder(),
	})

	modeType := "reduced"
	args := os.Args[1:]
	if len(args) > 0 {
		modeType = args[0]
	}

	modeProc, ok := modeProcessors[modeType]
	if !ok {
		lgr.Logger.Error("invalid mode", slog.String("mode", modeType))
		return 1
	}

	// Data service
	dataSvc := data.NewRolling(cfgSvc.GetLogFolder())
	defer dataSvc.Close()
	// Inference service
	inferenceSvc := inference.NewInterval(cfgSvc.GetSampleInterval())
	// Notifier service
	notifierSvc, err := notifier.New(cfgSvc)
	if err != nil {
		lgr.Logger.Error("invalid notifier", slog.Any("error", err))
		return 1
	}
	defer notifierSvc.Close()

	svcs := pipeline.ServicesFactory{
		CfgSvc:       cfgSvc,
		DataSvc:      dataSvc,
		InferenceSvc: inferenceSvc,
		NotifierSvc:  notifierSvc,
	}

	// The mode processor owns the display so it runs on the main goroutine
	if err := modeProc(canxCtx, svcs); err != nil {
		lgr.Logger.Error(
			"mode processor exited",
			slog.String("mode", modeType),
			slog.Any("error", err),
		)
		return 1
	}

	lgr.Logger.Info("webcam turned off")
	return 0
}
