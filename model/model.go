package model

import (
	"fmt"
	"image"
	"runtime/debug"
)

type CustomError struct {
	Processor  string                 `json:"processor"`
	Inner      error                  `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

func (e CustomError) Error() string {
	if e.Inner == nil {
		return fmt.Sprintf("%s: %s", e.Processor, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Processor, e.Message, e.Inner)
}

func (e CustomError) Unwrap() error {
	return e.Inner
}

func GenError(proc string, err error, misc map[string]interface{}, messagef string, args ...interface{}) CustomError {
	return CustomError{
		Processor:  proc,
		Inner:      err,
		Message:    fmt.Sprintf(messagef, args...),
		StackTrace: string(debug.Stack()),
		Misc:       misc,
	}
}

// Detection is one labeled object found in a frame
type Detection struct {
	Label      string          `json:"label"`
	ClassID    int             `json:"classId"`
	Confidence float32         `json:"confidence"`
	Rect       image.Rectangle `json:"rect"`
}

type Source struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	FramerType string `json:"framerType"`
}

type FramerStats struct {
	Name        string `json:"name"`
	Source      string `json:"source"`
	FPS         int    `json:"fps"`
	Frames      int    `json:"frames"`
	EmptyFrames int    `json:"emptyFrames"`
	Uptime      int64  `json:"uptime"`
	Timestamp   int64  `json:"timestamp"`
}

type SamplerStats struct {
	Name           string  `json:"name"`
	RunID          string  `json:"runId"`
	Interval       int     `json:"interval"`
	Frames         int     `json:"frames"`
	SampledFrames  int     `json:"sampledFrames"`
	SkippedFrames  int     `json:"skippedFrames"`
	EmptyFrames    int     `json:"emptyFrames"`
	Detections     int     `json:"detections"`
	Matches        int     `json:"matches"`
	Notifications  int     `json:"notifications"`
	NotifierErrors int     `json:"notifierErrors"`
	DetectorErrors int     `json:"detectorErrors"`
	AvgProcTime    float64 `json:"avgProcTime"`
	Uptime         int64   `json:"uptime"`
	Timestamp      int64   `json:"timestamp"`
}

type AgentStats struct {
	ID        string `json:"id"`     // Run ID
	Source    string `json:"source"` // Source name
	Uptime    int64  `json:"uptime"`
	Timestamp int64  `json:"timestamp"`
}
