package config

import (
	"time"

	"github.com/khaledhikmat/vs-blink/model"
)

const (
	WarmupDisplayRaw  = "raw"
	WarmupDisplayHold = "hold"

	NotifierTypeHTTP = "http"
	NotifierTypeMQTT = "mqtt"
	NotifierTypeFake = "fake"

	DisplayTypeWindow = "window"
	DisplayTypeMjpeg  = "mjpeg"
	DisplayTypeNone   = "none"

	FramerTypeStream = "stream"
	FramerTypeRandom = "random"
)

type DetectorParameters struct {
	ModelPath           string
	LabelsPath          string
	ConfidenceThreshold float32
	NMSThreshold        float32
	InputSize           int
	Logging             bool
}

type MqttParameters struct {
	Broker   string
	ClientID string
	Topic    string
	Payload  string
	Username string
	Password string
}

type IService interface {
	GetModeMaxShutdownTime() time.Duration
	GetLogFolder() string
	GetLogLevel() string
	GetLogFormat() string
	GetSource() model.Source
	GetSampleInterval() int
	GetTargetLabel() string
	GetWarmupDisplay() string
	GetEmptyFrameBackoff() time.Duration
	GetNotifierType() string
	GetNotifierURL() string
	GetNotifierTimeout() time.Duration
	GetMqttParameters() MqttParameters
	GetDetectorParameters() DetectorParameters
	GetDisplayType() string
	GetWindowTitle() string
	GetMjpegAddr() string
	GetStatsPeriod() time.Duration
}
