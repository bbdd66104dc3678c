package config

import (
	"time"

	"github.com/khaledhikmat/vs-blink/model"
)

type hardcodedService struct {
}

// NewHardCoded returns the built-in defaults. The env service falls back to
// these for every key that is not set.
func NewHardCoded() IService {
	return &hardcodedService{}
}

func (svc *hardcodedService) GetModeMaxShutdownTime() time.Duration {
	return 5 * time.Second
}

func (svc *hardcodedService) GetLogFolder() string {
	return "./logs"
}

func (svc *hardcodedService) GetLogLevel() string {
	return "info"
}

func (svc *hardcodedService) GetLogFormat() string {
	return "pretty"
}

func (svc *hardcodedService) GetSource() model.Source {
	// IP Webcam app on the phone, note the trailing /video
	return model.Source{
		Name:       "phone",
		URL:        "http://192.168.1.20:8080/video",
		FramerType: FramerTypeStream,
	}
}

func (svc *hardcodedService) GetSampleInterval() int {
	return 3
}

func (svc *hardcodedService) GetTargetLabel() string {
	return "person"
}

func (svc *hardcodedService) GetWarmupDisplay() string {
	return WarmupDisplayRaw
}

func (svc *hardcodedService) GetEmptyFrameBackoff() time.Duration {
	return 500 * time.Millisecond
}

func (svc *hardcodedService) GetNotifierType() string {
	return NotifierTypeHTTP
}

func (svc *hardcodedService) GetNotifierURL() string {
	// ESP32 on the same Wi-Fi
	return "http://192.168.1.50/blink"
}

func (svc *hardcodedService) GetNotifierTimeout() time.Duration {
	return 1 * time.Second
}

func (svc *hardcodedService) GetMqttParameters() MqttParameters {
	return MqttParameters{
		Broker:   "tcp://localhost:1883",
		ClientID: "vs-blink",
		Topic:    "vs-blink/led",
		Payload:  "blink",
	}
}

func (svc *hardcodedService) GetDetectorParameters() DetectorParameters {
	return DetectorParameters{
		ModelPath:           "./yolo8/yolov8n.onnx",
		LabelsPath:          "./yolo8/coco.names",
		ConfidenceThreshold: 0.5,
		NMSThreshold:        0.45,
		InputSize:           640,
		Logging:             false,
	}
}

func (svc *hardcodedService) GetDisplayType() string {
	return DisplayTypeWindow
}

func (svc *hardcodedService) GetWindowTitle() string {
	return "YOLOv8 Live Detection (Phone Feed) - Press q to quit"
}

func (svc *hardcodedService) GetMjpegAddr() string {
	return ":8081"
}

func (svc *hardcodedService) GetStatsPeriod() time.Duration {
	return 10 * time.Second
}
