package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-blink/model"
)

type envService struct {
	modeMaxShutdownTime time.Duration
	logFolder           string
	logLevel            string
	logFormat           string
	source              model.Source
	sampleInterval      int
	targetLabel         string
	warmupDisplay       string
	emptyFrameBackoff   time.Duration
	notifierType        string
	notifierURL         string
	notifierTimeout     time.Duration
	mqtt                MqttParameters
	detector            DetectorParameters
	displayType         string
	windowTitle         string
	mjpegAddr           string
	statsPeriod         time.Duration
}

// NewEnv reads the configuration from environment variables. Unset keys take
// the hard-coded defaults; malformed or out-of-range values are an error.
func NewEnv() (IService, error) {
	def := NewHardCoded()
	p := &envParser{}

	mqtt := def.GetMqttParameters()
	det := def.GetDetectorParameters()
	src := def.GetSource()

	svc := &envService{
		modeMaxShutdownTime: p.duration("MODE_MAX_SHUTDOWN_TIME", def.GetModeMaxShutdownTime()),
		logFolder:           p.str("LOG_FOLDER", def.GetLogFolder()),
		logLevel:            p.str("LOG_LEVEL", def.GetLogLevel()),
		logFormat:           p.str("LOG_FORMAT", def.GetLogFormat()),
		source: model.Source{
			Name:       p.str("SOURCE_NAME", src.Name),
			URL:        p.str("STREAM_URL", src.URL),
			FramerType: p.str("FRAMER_TYPE", src.FramerType),
		},
		sampleInterval:    p.integer("SAMPLE_INTERVAL", def.GetSampleInterval()),
		targetLabel:       p.str("TARGET_LABEL", def.GetTargetLabel()),
		warmupDisplay:     p.str("WARMUP_DISPLAY", def.GetWarmupDisplay()),
		emptyFrameBackoff: p.duration("EMPTY_FRAME_BACKOFF", def.GetEmptyFrameBackoff()),
		notifierType:      p.str("NOTIFIER_TYPE", def.GetNotifierType()),
		notifierURL:       p.str("NOTIFIER_URL", def.GetNotifierURL()),
		notifierTimeout:   p.duration("NOTIFIER_TIMEOUT", def.GetNotifierTimeout()),
		mqtt: MqttParameters{
			Broker:   p.str("MQTT_BROKER", mqtt.Broker),
			ClientID: p.str("MQTT_CLIENT_ID", mqtt.ClientID),
			Topic:    p.str("MQTT_TOPIC", mqtt.Topic),
			Payload:  p.str("MQTT_PAYLOAD", mqtt.Payload),
			Username: p.str("MQTT_USERNAME", mqtt.Username),
			Password: p.str("MQTT_PASSWORD", mqtt.Password),
		},
		detector: DetectorParameters{
			ModelPath:           p.str("MODEL_PATH", det.ModelPath),
			LabelsPath:          p.str("LABELS_PATH", det.LabelsPath),
			ConfidenceThreshold: p.float32("CONFIDENCE_THRESHOLD", det.ConfidenceThreshold),
			NMSThreshold:        p.float32("NMS_THRESHOLD", det.NMSThreshold),
			InputSize:           p.integer("MODEL_INPUT_SIZE", det.InputSize),
			Logging:             p.boolean("DETECTION_LOGGING", det.Logging),
		},
		displayType: p.str("DISPLAY_TYPE", def.GetDisplayType()),
		windowTitle: p.str("WINDOW_TITLE", def.GetWindowTitle()),
		mjpegAddr:   p.str("MJPEG_ADDR", def.GetMjpegAddr()),
		statsPeriod: p.duration("STATS_PERIOD", def.GetStatsPeriod()),
	}

	if p.err != nil {
		return nil, p.err
	}

	if err := svc.validate(); err != nil {
		return nil, err
	}

	return svc, nil
}

func (svc *envService) validate() error {
	if svc.sampleInterval < 1 {
		return xerrors.Errorf("SAMPLE_INTERVAL must be >= 1, got %d", svc.sampleInterval)
	}

	if strings.TrimSpace(svc.targetLabel) == "" {
		return xerrors.New("TARGET_LABEL must not be empty")
	}

	if svc.notifierTimeout <= 0 {
		return xerrors.Errorf("NOTIFIER_TIMEOUT must be positive, got %s", svc.notifierTimeout)
	}

	if svc.emptyFrameBackoff < 0 {
		return xerrors.Errorf("EMPTY_FRAME_BACKOFF must not be negative, got %s", svc.emptyFrameBackoff)
	}

	if svc.statsPeriod <= 0 {
		return xerrors.Errorf("STATS_PERIOD must be positive, got %s", svc.statsPeriod)
	}

	if svc.detector.ConfidenceThreshold < 0 || svc.detector.ConfidenceThreshold > 1 {
		return xerrors.Errorf("CONFIDENCE_THRESHOLD must be between 0.0 and 1.0, got %v", svc.detector.ConfidenceThreshold)
	}

	if svc.detector.NMSThreshold < 0 || svc.detector.NMSThreshold > 1 {
		return xerrors.Errorf("NMS_THRESHOLD must be between 0.0 and 1.0, got %v", svc.detector.NMSThreshold)
	}

	if svc.detector.InputSize <= 0 || svc.detector.InputSize%32 != 0 {
		return xerrors.Errorf("MODEL_INPUT_SIZE must be a positive multiple of 32, got %d", svc.detector.InputSize)
	}

	if err := oneOf("WARMUP_DISPLAY", svc.warmupDisplay, WarmupDisplayRaw, WarmupDisplayHold); err != nil {
		return err
	}

	if err := oneOf("NOTIFIER_TYPE", svc.notifierType, NotifierTypeHTTP, NotifierTypeMQTT, NotifierTypeFake); err != nil {
		return err
	}

	if err := oneOf("DISPLAY_TYPE", svc.displayType, DisplayTypeWindow, DisplayTypeMjpeg, DisplayTypeNone); err != nil {
		return err
	}

	if err := oneOf("FRAMER_TYPE", svc.source.FramerType, FramerTypeStream, FramerTypeRandom); err != nil {
		return err
	}

	if err := oneOf("LOG_FORMAT", svc.logFormat, "pretty", "json"); err != nil {
		return err
	}

	if svc.notifierType == NotifierTypeHTTP {
		u, err := url.Parse(svc.notifierURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return xerrors.Errorf("NOTIFIER_URL must be an http(s) URL with a host, got %q", svc.notifierURL)
		}
	}

	if svc.source.FramerType == FramerTypeStream && svc.source.URL == "" {
		return xerrors.New("STREAM_URL is required for the stream framer")
	}

	return nil
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return xerrors.Errorf("%s must be one of %v, got %q", key, allowed, value)
}

// envParser keeps the first parse error so NewEnv can read every key in one go
type envParser struct {
	err error
}

func (p *envParser) str(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func (p *envParser) integer(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return i
}

func (p *envParser) float32(key string, defaultValue float32) float32 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 32)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return float32(f)
}

func (p *envParser) boolean(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return b
}

func (p *envParser) duration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return d
}

func (p *envParser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = xerrors.Errorf("invalid %s=%q: %w", key, value, err)
	}
}

func (svc *envService) GetModeMaxShutdownTime() time.Duration     { return svc.modeMaxShutdownTime }
func (svc *envService) GetLogFolder() string                      { return svc.logFolder }
func (svc *envService) GetLogLevel() string                       { return svc.logLevel }
func (svc *envService) GetLogFormat() string                      { return svc.logFormat }
func (svc *envService) GetSource() model.Source                   { return svc.source }
func (svc *envService) GetSampleInterval() int                    { return svc.sampleInterval }
func (svc *envService) GetTargetLabel() string                    { return svc.targetLabel }
func (svc *envService) GetWarmupDisplay() string                  { return svc.warmupDisplay }
func (svc *envService) GetEmptyFrameBackoff() time.Duration       { return svc.emptyFrameBackoff }
func (svc *envService) GetNotifierType() string                   { return svc.notifierType }
func (svc *envService) GetNotifierURL() string                    { return svc.notifierURL }
func (svc *envService) GetNotifierTimeout() time.Duration         { return svc.notifierTimeout }
func (svc *envService) GetMqttParameters() MqttParameters         { return svc.mqtt }
func (svc *envService) GetDetectorParameters() DetectorParameters { return svc.detector }
func (svc *envService) GetDisplayType() string                    { return svc.displayType }
func (svc *envService) GetWindowTitle() string                    { return svc.windowTitle }
func (svc *envService) GetMjpegAddr() string                      { return svc.mjpegAddr }
func (svc *envService) GetStatsPeriod() time.Duration             { return svc.statsPeriod }
