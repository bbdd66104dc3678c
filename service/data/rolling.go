package data

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-blink/model"
)

type rollingService struct {
	folder string

	mu      sync.Mutex
	writers map[string]*lumberjack.Logger
}

// NewRolling writes each entity kind to its own rolling file in folder
func NewRolling(folder string) IService {
	return &rollingService{
		folder:  folder,
		writers: map[string]*lumberjack.Logger{},
	}
}

func (svc *rollingService) NewError(err interface{}) error {
	// Determine if the error is custom
	var customErr model.CustomError
	switch e := err.(type) {
	case model.CustomError:
		customErr = e
	case error:
		customErr.Processor = "N/A"
		customErr.Inner = e
		customErr.Message = e.Error()
		customErr.StackTrace = "N/A"
	default:
		customErr.Processor = "N/A"
		customErr.Message = fmt.Sprintf("%v", err)
		customErr.StackTrace = "N/A"
	}

	inner := ""
	if customErr.Inner != nil {
		inner = customErr.Inner.Error()
	}

	errorData := struct {
		Timestamp  int64                  `json:"timestamp"`
		Processor  string                 `json:"processor"`
		Inner      string                 `json:"innerError"`
		Message    string                 `json:"message"`
		StackTrace string                 `json:"stackTrace"`
		Misc       map[string]interface{} `json:"misc"`
	}{
		Timestamp:  time.Now().Unix(),
		Processor:  customErr.Processor,
		Inner:      inner,
		Message:    customErr.Message,
		StackTrace: customErr.StackTrace,
		Misc:       customErr.Misc,
	}
	return svc.newEntity(errorData, "errors")
}

func (svc *rollingService) NewAgentStats(stats model.AgentStats) error {
	stats.Timestamp = time.Now().Unix()
	return svc.newEntity(stats, "agent-stats")
}

func (svc *rollingService) NewFramerStats(stats model.FramerStats) error {
	stats.Timestamp = time.Now().Unix()
	return svc.newEntity(stats, "framer-stats")
}

func (svc *rollingService) NewSamplerStats(stats model.SamplerStats) error {
	stats.Timestamp = time.Now().Unix()
	return svc.newEntity(stats, "sampler-stats")
}

func (svc *rollingService) NewDetections(source string, detections []model.Detection) error {
	if len(detections) == 0 {
		return nil
	}

	entry := struct {
		Time       string            `json:"time"`
		Source     string            `json:"source"`
		Detections []model.Detection `json:"detections"`
	}{
		Time:       time.Now().Format(time.RFC3339),
		Source:     source,
		Detections: detections,
	}
	return svc.newEntity(entry, "detections")
}

func (svc *rollingService) Close() error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	var firstErr error
	for name, w := range svc.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = xerrors.Errorf("closing %s journal: %w", name, err)
		}
	}
	svc.writers = map[string]*lumberjack.Logger{}
	return firstErr
}

func (svc *rollingService) newEntity(entity interface{}, name string) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return xerrors.Errorf("marshalling %s entry: %w", name, err)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, err := svc.writer(name).Write(append(data, '\n')); err != nil {
		return xerrors.Errorf("writing %s entry: %w", name, err)
	}

	return nil
}

// writer must be called with mu held
func (svc *rollingService) writer(name string) *lumberjack.Logger {
	w, ok := svc.writers[name]
	if !ok {
		w = &lumberjack.Logger{
			Filename:   filepath.Join(svc.folder, name+".log"),
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     7,    // days
			Compress:   true, // compress old logs
		}
		svc.writers[name] = w
	}
	return w
}
