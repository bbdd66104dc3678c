package data

import "github.com/khaledhikmat/vs-blink/model"

// IService journals errors, stats and detections as JSON lines. Nothing is
// read back: the journal is for operators, not state.
type IService interface {
	NewError(err interface{}) error
	NewAgentStats(stats model.AgentStats) error
	NewFramerStats(stats model.FramerStats) error
	NewSamplerStats(stats model.SamplerStats) error
	NewDetections(source string, detections []model.Detection) error
	Close() error
}
