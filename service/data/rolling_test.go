package data

import (
	"bufio"
	"encoding/json"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/khaledhikmat/vs-blink/model"
)

func readLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var out []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var m map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			t.Fatalf("line %q is not JSON: %v", scanner.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func TestNewError(t *testing.T) {
	dir := t.TempDir()
	svc := NewRolling(dir)

	custom := model.GenError("agent", errors.New("stream unreachable"), map[string]interface{}{"url": "http://phone/video"}, "error opening stream")
	if err := svc.NewError(custom); err != nil {
		t.Fatalf("NewError(custom) error = %v", err)
	}
	if err := svc.NewError(errors.New("plain")); err != nil {
		t.Fatalf("NewError(plain) error = %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "errors.log"))
	if len(lines) != 2 {
		t.Fatalf("got %d error entries, want 2", len(lines))
	}
	if lines[0]["processor"] != "agent" || lines[0]["innerError"] != "stream unreachable" {
		t.Errorf("custom entry = %v", lines[0])
	}
	if lines[1]["processor"] != "N/A" || lines[1]["message"] != "plain" {
		t.Errorf("plain entry = %v", lines[1])
	}
}

func TestNewStats(t *testing.T) {
	dir := t.TempDir()
	svc := NewRolling(dir)
	defer svc.Close()

	for i := 1; i <= 3; i++ {
		if err := svc.NewSamplerStats(model.SamplerStats{Name: "sampler", Frames: i * 3, SampledFrames: i}); err != nil {
			t.Fatalf("NewSamplerStats() error = %v", err)
		}
	}
	if err := svc.NewFramerStats(model.FramerStats{Name: "streamFramer", Frames: 9}); err != nil {
		t.Fatalf("NewFramerStats() error = %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "sampler-stats.log"))
	if len(lines) != 3 {
		t.Fatalf("got %d sampler entries, want 3", len(lines))
	}
	if lines[2]["sampledFrames"].(float64) != 3 {
		t.Errorf("last entry = %v", lines[2])
	}
	if lines[0]["timestamp"].(float64) == 0 {
		t.Error("timestamp should be stamped")
	}

	if got := readLines(t, filepath.Join(dir, "framer-stats.log")); len(got) != 1 {
		t.Errorf("got %d framer entries, want 1", len(got))
	}
}

func TestNewDetections(t *testing.T) {
	dir := t.TempDir()
	svc := NewRolling(dir)
	defer svc.Close()

	if err := svc.NewDetections("phone", nil); err != nil {
		t.Fatalf("NewDetections(nil) error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "detections.log")); !os.IsNotExist(err) {
		t.Error("no file should be written for an empty detection set")
	}

	dets := []model.Detection{{Label: "person", Confidence: 0.91, Rect: image.Rect(10, 10, 50, 120)}}
	if err := svc.NewDetections("phone", dets); err != nil {
		t.Fatalf("NewDetections() error = %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "detections.log"))
	if len(lines) != 1 || lines[0]["source"] != "phone" {
		t.Fatalf("entries = %v", lines)
	}
}
