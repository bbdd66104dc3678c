package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"strings"

	"github.com/mdobak/go-xerrors"
	"gocv.io/x/gocv"

	"github.com/khaledhikmat/vs-blink/model"
	"github.com/khaledhikmat/vs-blink/pipeline/yolo"
	"github.com/khaledhikmat/vs-blink/sampler"
	"github.com/khaledhikmat/vs-blink/service/config"
	"github.com/khaledhikmat/vs-blink/service/lgr"
)

var (
	targetColor = color.RGBA{0, 255, 0, 0}
	otherColor  = color.RGBA{255, 128, 0, 0}
)

// Yolo8Detector runs a YOLOv8 ONNX export through the OpenCV DNN module.
// The net is not thread-safe; the sampling loop is its only caller.
type Yolo8Detector struct {
	net    gocv.Net
	labels []string
	params config.DetectorParameters
	target string
}

func NewYolo8Detector(params config.DetectorParameters, target string) (*Yolo8Detector, error) {
	if _, err := os.Stat(params.ModelPath); err != nil {
		return nil, xerrors.New(fmt.Sprintf("no yolo8 model at %s", params.ModelPath), err)
	}

	labels, err := loadLabels(params.LabelsPath)
	if err != nil {
		return nil, err
	}

	net := gocv.ReadNetFromONNX(params.ModelPath)
	if net.Empty() {
		return nil, xerrors.New(fmt.Sprintf("error reading yolo8 model %s", params.ModelPath))
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, xerrors.New("error setting backend", err)
	}

	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, xerrors.New("error setting target", err)
	}

	return &Yolo8Detector{
		net:    net,
		labels: labels,
		params: params,
		target: target,
	}, nil
}

// Detect returns the detections in frame and an annotated clone of it. The
// frame itself is left untouched.
func (d *Yolo8Detector) Detect(ctx context.Context, frame gocv.Mat) (sampler.Result[gocv.Mat], error) {
	if frame.Empty() {
		return sampler.Result[gocv.Mat]{}, xerrors.New("cannot run detection on an empty frame")
	}

	size := d.params.InputSize
	blob := gocv.BlobFromImage(frame, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	// YOLOv8 output is [1, 4+classes, anchors]
	dims := output.Size()
	if len(dims) != 3 || dims[1] < 5 {
		return sampler.Result[gocv.Mat]{}, xerrors.New(fmt.Sprintf("unexpected DNN output dims: %v", dims))
	}

	attrs, anchors := dims[1], dims[2]
	if attrs-4 != len(d.labels) {
		return sampler.Result[gocv.Mat]{}, xerrors.New(fmt.Sprintf("model has %d classes but %d labels were loaded", attrs-4, len(d.labels)))
	}

	rows := output.Reshape(1, attrs)
	defer rows.Close()

	// One anchor per row
	transposed := gocv.NewMat()
	defer transposed.Close()
	gocv.Transpose(rows, &transposed)

	data, err := transposed.DataPtrFloat32()
	if err != nil {
		return sampler.Result[gocv.Mat]{}, xerrors.New("reading DNN output", err)
	}
	if len(data) < attrs*anchors {
		return sampler.Result[gocv.Mat]{}, xerrors.New(fmt.Sprintf("DNN output has %d values, want %d", len(data), attrs*anchors))
	}

	detections := decodeYolo8(data, attrs, anchors,
		float32(frame.Cols())/float32(size), float32(frame.Rows())/float32(size),
		d.params.ConfidenceThreshold, d.params.NMSThreshold, d.labels)

	lgr.Logger.DebugContext(ctx,
		"yolo8 detector processed frame",
		slog.Int("anchors", anchors),
		slog.Int("detections", len(detections)),
	)

	annotated := frame.Clone()
	d.annotate(&annotated, detections)

	return sampler.Result[gocv.Mat]{
		Detections: detections,
		Annotated:  annotated,
	}, nil
}

func (d *Yolo8Detector) annotate(img *gocv.Mat, detections []model.Detection) {
	for _, det := range detections {
		c := otherColor
		if det.Label == d.target {
			c = targetColor
		}
		gocv.Rectangle(img, det.Rect, c, 2)
		gocv.PutText(img, fmt.Sprintf("%s %.2f", det.Label, det.Confidence), image.Pt(det.Rect.Min.X, det.Rect.Min.Y-5),
			gocv.FontHersheySimplex, 0.6, c, 2)
	}
}

func (d *Yolo8Detector) Close() error {
	return d.net.Close()
}

// decodeYolo8 turns anchor rows into detections in frame coordinates and
// applies non-max suppression.
func decodeYolo8(data []float32, attrs, anchors int, xScale, yScale, confThresh, nmsThresh float32, labels []string) []model.Detection {
	candidates := yolo.Decode(data, attrs, anchors, xScale, yScale, confThresh)
	if len(candidates) == 0 {
		return nil
	}

	boxes := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		boxes[i] = c.Box
		scores[i] = c.Score
	}

	indices := gocv.NMSBoxes(boxes, scores, confThresh, nmsThresh)

	detections := make([]model.Detection, 0, len(indices))
	for _, idx := range indices {
		c := candidates[idx]
		detections = append(detections, model.Detection{
			Label:      labels[c.ClassID],
			ClassID:    c.ClassID,
			Confidence: c.Score,
			Rect:       c.Box,
		})
	}

	return detections
}

func loadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.New(fmt.Sprintf("reading labels %s", path), err)
	}

	var labels []string
	for _, l := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		labels = append(labels, strings.TrimSpace(l))
	}
	return labels, nil
}
