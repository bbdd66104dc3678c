// Package yolo decodes raw YOLOv8 output rows. It works on plain float32
// slices so it has no OpenCV dependency.
package yolo

import "image"

// Candidate is an anchor whose best class score reached the confidence
// threshold. Box is in frame coordinates.
type Candidate struct {
	Box     image.Rectangle
	Score   float32
	ClassID int
}

// Decode reads anchors rows of attrs values each (cx, cy, w, h, class
// scores...) in model input coordinates and scales them into the frame.
// Rows missing from data are ignored.
func Decode(data []float32, attrs, anchors int, xScale, yScale, confThresh float32) []Candidate {
	if attrs < 5 {
		return nil
	}
	if n := len(data) / attrs; n < anchors {
		anchors = n
	}

	var candidates []Candidate
	for i := 0; i < anchors; i++ {
		row := data[i*attrs : (i+1)*attrs]

		classID := -1
		score := float32(0)
		for j, s := range row[4:] {
			if s > score {
				score = s
				classID = j
			}
		}

		if classID == -1 || score < confThresh {
			continue
		}

		cx, cy := row[0]*xScale, row[1]*yScale
		w, h := row[2]*xScale, row[3]*yScale
		x, y := int(cx-w/2), int(cy-h/2)

		candidates = append(candidates, Candidate{
			Box:     image.Rect(x, y, x+int(w), y+int(h)),
			Score:   score,
			ClassID: classID,
		})
	}

	return candidates
}
