package detection

import (
	"context"

	"github.com/floorplanlab/roomscan/internal/geometry"
)

// Class labels produced by the blueprint detectors.
const (
	ClassWall = "wall"
	ClassRoom = "room"
)

// Detection is one detector output: a bounding box with a confidence score
// and a class label. Detections are immutable once created.
type Detection struct {
	// Box is the detection's bounding box in pixel coordinates.
	Box geometry.Box `json:"bounding_box"`

	// Confidence is the detector's score for this box, in [0, 1].
	Confidence float64 `json:"confidence"`

	// Class is the detected class label, e.g. "wall".
	Class string `json:"class_name"`
}

// Detector turns raw image bytes into bounding-box detections. The core
// pipeline treats implementations as opaque black boxes: nothing is assumed
// about their latency or accuracy beyond the box format.
type Detector interface {
	// Predict runs inference on an encoded image (PNG or JPEG) and returns
	// the raw detections.
	Predict(ctx context.Context, imageData []byte) ([]Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// FilterClass returns the detections carrying the given class label,
// preserving order.
func FilterClass(dets []Detection, class string) []Detection {
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if d.Class == class {
			out = append(out, d)
		}
	}
	return out
}

// boxFromCorners converts a wire-format [x1, y1, x2, y2] array into a Box.
func boxFromCorners(c [4]float64) geometry.Box {
	return geometry.Box{X1: c[0], Y1: c[1], X2: c[2], Y2: c[3]}
}

// Boxes extracts the bounding boxes of a detection list, preserving order.
func Boxes(dets []Detection) []geometry.Box {
	out := make([]geometry.Box, len(dets))
	for i, d := range dets {
		out[i] = d.Box
	}
	return out
}
