package detection

import (
	"context"
	"fmt"
	"sort"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/floorplanlab/roomscan/internal/geometry"
	"github.com/floorplanlab/roomscan/internal/imaging"
)

// ONNXConfig configures a local ONNX detector session.
type ONNXConfig struct {
	// ModelPath is the path to the exported YOLO-family .onnx model file.
	ModelPath string

	// LibraryPath optionally points at the ONNX Runtime shared library.
	// When empty the runtime's default search path is used.
	LibraryPath string

	// InputSize is the square model input resolution. Default 640.
	InputSize int

	// Classes are the model's output class names, in class-index order.
	// Default ["wall", "room"].
	Classes []string

	// ScoreThreshold drops detections below this confidence. Default 0.25.
	ScoreThreshold float64

	// SuppressionIoU is the IoU above which a lower-confidence detection is
	// discarded as a duplicate of a higher-confidence one. Default 0.7.
	SuppressionIoU float64
}

// withDefaults fills unset config fields.
func (c ONNXConfig) withDefaults() ONNXConfig {
	if c.InputSize == 0 {
		c.InputSize = 640
	}
	if len(c.Classes) == 0 {
		c.Classes = []string{ClassWall, ClassRoom}
	}
	if c.ScoreThreshold == 0 {
		c.ScoreThreshold = 0.25
	}
	if c.SuppressionIoU == 0 {
		c.SuppressionIoU = 0.7
	}
	return c
}

// ONNXDetector runs a local YOLO-family model through ONNX Runtime.
//
// The session holds fixed input/output tensors, so Predict calls are
// serialized with a mutex. Construct once, share the handle, and Close it
// when the process shuts down.
type ONNXDetector struct {
	cfg     ONNXConfig
	anchors int

	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// NewONNXDetector initializes the ONNX Runtime environment and loads the
// model. The YOLO export convention fixes the tensor names ("images" in,
// "output0" out) and shapes: input [1, 3, N, N], output
// [1, 4+classes, anchors] with anchors = (N/8)² + (N/16)² + (N/32)².
func NewONNXDetector(cfg ONNXConfig) (*ONNXDetector, error) {
	cfg = cfg.withDefaults()
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("model path is required")
	}

	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
	}

	n := cfg.InputSize
	anchors := (n/8)*(n/8) + (n/16)*(n/16) + (n/32)*(n/32)

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, int64(n), int64(n)))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(4+len(cfg.Classes)), int64(anchors)))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()
	options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended)

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{"images"},
		[]string{"output0"},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXDetector{
		cfg:     cfg,
		anchors: anchors,
		session: session,
		input:   input,
		output:  output,
	}, nil
}

// Predict decodes the image, runs the model, and returns thresholded,
// duplicate-suppressed detections in original-image pixel coordinates.
func (d *ONNXDetector) Predict(ctx context.Context, imageData []byte) ([]Detection, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img, err := imaging.Decode(imageData)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		return nil, fmt.Errorf("detector is closed")
	}
	if err := imaging.PrepareModelInput(img, d.cfg.InputSize, d.input.GetData()); err != nil {
		return nil, fmt.Errorf("failed to prepare model input: %w", err)
	}
	if err := d.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	dets := decodeYOLOOutput(
		d.output.GetData(),
		d.cfg.Classes,
		d.anchors,
		d.cfg.InputSize,
		bounds.Dx(), bounds.Dy(),
		d.cfg.ScoreThreshold,
	)
	return suppressDuplicates(dets, d.cfg.SuppressionIoU), nil
}

// Close destroys the session and its tensors.
func (d *ONNXDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		return nil
	}
	d.session.Destroy()
	d.input.Destroy()
	d.output.Destroy()
	d.session = nil
	return nil
}

// decodeYOLOOutput converts a raw [1, 4+classes, anchors] output tensor into
// detections scaled to the original image size.
//
// Per anchor the layout is column-wise: output[c*anchors + i] holds channel c
// of anchor i, channels 0-3 being the box center/size in model coordinates
// and the rest per-class scores.
func decodeYOLOOutput(output []float32, classes []string, anchors, inputSize, origWidth, origHeight int, scoreThreshold float64) []Detection {
	dets := make([]Detection, 0, 32)
	sx := float64(origWidth) / float64(inputSize)
	sy := float64(origHeight) / float64(inputSize)

	for i := 0; i < anchors; i++ {
		classID := 0
		best := float32(-1)
		for c := range classes {
			score := output[(4+c)*anchors+i]
			if score > best {
				best = score
				classID = c
			}
		}
		if float64(best) < scoreThreshold {
			continue
		}

		xc := float64(output[i])
		yc := float64(output[anchors+i])
		w := float64(output[2*anchors+i])
		h := float64(output[3*anchors+i])

		dets = append(dets, Detection{
			Box: geometry.Box{
				X1: (xc - w/2) * sx,
				Y1: (yc - h/2) * sy,
				X2: (xc + w/2) * sx,
				Y2: (yc + h/2) * sy,
			},
			Confidence: float64(best),
			Class:      classes[classID],
		})
	}
	return dets
}

// suppressDuplicates keeps the highest-confidence detection of each
// overlapping group, discarding lower-ranked boxes whose IoU with a kept box
// exceeds the threshold. Unlike Merge, suppression drops boxes instead of
// unioning them; it runs before merging to thin the raw anchor grid.
func suppressDuplicates(dets []Detection, iouThreshold float64) []Detection {
	if len(dets) <= 1 {
		return dets
	}

	sort.SliceStable(dets, func(i, j int) bool {
		return dets[i].Confidence > dets[j].Confidence
	})

	kept := make([]Detection, 0, len(dets))
	for _, cand := range dets {
		duplicate := false
		for i := range kept {
			if geometry.IoU(cand.Box, kept[i].Box) > iouThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, cand)
		}
	}
	return kept
}
