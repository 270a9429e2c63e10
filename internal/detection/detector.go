package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// RemoteDetector calls an external inference service over HTTP. The image is
// posted as a multipart form and the service replies with JSON detections:
//
//	{"detections": [{"bounding_box": [x1, y1, x2, y2],
//	                 "confidence": 0.87,
//	                 "class_name": "wall"}, ...]}
type RemoteDetector struct {
	inferenceURL string
	client       *http.Client
}

// NewRemoteDetector creates a detector backed by the inference service at
// the given base URL.
func NewRemoteDetector(inferenceURL string) *RemoteDetector {
	return &RemoteDetector{
		inferenceURL: inferenceURL,
		client:       &http.Client{Timeout: 60 * time.Second},
	}
}

// wireDetection is the remote service's detection encoding.
type wireDetection struct {
	BoundingBox [4]float64 `json:"bounding_box"`
	Confidence  float64    `json:"confidence"`
	ClassName   string     `json:"class_name"`
}

// Predict posts the image to the inference service and decodes the returned
// detections.
func (d *RemoteDetector) Predict(ctx context.Context, imageData []byte) ([]Detection, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(imageData)); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.inferenceURL+"/predict", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference service returned status %d", resp.StatusCode)
	}

	var result struct {
		Detections []wireDetection `json:"detections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode inference response: %w", err)
	}

	dets := make([]Detection, len(result.Detections))
	for i, w := range result.Detections {
		dets[i] = Detection{
			Box:        boxFromCorners(w.BoundingBox),
			Confidence: w.Confidence,
			Class:      w.ClassName,
		}
	}
	return dets, nil
}

// CheckHealth verifies the inference service is reachable.
func (d *RemoteDetector) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.inferenceURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("inference service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// Close implements Detector. The remote detector holds no local resources.
func (d *RemoteDetector) Close() error {
	d.client.CloseIdleConnections()
	return nil
}
