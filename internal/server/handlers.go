package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/floorplanlab/roomscan/internal/detection"
	"github.com/floorplanlab/roomscan/internal/geometry"
	"github.com/floorplanlab/roomscan/internal/imaging"
)

// wallPayload is the wire format for one wall detection.
type wallPayload struct {
	ID          string     `json:"id"`
	BoundingBox [4]float64 `json:"bounding_box"`
	Confidence  float64    `json:"confidence"`
}

// detectRoomsRequest is the body of POST /api/detect-rooms.
type detectRoomsRequest struct {
	Walls               []wallPayload `json:"walls"`
	ImageDimensions     [2]int        `json:"image_dimensions"`
	MinRoomArea         *int          `json:"min_room_area,omitempty"`
	ReturnVisualization *bool         `json:"return_visualization,omitempty"`
}

// detectImageRequest is the body of POST /api/detect-walls and
// POST /api/detect.
type detectImageRequest struct {
	Image               string   `json:"image"`
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`
	MinRoomArea         *int     `json:"min_room_area,omitempty"`
	ReturnVisualization *bool    `json:"return_visualization,omitempty"`
}

// roomsResponse is the body of successful room detection responses.
type roomsResponse struct {
	Success          bool            `json:"success"`
	Rooms            []geometry.Room `json:"rooms"`
	TotalRooms       int             `json:"total_rooms"`
	ProcessingTimeMs float64         `json:"processing_time_ms"`
	Visualization    string          `json:"visualization,omitempty"`
	Metadata         map[string]any  `json:"metadata"`
}

// wallsResponse is the body of successful wall detection responses.
type wallsResponse struct {
	Success          bool          `json:"success"`
	Walls            []wallPayload `json:"walls"`
	TotalWalls       int           `json:"total_walls"`
	ImageDimensions  [2]int        `json:"image_dimensions"`
	ProcessingTimeMs float64       `json:"processing_time_ms"`
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Success bool        `json:"success"`
	Error   errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service": ServiceName,
		"status":  "healthy",
		"version": s.cfg.Version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":            ServiceName,
		"status":             "healthy",
		"version":            s.cfg.Version,
		"detector_loaded":    s.detector != nil,
		"converter_settings": map[string]any{
			"min_room_area":  s.cfg.Geometry.MinRoomArea,
			"kernel_size":    s.cfg.Geometry.KernelSize,
			"epsilon_factor": s.cfg.Geometry.EpsilonFactor,
		},
	})
}

// handleDetectRooms converts caller-supplied wall boxes into room polygons.
func (s *Server) handleDetectRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}
	start := time.Now()

	var req detectRoomsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	walls := make([]geometry.Box, len(req.Walls))
	for i, wp := range req.Walls {
		walls[i] = geometry.Box{
			X1: wp.BoundingBox[0], Y1: wp.BoundingBox[1],
			X2: wp.BoundingBox[2], Y2: wp.BoundingBox[3],
		}
	}
	width, height := req.ImageDimensions[0], req.ImageDimensions[1]

	rooms, err := s.convertWalls(walls, width, height, req.MinRoomArea)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	resp := roomsResponse{
		Success:          true,
		Rooms:            rooms,
		TotalRooms:       len(rooms),
		ProcessingTimeMs: msSince(start),
		Metadata: map[string]any{
			"image_dimensions":        []int{width, height},
			"intermediate_detections": len(walls),
		},
	}
	if wantVisualization(req.ReturnVisualization) && len(rooms) > 0 {
		resp.Visualization, err = renderVisualization(width, height, rooms)
		if err != nil {
			writePipelineError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDetectWalls runs the detector on a blueprint image and returns the
// merged wall boxes.
func (s *Server) handleDetectWalls(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}
	start := time.Now()

	req, imageData, width, height, ok := s.decodeImageRequest(w, r)
	if !ok {
		return
	}

	walls, err := s.detectWalls(r, req, imageData)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	payload := make([]wallPayload, len(walls))
	for i, d := range walls {
		payload[i] = wallPayload{
			ID:          fmt.Sprintf("wall_%03d", i+1),
			BoundingBox: [4]float64{d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2},
			Confidence:  d.Confidence,
		}
	}

	writeJSON(w, http.StatusOK, wallsResponse{
		Success:          true,
		Walls:            payload,
		TotalWalls:       len(payload),
		ImageDimensions:  [2]int{width, height},
		ProcessingTimeMs: msSince(start),
	})
}

// handleDetect runs the full pipeline: detector, merge, geometric
// conversion, and optional visualization.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}
	start := time.Now()

	req, imageData, width, height, ok := s.decodeImageRequest(w, r)
	if !ok {
		return
	}

	walls, err := s.detectWalls(r, req, imageData)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	rooms, err := s.convertWalls(detection.Boxes(walls), width, height, req.MinRoomArea)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	resp := roomsResponse{
		Success:          true,
		Rooms:            rooms,
		TotalRooms:       len(rooms),
		ProcessingTimeMs: msSince(start),
		Metadata: map[string]any{
			"image_dimensions":        []int{width, height},
			"intermediate_detections": len(walls),
		},
	}
	if wantVisualization(req.ReturnVisualization) && len(rooms) > 0 {
		resp.Visualization, err = renderVisualization(width, height, rooms)
		if err != nil {
			writePipelineError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeImageRequest parses an image-bearing request body and decodes the
// image dimensions. On failure it writes the error response itself and
// returns ok=false.
func (s *Server) decodeImageRequest(w http.ResponseWriter, r *http.Request) (req detectImageRequest, imageData []byte, width, height int, ok bool) {
	if s.detector == nil {
		writeError(w, http.StatusServiceUnavailable, "no_detector", "no detector backend configured")
		return req, nil, 0, 0, false
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return req, nil, 0, 0, false
	}
	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "missing_image", "request is missing the image field")
		return req, nil, 0, 0, false
	}

	img, data, err := imaging.DecodeBase64Bytes(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_image", err.Error())
		return req, nil, 0, 0, false
	}
	width, height = imaging.Dimensions(img)
	return req, data, width, height, true
}

// detectWalls runs inference, keeps wall detections above the confidence
// threshold, and merges overlaps.
func (s *Server) detectWalls(r *http.Request, req detectImageRequest, imageData []byte) ([]detection.Detection, error) {
	threshold := s.cfg.ConfidenceThreshold
	if req.ConfidenceThreshold != nil {
		if err := validateThreshold("confidence_threshold", *req.ConfidenceThreshold); err != nil {
			return nil, err
		}
		threshold = *req.ConfidenceThreshold
	}

	dets, err := s.detector.Predict(r.Context(), imageData)
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	walls := detection.FilterClass(dets, detection.ClassWall)
	kept := walls[:0]
	for _, d := range walls {
		if d.Confidence >= threshold {
			kept = append(kept, d)
		}
	}
	return detection.Merge(kept, s.cfg.MergeIoUThreshold), nil
}

// convertWalls builds a converter for this request (honoring a per-request
// min_room_area override) and runs the geometric conversion.
func (s *Server) convertWalls(walls []geometry.Box, width, height int, minRoomArea *int) ([]geometry.Room, error) {
	opts := s.cfg.Geometry
	if minRoomArea != nil {
		opts.MinRoomArea = *minRoomArea
	}
	converter, err := geometry.NewConverter(opts)
	if err != nil {
		return nil, err
	}

	rooms, err := converter.Convert(walls, width, height)
	if err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = []geometry.Room{}
	}
	return rooms, nil
}

// renderVisualization draws the rooms and encodes the canvas as base64 PNG.
func renderVisualization(width, height int, rooms []geometry.Room) (string, error) {
	img, err := imaging.RenderRooms(width, height, rooms)
	if err != nil {
		return "", err
	}
	return imaging.EncodeBase64PNG(img)
}

// wantVisualization applies the default of true when the field is absent.
func wantVisualization(flag *bool) bool {
	return flag == nil || *flag
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writePipelineError maps pipeline errors to HTTP statuses: invalid input
// and configuration problems are the caller's fault (400), everything else
// is a 500.
func writePipelineError(w http.ResponseWriter, err error) {
	var inputErr *geometry.InputError
	var configErr *geometry.ConfigError

	switch {
	case errors.As(err, &inputErr):
		writeError(w, http.StatusBadRequest, "invalid_input", inputErr.Error())
	case errors.As(err, &configErr):
		writeError(w, http.StatusBadRequest, "invalid_configuration", configErr.Error())
	default:
		log.Printf("Pipeline error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Success: false,
		Error:   errorDetail{Code: code, Message: message},
	})
}
