package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/floorplanlab/roomscan/internal/detection"
	"github.com/floorplanlab/roomscan/internal/geometry"
)

// postJSON posts a JSON body and decodes the JSON response.
func postJSON(t *testing.T, url string, body any) (int, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("POST %s returned invalid JSON: %v", url, err)
	}
	return resp.StatusCode, decoded
}

// testImageBase64 builds a base64 PNG of the given size.
func testImageBase64(t *testing.T, width, height int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// plusSignWallsRequest divides a 100x100 canvas into four quadrants.
func plusSignWallsRequest() map[string]any {
	return map[string]any{
		"walls": []map[string]any{
			{"id": "wall_001", "bounding_box": []float64{50, 0, 55, 100}, "confidence": 0.9},
			{"id": "wall_002", "bounding_box": []float64{0, 50, 100, 55}, "confidence": 0.9},
		},
		"image_dimensions": []int{100, 100},
		"min_room_area":    100,
	}
}

func TestDetectRooms(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	status, body := postJSON(t, ts.URL+"/api/detect-rooms", plusSignWallsRequest())
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %v)", status, body)
	}
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	if body["total_rooms"] != float64(4) {
		t.Errorf("total_rooms = %v, want 4", body["total_rooms"])
	}

	rooms, ok := body["rooms"].([]any)
	if !ok || len(rooms) != 4 {
		t.Fatalf("rooms = %v, want array of 4", body["rooms"])
	}
	first, ok := rooms[0].(map[string]any)
	if !ok {
		t.Fatalf("room 0 has wrong shape: %v", rooms[0])
	}
	if first["id"] != "room_001" {
		t.Errorf("room 0 id = %v, want room_001", first["id"])
	}
	if first["shape_type"] != geometry.ShapeRectangle {
		t.Errorf("room 0 shape_type = %v, want %q", first["shape_type"], geometry.ShapeRectangle)
	}

	// Visualization defaults to on.
	vis, ok := body["visualization"].(string)
	if !ok || vis == "" {
		t.Error("visualization missing, want base64 PNG")
	} else if _, err := base64.StdEncoding.DecodeString(vis); err != nil {
		t.Errorf("visualization is not valid base64: %v", err)
	}

	meta, ok := body["metadata"].(map[string]any)
	if !ok {
		t.Fatalf("metadata missing: %v", body["metadata"])
	}
	if meta["intermediate_detections"] != float64(2) {
		t.Errorf("intermediate_detections = %v, want 2", meta["intermediate_detections"])
	}
	if _, ok := body["processing_time_ms"].(float64); !ok {
		t.Errorf("processing_time_ms missing: %v", body["processing_time_ms"])
	}
}

func TestDetectRoomsWithoutVisualization(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	req := plusSignWallsRequest()
	req["return_visualization"] = false

	status, body := postJSON(t, ts.URL+"/api/detect-rooms", req)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if _, present := body["visualization"]; present {
		t.Errorf("visualization present despite return_visualization=false: %v", body["visualization"])
	}
}

func TestDetectRoomsNoWalls(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	status, body := postJSON(t, ts.URL+"/api/detect-rooms", map[string]any{
		"walls":            []map[string]any{},
		"image_dimensions": []int{100, 100},
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if body["total_rooms"] != float64(0) {
		t.Errorf("total_rooms = %v, want 0", body["total_rooms"])
	}
	if rooms, ok := body["rooms"].([]any); !ok || len(rooms) != 0 {
		t.Errorf("rooms = %v, want empty array, not null", body["rooms"])
	}
}

func TestDetectRoomsBadRequests(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	cases := []struct {
		name string
		body any
		want int
	}{
		{
			name: "zero dimensions",
			body: map[string]any{
				"walls":            []map[string]any{{"bounding_box": []float64{0, 0, 10, 10}}},
				"image_dimensions": []int{0, 100},
			},
			want: http.StatusBadRequest,
		},
		{
			name: "negative min_room_area",
			body: map[string]any{
				"walls":            []map[string]any{{"bounding_box": []float64{0, 0, 10, 10}}},
				"image_dimensions": []int{100, 100},
				"min_room_area":    -5,
			},
			want: http.StatusBadRequest,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := postJSON(t, ts.URL+"/api/detect-rooms", tc.body)
			if status != tc.want {
				t.Fatalf("status = %d, want %d (body: %v)", status, tc.want, body)
			}
			if body["success"] != false {
				t.Errorf("success = %v, want false", body["success"])
			}
			errObj, ok := body["error"].(map[string]any)
			if !ok {
				t.Fatalf("error field missing: %v", body)
			}
			if errObj["code"] == "" || errObj["message"] == "" {
				t.Errorf("error detail incomplete: %v", errObj)
			}
		})
	}
}

func TestDetectRoomsInvalidJSON(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/detect-rooms", "application/json",
		strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDetectRoomsMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/detect-rooms")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestDetectWalls(t *testing.T) {
	detector := &stubDetector{dets: []detection.Detection{
		{Box: geometry.Box{X1: 10, Y1: 0, X2: 15, Y2: 80}, Confidence: 0.9, Class: detection.ClassWall},
		{Box: geometry.Box{X1: 11, Y1: 0, X2: 16, Y2: 80}, Confidence: 0.7, Class: detection.ClassWall},
		{Box: geometry.Box{X1: 40, Y1: 40, X2: 60, Y2: 60}, Confidence: 0.8, Class: detection.ClassRoom},
		{Box: geometry.Box{X1: 70, Y1: 0, X2: 75, Y2: 80}, Confidence: 0.05, Class: detection.ClassWall},
	}}

	srv := newTestServer(t, detector)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	status, body := postJSON(t, ts.URL+"/api/detect-walls", map[string]any{
		"image": testImageBase64(t, 100, 80),
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %v)", status, body)
	}

	// The two overlapping walls merge, the room class and the
	// sub-threshold wall are dropped.
	if body["total_walls"] != float64(1) {
		t.Fatalf("total_walls = %v, want 1 (body: %v)", body["total_walls"], body)
	}
	walls := body["walls"].([]any)
	wall := walls[0].(map[string]any)
	if wall["id"] != "wall_001" {
		t.Errorf("wall id = %v, want wall_001", wall["id"])
	}
	if wall["confidence"] != 0.8 {
		t.Errorf("merged confidence = %v, want 0.8", wall["confidence"])
	}

	dims := body["image_dimensions"].([]any)
	if dims[0] != float64(100) || dims[1] != float64(80) {
		t.Errorf("image_dimensions = %v, want [100 80]", dims)
	}
}

func TestDetectWallsWithoutDetector(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	status, body := postJSON(t, ts.URL+"/api/detect-walls", map[string]any{
		"image": testImageBase64(t, 10, 10),
	})
	if status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 (body: %v)", status, body)
	}
}

func TestDetectWallsBadImage(t *testing.T) {
	srv := newTestServer(t, &stubDetector{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	status, _ := postJSON(t, ts.URL+"/api/detect-walls", map[string]any{
		"image": "definitely-not-base64!!!",
	})
	if status != http.StatusBadRequest {
		t.Errorf("bad base64 status = %d, want 400", status)
	}

	status, _ = postJSON(t, ts.URL+"/api/detect-walls", map[string]any{})
	if status != http.StatusBadRequest {
		t.Errorf("missing image status = %d, want 400", status)
	}
}

func TestDetectWallsRejectsBadThreshold(t *testing.T) {
	srv := newTestServer(t, &stubDetector{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	status, body := postJSON(t, ts.URL+"/api/detect-walls", map[string]any{
		"image":                testImageBase64(t, 10, 10),
		"confidence_threshold": 1.5,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body: %v)", status, body)
	}
	errObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("error field missing: %v", body)
	}
	if errObj["code"] != "invalid_configuration" {
		t.Errorf("error code = %v, want invalid_configuration", errObj["code"])
	}
}

func TestDetectWallsDetectorFailure(t *testing.T) {
	srv := newTestServer(t, &stubDetector{err: errors.New("model exploded")})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	status, body := postJSON(t, ts.URL+"/api/detect-walls", map[string]any{
		"image": testImageBase64(t, 10, 10),
	})
	if status != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 (body: %v)", status, body)
	}
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
}

func TestDetectFullPipeline(t *testing.T) {
	// Plus-sign walls on a 100x100 blueprint.
	detector := &stubDetector{dets: []detection.Detection{
		{Box: geometry.Box{X1: 50, Y1: 0, X2: 55, Y2: 100}, Confidence: 0.9, Class: detection.ClassWall},
		{Box: geometry.Box{X1: 0, Y1: 50, X2: 100, Y2: 55}, Confidence: 0.9, Class: detection.ClassWall},
	}}

	srv := newTestServer(t, detector)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	status, body := postJSON(t, ts.URL+"/api/detect", map[string]any{
		"image":                testImageBase64(t, 100, 100),
		"min_room_area":        100,
		"return_visualization": false,
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %v)", status, body)
	}
	if body["total_rooms"] != float64(4) {
		t.Errorf("total_rooms = %v, want 4", body["total_rooms"])
	}
	meta := body["metadata"].(map[string]any)
	if meta["intermediate_detections"] != float64(2) {
		t.Errorf("intermediate_detections = %v, want 2", meta["intermediate_detections"])
	}
}

func TestDetectWithoutDetector(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	status, _ := postJSON(t, ts.URL+"/api/detect", map[string]any{
		"image": testImageBase64(t, 10, 10),
	})
	if status != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", status)
	}
}
