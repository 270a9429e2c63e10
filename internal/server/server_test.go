package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/floorplanlab/roomscan/internal/detection"
	"github.com/floorplanlab/roomscan/internal/geometry"
)

// stubDetector returns canned detections.
type stubDetector struct {
	dets []detection.Detection
	err  error
}

func (d *stubDetector) Predict(ctx context.Context, imageData []byte) ([]detection.Detection, error) {
	return d.dets, d.err
}

func (d *stubDetector) Close() error { return nil }

func newTestServer(t *testing.T, detector detection.Detector) *Server {
	t.Helper()
	srv, err := New(Config{Version: "test"}, detector)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return srv
}

func TestNewDefaults(t *testing.T) {
	srv := newTestServer(t, nil)

	if srv.cfg.Addr != ":8080" {
		t.Errorf("default Addr = %q, want :8080", srv.cfg.Addr)
	}
	if srv.cfg.ConfidenceThreshold != 0.10 {
		t.Errorf("default ConfidenceThreshold = %v, want 0.10", srv.cfg.ConfidenceThreshold)
	}
	if srv.cfg.MergeIoUThreshold != detection.DefaultMergeIoUThreshold {
		t.Errorf("default MergeIoUThreshold = %v, want %v",
			srv.cfg.MergeIoUThreshold, detection.DefaultMergeIoUThreshold)
	}
	if srv.cfg.Geometry != geometry.DefaultOptions() {
		t.Errorf("default Geometry = %+v, want DefaultOptions", srv.cfg.Geometry)
	}
}

func TestNewRejectsBadThresholds(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"confidence above 1", Config{ConfidenceThreshold: 5.0}},
		{"confidence negative", Config{ConfidenceThreshold: -0.1}},
		{"merge IoU above 1", Config{MergeIoUThreshold: 1.5}},
		{"merge IoU negative", Config{MergeIoUThreshold: -0.3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cfg, nil)
			if err == nil {
				t.Fatalf("New accepted %+v, want ConfigError", tc.cfg)
			}
			var configErr *geometry.ConfigError
			if !errors.As(err, &configErr) {
				t.Errorf("error type = %T, want *geometry.ConfigError", err)
			}
		})
	}

	// The bounds themselves are valid settings.
	if _, err := New(Config{ConfidenceThreshold: 1.0, MergeIoUThreshold: 1.0}, nil); err != nil {
		t.Errorf("New rejected thresholds of exactly 1.0: %v", err)
	}
}

func TestNewRejectsBadGeometry(t *testing.T) {
	opts := geometry.DefaultOptions()
	opts.KernelSize = 4 // even kernels are invalid

	if _, err := New(Config{Geometry: opts}, nil); err == nil {
		t.Fatal("New accepted an invalid geometry configuration, want error")
	}
}

func TestRootAndHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	for _, path := range []string{"/", "/health"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		var body map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("GET %s returned invalid JSON: %v", path, err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
		if body["service"] != ServiceName {
			t.Errorf("GET %s service = %v, want %q", path, body["service"], ServiceName)
		}
		if body["status"] != "healthy" {
			t.Errorf("GET %s status field = %v, want healthy", path, body["status"])
		}
		if body["version"] != "test" {
			t.Errorf("GET %s version = %v, want test", path, body["version"])
		}
	}
}

func TestHealthReportsDetector(t *testing.T) {
	srv := newTestServer(t, &stubDetector{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["detector_loaded"] != true {
		t.Errorf("detector_loaded = %v, want true", body["detector_loaded"])
	}
	if _, ok := body["converter_settings"].(map[string]any); !ok {
		t.Errorf("converter_settings missing or wrong type: %v", body["converter_settings"])
	}
}

func TestUnknownPathIs404(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("GET /nope failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /nope status = %d, want 404", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/detect-rooms", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("preflight status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
