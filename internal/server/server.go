package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/floorplanlab/roomscan/internal/detection"
	"github.com/floorplanlab/roomscan/internal/geometry"
)

// ServiceName identifies this service in banners and health responses.
const ServiceName = "roomscan"

// Config holds the server's tunable settings. Zero values fall back to the
// documented defaults in New.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// Version is the build version string reported by / and /health.
	Version string

	// ConfidenceThreshold is the default minimum confidence for wall
	// detections. Requests may override it. Default 0.10.
	ConfidenceThreshold float64

	// MergeIoUThreshold is the IoU above which overlapping detections are
	// merged. Default detection.DefaultMergeIoUThreshold.
	MergeIoUThreshold float64

	// Geometry configures the wall-to-room converter. Request parameters
	// may override MinRoomArea per call.
	Geometry geometry.Options
}

// Server routes HTTP requests to the detection pipeline. The detector is
// optional: without one, only the geometric conversion endpoint works and
// image endpoints answer 503.
type Server struct {
	cfg      Config
	detector detection.Detector
}

// New creates a server. detector may be nil for conversion-only deployments.
func New(cfg Config, detector detection.Detector) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = 0.10
	}
	if cfg.MergeIoUThreshold == 0 {
		cfg.MergeIoUThreshold = detection.DefaultMergeIoUThreshold
	}
	if cfg.Geometry == (geometry.Options{}) {
		cfg.Geometry = geometry.DefaultOptions()
	}

	// Fail at startup rather than on the first request.
	if err := validateThreshold("confidence_threshold", cfg.ConfidenceThreshold); err != nil {
		return nil, err
	}
	if err := validateThreshold("merge_iou_threshold", cfg.MergeIoUThreshold); err != nil {
		return nil, err
	}
	if _, err := geometry.NewConverter(cfg.Geometry); err != nil {
		return nil, err
	}

	return &Server{cfg: cfg, detector: detector}, nil
}

// validateThreshold rejects probability-like settings outside [0, 1].
func validateThreshold(option string, v float64) error {
	if v < 0 || v > 1 {
		return &geometry.ConfigError{
			Option: option,
			Reason: fmt.Sprintf("must be in [0, 1], got %g", v),
		}
	}
	return nil
}

// Handler returns the server's route table wrapped in CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/detect-rooms", s.handleDetectRooms)
	mux.HandleFunc("/api/detect-walls", s.handleDetectWalls)
	mux.HandleFunc("/api/detect", s.handleDetect)
	return corsMiddleware(mux)
}

// Run starts the HTTP server and blocks until it fails.
func (s *Server) Run() error {
	log.Printf("Server listening on %s", s.cfg.Addr)
	return http.ListenAndServe(s.cfg.Addr, s.Handler())
}

// corsMiddleware adds permissive CORS headers and answers preflight
// requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
