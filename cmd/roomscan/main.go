package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/floorplanlab/roomscan/internal/detection"
	"github.com/floorplanlab/roomscan/internal/geometry"
	"github.com/floorplanlab/roomscan/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and --help before flag parsing
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("roomscan %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	var (
		addr         = flag.String("addr", ":8080", "HTTP listen address")
		modelPath    = flag.String("model", "", "path to a local ONNX wall detection model")
		libraryPath  = flag.String("onnx-lib", "", "path to the ONNX Runtime shared library")
		inferenceURL = flag.String("inference-url", "", "base URL of a remote inference service")
		confidence   = flag.Float64("confidence", 0.10, "minimum wall detection confidence")
		mergeIoU     = flag.Float64("merge-iou", detection.DefaultMergeIoUThreshold, "IoU threshold for merging overlapping detections")
		minRoomArea  = flag.Int("min-room-area", 0, "minimum room area in pixels (0 = default)")
	)
	flag.Parse()

	// Logs go to stderr; stdout stays clean for shell pipelines
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if os.Getenv("ROOMSCAN_LOG_LEVEL") == "debug" {
		log.Printf("roomscan v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	detector, err := buildDetector(*modelPath, *libraryPath, *inferenceURL)
	if err != nil {
		log.Fatalf("Failed to initialize detector: %v", err)
	}
	if detector != nil {
		defer detector.Close()
	} else {
		log.Printf("No detector configured; image endpoints will answer 503")
	}

	opts := geometry.DefaultOptions()
	if *minRoomArea > 0 {
		opts.MinRoomArea = *minRoomArea
	}

	srv, err := server.New(server.Config{
		Addr:                *addr,
		Version:             Version,
		ConfidenceThreshold: *confidence,
		MergeIoUThreshold:   *mergeIoU,
		Geometry:            opts,
	}, detector)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// buildDetector picks a detector backend: a local ONNX model when -model is
// given, otherwise a remote inference service when -inference-url is given,
// otherwise none.
func buildDetector(modelPath, libraryPath, inferenceURL string) (detection.Detector, error) {
	switch {
	case modelPath != "":
		detector, err := detection.NewONNXDetector(detection.ONNXConfig{
			ModelPath:   modelPath,
			LibraryPath: libraryPath,
		})
		if err != nil {
			return nil, err
		}
		log.Printf("Loaded ONNX model from %s", modelPath)
		return detector, nil

	case inferenceURL != "":
		detector := detection.NewRemoteDetector(inferenceURL)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := detector.CheckHealth(ctx); err != nil {
			log.Printf("Warning: inference service not available: %v", err)
		}
		return detector, nil

	default:
		return nil, nil
	}
}

func printHelp() {
	fmt.Println("roomscan - blueprint wall and room detection service")
	fmt.Println()
	fmt.Println("Usage: roomscan [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v         Print version information")
	fmt.Println("  --help, -h            Print this help message")
	fmt.Println("  -addr string          HTTP listen address (default \":8080\")")
	fmt.Println("  -model string         Path to a local ONNX wall detection model")
	fmt.Println("  -onnx-lib string      Path to the ONNX Runtime shared library")
	fmt.Println("  -inference-url string Base URL of a remote inference service")
	fmt.Println("  -confidence float     Minimum wall detection confidence (default 0.10)")
	fmt.Println("  -merge-iou float      IoU threshold for merging detections (default 0.3)")
	fmt.Println("  -min-room-area int    Minimum room area in pixels")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  ROOMSCAN_LOG_LEVEL=debug    Enable debug logging")
	fmt.Println()
	fmt.Println("Without -model or -inference-url only the geometric conversion")
	fmt.Println("endpoint (/api/detect-rooms) is available.")
}
