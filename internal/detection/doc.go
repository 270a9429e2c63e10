// Package detection provides wall/room detector integration and detection
// post-processing.
//
// The package has two halves:
//
//   - Detector backends: implementations of the Detector interface that turn
//     raw image bytes into bounding-box detections. RemoteDetector forwards
//     the image to an external inference service over HTTP; ONNXDetector runs
//     a local YOLO-family model through ONNX Runtime.
//
//   - Post-processing: Merge collapses overlapping raw detections of the same
//     physical wall or room into single consolidated boxes using
//     Intersection-over-Union scoring.
//
// Detector instances are explicit, caller-owned handles: construct one in
// main, pass it where it is needed, and Close it when done. There is no lazy
// global model state.
//
// # Merge Semantics
//
// Merge is a greedy O(n²) single-pass clustering, not a proof-optimal one:
// detections are visited in descending confidence order, and each unconsumed
// lower-ranked detection overlapping the current seed beyond the threshold is
// folded into it (union bounding box, running confidence average). This is a
// deliberate approximation; detector output sizes are small enough that the
// quadratic scan is irrelevant and the greedy result is stable and
// deterministic.
package detection
