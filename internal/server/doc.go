// Package server exposes the room detection pipeline over HTTP.
//
// Endpoints:
//
//	GET  /                  service banner and version
//	GET  /health            health check, includes converter settings
//	POST /api/detect-rooms  wall boxes + image dimensions -> room polygons
//	POST /api/detect-walls  blueprint image -> merged wall detections
//	POST /api/detect        blueprint image -> room polygons (full pipeline)
//
// All responses are JSON. Invalid input yields a 400 with
// {"success": false, "error": {"code", "message"}}; detector endpoints
// return 503 when the server was started without a detector backend.
package server
