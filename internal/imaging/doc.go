// Package imaging handles image decoding, model input preparation, and
// visualization rendering for the room detection pipeline.
//
// Decoding accepts PNG, JPEG, and GIF, either as raw bytes or base64 strings
// (with or without a data URI prefix). PrepareModelInput resizes and
// normalizes a decoded image into the CHW float32 layout object detection
// models expect. RenderRooms draws detected room polygons onto a blank canvas
// for human inspection, returned as a base64 PNG suitable for embedding in a
// JSON response.
package imaging
