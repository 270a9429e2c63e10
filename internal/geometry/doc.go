// Package geometry implements the raster-to-polygon room extraction pipeline.
//
// The pipeline converts axis-aligned wall bounding boxes into closed room
// polygons by treating walls as opaque obstacles on a binary grid and
// extracting the enclosed free-space regions:
//
//  1. Rasterization: Paint wall boxes as solid rectangles on a binary grid
//  2. Inversion: Flip the mask so free space becomes foreground
//  3. Morphological cleanup: Closing seals small gaps in wall lines, then
//     opening removes isolated speckle noise
//  4. Component labeling: 8-connected flood fill partitions free space into
//     disjoint regions
//  5. Contour tracing: Moore-neighbor tracing extracts each region's outer
//     boundary
//  6. Simplification: Ramer-Douglas-Peucker reduces the boundary to a
//     low-vertex polygon within a perimeter-relative tolerance
//  7. Assembly: Regions are filtered by area, classified by shape, scored,
//     sorted, and assigned stable IDs
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Determinism
//
// The pipeline is a pure, synchronous computation. For fixed inputs and
// configuration, repeated runs produce identical room lists: components are
// labeled in row-major first-pixel-seen order, and output rooms are sorted by
// descending area with ties broken by ascending component label.
//
// # Concurrency
//
// A Converter holds only immutable configuration and is safe for concurrent
// use. Each Convert call owns its grid and component buffers exclusively;
// nothing is shared or cached across invocations.
package geometry
