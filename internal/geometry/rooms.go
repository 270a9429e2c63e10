package geometry

import (
	"fmt"
	"math"
	"sort"
)

// Shape classification labels for extracted room polygons.
const (
	ShapeRectangle = "rectangle"
	ShapeLShape    = "l_shape"
	ShapeComplex   = "complex"
)

// ConfidencePolicy selects how room confidence scores are computed.
type ConfidencePolicy int

const (
	// ConfidenceVertexStep scores purely by simplified vertex count:
	// 4 -> 0.95, <= 6 -> 0.85, <= 8 -> 0.75, otherwise 0.65.
	ConfidenceVertexStep ConfidencePolicy = iota

	// ConfidenceAreaBlend blends an area score with a shape-complexity
	// score: 0.7*min(area/50000, 1.0) + 0.3*(1 - min(vertices, 20)/20*0.3),
	// rounded to two decimals.
	ConfidenceAreaBlend
)

// backgroundFraction is the fraction of the canvas above which a single
// free-space region is considered unenclosed background rather than a room.
const backgroundFraction = 0.9

// Options configures a Converter. The zero value is not valid; start from
// DefaultOptions.
type Options struct {
	// MinRoomArea is the minimum pixel area for a region to count as a room.
	// Guards against noise. Default 2000.
	MinRoomArea int

	// KernelSize is the side of the square structuring element used by the
	// morphological cleanup. Must be odd and >= 1. Larger values bridge
	// bigger gaps in wall lines. Default 3.
	KernelSize int

	// EpsilonFactor scales the polygon simplification tolerance relative to
	// the traced perimeter: epsilon = EpsilonFactor * perimeter. Must be
	// > 0. Default 0.01 (1% of perimeter).
	EpsilonFactor float64

	// LShapeMaxVertices is the inclusive vertex-count cutoff below which a
	// non-rectangular polygon is classified as an L-shape. Default 8.
	LShapeMaxVertices int

	// Confidence selects the room confidence scoring policy.
	// Default ConfidenceVertexStep.
	Confidence ConfidencePolicy
}

// DefaultOptions returns the standard pipeline configuration.
func DefaultOptions() Options {
	return Options{
		MinRoomArea:       2000,
		KernelSize:        3,
		EpsilonFactor:     0.01,
		LShapeMaxVertices: 8,
		Confidence:        ConfidenceVertexStep,
	}
}

// validate rejects configurations the pipeline must not run with.
func (o Options) validate() error {
	if err := validateKernelSize(o.KernelSize); err != nil {
		return err
	}
	if o.EpsilonFactor <= 0 {
		return &ConfigError{Option: "epsilon_factor", Reason: fmt.Sprintf("must be > 0, got %g", o.EpsilonFactor)}
	}
	if o.MinRoomArea < 0 {
		return &ConfigError{Option: "min_room_area", Reason: fmt.Sprintf("must be >= 0, got %d", o.MinRoomArea)}
	}
	if o.LShapeMaxVertices < 4 {
		return &ConfigError{Option: "l_shape_max_vertices", Reason: fmt.Sprintf("must be >= 4, got %d", o.LShapeMaxVertices)}
	}
	switch o.Confidence {
	case ConfidenceVertexStep, ConfidenceAreaBlend:
	default:
		return &ConfigError{Option: "confidence_policy", Reason: fmt.Sprintf("unknown policy %d", o.Confidence)}
	}
	return nil
}

// BoundingBox is the axis-aligned integer bounding box of a room, as it
// appears in API responses.
type BoundingBox struct {
	XMin int `json:"x_min"`
	YMin int `json:"y_min"`
	XMax int `json:"x_max"`
	YMax int `json:"y_max"`
}

// Room is one extracted room footprint. Rooms are immutable once returned.
type Room struct {
	// ID is "room_NNN", assigned in output order.
	ID string `json:"id"`

	// PolygonVertices is the simplified outer boundary: an ordered, closed,
	// non-self-intersecting ring of at least 3 [x, y] pairs.
	PolygonVertices [][2]int `json:"polygon_vertices"`

	// BoundingBox encloses the room's pixel region.
	BoundingBox BoundingBox `json:"bounding_box"`

	// AreaPixels is the pixel count of the room's region, never more than
	// 90% of the canvas.
	AreaPixels int `json:"area_pixels"`

	// Centroid is the mean [x, y] of the room's pixels.
	Centroid [2]int `json:"centroid"`

	// Confidence scores how room-like the region is, in [0, 1].
	Confidence float64 `json:"confidence"`

	// ShapeType is "rectangle", "l_shape", or "complex".
	ShapeType string `json:"shape_type"`

	// NumVertices is len(PolygonVertices).
	NumVertices int `json:"num_vertices"`
}

// Converter runs the wall-to-room extraction pipeline. It holds only
// immutable configuration and is safe for concurrent use.
type Converter struct {
	opts Options
}

// NewConverter validates the options and returns a ready Converter.
// Invalid options yield a ConfigError.
func NewConverter(opts Options) (*Converter, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Converter{opts: opts}, nil
}

// Convert extracts room polygons from wall boxes on a width x height canvas.
//
// The walls are rasterized, the free-space mask is cleaned morphologically,
// 8-connected free regions are labeled, and each region within the area
// bounds is traced and simplified into a polygon. Regions smaller than
// MinRoomArea or larger than 90% of the canvas (unenclosed background) are
// dropped, as are regions whose simplified boundary degenerates below 3
// vertices.
//
// Output is sorted by descending area, ties broken by ascending component
// label, and IDs are assigned in that order. Returns an InputError for
// non-positive dimensions or non-finite wall coordinates.
func (c *Converter) Convert(walls []Box, width, height int) ([]Room, error) {
	grid, err := Rasterize(walls, width, height)
	if err != nil {
		return nil, err
	}

	// Walls become background, free space becomes foreground.
	grid.Invert()

	cleaned, err := Clean(grid, c.opts.KernelSize)
	if err != nil {
		return nil, err
	}

	labeling := LabelComponents(cleaned)

	type candidate struct {
		room  Room
		label int
	}

	maxArea := int(float64(width) * float64(height) * backgroundFraction)
	candidates := make([]candidate, 0, len(labeling.Components))
	for _, comp := range labeling.Components {
		if comp.Area < c.opts.MinRoomArea || comp.Area > maxArea {
			continue
		}

		room, ok := c.extractRoom(labeling, comp)
		if !ok {
			continue // degenerate geometry, recovered by skipping
		}
		candidates = append(candidates, candidate{room: room, label: comp.Label})
	}

	// Total order: descending area, ties broken by ascending label.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].room.AreaPixels != candidates[j].room.AreaPixels {
			return candidates[i].room.AreaPixels > candidates[j].room.AreaPixels
		}
		return candidates[i].label < candidates[j].label
	})

	rooms := make([]Room, len(candidates))
	for i, cand := range candidates {
		cand.room.ID = fmt.Sprintf("room_%03d", i+1)
		rooms[i] = cand.room
	}

	return rooms, nil
}

// extractRoom traces and simplifies one component's boundary and packages it
// as a Room. Reports ok=false when the boundary is untraceable or simplifies
// below a valid ring.
func (c *Converter) extractRoom(l *Labeling, comp Component) (Room, bool) {
	contour := TraceContour(l, comp)
	if len(contour) < 3 {
		return Room{}, false
	}

	epsilon := c.opts.EpsilonFactor * Perimeter(contour)
	simplified := SimplifyRing(contour, epsilon)
	if len(simplified) < 3 {
		return Room{}, false
	}

	vertices := make([][2]int, len(simplified))
	for i, p := range simplified {
		vertices[i] = [2]int{p.X, p.Y}
	}

	numVertices := len(vertices)
	return Room{
		PolygonVertices: vertices,
		BoundingBox: BoundingBox{
			XMin: comp.MinX,
			YMin: comp.MinY,
			XMax: comp.MaxX + 1,
			YMax: comp.MaxY + 1,
		},
		AreaPixels:  comp.Area,
		Centroid:    [2]int{int(comp.CentroidX), int(comp.CentroidY)},
		Confidence:  c.confidence(comp.Area, numVertices),
		ShapeType:   c.classify(numVertices),
		NumVertices: numVertices,
	}, true
}

// classify maps a simplified vertex count to a shape label.
func (c *Converter) classify(numVertices int) string {
	switch {
	case numVertices == 4:
		return ShapeRectangle
	case numVertices <= c.opts.LShapeMaxVertices:
		return ShapeLShape
	default:
		return ShapeComplex
	}
}

// confidence scores a room by the configured policy.
func (c *Converter) confidence(area, numVertices int) float64 {
	switch c.opts.Confidence {
	case ConfidenceAreaBlend:
		areaScore := math.Min(float64(area)/50000, 1.0)
		vertexScore := 1.0 - math.Min(float64(numVertices), 20)/20*0.3
		return math.Round((areaScore*0.7+vertexScore*0.3)*100) / 100
	default: // ConfidenceVertexStep
		switch {
		case numVertices == 4:
			return 0.95
		case numVertices <= 6:
			return 0.85
		case numVertices <= 8:
			return 0.75
		default:
			return 0.65
		}
	}
}
