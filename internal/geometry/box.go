package geometry

import "math"

// Box is an axis-aligned rectangle in pixel coordinates.
//
// The coordinate convention follows standard image bounds: (X1, Y1) is the
// top-left corner and (X2, Y2) the bottom-right corner, with X1 < X2 and
// Y1 < Y2 for a well-formed box. Malformed boxes (X1 >= X2 or Y1 >= Y2) are
// tolerated everywhere: they simply have zero area.
type Box struct {
	X1 float64 `json:"x1"` // Left edge
	Y1 float64 `json:"y1"` // Top edge
	X2 float64 `json:"x2"` // Right edge
	Y2 float64 `json:"y2"` // Bottom edge
}

// Area returns the box area in square pixels. Negative extents count as zero.
func (b Box) Area() float64 {
	w := b.X2 - b.X1
	h := b.Y2 - b.Y1
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Union returns the coordinate-wise union of two boxes: the minimum of both
// top-left corners and the maximum of both bottom-right corners.
func (b Box) Union(o Box) Box {
	return Box{
		X1: math.Min(b.X1, o.X1),
		Y1: math.Min(b.Y1, o.Y1),
		X2: math.Max(b.X2, o.X2),
		Y2: math.Max(b.Y2, o.Y2),
	}
}

// Center returns the box center point.
func (b Box) Center() (x, y float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// IsFinite reports whether all four coordinates are finite numbers.
func (b Box) IsFinite() bool {
	for _, v := range [4]float64{b.X1, b.Y1, b.X2, b.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// IoU computes the Intersection-over-Union of two boxes: the area where they
// overlap divided by the total area they cover together.
//
// Returns 0.0 when the boxes do not overlap or when the union area is zero.
// Malformed boxes yield degenerate but non-crashing results because negative
// extents are treated as zero area.
func IoU(a, b Box) float64 {
	ix1 := math.Max(a.X1, b.X1)
	iy1 := math.Max(a.Y1, b.Y1)
	ix2 := math.Min(a.X2, b.X2)
	iy2 := math.Min(a.Y2, b.Y2)

	iw := ix2 - ix1
	ih := iy2 - iy1
	if iw <= 0 || ih <= 0 {
		return 0.0
	}
	intersection := iw * ih

	// Inclusion-exclusion: Union(A, B) = Area(A) + Area(B) - Intersection(A, B)
	union := a.Area() + b.Area() - intersection
	if union <= 0 {
		return 0.0
	}
	return intersection / union
}

// CenterDistance returns the Euclidean distance between the centers of two
// boxes. Useful as a secondary proximity signal when boxes barely overlap.
func CenterDistance(a, b Box) float64 {
	ax, ay := a.Center()
	bx, by := b.Center()
	return math.Hypot(ax-bx, ay-by)
}
