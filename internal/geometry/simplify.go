package geometry

import "math"

// SimplifyRing reduces a closed boundary ring to fewer vertices using the
// Ramer-Douglas-Peucker method. Every point of the original ring stays within
// epsilon of the simplified polygon's edges.
//
// Because RDP operates on open polylines, the ring is split into two arcs at
// its first point and the point farthest from it; each arc is simplified
// independently and the halves are rejoined. Rings with three or fewer points
// are returned unchanged (copied).
func SimplifyRing(ring []Point, epsilon float64) []Point {
	if len(ring) <= 3 {
		out := make([]Point, len(ring))
		copy(out, ring)
		return out
	}

	// Split at the point farthest from ring[0]; both anchors survive
	// simplification, keeping the two arcs honest.
	far := 1
	farDist := -1.0
	for i := 1; i < len(ring); i++ {
		d := pointDistance(ring[0], ring[i])
		if d > farDist {
			farDist = d
			far = i
		}
	}

	first := douglasPeucker(ring[:far+1], epsilon)
	second := douglasPeucker(append(ring[far:len(ring):len(ring)], ring[0]), epsilon)

	// Join, dropping the shared anchors duplicated at the seams.
	out := make([]Point, 0, len(first)+len(second)-2)
	out = append(out, first[:len(first)-1]...)
	out = append(out, second[:len(second)-1]...)
	return out
}

// douglasPeucker simplifies an open polyline, always keeping both endpoints.
// Points farther than epsilon from the chord anchor a recursive split; all
// others are eliminated.
func douglasPeucker(pts []Point, epsilon float64) []Point {
	if len(pts) <= 2 {
		out := make([]Point, len(pts))
		copy(out, pts)
		return out
	}

	maxDist := -1.0
	maxIdx := 0
	a, b := pts[0], pts[len(pts)-1]
	for i := 1; i < len(pts)-1; i++ {
		d := pointSegmentDistance(pts[i], a, b)
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= epsilon {
		return []Point{a, b}
	}

	left := douglasPeucker(pts[:maxIdx+1], epsilon)
	right := douglasPeucker(pts[maxIdx:], epsilon)
	return append(left[:len(left)-1], right...)
}

// Perimeter returns the length of the closed ring through the given points,
// including the edge from the last point back to the first.
func Perimeter(ring []Point) float64 {
	if len(ring) < 2 {
		return 0
	}
	total := 0.0
	for i := range ring {
		total += pointDistance(ring[i], ring[(i+1)%len(ring)])
	}
	return total
}

// pointDistance returns the Euclidean distance between two points.
func pointDistance(a, b Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

// pointSegmentDistance returns the distance from p to the segment ab.
func pointSegmentDistance(p, a, b Point) float64 {
	ax, ay := float64(a.X), float64(a.Y)
	bx, by := float64(b.X), float64(b.Y)
	px, py := float64(p.X), float64(p.Y)

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(px-ax, py-ay)
	}

	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return math.Hypot(px-(ax+t*dx), py-(ay+t*dy))
}
