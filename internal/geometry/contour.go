package geometry

// Point is a 2D pixel coordinate.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// TraceContour extracts the outer boundary of a labeled region as an ordered
// ring of pixel coordinates using Moore-neighbor tracing.
//
// The walk starts at the region's topmost-leftmost boundary pixel and
// proceeds clockwise, keeping the region on its right. Collinear intermediate
// points are dropped during the walk, so straight edges contribute only their
// endpoints. Interior holes are ignored; only the outer contour is returned.
//
// Returns nil when the region has no traceable boundary (pathological masks),
// which callers treat as a recoverable skip, not an error. A single-pixel
// region yields a one-point ring.
//
// The walk stops on first re-entry of the start pixel. When the start pixel
// is a diagonal articulation point joining two lobes, the second lobe is not
// traced: the first lobe's contour stands in for the region. The
// morphological opening in Clean removes such single-pixel pinches for any
// kernel size >= 3, so this only matters on masks cleaned with kernel size 1.
func TraceContour(l *Labeling, comp Component) []Point {
	if comp.Label <= 0 {
		return nil
	}

	sx, sy, ok := findStartPixel(l, comp)
	if !ok {
		return nil
	}

	pts := make([]Point, 0, 64)
	appendPoint := func(p Point) {
		// Drop the middle point of three collinear points:
		// cross((b-a), (p-b)) == 0.
		if n := len(pts); n >= 2 {
			a, b := pts[n-2], pts[n-1]
			if (b.X-a.X)*(p.Y-b.Y)-(b.Y-a.Y)*(p.X-b.X) == 0 {
				pts = pts[:n-1]
			}
		}
		pts = append(pts, p)
	}

	cx, cy := sx, sy
	bx, by := sx-1, sy // backtrack starts to the left of the start pixel
	appendPoint(Point{sx, sy})

	// Stop when the walk re-enters the start pixel, bounded by a step budget
	// for safety on degenerate inputs.
	maxSteps := 4*l.Width*l.Height + 8
	for step := 0; step < maxSteps; step++ {
		nx, ny, nbx, nby, found := nextBoundaryPixel(l, comp.Label, cx, cy, bx, by)
		if !found {
			break // isolated pixel
		}
		cx, cy = nx, ny
		bx, by = nbx, nby

		if cx == sx && cy == sy {
			break
		}
		last := pts[len(pts)-1]
		if last.X != cx || last.Y != cy {
			appendPoint(Point{cx, cy})
		}
	}

	// The walk may close back onto the start point; drop the duplicate.
	if n := len(pts); n >= 2 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	return pts
}

// findStartPixel locates the first boundary pixel of the region in row-major
// order within its bounding box.
func findStartPixel(l *Labeling, comp Component) (int, int, bool) {
	for y := comp.MinY; y <= comp.MaxY; y++ {
		for x := comp.MinX; x <= comp.MaxX; x++ {
			if l.labelAt(x, y) != comp.Label {
				continue
			}
			if l.labelAt(x+1, y) != comp.Label || l.labelAt(x-1, y) != comp.Label ||
				l.labelAt(x, y+1) != comp.Label || l.labelAt(x, y-1) != comp.Label {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}

// Moore neighborhood in clockwise order: E, SE, S, SW, W, NW, N, NE.
var mooreDX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
var mooreDY = [8]int{0, 1, 1, 1, 0, -1, -1, -1}

// nextBoundaryPixel scans the Moore neighborhood of (cx, cy) clockwise,
// starting just past the backtrack pixel (bx, by), and returns the first
// neighbor belonging to the region along with the new backtrack position.
func nextBoundaryPixel(l *Labeling, label, cx, cy, bx, by int) (nx, ny, nbx, nby int, found bool) {
	start := 0
	for i := 0; i < 8; i++ {
		if cx+mooreDX[i] == bx && cy+mooreDY[i] == by {
			start = (i + 1) % 8
			break
		}
	}

	pbx, pby := bx, by
	for k := 0; k < 8; k++ {
		i := (start + k) % 8
		tx, ty := cx+mooreDX[i], cy+mooreDY[i]
		if l.labelAt(tx, ty) == label {
			return tx, ty, pbx, pby, true
		}
		pbx, pby = tx, ty
	}
	return 0, 0, bx, by, false
}
