package geometry

// Component describes one connected free-space region found by
// LabelComponents. It is derived from the grid and never mutated after
// creation.
type Component struct {
	// Label is the region's label in the labeling grid, starting at 1.
	// Label 0 is reserved for walls and background.
	Label int

	// MinX, MinY, MaxX, MaxY are the inclusive bounds of the region's
	// axis-aligned bounding box.
	MinX, MinY, MaxX, MaxY int

	// Area is the number of pixels belonging to the region.
	Area int

	// CentroidX, CentroidY are the mean coordinates of the region's pixels.
	CentroidX, CentroidY float64
}

// Labeling is the result of connected-component analysis: a per-pixel label
// grid plus per-region statistics.
type Labeling struct {
	// Width and Height mirror the dimensions of the labeled grid.
	Width, Height int

	// Labels holds one label per pixel, row-major. 0 marks wall/background
	// pixels; free-space pixels carry the label of their region (>= 1).
	Labels []int

	// Components lists the regions in label order (Components[i].Label == i+1).
	Components []Component
}

// LabelComponents partitions the free-space pixels (value 255) of a cleaned,
// inverted mask into 8-connected regions.
//
// Labels are assigned in deterministic row-major first-pixel-seen order, so
// two runs on the same mask always produce the same labeling. Diagonal
// neighbors count as connected. For each region the bounding box, pixel
// count, and centroid are accumulated during the fill.
func LabelComponents(g *Grid) *Labeling {
	l := &Labeling{
		Width:  g.Width,
		Height: g.Height,
		Labels: make([]int, len(g.Pix)),
	}

	next := 1
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			i := y*g.Width + x
			if g.Pix[i] != 255 || l.Labels[i] != 0 {
				continue
			}
			comp := l.fill(g, x, y, next)
			l.Components = append(l.Components, comp)
			next++
		}
	}
	return l
}

// fill performs an iterative stack-based flood fill from (startX, startY),
// assigning the given label to every reachable free pixel. A stack is used
// instead of recursion to avoid stack overflow on large regions.
func (l *Labeling) fill(g *Grid, startX, startY, label int) Component {
	comp := Component{
		Label: label,
		MinX:  startX, MinY: startY,
		MaxX: startX, MaxY: startY,
	}
	var sumX, sumY int64

	type point struct{ x, y int }
	stack := []point{{startX, startY}}
	l.Labels[startY*g.Width+startX] = label

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		comp.Area++
		sumX += int64(p.x)
		sumY += int64(p.y)
		if p.x < comp.MinX {
			comp.MinX = p.x
		}
		if p.x > comp.MaxX {
			comp.MaxX = p.x
		}
		if p.y < comp.MinY {
			comp.MinY = p.y
		}
		if p.y > comp.MaxY {
			comp.MaxY = p.y
		}

		// 8-connected neighbors
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := p.x+dx, p.y+dy
				if nx < 0 || nx >= g.Width || ny < 0 || ny >= g.Height {
					continue
				}
				ni := ny*g.Width + nx
				if g.Pix[ni] != 255 || l.Labels[ni] != 0 {
					continue
				}
				l.Labels[ni] = label
				stack = append(stack, point{nx, ny})
			}
		}
	}

	comp.CentroidX = float64(sumX) / float64(comp.Area)
	comp.CentroidY = float64(sumY) / float64(comp.Area)
	return comp
}

// labelAt returns the label at (x, y), or 0 for out-of-bounds coordinates.
func (l *Labeling) labelAt(x, y int) int {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return 0
	}
	return l.Labels[y*l.Width+x]
}
