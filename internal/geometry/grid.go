package geometry

import (
	"fmt"
	"math"
)

// Grid is a binary obstacle raster. Each pixel holds either Free (0) or
// Wall (255). Pixels are stored row-major.
//
// A Grid is created fresh per pipeline invocation and owned exclusively by
// the call stack that produced it.
type Grid struct {
	// Width is the grid width in pixels.
	Width int

	// Height is the grid height in pixels.
	Height int

	// Pix holds the pixel values, row-major: Pix[y*Width+x].
	Pix []uint8
}

// Pixel values used in the obstacle grid.
const (
	Free uint8 = 0   // Traversable space
	Wall uint8 = 255 // Opaque obstacle
)

// NewGrid creates an all-free grid of the given dimensions.
//
// Returns an InputError when either dimension is not positive.
func NewGrid(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, &InputError{Reason: fmt.Sprintf("grid dimensions must be positive, got %dx%d", width, height)}
	}
	return &Grid{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}, nil
}

// At returns the pixel value at (x, y). The caller must ensure the
// coordinates are in bounds.
func (g *Grid) At(x, y int) uint8 {
	return g.Pix[y*g.Width+x]
}

// Set writes the pixel value at (x, y). The caller must ensure the
// coordinates are in bounds.
func (g *Grid) Set(x, y int, v uint8) {
	g.Pix[y*g.Width+x] = v
}

// Invert flips the mask in place so that free space becomes foreground (255)
// and walls become background (0). The room pipeline labels and cleans the
// inverted mask.
func (g *Grid) Invert() {
	for i, v := range g.Pix {
		g.Pix[i] = 255 - v
	}
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	pix := make([]uint8, len(g.Pix))
	copy(pix, g.Pix)
	return &Grid{Width: g.Width, Height: g.Height, Pix: pix}
}

// Rasterize paints the wall boxes as solid rectangles on an initially
// all-free grid of the given dimensions.
//
// Each box is clamped to [0, width-1] x [0, height-1] before filling; walls
// that extend past the canvas are silently clipped, never rejected.
// Overlapping walls simply paint over each other (idempotent OR). A box that
// degenerates to zero width or height after clipping still paints a
// single-pixel line: a wall must always leave a trace.
//
// Returns an InputError when the dimensions are not positive or a wall
// coordinate is NaN or infinite.
func Rasterize(walls []Box, width, height int) (*Grid, error) {
	g, err := NewGrid(width, height)
	if err != nil {
		return nil, err
	}

	for i, w := range walls {
		if !w.IsFinite() {
			return nil, &InputError{Reason: fmt.Sprintf("wall %d has non-finite coordinates", i)}
		}

		x1 := clampToRange(w.X1, width-1)
		x2 := clampToRange(w.X2, width-1)
		y1 := clampToRange(w.Y1, height-1)
		y2 := clampToRange(w.Y2, height-1)
		if x2 < x1 {
			x1, x2 = x2, x1
		}
		if y2 < y1 {
			y1, y2 = y2, y1
		}

		// Fill inclusive of both corners, so a degenerate box still
		// draws at least one pixel.
		for y := y1; y <= y2; y++ {
			row := y * width
			for x := x1; x <= x2; x++ {
				g.Pix[row+x] = Wall
			}
		}
	}

	return g, nil
}

// clampToRange clips a coordinate to [0, max] and truncates it to an integer
// pixel index.
func clampToRange(v float64, max int) int {
	if v < 0 {
		return 0
	}
	if v > float64(max) {
		return max
	}
	return int(math.Floor(v))
}
