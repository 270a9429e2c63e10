package geometry

import "fmt"

// Clean applies the morphological cleanup pass to a free-space mask
// (foreground = 255): a closing (dilation then erosion) that seals small gaps
// left by missed wall segments, followed by an opening (erosion then
// dilation) that removes isolated speckle below the kernel footprint.
//
// The order is fixed: closing must run first so that gaps in walls are sealed
// before tiny free-space islands are removed. Reversing the order would let
// genuine small rooms be erased before their enclosing walls are repaired.
//
// The structuring element is a kernelSize x kernelSize all-ones square;
// kernelSize must be odd and >= 1 or a ConfigError is returned. The input
// grid is not modified.
func Clean(g *Grid, kernelSize int) (*Grid, error) {
	if err := validateKernelSize(kernelSize); err != nil {
		return nil, err
	}
	return g.Close(kernelSize).Open(kernelSize), nil
}

// Close performs a morphological closing (dilation followed by erosion) with
// a square structuring element of the given odd size. Closing fills
// foreground gaps smaller than the kernel footprint.
func (g *Grid) Close(kernelSize int) *Grid {
	return g.dilate(kernelSize).erode(kernelSize)
}

// Open performs a morphological opening (erosion followed by dilation) with
// a square structuring element of the given odd size. Opening removes
// foreground specks smaller than the kernel footprint.
func (g *Grid) Open(kernelSize int) *Grid {
	return g.erode(kernelSize).dilate(kernelSize)
}

// The morphology operators are value-based: 255 is foreground and 0 is
// background, regardless of which of the two the mask currently means by
// them. Clean runs on the inverted mask, where 255 is free space.
const (
	foreground uint8 = 255
	background uint8 = 0
)

// dilate sets each output pixel to foreground when any pixel under the
// kernel window is foreground. The window is clipped at the grid border, so
// pixels outside the grid never contribute (they act as background).
func (g *Grid) dilate(kernelSize int) *Grid {
	r := kernelSize / 2
	out := &Grid{Width: g.Width, Height: g.Height, Pix: make([]uint8, len(g.Pix))}

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.anyInWindow(x, y, r, foreground) {
				out.Pix[y*g.Width+x] = foreground
			}
		}
	}
	return out
}

// erode sets each output pixel to foreground only when every pixel under the
// kernel window is foreground. The window is clipped at the grid border, so
// pixels outside the grid never veto (they act as foreground, matching the
// usual border convention that keeps regions touching the canvas edge
// intact).
func (g *Grid) erode(kernelSize int) *Grid {
	r := kernelSize / 2
	out := &Grid{Width: g.Width, Height: g.Height, Pix: make([]uint8, len(g.Pix))}

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if !g.anyInWindow(x, y, r, background) {
				out.Pix[y*g.Width+x] = foreground
			}
		}
	}
	return out
}

// anyInWindow reports whether any in-bounds pixel in the (2r+1)x(2r+1)
// window centered at (x, y) has the given value.
func (g *Grid) anyInWindow(x, y, r int, v uint8) bool {
	y0, y1 := y-r, y+r
	x0, x1 := x-r, x+r
	if y0 < 0 {
		y0 = 0
	}
	if x0 < 0 {
		x0 = 0
	}
	if y1 >= g.Height {
		y1 = g.Height - 1
	}
	if x1 >= g.Width {
		x1 = g.Width - 1
	}
	for wy := y0; wy <= y1; wy++ {
		row := wy * g.Width
		for wx := x0; wx <= x1; wx++ {
			if g.Pix[row+wx] == v {
				return true
			}
		}
	}
	return false
}

// validateKernelSize rejects even or non-positive structuring element sizes.
func validateKernelSize(kernelSize int) error {
	if kernelSize < 1 {
		return &ConfigError{Option: "kernel_size", Reason: fmt.Sprintf("must be >= 1, got %d", kernelSize)}
	}
	if kernelSize%2 == 0 {
		return &ConfigError{Option: "kernel_size", Reason: fmt.Sprintf("must be odd, got %d", kernelSize)}
	}
	return nil
}
