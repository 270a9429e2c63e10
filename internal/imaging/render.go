package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/anthonynsimon/bild/paint"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/floorplanlab/roomscan/internal/geometry"
)

// RenderRooms draws detected rooms onto a white canvas of the given size.
//
// Each room gets a distinct hue: a pale interior fill, a solid polygon
// outline, a one-pixel bounding box, and its ID drawn near the centroid.
// The interior is flood-filled from the centroid; rooms whose centroid falls
// outside their own polygon (possible for concave shapes) keep a bare
// outline.
func RenderRooms(width, height int, rooms []geometry.Room) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, &geometry.InputError{Reason: "canvas dimensions must be positive"}
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for i, room := range rooms {
		outline, fill := roomColors(i, len(rooms))

		drawPolygon(canvas, room.PolygonVertices, outline)

		cx, cy := room.Centroid[0], room.Centroid[1]
		if pointInPolygon(cx, cy, room.PolygonVertices) && inBounds(canvas, cx, cy) {
			canvas = paint.FloodFill(canvas, image.Point{X: cx, Y: cy}, fill, 16)
			// Refresh the outline: the fill may touch its inner edge.
			drawPolygon(canvas, room.PolygonVertices, outline)
		}

		drawRect(canvas, room.BoundingBox, outline)
		drawLabel(canvas, room.ID, cx, cy)
	}

	return canvas, nil
}

// roomColors returns the outline and interior fill colors for room index i
// of n, with hues spaced evenly around the color wheel.
func roomColors(i, n int) (outline, fill color.RGBA) {
	hue := float64(i) * 360.0 / float64(n)
	o := colorful.Hsv(hue, 0.85, 0.75)
	f := colorful.Hsv(hue, 0.25, 0.98)
	return rgba(o), rgba(f)
}

func rgba(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// drawPolygon draws the closed ring through the given vertices.
func drawPolygon(img *image.RGBA, vertices [][2]int, col color.RGBA) {
	n := len(vertices)
	if n < 2 {
		return
	}
	for i := 0; i < n; i++ {
		a := vertices[i]
		b := vertices[(i+1)%n]
		drawLine(img, a[0], a[1], b[0], b[1], col)
	}
}

// drawLine draws a one-pixel line with Bresenham's algorithm.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		img.SetRGBA(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// drawRect draws a one-pixel rectangle outline.
func drawRect(img *image.RGBA, b geometry.BoundingBox, col color.RGBA) {
	drawLine(img, b.XMin, b.YMin, b.XMax-1, b.YMin, col)
	drawLine(img, b.XMax-1, b.YMin, b.XMax-1, b.YMax-1, col)
	drawLine(img, b.XMax-1, b.YMax-1, b.XMin, b.YMax-1, col)
	drawLine(img, b.XMin, b.YMax-1, b.XMin, b.YMin, col)
}

// drawLabel renders text centered on (x, y) in a small fixed-width face.
func drawLabel(img *image.RGBA, text string, x, y int) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{A: 255}),
		Face: face,
		Dot:  fixed.P(x-width/2, y+face.Height/2),
	}
	d.DrawString(text)
}

// pointInPolygon reports whether (x, y) lies inside the polygon, using ray
// casting. Points exactly on an edge may land on either side.
func pointInPolygon(x, y int, vertices [][2]int) bool {
	n := len(vertices)
	if n < 3 {
		return false
	}
	px, py := float64(x)+0.5, float64(y)+0.5

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := float64(vertices[i][0]), float64(vertices[i][1])
		xj, yj := float64(vertices[j][0]), float64(vertices[j][1])
		if (yi > py) != (yj > py) &&
			px < (xj-xi)*(py-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

func inBounds(img *image.RGBA, x, y int) bool {
	return image.Point{X: x, Y: y}.In(img.Bounds())
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
