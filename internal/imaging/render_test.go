package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/floorplanlab/roomscan/internal/geometry"
)

func squareRoom(id string, x, y, size int) geometry.Room {
	return geometry.Room{
		ID: id,
		PolygonVertices: [][2]int{
			{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size},
		},
		BoundingBox: geometry.BoundingBox{XMin: x, YMin: y, XMax: x + size + 1, YMax: y + size + 1},
		AreaPixels:  size * size,
		Centroid:    [2]int{x + size/2, y + size/2},
		ShapeType:   geometry.ShapeRectangle,
		NumVertices: 4,
	}
}

func TestRenderRooms(t *testing.T) {
	rooms := []geometry.Room{
		squareRoom("room_001", 10, 10, 30),
		squareRoom("room_002", 60, 10, 30),
	}

	img, err := RenderRooms(120, 60, rooms)
	if err != nil {
		t.Fatalf("RenderRooms failed: %v", err)
	}
	if w, h := Dimensions(img); w != 120 || h != 60 {
		t.Fatalf("canvas dimensions = %dx%d, want 120x60", w, h)
	}

	// The polygon edge and interior are no longer background white.
	// Sample the top edges, well away from the centroid labels.
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	edge := color.RGBAModel.Convert(img.At(25, 10)).(color.RGBA)
	if edge == white {
		t.Error("polygon edge pixel still white, want outline color")
	}
	interior := color.RGBAModel.Convert(img.At(20, 15)).(color.RGBA)
	if interior == white {
		t.Error("interior pixel still white, want fill color")
	}

	// A pixel far from both rooms stays white.
	outside := color.RGBAModel.Convert(img.At(119, 59)).(color.RGBA)
	if outside != white {
		t.Errorf("background pixel = %+v, want white", outside)
	}

	// Distinct rooms use distinct outline colors.
	other := color.RGBAModel.Convert(img.At(75, 10)).(color.RGBA)
	if other == edge {
		t.Error("both rooms rendered with the same outline color")
	}
}

func TestRenderRoomsEmpty(t *testing.T) {
	img, err := RenderRooms(50, 50, nil)
	if err != nil {
		t.Fatalf("RenderRooms with no rooms failed: %v", err)
	}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	if got := color.RGBAModel.Convert(img.At(25, 25)).(color.RGBA); got != white {
		t.Errorf("empty canvas pixel = %+v, want white", got)
	}
}

func TestRenderRoomsInvalidCanvas(t *testing.T) {
	if _, err := RenderRooms(0, 50, nil); err == nil {
		t.Error("RenderRooms accepted zero width, want error")
	}
	if _, err := RenderRooms(50, -1, nil); err == nil {
		t.Error("RenderRooms accepted negative height, want error")
	}
}

func TestPointInPolygon(t *testing.T) {
	square := [][2]int{{0, 0}, {10, 0}, {10, 10}, {0, 10}}

	cases := []struct {
		x, y int
		want bool
	}{
		{5, 5, true},
		{1, 1, true},
		{15, 5, false},
		{-1, 5, false},
		{5, 15, false},
	}
	for _, tc := range cases {
		if got := pointInPolygon(tc.x, tc.y, square); got != tc.want {
			t.Errorf("pointInPolygon(%d, %d) = %v, want %v", tc.x, tc.y, got, tc.want)
		}
	}

	// L-shape: the notch is outside.
	lShape := [][2]int{{0, 0}, {10, 0}, {10, 5}, {5, 5}, {5, 10}, {0, 10}}
	if pointInPolygon(8, 8, lShape) {
		t.Error("pointInPolygon reported the L-shape notch as inside")
	}
	if !pointInPolygon(2, 8, lShape) {
		t.Error("pointInPolygon reported an interior L-shape point as outside")
	}
}

func TestDrawLineStaysInBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	// Endpoints beyond the canvas must not panic.
	drawLine(img, -5, -5, 20, 20, color.RGBA{R: 255, A: 255})

	if got := img.RGBAAt(5, 5); got.R != 255 {
		t.Errorf("diagonal pixel (5,5) = %+v, want red", got)
	}
}
