package render

import (
	"image/color"
	"math"

	"cello/internal/projection"

	"github.com/google/uuid"
)

// Circle is a cell projected into window coordinates.
type Circle struct {
	ID     uuid.UUID
	Name   string
	X, Y   float64
	R      float64
	Color  color.RGBA
	Facing float64
}

// CellColor is the fill used for cells when no palette is applied.
var CellColor = color.RGBA{R: 0x00, G: 0xAB, B: 0xCD, A: 0xEF}

var palette = []color.RGBA{
	CellColor,
	{R: 0xE0, G: 0x6C, B: 0x75, A: 0xEF},
	{R: 0x98, G: 0xC3, B: 0x79, A: 0xEF},
	{R: 0xE5, G: 0xC0, B: 0x7B, A: 0xEF},
	{R: 0xC6, G: 0x78, B: 0xDD, A: 0xEF},
	{R: 0x56, G: 0xB6, B: 0xC2, A: 0xEF},
	{R: 0xD1, G: 0x9A, B: 0x66, A: 0xEF},
	{R: 0xAB, G: 0xB2, B: 0xBF, A: 0xEF},
}

// ColorFor picks a stable palette entry for id.
func ColorFor(id uuid.UUID) color.RGBA {
	var h byte
	for _, b := range id {
		h ^= b
	}
	return palette[int(h)%len(palette)]
}

// Ratio converts canvas units to window units.
func Ratio(windowW, canvasW float64) float64 {
	if canvasW <= 0 {
		return 0
	}
	return windowW / canvasW
}

// Radius returns the radius of a circle of the given area.
func Radius(size int) float64 {
	if size <= 0 {
		return 0
	}
	return math.Sqrt(float64(size) / math.Pi)
}

// Project scales every cell of frame into a window windowW units wide. Both
// axes use the horizontal ratio so circles stay round. When colored is false
// every circle uses CellColor.
func Project(frame projection.Frame, windowW float64, colored bool) []Circle {
	ratio := Ratio(windowW, frame.Width)
	out := make([]Circle, 0, len(frame.Cells))
	for _, info := range frame.Cells {
		c := Circle{
			ID:     info.ID,
			Name:   info.Name,
			X:      info.Position.X * ratio,
			Y:      info.Position.Y * ratio,
			R:      Radius(info.Size) * ratio,
			Color:  CellColor,
			Facing: info.DirectionRads,
		}
		if colored {
			c.Color = ColorFor(info.ID)
		}
		out = append(out, c)
	}
	return out
}
