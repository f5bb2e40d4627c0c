//go:build ebiten

package render

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// CirclePainter draws projected cells onto an ebiten image.
type CirclePainter struct {
	Background color.Color
}

// NewCirclePainter returns a painter clearing to a dark background.
func NewCirclePainter() *CirclePainter {
	return &CirclePainter{Background: color.RGBA{R: 0x10, G: 0x12, B: 0x18, A: 0xFF}}
}

// Paint clears dst and fills one circle per cell. Circles outside dst are
// clipped by ebiten.
func (p *CirclePainter) Paint(dst *ebiten.Image, circles []Circle) {
	dst.Fill(p.Background)
	for _, c := range circles {
		r := float32(math.Max(c.R, 0.5))
		vector.DrawFilledCircle(dst, float32(c.X), float32(c.Y), r, c.Color, true)
	}
}
