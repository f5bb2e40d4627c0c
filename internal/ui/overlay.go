//go:build ebiten

package ui

import (
	"image/color"
	"math"

	"cello/internal/render"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

// Overlay draws optional debugging visuals on top of the cells.
type Overlay struct {
	showHeadings bool
	showNames    bool
	showCentre   bool
}

// NewOverlay constructs a new overlay instance.
func NewOverlay() *Overlay {
	return &Overlay{}
}

// Update toggles layers: H or 1 headings, 2 names, 3 canvas centre.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyH) || inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showHeadings = !o.showHeadings
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		o.showNames = !o.showNames
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit3) {
		o.showCentre = !o.showCentre
	}
}

// Draw renders the enabled layers over a view viewW x viewH pixels.
func (o *Overlay) Draw(screen *ebiten.Image, circles []render.Circle, viewW, viewH float64) {
	if o.showCentre {
		col := color.RGBA{R: 90, G: 130, B: 170, A: 160}
		cx, cy := float32(viewW/2), float32(viewH/2)
		vector.StrokeLine(screen, cx-6, cy, cx+6, cy, 1, col, true)
		vector.StrokeLine(screen, cx, cy-6, cx, cy+6, 1, col, true)
	}
	if o.showHeadings {
		col := color.RGBA{R: 240, G: 235, B: 215, A: 215}
		for _, c := range circles {
			for _, s := range Arrow(c.X, c.Y, c.Facing, math.Max(c.R*3, 8)) {
				vector.StrokeLine(screen, float32(s.X0), float32(s.Y0), float32(s.X1), float32(s.Y1), 1, col, true)
			}
		}
	}
	if o.showNames {
		face := basicfont.Face7x13
		for _, c := range circles {
			text.Draw(screen, c.Name, face, int(c.X+c.R)+2, int(c.Y), color.White)
		}
	}
}
