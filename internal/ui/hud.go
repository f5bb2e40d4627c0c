//go:build ebiten

package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

const (
	panelPadding   = 12
	headerBaseline = 14
	lineHeight     = 16
	groupGap       = 6
)

var (
	panelBackground = color.RGBA{R: 16, G: 16, B: 20, A: 255}
	headerColor     = color.RGBA{R: 200, G: 200, B: 210, A: 255}
	labelColor      = color.RGBA{R: 160, G: 160, B: 170, A: 255}
	valueColor      = color.RGBA{R: 220, G: 220, B: 230, A: 255}
)

// HUD renders the parameter panel to the right of the canvas view.
type HUD struct {
	src        ParameterProvider
	width      int
	panel      *ebiten.Image
	lastHeight int
	lines      []Line
	help       string
}

// NewHUD constructs a HUD for the provided source and panel width.
func NewHUD(src ParameterProvider, width int, help string) *HUD {
	if width < 0 {
		width = 0
	}
	return &HUD{src: src, width: width, help: help}
}

// Width returns the panel width in pixels.
func (h *HUD) Width() int {
	if h == nil {
		return 0
	}
	return h.width
}

// Update refreshes the cached rows from the source.
func (h *HUD) Update() {
	if h == nil || h.src == nil {
		return
	}
	h.lines = Lines(h.src.Parameters())
}

// Draw paints the HUD panel at offsetX with the given height.
func (h *HUD) Draw(screen *ebiten.Image, offsetX, height int) {
	if h == nil || h.width <= 0 || height <= 0 {
		return
	}
	if h.panel == nil || h.lastHeight != height {
		h.panel = ebiten.NewImage(h.width, height)
		h.lastHeight = height
	}
	h.panel.Fill(panelBackground)

	face := basicfont.Face7x13
	y := panelPadding + headerBaseline
	for i, line := range h.lines {
		if line.Header {
			if i > 0 {
				y += groupGap
			}
			text.Draw(h.panel, line.Label, face, panelPadding, y, headerColor)
			y += lineHeight
			continue
		}
		text.Draw(h.panel, line.Label, face, panelPadding, y, labelColor)
		bounds := text.BoundString(face, line.Value)
		text.Draw(h.panel, line.Value, face, h.width-panelPadding-bounds.Dx(), y, valueColor)
		y += lineHeight
	}
	if h.help != "" {
		text.Draw(h.panel, h.help, face, panelPadding, height-panelPadding, labelColor)
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}
