//go:build ebiten

package app

import (
	"context"
	"fmt"
	"time"

	"cello/internal/boot"
	"cello/internal/core"
	"cello/internal/projection"
	"cello/internal/render"
	"cello/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	hudWidth     = 220
	spawnTimeout = 250 * time.Millisecond
)

// Game adapts a running canvas to the ebiten.Game interface.
type Game struct {
	sys     *boot.System
	painter *render.CirclePainter
	overlay *ui.Overlay
	hud     *ui.HUD

	frame   projection.Frame
	circles []render.Circle
	window  int
	colored bool
	paused  bool
	spawned int
}

// New constructs a Game drawing sys into a view window pixels wide.
func New(sys *boot.System) *Game {
	g := &Game{
		sys:     sys,
		painter: render.NewCirclePainter(),
		overlay: ui.NewOverlay(),
		window:  sys.Config.Window,
		colored: sys.Config.Color,
	}
	g.hud = ui.NewHUD(g, hudWidth, HelpText)
	return g
}

// WindowSize is the outer window size including the HUD panel.
func (g *Game) WindowSize() (int, int) {
	w, h := viewSize(g.window, g.sys.Canvas.Size())
	return w + g.hud.Width(), h
}

// Parameters merges the canvas parameters with the view state.
func (g *Game) Parameters() core.ParameterSnapshot {
	snap := g.sys.Canvas.Parameters()
	snap.Groups = append(snap.Groups, viewParameters(g.frame, g.paused, g.spawned))
	return snap
}

// Update handles input and pulls the latest snapshots into the projection.
func (g *Game) Update() error {
	select {
	case <-g.sys.Canvas.Done():
		return ebiten.Termination
	default:
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.spawn()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.sys.Viewer.Reset()
	}
	g.overlay.Update()

	if !g.paused {
		g.frame = g.sys.Viewer.Refresh(time.Now())
		g.circles = render.Project(g.frame, float64(g.window), g.colored)
	}
	g.hud.Update()
	return nil
}

func (g *Game) spawn() {
	ctx, cancel := context.WithTimeout(context.Background(), spawnTimeout)
	defer cancel()
	name := fmt.Sprintf("cell-%d", g.spawned+1)
	if _, err := g.sys.Spawn(ctx, name); err != nil {
		g.sys.Log.Warn("spawn failed", "name", name, "err", err)
		return
	}
	g.spawned++
}

// Draw renders the current projection.
func (g *Game) Draw(screen *ebiten.Image) {
	w, h := viewSize(g.window, g.sys.Canvas.Size())
	g.painter.Paint(screen, g.circles)
	g.overlay.Draw(screen, g.circles, float64(w), float64(h))
	g.hud.Draw(screen, w, h)
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.WindowSize()
}
