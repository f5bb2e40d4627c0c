// Package tty draws a running canvas in a terminal with tcell.
package tty

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cello/internal/projection"
	"cello/internal/render"
	"cello/internal/ui"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
)

// Terminal glyphs are roughly twice as tall as they are wide.
const glyphAspect = 2.0

const (
	glyphCovered = '█'
	glyphCentre  = '●'
	spawnTimeout = 250 * time.Millisecond
)

// Viewer is the projection the renderer pulls frames from.
type Viewer interface {
	Refresh(now time.Time) projection.Frame
	Reset()
}

// Spawner adds cells on demand.
type Spawner interface {
	Spawn(ctx context.Context, name string) (uuid.UUID, error)
}

// Renderer draws projection frames onto a tcell screen and handles keys:
// q or Esc quits, space pauses the view, r resets the projection and n
// spawns a cell.
type Renderer struct {
	screen  tcell.Screen
	viewer  Viewer
	spawner Spawner
	status  ui.ParameterProvider
	log     *slog.Logger

	cellStyle  tcell.Style
	statusLine tcell.Style
	frame      projection.Frame
	paused     bool
	spawned    int
}

// New builds a renderer. status may be nil.
func New(screen tcell.Screen, viewer Viewer, spawner Spawner, status ui.ParameterProvider, log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.Default()
	}
	c := render.CellColor
	return &Renderer{
		screen:     screen,
		viewer:     viewer,
		spawner:    spawner,
		status:     status,
		log:        log,
		cellStyle:  tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))),
		statusLine: tcell.StyleDefault.Reverse(true),
	}
}

// Run refreshes and redraws fps times a second until ctx is cancelled or
// the user quits. The caller owns screen initialisation and Fini.
func (r *Renderer) Run(ctx context.Context, fps int) error {
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := r.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if r.HandleEvent(ctx, ev) {
				return nil
			}
		case now := <-ticker.C:
			if !r.paused {
				r.frame = r.viewer.Refresh(now)
			}
			r.Draw(r.frame)
			r.screen.Show()
		}
	}
}

// HandleEvent applies one terminal event and reports whether to quit.
func (r *Renderer) HandleEvent(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return true
		}
		if ev.Key() != tcell.KeyRune {
			return false
		}
		switch ev.Rune() {
		case 'q':
			return true
		case ' ':
			r.paused = !r.paused
		case 'r':
			r.viewer.Reset()
		case 'n':
			r.spawn(ctx)
		}
	case *tcell.EventResize:
		r.screen.Sync()
	}
	return false
}

func (r *Renderer) spawn(ctx context.Context) {
	if r.spawner == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, spawnTimeout)
	defer cancel()
	name := fmt.Sprintf("tty-%d", r.spawned+1)
	if _, err := r.spawner.Spawn(ctx, name); err != nil {
		r.log.Warn("spawn failed", "name", name, "err", err)
		return
	}
	r.spawned++
}

// Draw rasterizes frame into every row but the last, which holds the status
// line.
func (r *Renderer) Draw(frame projection.Frame) {
	r.screen.Clear()
	cols, rows := r.screen.Size()
	rows--
	if cols <= 0 || rows <= 0 {
		return
	}

	circles := render.Project(frame, float64(cols), false)
	grid := render.Rasterize(circles, cols, rows, glyphAspect)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			switch grid[y*cols+x] {
			case render.Covered:
				r.screen.SetContent(x, y, glyphCovered, nil, r.cellStyle)
			case render.Centre:
				r.screen.SetContent(x, y, glyphCentre, nil, r.cellStyle.Reverse(true))
			}
		}
	}
	r.drawStatus(rows, cols, frame)
}

func (r *Renderer) drawStatus(row, cols int, frame projection.Frame) {
	line := fmt.Sprintf(" cells %d  frame %d", len(frame.Cells), frame.Seq)
	if r.status != nil {
		if ticks, ok := r.status.Parameters().Lookup("ticks"); ok {
			line += "  ticks " + ticks
		}
	}
	if r.paused {
		line += "  [paused]"
	}
	line += "  q quit  space pause  r reset  n spawn"

	x := 0
	for _, ch := range line {
		if x >= cols {
			break
		}
		r.screen.SetContent(x, row, ch, nil, r.statusLine)
		x++
	}
	for ; x < cols; x++ {
		r.screen.SetContent(x, row, ' ', nil, r.statusLine)
	}
}
