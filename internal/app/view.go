package app

import (
	"cello/internal/core"
	"cello/internal/projection"
)

// HelpText lists the interactive keys.
const HelpText = "Q quit  SPC pause  N spawn  R reset  H heads"

// viewSize returns the pixel size of the canvas view for a window windowW
// pixels wide. The height keeps the canvas aspect ratio.
func viewSize(windowW int, canvas core.Size) (int, int) {
	if windowW <= 0 || !canvas.Valid() {
		return 0, 0
	}
	h := int(float64(windowW) * canvas.H / canvas.W)
	if h < 1 {
		h = 1
	}
	return windowW, h
}

// viewParameters describes the renderer side of the window.
func viewParameters(frame projection.Frame, paused bool, spawned int) core.ParameterGroup {
	state := "live"
	if paused {
		state = "paused"
	}
	return core.ParameterGroup{
		Name: "View",
		Params: []core.Parameter{
			core.StringParam("view", "View", state),
			core.IntParam("frame", "Frame", int64(frame.Seq)),
			core.IntParam("visible", "Visible cells", int64(len(frame.Cells))),
			core.IntParam("user_spawned", "Spawned here", int64(spawned)),
		},
	}
}
