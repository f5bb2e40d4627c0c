package ui

import (
	"math"

	"cello/internal/core"
)

// ParameterProvider is anything the HUD can describe.
type ParameterProvider interface {
	Parameters() core.ParameterSnapshot
}

// Line is one row of the parameter panel.
type Line struct {
	Label  string
	Value  string
	Header bool
}

// Lines flattens a snapshot into panel rows, one header per group.
func Lines(s core.ParameterSnapshot) []Line {
	var out []Line
	for _, g := range s.Groups {
		if len(g.Params) == 0 {
			continue
		}
		out = append(out, Line{Label: g.Name, Header: true})
		for _, p := range g.Params {
			out = append(out, Line{Label: p.Label, Value: p.Value})
		}
	}
	return out
}

// Segment is a line in window coordinates.
type Segment struct {
	X0, Y0, X1, Y1 float64
}

// Arrow returns the shaft and the two barbs of an arrow of the given length
// starting at (x, y) and pointing along heading.
func Arrow(x, y, heading, length float64) [3]Segment {
	const headAngle = math.Pi / 6
	tipX := x + math.Cos(heading)*length
	tipY := y + math.Sin(heading)*length
	head := length * 0.3
	return [3]Segment{
		{x, y, tipX, tipY},
		{tipX, tipY, tipX - math.Cos(heading+headAngle)*head, tipY - math.Sin(heading+headAngle)*head},
		{tipX, tipY, tipX - math.Cos(heading-headAngle)*head, tipY - math.Sin(heading-headAngle)*head},
	}
}
