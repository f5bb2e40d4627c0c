package web

import (
	"time"

	"cello/internal/core"
	"cello/internal/projection"
	"cello/internal/render"
	"cello/internal/sim"
)

// CellDTO is one cell as sent to browsers, in canvas units.
type CellDTO struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	X       float64   `json:"x"`
	Y       float64   `json:"y"`
	Heading float64   `json:"heading"`
	Size    int       `json:"size"`
	Radius  float64   `json:"radius"`
	At      time.Time `json:"at"`
}

// FrameDTO is a projection frame as sent to browsers.
type FrameDTO struct {
	Seq    uint64    `json:"seq"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Cells  []CellDTO `json:"cells"`
}

// NewFrameDTO converts a projection frame.
func NewFrameDTO(f projection.Frame) FrameDTO {
	out := FrameDTO{Seq: f.Seq, Width: f.Width, Height: f.Height, Cells: make([]CellDTO, 0, len(f.Cells))}
	for _, c := range f.Cells {
		out.Cells = append(out.Cells, CellDTO{
			ID:      c.ID.String(),
			Name:    c.Name,
			X:       c.Position.X,
			Y:       c.Position.Y,
			Heading: c.DirectionRads,
			Size:    c.Size,
			Radius:  render.Radius(c.Size),
			At:      c.At,
		})
	}
	return out
}

// ParamDTO is one presentation parameter.
type ParamDTO struct {
	Group string `json:"group"`
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// StatsDTO reports the canvas counters and parameters.
type StatsDTO struct {
	Ticks           int64      `json:"ticks"`
	Spawned         int64      `json:"spawned"`
	Cells           int64      `json:"cells"`
	CellInfos       int64      `json:"cell_infos"`
	Forwarded       int64      `json:"forwarded"`
	Dropped         int64      `json:"dropped"`
	Evicted         int64      `json:"evicted"`
	NumericWarnings int64      `json:"numeric_warnings"`
	Parameters      []ParamDTO `json:"parameters"`
}

// NewStatsDTO converts canvas counters and parameters.
func NewStatsDTO(st sim.Stats, snap core.ParameterSnapshot) StatsDTO {
	out := StatsDTO{
		Ticks:           st.Ticks,
		Spawned:         st.Spawned,
		Cells:           st.Cells,
		CellInfos:       st.CellInfos,
		Forwarded:       st.Forwarded,
		Dropped:         st.Dropped,
		Evicted:         st.Evicted,
		NumericWarnings: st.NumericWarnings,
	}
	for _, g := range snap.Groups {
		for _, p := range g.Params {
			out.Parameters = append(out.Parameters, ParamDTO{Group: g.Name, Key: p.Key, Label: p.Label, Value: p.Value})
		}
	}
	return out
}

// SpawnRequest is the body of POST /api/spawn.
type SpawnRequest struct {
	Name string `json:"name"`
}

// SpawnResponse answers a successful spawn.
type SpawnResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ErrorResponse carries a failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}
