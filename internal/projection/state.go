// Package projection folds the snapshot stream coming out of the render
// pipeline into the latest known state of every cell.
package projection

import (
	"bytes"
	"slices"
	"time"

	"cello/internal/sim"

	"github.com/google/uuid"
)

// Source is the consumer end of a render pipeline.
type Source interface {
	Drain(max int) []sim.CellInfo
}

// Frame is an immutable copy of the projection, ready to draw or publish.
type Frame struct {
	Seq    uint64
	Width  float64
	Height float64
	Cells  []sim.CellInfo
}

// State maps cell ids to their most recently ingested snapshot. It is not
// safe for concurrent use; one renderer goroutine owns it.
type State struct {
	Width  float64
	Height float64
	cells  map[uuid.UUID]sim.CellInfo
}

// New returns an empty projection of a width x height canvas.
func New(width, height float64) *State {
	return &State{Width: width, Height: height, cells: map[uuid.UUID]sim.CellInfo{}}
}

// Ingest stores info, replacing any earlier snapshot with the same id.
func (s *State) Ingest(info sim.CellInfo) {
	s.cells[info.ID] = info
}

// Fold ingests infos in order.
func (s *State) Fold(infos ...sim.CellInfo) {
	for _, info := range infos {
		s.Ingest(info)
	}
}

// DrainFrom folds everything currently buffered in src and returns the
// number of snapshots consumed.
func (s *State) DrainFrom(src Source) int {
	infos := src.Drain(0)
	s.Fold(infos...)
	return len(infos)
}

// Get returns the snapshot stored for id.
func (s *State) Get(id uuid.UUID) (sim.CellInfo, bool) {
	info, ok := s.cells[id]
	return info, ok
}

// Remove drops id from the projection and reports whether it was present.
func (s *State) Remove(id uuid.UUID) bool {
	_, ok := s.cells[id]
	delete(s.cells, id)
	return ok
}

// EvictBefore drops every cell whose latest snapshot was produced before t
// and returns how many were removed.
func (s *State) EvictBefore(t time.Time) int {
	n := 0
	for id, info := range s.cells {
		if info.At.Before(t) {
			delete(s.cells, id)
			n++
		}
	}
	return n
}

// Reset forgets every cell.
func (s *State) Reset() {
	clear(s.cells)
}

// Len returns the number of cells in the projection.
func (s *State) Len() int { return len(s.cells) }

// Cells returns the snapshots ordered by id so drawing order is stable.
func (s *State) Cells() []sim.CellInfo {
	out := make([]sim.CellInfo, 0, len(s.cells))
	for _, info := range s.cells {
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b sim.CellInfo) int {
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return out
}

// Frame copies the projection into a Frame tagged with seq.
func (s *State) Frame(seq uint64) Frame {
	return Frame{Seq: seq, Width: s.Width, Height: s.Height, Cells: s.Cells()}
}
