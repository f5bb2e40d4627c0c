package sim

import (
	"fmt"
	"math"
	"time"

	"cello/internal/core"

	"github.com/google/uuid"
)

// Cell is one simulated circular entity. Its state is only touched by the
// goroutine that owns it.
type Cell struct {
	id      uuid.UUID
	name    string
	pos     core.Vec
	heading float64
	size    int
}

// NewCell constructs a cell. Size must be positive; position and heading are
// accepted as given and validated on every Tick.
func NewCell(id uuid.UUID, name string, pos core.Vec, heading float64, size int) (*Cell, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cell size %d must be positive: %w", size, ErrNumericDomain)
	}
	return &Cell{id: id, name: name, pos: pos, heading: heading, size: size}, nil
}

// ID returns the cell identity.
func (c *Cell) ID() uuid.UUID { return c.id }

// Position returns the current position.
func (c *Cell) Position() core.Vec { return c.pos }

// Velocity returns the displacement per second of a cell with the given
// heading and size. Heavier cells drift more slowly.
func Velocity(heading float64, size int) core.Vec {
	mx := math.Cos(heading) * EnergyFactor
	my := math.Sin(heading) * EnergyFactor
	s := float64(size)
	return core.Vec{X: mx / s, Y: my / s}
}

// Tick advances the cell by delta seconds and returns the resulting snapshot.
// Invalid inputs leave the position unchanged and return ErrNumericDomain
// alongside the unchanged snapshot.
func (c *Cell) Tick(delta float64, now time.Time) (CellInfo, error) {
	if !core.Finite(delta) || delta < 0 {
		return c.Info(now), fmt.Errorf("cell %s: delta %v: %w", c.id, delta, ErrNumericDomain)
	}
	if !core.Finite(c.heading) || !c.pos.IsFinite() {
		return c.Info(now), fmt.Errorf("cell %s: heading %v position %v: %w", c.id, c.heading, c.pos, ErrNumericDomain)
	}

	v := Velocity(c.heading, c.size)
	next := core.Vec{X: c.pos.X + v.X*delta, Y: c.pos.Y + v.Y*delta}
	if !next.IsFinite() {
		return c.Info(now), fmt.Errorf("cell %s: position overflow: %w", c.id, ErrNumericDomain)
	}
	c.pos = next
	return c.Info(now), nil
}

// Info returns the current snapshot stamped with now.
func (c *Cell) Info(now time.Time) CellInfo {
	return CellInfo{
		ID:            c.id,
		Name:          c.name,
		Position:      c.pos,
		DirectionRads: c.heading,
		Size:          c.size,
		At:            now,
	}
}

// cellRef is the canvas side address of a running cell.
type cellRef struct {
	id    uuid.UUID
	inbox chan CellTick
	// done is closed when the cell goroutine exits.
	done chan struct{}
}

func newCellRef(id uuid.UUID, mailbox int) *cellRef {
	return &cellRef{
		id:    id,
		inbox: make(chan CellTick, mailbox),
		done:  make(chan struct{}),
	}
}

// deliver performs a try-send so a slow cell can never stall the frame.
func (r *cellRef) deliver(t CellTick) bool {
	select {
	case r.inbox <- t:
		return true
	default:
		return false
	}
}

func (r *cellRef) connected() bool {
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

// canvasHandle is the back-reference a cell uses to report snapshots. It
// does not keep the canvas alive: once the canvas is done sends are dropped.
type canvasHandle struct {
	inbox chan<- message
	done  <-chan struct{}
}

func (h canvasHandle) send(m message) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.inbox <- m:
		return true
	case <-h.done:
		return false
	}
}

// run processes ticks until the mailbox is closed and drained. Exactly one
// CellInfoMsg is reported per tick consumed.
func (c *Cell) run(ref *cellRef, parent canvasHandle) {
	defer close(ref.done)
	for t := range ref.inbox {
		info, err := c.Tick(t.Delta, t.Time)
		parent.send(CellInfoMsg{Info: info, Err: err})
	}
}
