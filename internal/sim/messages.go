package sim

import (
	"time"

	"cello/internal/core"

	"github.com/google/uuid"
)

const (
	// InitSize is the area of a freshly spawned cell, roughly a 30 unit diameter.
	InitSize = 707
	// StdInterval is the nominal period between canvas ticks (30 Hz).
	StdInterval = 33_333_333 * time.Nanosecond
	// EnergyFactor converts a unit heading into momentum.
	EnergyFactor = 10000.0
	// NominalDelta is the fixed frame duration, in seconds, handed to cells.
	NominalDelta = 1.0 / 30
	// MaxDelta caps a measured frame duration after a stall.
	MaxDelta = 100 * time.Millisecond
)

// CellInfo is an immutable snapshot of one cell at one tick.
type CellInfo struct {
	ID            uuid.UUID
	Name          string
	Position      core.Vec
	DirectionRads float64
	Size          int
	At            time.Time
}

// SpawnNew asks the canvas to create a cell.
type SpawnNew struct {
	Name string
}

// SpawnSuccess is the reply to SpawnNew.
type SpawnSuccess struct {
	ID uuid.UUID
}

// ActivateCanvas starts the canvas tick scheduler.
type ActivateCanvas struct{}

// Tick is the canvas-wide frame event.
type Tick struct {
	Time time.Time
}

// CellTick is the per-cell update derived from a Tick.
type CellTick struct {
	Time  time.Time
	Delta float64
}

// CellInfoMsg carries a snapshot from a cell back to its canvas. Err is set
// when the cell could not integrate the tick.
type CellInfoMsg struct {
	Info CellInfo
	Err  error
}

// message is anything the canvas inbox accepts.
type message interface {
	canvasMessage()
}

type spawnReply struct {
	SpawnSuccess
	err error
}

type spawnRequest struct {
	SpawnNew
	reply chan<- spawnReply
}

type activateRequest struct {
	ActivateCanvas
	reply chan<- error
}

type shutdownRequest struct{}

func (spawnRequest) canvasMessage()    {}
func (activateRequest) canvasMessage() {}
func (shutdownRequest) canvasMessage() {}
func (Tick) canvasMessage()            {}
func (CellInfoMsg) canvasMessage()     {}
