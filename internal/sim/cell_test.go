package sim

import (
	"errors"
	"math"
	"testing"
	"time"

	"cello/internal/core"

	"github.com/google/uuid"
)

func mustCell(t *testing.T, pos core.Vec, heading float64, size int) *Cell {
	t.Helper()
	c, err := NewCell(uuid.New(), "test", pos, heading, size)
	if err != nil {
		t.Fatalf("NewCell: %v", err)
	}
	return c
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCellAxisMotion(t *testing.T) {
	speed := EnergyFactor / InitSize
	cases := []struct {
		name    string
		heading float64
		dx, dy  float64
	}{
		{"east", 0, speed, 0},
		{"south", math.Pi / 2, 0, speed},
		{"west", math.Pi, -speed, 0},
		{"north", 3 * math.Pi / 2, 0, -speed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := mustCell(t, core.Vec{X: 100, Y: 200}, tc.heading, InitSize)
			info, err := c.Tick(1, time.Time{})
			if err != nil {
				t.Fatalf("Tick: %v", err)
			}
			if !near(info.Position.X, 100+tc.dx) || !near(info.Position.Y, 200+tc.dy) {
				t.Fatalf("position %+v, expected (%f, %f)", info.Position, 100+tc.dx, 200+tc.dy)
			}
		})
	}
}

func TestCellYAxisUsesOwnOrigin(t *testing.T) {
	c := mustCell(t, core.Vec{X: 10, Y: 500}, math.Pi/2, InitSize)
	info, err := c.Tick(NominalDelta, time.Time{})
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	wantY := 500 + EnergyFactor/InitSize*NominalDelta
	if !near(info.Position.Y, wantY) {
		t.Fatalf("y = %f, expected %f", info.Position.Y, wantY)
	}
	if !near(info.Position.X, 10) {
		t.Fatalf("x = %f, expected 10", info.Position.X)
	}
}

func TestCellDriftAfterNTicks(t *testing.T) {
	const n = 90
	heading := 0.7
	start := core.Vec{X: 1000, Y: 1000}
	c := mustCell(t, start, heading, InitSize)
	id := c.ID()

	var info CellInfo
	for i := 0; i < n; i++ {
		var err error
		if info, err = c.Tick(NominalDelta, time.Time{}); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}

	if info.ID != id || info.DirectionRads != heading || info.Size != InitSize {
		t.Fatalf("identity fields changed: %+v", info)
	}
	wantX := start.X + n*NominalDelta*math.Cos(heading)*EnergyFactor/InitSize
	wantY := start.Y + n*NominalDelta*math.Sin(heading)*EnergyFactor/InitSize
	if math.Abs(info.Position.X-wantX) > 1e-6 || math.Abs(info.Position.Y-wantY) > 1e-6 {
		t.Fatalf("position %+v, expected (%f, %f)", info.Position, wantX, wantY)
	}
}

func TestCellZeroDeltaIsNoop(t *testing.T) {
	c := mustCell(t, core.Vec{X: 3, Y: 4}, 1.2, InitSize)
	info, err := c.Tick(0, time.Time{})
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if info.Position != (core.Vec{X: 3, Y: 4}) {
		t.Fatalf("position moved to %+v", info.Position)
	}
}

func TestHeavierCellsAreSlower(t *testing.T) {
	light := Velocity(0, 100)
	heavy := Velocity(0, 10000)
	if heavy.X >= light.X {
		t.Fatalf("heavy vx %f not slower than light vx %f", heavy.X, light.X)
	}
}

func TestCellRejectsNonFiniteInputs(t *testing.T) {
	cases := []struct {
		name    string
		pos     core.Vec
		heading float64
		delta   float64
	}{
		{"nan heading", core.Vec{X: 1, Y: 1}, math.NaN(), NominalDelta},
		{"inf heading", core.Vec{X: 1, Y: 1}, math.Inf(1), NominalDelta},
		{"nan delta", core.Vec{X: 1, Y: 1}, 0, math.NaN()},
		{"inf delta", core.Vec{X: 1, Y: 1}, 0, math.Inf(1)},
		{"negative delta", core.Vec{X: 1, Y: 1}, 0, -1},
		{"nan position", core.Vec{X: math.NaN(), Y: 1}, 0, NominalDelta},
		{"overflow", core.Vec{X: math.MaxFloat64, Y: 1}, 0, math.MaxFloat64},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := mustCell(t, tc.pos, tc.heading, InitSize)
			before := c.Position()
			info, err := c.Tick(tc.delta, time.Time{})
			if !errors.Is(err, ErrNumericDomain) {
				t.Fatalf("err = %v, expected ErrNumericDomain", err)
			}
			after := c.Position()
			if math.IsNaN(before.X) {
				if !math.IsNaN(after.X) {
					t.Fatalf("position changed from %+v to %+v", before, after)
				}
				return
			}
			if after != before || info.Position != before {
				t.Fatalf("position changed from %+v to %+v", before, after)
			}
		})
	}
}

func TestNewCellRejectsNonPositiveSize(t *testing.T) {
	if _, err := NewCell(uuid.New(), "x", core.Vec{}, 0, 0); err == nil {
		t.Fatal("expected error for zero size")
	}
}
