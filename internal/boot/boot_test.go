package boot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"cello/internal/config"
	"cello/internal/scenario"
	"cello/internal/sim"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStartRunsScenarioAndTicks(t *testing.T) {
	cfg := config.Default()
	cfg.Seed = 42
	clock := sim.NewManualClock(time.Unix(0, 0))

	s, err := Start(context.Background(), cfg, WithClock(clock), WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Stop)

	if len(s.Cells) != 1 {
		t.Fatalf("expected one spawned cell, got %d", len(s.Cells))
	}
	if !s.Canvas.Active() {
		t.Fatal("canvas should be active")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		clock.Advance(cfg.TickInterval)
		frame := s.Viewer.Refresh(clock.Now())
		if len(frame.Cells) == 1 {
			got := frame.Cells[0]
			if got.ID != s.Cells[0] || got.Name != scenario.DefaultName {
				t.Fatalf("unexpected cell %+v", got)
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no snapshot reached the viewer")
}

func TestStartInactive(t *testing.T) {
	cfg := config.Default()
	cfg.Scenario = "swarm"
	cfg.SwarmSize = 5

	s, err := Start(context.Background(), cfg, Inactive(), WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	if s.Canvas.Active() {
		t.Fatal("canvas should stay inactive")
	}
	if got := s.Canvas.Stats().Cells; got != 5 {
		t.Fatalf("expected 5 cells, got %d", got)
	}
}

func TestStartRejectsUnknownScenario(t *testing.T) {
	cfg := config.Default()
	cfg.Scenario = "volcano"
	if _, err := Start(context.Background(), cfg, WithLogger(quietLogger())); !errors.Is(err, scenario.ErrUnknown) {
		t.Fatalf("expected ErrUnknown, got %v", err)
	}
}

func TestStartStopsCanvasWhenScenarioFails(t *testing.T) {
	cfg := config.Default()
	cfg.Scenario = "swarm"
	cfg.SwarmSize = 3
	cfg.MaxCells = 2

	_, err := Start(context.Background(), cfg, WithLogger(quietLogger()))
	if !errors.Is(err, sim.ErrAllocation) {
		t.Fatalf("expected ErrAllocation, got %v", err)
	}
}
