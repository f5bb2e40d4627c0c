package drift

import (
	"context"
	"math"
	"testing"

	"cello/internal/config"
)

func TestRunSingleCellDriftsAtExpectedSpeed(t *testing.T) {
	cfg := config.Default()
	res, err := Run(context.Background(), cfg, 7, 30)
	if err != nil {
		t.Fatal(err)
	}
	if res.Cells != 1 {
		t.Fatalf("expected one cell, got %d", res.Cells)
	}
	// One second of motion at 10000/707 units per second.
	if math.Abs(res.MeanDist-14.1443) > 1e-3 {
		t.Fatalf("mean distance %.6f, want about 14.1443", res.MeanDist)
	}
	if math.Abs(res.MeanDist-res.Expected) > 1e-9 {
		t.Fatalf("distance %.9f differs from expected %.9f", res.MeanDist, res.Expected)
	}
	if res.Dropped != 0 || res.Evicted != 0 {
		t.Fatalf("unexpected losses: dropped=%d evicted=%d", res.Dropped, res.Evicted)
	}
}

func TestSweepOrdersBySeed(t *testing.T) {
	cfg := config.Default()
	cfg.Scenario = "swarm"
	cfg.SwarmSize = 4

	results, err := Sweep(context.Background(), cfg, []int64{9, 3, 5}, 5, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 || results[0].Seed != 3 || results[2].Seed != 9 {
		t.Fatalf("unexpected order: %+v", results)
	}
	for _, r := range results {
		if r.Cells != 4 {
			t.Fatalf("seed %d: %d cells", r.Seed, r.Cells)
		}
		if math.Abs(r.MaxDist-r.Expected) > 1e-6 {
			t.Fatalf("seed %d: every cell should travel %.6f, max was %.6f", r.Seed, r.Expected, r.MaxDist)
		}
	}
}

func TestSeedsSkipsZero(t *testing.T) {
	got := Seeds(-1, 3)
	if len(got) != 3 || got[0] != -1 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("Seeds(-1, 3) = %v", got)
	}
}
