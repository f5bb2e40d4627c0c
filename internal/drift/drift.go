// Package drift runs canvases headless on a manual clock and measures how
// far their cells travel.
package drift

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"time"

	"cello/internal/boot"
	"cello/internal/config"
	"cello/internal/sim"

	"golang.org/x/sync/errgroup"
)

// settleTimeout bounds the wait for one tick's snapshots to arrive.
const settleTimeout = 5 * time.Second

// ErrStalled is returned when the canvas stops producing snapshots.
var ErrStalled = errors.New("canvas stalled")

// Result summarises one seeded run.
type Result struct {
	Seed        int64
	Cells       int
	Ticks       int
	MeanDist    float64
	MaxDist     float64
	Expected    float64
	Dropped     uint64
	Evicted     int64
	FinalFrame  uint64
	MeanHeading float64
}

// Run boots cfg with seed on a manual clock, fires ticks scheduler periods
// and waits after each for every cell to report.
func Run(ctx context.Context, cfg config.Config, seed int64, ticks int) (Result, error) {
	cfg.Seed = seed
	cfg.DeltaMode = "fixed"
	clock := sim.NewManualClock(time.Unix(0, 0))

	sys, err := boot.Start(ctx, cfg, boot.WithClock(clock), boot.WithLogger(quiet()))
	if err != nil {
		return Result{}, err
	}
	defer sys.Stop()

	cells := int64(len(sys.Cells))
	for i := 1; i <= ticks; i++ {
		clock.Advance(cfg.TickInterval)
		if err := settle(ctx, sys.Canvas, int64(i)*cells); err != nil {
			return Result{}, fmt.Errorf("seed %d tick %d: %w", seed, i, err)
		}
	}

	frame := sys.Viewer.Refresh(clock.Now())
	centre := sys.Canvas.Size().Center()
	res := Result{
		Seed:       seed,
		Cells:      len(frame.Cells),
		Ticks:      ticks,
		Expected:   sim.EnergyFactor / sim.InitSize * sim.NominalDelta * float64(ticks),
		Dropped:    sys.Pipeline.Dropped(),
		Evicted:    sys.Canvas.Stats().Evicted,
		FinalFrame: frame.Seq,
	}
	var sinSum, cosSum float64
	for _, c := range frame.Cells {
		d := math.Hypot(c.Position.X-centre.X, c.Position.Y-centre.Y)
		res.MeanDist += d
		res.MaxDist = math.Max(res.MaxDist, d)
		sinSum += math.Sin(c.DirectionRads)
		cosSum += math.Cos(c.DirectionRads)
	}
	if n := len(frame.Cells); n > 0 {
		res.MeanDist /= float64(n)
		res.MeanHeading = math.Atan2(sinSum, cosSum)
	}
	return res, nil
}

// settle waits until the canvas has seen want snapshots.
func settle(ctx context.Context, canvas *sim.Canvas, want int64) error {
	deadline := time.Now().Add(settleTimeout)
	for canvas.Stats().CellInfos < want {
		if err := ctx.Err(); err != nil {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %d of %d snapshots", ErrStalled, canvas.Stats().CellInfos, want)
		}
		time.Sleep(50 * time.Microsecond)
	}
	return nil
}

// Sweep runs every seed on up to workers goroutines and returns the results
// ordered by seed.
func Sweep(ctx context.Context, cfg config.Config, seeds []int64, ticks, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = 1
	}
	results := make([]Result, len(seeds))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i, seed := range seeds {
		group.Go(func() error {
			res, err := Run(groupCtx, cfg, seed, ticks)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Seed < results[j].Seed })
	return results, nil
}

// Seeds returns n consecutive seeds starting at first. Zero is skipped since
// it asks for a time based seed.
func Seeds(first int64, n int) []int64 {
	out := make([]int64, 0, n)
	for s := first; len(out) < n; s++ {
		if s != 0 {
			out = append(out, s)
		}
	}
	return out
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
