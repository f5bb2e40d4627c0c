// Package boot wires a canvas, its render pipeline and a projection viewer
// together from a resolved configuration.
package boot

import (
	"context"
	"fmt"
	"log/slog"

	"cello/internal/config"
	"cello/internal/core"
	"cello/internal/pipeline"
	"cello/internal/projection"
	"cello/internal/scenario"
	"cello/internal/sim"

	"github.com/google/uuid"
)

// System is a running simulation plus the consumer side of its pipeline.
type System struct {
	Config   config.Config
	Canvas   *sim.Canvas
	Pipeline *pipeline.Pipeline[sim.CellInfo]
	Viewer   *projection.Viewer
	Log      *slog.Logger
	Seed     int64
	Cells    []uuid.UUID
}

type options struct {
	clock    sim.Clock
	log      *slog.Logger
	inactive bool
	extra    []sim.Option
}

// Option customises Start.
type Option func(*options)

// WithClock drives the canvas from clock instead of the system clock.
func WithClock(clock sim.Clock) Option { return func(o *options) { o.clock = clock } }

// WithLogger sets the logger handed to the canvas.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.log = l } }

// Inactive leaves the canvas inactive after the scenario has been spawned.
func Inactive() Option { return func(o *options) { o.inactive = true } }

// WithCanvasOptions appends raw canvas options after the configured ones.
func WithCanvasOptions(opts ...sim.Option) Option {
	return func(o *options) { o.extra = append(o.extra, opts...) }
}

// Start builds the pipeline and canvas described by cfg, populates it with
// the configured scenario and activates it.
func Start(ctx context.Context, cfg config.Config, opts ...Option) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{clock: sim.SystemClock{}, log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = o.clock.Now().UnixNano()
	}
	sc, err := scenario.Lookup(cfg.Scenario, cfg)
	if err != nil {
		return nil, err
	}

	pipe := pipeline.New[sim.CellInfo](cfg.PipelineCapacity, cfg.Policy())
	canvasOpts := append([]sim.Option{
		sim.WithClock(o.clock),
		sim.WithInterval(cfg.TickInterval),
		sim.WithHeadings(core.NewRNG(seed)),
		sim.WithMailboxSize(cfg.MailboxSize),
		sim.WithInboxSize(cfg.InboxSize),
		sim.WithMaxCells(cfg.MaxCells),
		sim.WithDeltaMode(cfg.Delta()),
		sim.WithLogger(o.log),
	}, o.extra...)
	canvas, err := sim.New(cfg.Width, cfg.Height, pipe, canvasOpts...)
	if err != nil {
		return nil, err
	}

	s := &System{
		Config:   cfg,
		Canvas:   canvas,
		Pipeline: pipe,
		Viewer:   projection.NewViewer(projection.New(cfg.Width, cfg.Height), pipe, cfg.ProjectionTTL),
		Log:      o.log,
		Seed:     seed,
	}
	s.Cells, err = sc.Populate(ctx, canvas)
	if err != nil {
		s.Stop()
		return nil, fmt.Errorf("scenario %s: %w", sc.Name(), err)
	}
	o.log.Info("canvas ready", "scenario", sc.Name(), "cells", len(s.Cells),
		"width", cfg.Width, "height", cfg.Height, "seed", seed)

	if o.inactive {
		return s, nil
	}
	if err := canvas.Activate(ctx); err != nil {
		s.Stop()
		return nil, err
	}
	return s, nil
}

// Spawn adds a cell to the running canvas.
func (s *System) Spawn(ctx context.Context, name string) (uuid.UUID, error) {
	id, err := s.Canvas.Spawn(ctx, name)
	if err != nil {
		return uuid.Nil, err
	}
	s.Log.Debug("spawned", "name", name, "id", id)
	return id, nil
}

// Stop shuts the canvas down and releases the pipeline.
func (s *System) Stop() {
	s.Canvas.Stop()
	s.Pipeline.Close()
	st := s.Canvas.Stats()
	s.Log.Info("canvas stopped", "ticks", st.Ticks, "forwarded", st.Forwarded,
		"sink_dropped", st.Dropped, "pipeline_dropped", s.Pipeline.Dropped(), "evicted", st.Evicted)
}
