package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"cello/internal/core"
	"cello/internal/pipeline"

	"github.com/google/uuid"
)

// Sink receives snapshots forwarded by the canvas. Send must not block.
type Sink interface {
	Send(CellInfo) error
}

// HeadingSource draws initial headings for spawned cells.
type HeadingSource interface {
	Heading() float64
}

// HeadingFunc adapts a function to HeadingSource.
type HeadingFunc func() float64

// Heading calls f.
func (f HeadingFunc) Heading() float64 { return f() }

// DeltaMode selects how the per-tick elapsed time is computed.
type DeltaMode int

const (
	// DeltaFixed hands every cell NominalDelta regardless of scheduling jitter.
	DeltaFixed DeltaMode = iota
	// DeltaMeasured hands cells the measured inter-tick time, clamped to MaxDelta.
	DeltaMeasured
)

func (m DeltaMode) String() string {
	if m == DeltaMeasured {
		return "measured"
	}
	return "fixed"
}

// ParseDeltaMode converts a configuration string into a DeltaMode.
func ParseDeltaMode(s string) (DeltaMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fixed":
		return DeltaFixed, nil
	case "measured":
		return DeltaMeasured, nil
	}
	return DeltaFixed, fmt.Errorf("unknown delta mode %q", s)
}

type lifecycle int32

const (
	stateInactive lifecycle = iota
	stateActive
	stateShutdown
)

func (l lifecycle) String() string {
	switch l {
	case stateActive:
		return "active"
	case stateShutdown:
		return "shutdown"
	default:
		return "inactive"
	}
}

// Stats is a point-in-time copy of the canvas counters.
type Stats struct {
	Ticks           int64
	Spawned         int64
	Cells           int64
	CellInfos       int64
	Forwarded       int64
	Dropped         int64
	Evicted         int64
	NumericWarnings int64
}

type counters struct {
	ticks           atomic.Int64
	spawned         atomic.Int64
	cells           atomic.Int64
	cellInfos       atomic.Int64
	forwarded       atomic.Int64
	dropped         atomic.Int64
	evicted         atomic.Int64
	numericWarnings atomic.Int64
}

// Canvas owns the live cells, drives their ticks and forwards their
// snapshots to the render sink. All of its state is confined to the actor
// goroutine started by New; the exported methods talk to it by message.
type Canvas struct {
	size    core.Size
	started time.Time
	cells   []*cellRef
	sink    Sink

	inbox    chan message
	done     chan struct{}
	loopDone chan struct{}
	stopOnce sync.Once

	clock       Clock
	interval    time.Duration
	headings    HeadingSource
	newID       func() (uuid.UUID, error)
	spawnAt     *core.Vec
	mailboxSize int
	inboxSize   int
	maxCells    int
	deltaMode   DeltaMode
	frames      *core.FrameClock
	log         *slog.Logger

	// runCell starts the goroutine for a freshly spawned cell.
	runCell func(*Cell, *cellRef)

	state      atomic.Int32
	sched      *scheduler
	sinkWarned bool
	stats      counters
}

// Option configures a Canvas.
type Option func(*Canvas)

// WithClock replaces the system clock.
func WithClock(clock Clock) Option { return func(c *Canvas) { c.clock = clock } }

// WithInterval overrides StdInterval.
func WithInterval(d time.Duration) Option {
	return func(c *Canvas) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithHeadings injects the randomness source for spawn headings.
func WithHeadings(src HeadingSource) Option { return func(c *Canvas) { c.headings = src } }

// WithIDSource replaces the UUID generator.
func WithIDSource(fn func() (uuid.UUID, error)) Option { return func(c *Canvas) { c.newID = fn } }

// WithSpawnPosition places new cells at p instead of the canvas centre.
func WithSpawnPosition(p core.Vec) Option { return func(c *Canvas) { c.spawnAt = &p } }

// WithMailboxSize sets how many ticks a cell may have queued.
func WithMailboxSize(n int) Option {
	return func(c *Canvas) {
		if n > 0 {
			c.mailboxSize = n
		}
	}
}

// WithInboxSize sets the capacity of the canvas inbox.
func WithInboxSize(n int) Option {
	return func(c *Canvas) {
		if n > 0 {
			c.inboxSize = n
		}
	}
}

// WithMaxCells caps the number of live cells; zero means unlimited.
func WithMaxCells(n int) Option { return func(c *Canvas) { c.maxCells = n } }

// WithDeltaMode selects fixed or measured frame durations.
func WithDeltaMode(m DeltaMode) Option { return func(c *Canvas) { c.deltaMode = m } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Canvas) {
		if l != nil {
			c.log = l
		}
	}
}

// New validates the dimensions, captures the start time and starts the
// canvas actor. The canvas is inactive until Activate is called.
func New(width, height float64, sink Sink, opts ...Option) (*Canvas, error) {
	c, err := newCanvas(width, height, sink, opts...)
	if err != nil {
		return nil, err
	}
	go c.loop()
	return c, nil
}

func newCanvas(width, height float64, sink Sink, opts ...Option) (*Canvas, error) {
	size := core.Size{W: width, H: height}
	if !size.Valid() {
		return nil, fmt.Errorf("canvas %vx%v: dimensions must be positive and finite", width, height)
	}
	if sink == nil {
		return nil, errors.New("canvas: nil render sink")
	}
	c := &Canvas{
		size:        size,
		sink:        sink,
		loopDone:    make(chan struct{}),
		done:        make(chan struct{}),
		clock:       SystemClock{},
		interval:    StdInterval,
		newID:       uuid.NewRandom,
		mailboxSize: 1,
		inboxSize:   1024,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.headings == nil {
		c.headings = core.NewRNG(c.clock.Now().UnixNano())
	}
	c.started = c.clock.Now()
	c.inbox = make(chan message, c.inboxSize)
	c.frames = core.NewFrameClock(c.interval, MaxDelta)
	c.runCell = func(cell *Cell, ref *cellRef) {
		go cell.run(ref, c.handle())
	}
	return c, nil
}

func (c *Canvas) handle() canvasHandle {
	return canvasHandle{inbox: c.inbox, done: c.done}
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() core.Size { return c.size }

// Started returns the wall-clock time captured when the canvas was created.
func (c *Canvas) Started() time.Time { return c.started }

// Active reports whether the tick scheduler is running.
func (c *Canvas) Active() bool { return lifecycle(c.state.Load()) == stateActive }

// Done is closed once the canvas has shut down.
func (c *Canvas) Done() <-chan struct{} { return c.loopDone }

// Stats returns a copy of the canvas counters.
func (c *Canvas) Stats() Stats {
	return Stats{
		Ticks:           c.stats.ticks.Load(),
		Spawned:         c.stats.spawned.Load(),
		Cells:           c.stats.cells.Load(),
		CellInfos:       c.stats.cellInfos.Load(),
		Forwarded:       c.stats.forwarded.Load(),
		Dropped:         c.stats.dropped.Load(),
		Evicted:         c.stats.evicted.Load(),
		NumericWarnings: c.stats.numericWarnings.Load(),
	}
}

// Parameters groups the canvas settings and counters for presentation.
func (c *Canvas) Parameters() core.ParameterSnapshot {
	st := c.Stats()
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{
			Name: "Canvas",
			Params: []core.Parameter{
				core.FloatParam("width", "Width", c.size.W, 0),
				core.FloatParam("height", "Height", c.size.H, 0),
				core.DurationParam("interval", "Tick interval", c.interval),
				core.StringParam("delta_mode", "Delta mode", c.deltaMode.String()),
				core.StringParam("state", "State", lifecycle(c.state.Load()).String()),
				core.DurationParam("uptime", "Uptime", c.clock.Now().Sub(c.started).Truncate(time.Second)),
			},
		},
		{
			Name: "Activity",
			Params: []core.Parameter{
				core.IntParam("cells", "Live cells", st.Cells),
				core.IntParam("spawned", "Spawned", st.Spawned),
				core.IntParam("ticks", "Ticks", st.Ticks),
				core.IntParam("forwarded", "Snapshots sent", st.Forwarded),
				core.IntParam("dropped", "Snapshots dropped", st.Dropped),
				core.IntParam("evicted", "Cells evicted", st.Evicted),
				core.IntParam("numeric_warnings", "Numeric warnings", st.NumericWarnings),
			},
		},
	}}
}

// Spawn creates a cell named name and returns its id.
func (c *Canvas) Spawn(ctx context.Context, name string) (uuid.UUID, error) {
	reply := make(chan spawnReply, 1)
	if err := c.enqueue(ctx, spawnRequest{SpawnNew: SpawnNew{Name: name}, reply: reply}); err != nil {
		return uuid.Nil, err
	}
	select {
	case r := <-reply:
		return r.ID, r.err
	case <-ctx.Done():
		return uuid.Nil, ctx.Err()
	case <-c.loopDone:
		select {
		case r := <-reply:
			return r.ID, r.err
		default:
			return uuid.Nil, fmt.Errorf("spawn %q: canvas shut down: %w", name, ErrInvalidState)
		}
	}
}

// Activate starts the tick scheduler. Activating an active canvas is a no-op.
func (c *Canvas) Activate(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := c.enqueue(ctx, activateRequest{reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.loopDone:
		select {
		case err := <-reply:
			return err
		default:
			return fmt.Errorf("activate: canvas shut down: %w", ErrInvalidState)
		}
	}
}

// Tick enqueues a frame for time now, as the scheduler does on each firing.
func (c *Canvas) Tick(ctx context.Context, now time.Time) error {
	return c.enqueue(ctx, Tick{Time: now})
}

// Stop shuts the canvas down: the scheduler is torn down, ticks already
// queued still run, the render sink is closed and every cell mailbox is
// closed. Stop blocks until the actor has exited and is safe to call twice.
func (c *Canvas) Stop() {
	c.stopOnce.Do(func() {
		select {
		case c.inbox <- shutdownRequest{}:
		case <-c.loopDone:
		}
	})
	<-c.loopDone
}

func (c *Canvas) enqueue(ctx context.Context, m message) error {
	select {
	case <-c.done:
		return fmt.Errorf("canvas shut down: %w", ErrInvalidState)
	default:
	}
	select {
	case c.inbox <- m:
		return nil
	case <-c.done:
		return fmt.Errorf("canvas shut down: %w", ErrInvalidState)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Canvas) loop() {
	defer close(c.loopDone)
	for m := range c.inbox {
		if c.dispatch(m) {
			return
		}
	}
}

// dispatch handles one inbox message and reports whether the actor should exit.
func (c *Canvas) dispatch(m message) bool {
	switch m := m.(type) {
	case spawnRequest:
		id, err := c.spawn(m.Name)
		m.reply <- spawnReply{SpawnSuccess: SpawnSuccess{ID: id}, err: err}
	case activateRequest:
		m.reply <- c.activate()
	case Tick:
		c.tick(m.Time)
	case CellInfoMsg:
		c.ingest(m)
	case shutdownRequest:
		c.shutdown()
		return true
	}
	return false
}

func (c *Canvas) spawn(name string) (uuid.UUID, error) {
	if lifecycle(c.state.Load()) == stateShutdown {
		return uuid.Nil, fmt.Errorf("spawn %q: %w", name, ErrInvalidState)
	}
	if c.maxCells > 0 && len(c.cells) >= c.maxCells {
		return uuid.Nil, fmt.Errorf("spawn %q: canvas holds %d cells: %w", name, len(c.cells), ErrAllocation)
	}
	id, err := c.newID()
	if err != nil {
		return uuid.Nil, fmt.Errorf("spawn %q: %w: %w", name, ErrAllocation, err)
	}

	pos := c.size.Center()
	if c.spawnAt != nil {
		pos = *c.spawnAt
	}
	cell, err := NewCell(id, name, pos, c.headings.Heading(), InitSize)
	if err != nil {
		return uuid.Nil, fmt.Errorf("spawn %q: %w: %w", name, ErrAllocation, err)
	}

	ref := newCellRef(id, c.mailboxSize)
	c.runCell(cell, ref)
	c.cells = append(c.cells, ref)
	c.stats.spawned.Add(1)
	c.stats.cells.Store(int64(len(c.cells)))
	c.log.Debug("cell spawned", "cell", id, "name", name, "heading", cell.heading)
	return id, nil
}

func (c *Canvas) activate() error {
	switch lifecycle(c.state.Load()) {
	case stateShutdown:
		return fmt.Errorf("activate: %w", ErrInvalidState)
	case stateActive:
		c.log.Debug("canvas already active")
		return nil
	}
	c.sched = startScheduler(c.clock, c.interval, c.inbox)
	c.state.Store(int32(stateActive))
	c.log.Info("canvas activated", "interval", c.interval, "cells", len(c.cells))
	return nil
}

// tick fans a CellTick out to every live cell in insertion order and keeps
// only the cells that accepted it.
func (c *Canvas) tick(now time.Time) {
	c.stats.ticks.Add(1)
	delta := NominalDelta
	if c.deltaMode == DeltaMeasured {
		delta = c.frames.Delta(now)
	}
	msg := CellTick{Time: now, Delta: delta}

	kept := c.cells[:0]
	for _, ref := range c.cells {
		if !ref.connected() {
			c.evict(ref, "disconnected")
			continue
		}
		if !ref.deliver(msg) {
			c.evict(ref, ErrDeliveryDropped.Error())
			continue
		}
		kept = append(kept, ref)
	}
	for i := len(kept); i < len(c.cells); i++ {
		c.cells[i] = nil
	}
	c.cells = kept
	c.stats.cells.Store(int64(len(kept)))
}

func (c *Canvas) evict(ref *cellRef, reason string) {
	close(ref.inbox)
	c.stats.evicted.Add(1)
	c.log.Debug("cell evicted", "cell", ref.id, "reason", reason)
}

// ingest forwards a cell snapshot to the render sink. A closed sink is
// reported once and otherwise ignored.
func (c *Canvas) ingest(m CellInfoMsg) {
	c.stats.cellInfos.Add(1)
	if m.Err != nil {
		c.stats.numericWarnings.Add(1)
		c.log.Warn("cell not moved", "cell", m.Info.ID, "err", m.Err)
	}

	if err := c.sink.Send(m.Info); err != nil {
		c.stats.dropped.Add(1)
		if errors.Is(err, pipeline.ErrSinkClosed) && !c.sinkWarned {
			c.sinkWarned = true
			c.log.Warn("render sink closed, dropping snapshots")
		}
		return
	}
	c.stats.forwarded.Add(1)
}

// refuse handles a message that arrives once the canvas is shutting down.
// Snapshots are still forwarded; late ticks are ignored.
func (c *Canvas) refuse(m message) {
	switch m := m.(type) {
	case CellInfoMsg:
		c.ingest(m)
	case spawnRequest:
		m.reply <- spawnReply{err: fmt.Errorf("spawn %q: %w", m.Name, ErrInvalidState)}
	case activateRequest:
		m.reply <- fmt.Errorf("activate: %w", ErrInvalidState)
	}
}

func (c *Canvas) shutdown() {
	if c.sched != nil {
		c.sched.stop()
		c.sched = nil
	}

	// Ticks enqueued before teardown still run. Requests that raced the
	// shutdown are answered with ErrInvalidState.
	c.state.Store(int32(stateShutdown))
	for pending := true; pending; {
		select {
		case m := <-c.inbox:
			if t, ok := m.(Tick); ok {
				c.tick(t.Time)
				continue
			}
			c.refuse(m)
		default:
			pending = false
		}
	}

	// Close the mailboxes and keep ingesting until every cell has reported
	// the ticks it already holds.
	for _, ref := range c.cells {
		close(ref.inbox)
	}
	for _, ref := range c.cells {
		for waiting := true; waiting; {
			select {
			case <-ref.done:
				waiting = false
			case m := <-c.inbox:
				c.refuse(m)
			}
		}
	}
	for pending := true; pending; {
		select {
		case m := <-c.inbox:
			c.refuse(m)
		default:
			pending = false
		}
	}

	close(c.done)
	c.cells = nil
	c.stats.cells.Store(0)
	if closer, ok := c.sink.(interface{ CloseSink() }); ok {
		closer.CloseSink()
	}
	c.log.Info("canvas shut down", "ticks", c.stats.ticks.Load())
}
