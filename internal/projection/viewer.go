package projection

import (
	"context"
	"sync/atomic"
	"time"

	channerics "github.com/niceyeti/channerics/channels"
)

// Viewer owns a State on its own goroutine, keeps it current from a
// pipeline and publishes a Frame after every refresh. Readers on other
// goroutines only ever see published frames.
type Viewer struct {
	state  *State
	src    Source
	ttl    time.Duration
	seq    uint64
	latest atomic.Pointer[Frame]
	resets chan struct{}
}

// NewViewer wraps state. A positive ttl evicts cells whose latest snapshot is
// older than ttl at refresh time.
func NewViewer(state *State, src Source, ttl time.Duration) *Viewer {
	v := &Viewer{state: state, src: src, ttl: ttl, resets: make(chan struct{}, 1)}
	empty := state.Frame(0)
	v.latest.Store(&empty)
	return v
}

// Run refreshes the projection every interval until ctx is cancelled.
func (v *Viewer) Run(ctx context.Context, interval time.Duration) error {
	for range channerics.NewTicker(ctx.Done(), interval) {
		v.Refresh(time.Now())
	}
	return nil
}

// Refresh applies a pending reset, drains the source, evicts stale cells and
// publishes a new frame. It must only be called from the owning goroutine.
func (v *Viewer) Refresh(now time.Time) Frame {
	select {
	case <-v.resets:
		v.state.Reset()
	default:
	}
	v.state.DrainFrom(v.src)
	if v.ttl > 0 {
		v.state.EvictBefore(now.Add(-v.ttl))
	}
	v.seq++
	frame := v.state.Frame(v.seq)
	v.latest.Store(&frame)
	return frame
}

// Frame returns the most recently published frame. Safe for concurrent use.
func (v *Viewer) Frame() Frame {
	return *v.latest.Load()
}

// Reset asks the owning goroutine to clear the projection on its next refresh.
func (v *Viewer) Reset() {
	select {
	case v.resets <- struct{}{}:
	default:
	}
}
