// Package pipeline implements the one-way conduit that carries simulation
// snapshots to a renderer. It has exactly one producer and one consumer and
// never blocks the producer: when the buffer is full a value is discarded
// according to the configured Policy.
package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// DefaultCapacity is large enough to hold several frames for a few hundred cells.
const DefaultCapacity = 4096

var (
	// ErrSinkClosed is returned by Send once the consumer has gone away.
	ErrSinkClosed = errors.New("render pipeline consumer closed")
	// ErrFull is returned by Send when the value could not be buffered.
	ErrFull = errors.New("render pipeline full")
)

// Policy selects which value is discarded when Send finds the buffer full.
type Policy int

const (
	// DropOldest evicts the oldest buffered value to make room for the new one.
	DropOldest Policy = iota
	// DropNewest discards the value being sent.
	DropNewest
)

func (p Policy) String() string {
	switch p {
	case DropOldest:
		return "drop-oldest"
	case DropNewest:
		return "drop-newest"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy converts a configuration string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop-oldest", "oldest":
		return DropOldest, nil
	case "drop-newest", "newest":
		return DropNewest, nil
	}
	return DropOldest, fmt.Errorf("unknown pipeline policy %q", s)
}

// Pipeline is a bounded FIFO between one producer and one consumer.
type Pipeline[T any] struct {
	ch     chan T
	policy Policy

	gone     chan struct{}
	goneOnce sync.Once
	sealed   atomic.Bool
	sealOnce sync.Once

	sent    atomic.Uint64
	dropped atomic.Uint64
}

// New allocates a pipeline buffering up to capacity values.
func New[T any](capacity int, policy Policy) *Pipeline[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Pipeline[T]{
		ch:     make(chan T, capacity),
		policy: policy,
		gone:   make(chan struct{}),
	}
}

// Send enqueues v without blocking. It returns ErrSinkClosed when the
// consumer has closed its end or the producer has sealed the pipeline, and
// ErrFull when the value itself was discarded.
func (p *Pipeline[T]) Send(v T) error {
	if p.sealed.Load() {
		return ErrSinkClosed
	}
	select {
	case <-p.gone:
		return ErrSinkClosed
	default:
	}

	select {
	case p.ch <- v:
		p.sent.Add(1)
		return nil
	default:
	}

	if p.policy == DropNewest {
		p.dropped.Add(1)
		return ErrFull
	}

	select {
	case <-p.ch:
		p.dropped.Add(1)
	default:
	}
	select {
	case p.ch <- v:
		p.sent.Add(1)
		return nil
	default:
		p.dropped.Add(1)
		return ErrFull
	}
}

// CloseSink is called by the producer when it will send no more values. The
// consumer observes it as a closed channel once the buffer is drained.
func (p *Pipeline[T]) CloseSink() {
	p.sealOnce.Do(func() {
		p.sealed.Store(true)
		close(p.ch)
	})
}

// C exposes the consumer end for blocking receives.
func (p *Pipeline[T]) C() <-chan T { return p.ch }

// Drain returns up to max buffered values without blocking. A max of zero or
// less drains at most one buffer's worth.
func (p *Pipeline[T]) Drain(max int) []T {
	if max <= 0 || max > cap(p.ch) {
		max = cap(p.ch)
	}
	var out []T
	for len(out) < max {
		select {
		case v, ok := <-p.ch:
			if !ok {
				return out
			}
			out = append(out, v)
		default:
			return out
		}
	}
	return out
}

// Close is called by the consumer when it stops reading. Subsequent sends
// become no-ops reporting ErrSinkClosed.
func (p *Pipeline[T]) Close() {
	p.goneOnce.Do(func() {
		close(p.gone)
	})
}

// Closed reports whether the consumer has closed its end.
func (p *Pipeline[T]) Closed() bool {
	select {
	case <-p.gone:
		return true
	default:
		return false
	}
}

// Len returns the number of buffered values.
func (p *Pipeline[T]) Len() int { return len(p.ch) }

// Cap returns the buffer capacity.
func (p *Pipeline[T]) Cap() int { return cap(p.ch) }

// Policy returns the overflow policy.
func (p *Pipeline[T]) Policy() Policy { return p.policy }

// Sent returns the number of values accepted into the buffer.
func (p *Pipeline[T]) Sent() uint64 { return p.sent.Load() }

// Dropped returns the number of values discarded on overflow.
func (p *Pipeline[T]) Dropped() uint64 { return p.dropped.Load() }
