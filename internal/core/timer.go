package core

import "time"

// FrameClock measures the elapsed time between consecutive simulation ticks
// and clamps it so a stalled process does not teleport entities on resume.
type FrameClock struct {
	nominal time.Duration
	max     time.Duration
	last    time.Time
}

// NewFrameClock constructs a FrameClock. The first call to Delta returns the
// nominal step; later calls return the measured interval capped at max.
func NewFrameClock(nominal, max time.Duration) *FrameClock {
	if nominal <= 0 {
		nominal = time.Second / 30
	}
	if max < nominal {
		max = nominal
	}
	return &FrameClock{nominal: nominal, max: max}
}

// Delta records now as the latest tick and returns the elapsed seconds since
// the previous one. Clock regressions yield zero.
func (f *FrameClock) Delta(now time.Time) float64 {
	if f.last.IsZero() {
		f.last = now
		return f.nominal.Seconds()
	}
	elapsed := now.Sub(f.last)
	f.last = now
	if elapsed < 0 {
		return 0
	}
	if elapsed > f.max {
		elapsed = f.max
	}
	return elapsed.Seconds()
}

// Reset forgets the previous tick so the next Delta is nominal again.
func (f *FrameClock) Reset() { f.last = time.Time{} }
