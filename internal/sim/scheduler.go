package sim

import (
	"sync"
	"time"
)

// scheduler forwards ticker firings into the canvas inbox as Tick messages.
// While the forwarder is blocked on a busy inbox the ticker keeps at most one
// firing pending, so a late scheduler fires once rather than catching up.
type scheduler struct {
	ticker Ticker
	quit   chan struct{}
	wg     sync.WaitGroup
}

func startScheduler(clock Clock, interval time.Duration, out chan<- message) *scheduler {
	s := &scheduler{
		ticker: clock.NewTicker(interval),
		quit:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.forward(out)
	return s
}

func (s *scheduler) forward(out chan<- message) {
	defer s.wg.Done()
	for {
		select {
		case <-s.quit:
			return
		case now := <-s.ticker.C():
			select {
			case out <- Tick{Time: now}:
			case <-s.quit:
				return
			}
		}
	}
}

// stop tears down the ticker and waits for the forwarder. Ticks already in
// the inbox are left for the canvas to process.
func (s *scheduler) stop() {
	s.ticker.Stop()
	close(s.quit)
	s.wg.Wait()
}
