package worker

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// IdleEvicter drops in-memory per-user state last used before cutoff and
// reports how many entries it removed.
type IdleEvicter interface {
	EvictIdle(cutoff time.Time) int
}

// IdleStateSweeper periodically evicts per-user feeds and conversations that
// have not been touched for the idle period.
type IdleStateSweeper struct {
	targets  []IdleEvicter
	idle     time.Duration
	interval time.Duration
	log      logrus.FieldLogger
	now      func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewIdleStateSweeper(idle, interval time.Duration, log logrus.FieldLogger, targets ...IdleEvicter) *IdleStateSweeper {
	if interval <= 0 {
		interval = idle
	}
	return &IdleStateSweeper{
		targets:  targets,
		idle:     idle,
		interval: interval,
		log:      log.WithField("worker", "idle_state_sweeper"),
		now:      time.Now,
	}
}

// Sweep runs one eviction pass over every target.
func (s *IdleStateSweeper) Sweep() int {
	cutoff := s.now().Add(-s.idle)
	evicted := 0
	for _, target := range s.targets {
		evicted += target.EvictIdle(cutoff)
	}
	if evicted > 0 {
		s.log.WithField("evicted", evicted).Debug("idle state evicted")
	}
	return evicted
}

func (s *IdleStateSweeper) Start(ctx context.Context) {
	if s.cancel != nil || s.idle <= 0 {
		return
	}
	sweepCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

func (s *IdleStateSweeper) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
