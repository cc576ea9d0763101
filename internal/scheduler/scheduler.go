package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Target is what the scheduler drives: a poll cycle and a countdown tick.
type Target interface {
	Poll(ctx context.Context) bool
	Tick()
}

// Scheduler runs two independent periodic actions against a Target: a
// one-second countdown tick and a poll every interval. Neither starts until
// a first poll has produced a result.
type Scheduler struct {
	target   Target
	interval time.Duration
	tick     time.Duration
}

func New(target Target, interval time.Duration) *Scheduler {
	return &Scheduler{
		target:   target,
		interval: interval,
		tick:     time.Second,
	}
}

// Run blocks until ctx is cancelled. Polls run in their own goroutines and
// may overlap when a request outlives the interval; Run waits for in-flight
// polls before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.initialPoll(ctx) {
		return nil
	}
	slog.Info("Starting poll timers", "interval", s.interval)

	tickTicker := time.NewTicker(s.tick)
	defer tickTicker.Stop()
	pollTicker := time.NewTicker(s.interval)
	defer pollTicker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tickTicker.C:
			s.target.Tick()
		case <-pollTicker.C:
			wg.Go(func() {
				defer func() {
					if r := recover(); r != nil {
						slog.Error("Panic in poll", "panic", r)
					}
				}()
				s.target.Poll(ctx)
			})
		}
	}
}

// initialPoll polls once per interval until a result arrives. It returns
// false if ctx is cancelled first.
func (s *Scheduler) initialPoll(ctx context.Context) bool {
	for {
		if s.target.Poll(ctx) {
			return true
		}
		slog.Warn("Initial poll produced no result, retrying next interval", "interval", s.interval)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(s.interval):
		}
	}
}
