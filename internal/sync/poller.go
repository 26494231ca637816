// Package sync periodically re-reconciles upcoming due dates so that a
// notification dropped by a failed provider call is rebooked without
// waiting for the next edit to that date.
package sync

import (
	"context"
	gosync "sync"
	"time"

	"github.com/nhle/duetask/internal/logger"
	"github.com/nhle/duetask/internal/model"
	"github.com/nhle/duetask/internal/reconcile"
)

// SweepState represents the current state of the sweep worker.
type SweepState int

const (
	SweepIdle SweepState = iota
	SweepRunning
	SweepError
)

// SweepStatus is a snapshot of the worker's progress.
type SweepStatus struct {
	State     SweepState
	LastSweep time.Time
	Dates     int
	Failures  int
	Error     error
}

// Sweeper is the part of the engine the poller drives.
type Sweeper interface {
	Today() model.Date
	Sweep(ctx context.Context, from model.Date, days int) []reconcile.Result
}

// sweepTimeout is the maximum time allowed for a single sweep.
const sweepTimeout = 5 * time.Minute

// Poller runs a sweep on a fixed interval and on demand.
type Poller struct {
	sweeper   Sweeper
	interval  time.Duration
	days      int
	status    SweepStatus
	triggerCh chan struct{}
	stopCh    chan struct{}
	doneCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// New creates a Poller that sweeps days dates every interval.
func New(s Sweeper, interval time.Duration, days int) *Poller {
	if days < 1 {
		days = 1
	}
	return &Poller{
		sweeper:   s,
		interval:  interval,
		days:      days,
		triggerCh: make(chan struct{}, 1),
	}
}

// Start launches the polling goroutine. It sweeps once immediately. A
// stopped Poller may be started again.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	go p.loop(p.stopCh, p.doneCh)
}

// Stop halts the polling goroutine and waits for an in-flight sweep.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	done := p.doneCh
	p.mu.Unlock()

	<-done
}

// Refresh requests a sweep as soon as the worker is free.
func (p *Poller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A sweep is already pending.
	}
}

// Status returns the latest sweep status.
func (p *Poller) Status() SweepStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := p.interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.sweep()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.sweep()
		case <-p.triggerCh:
			p.sweep()
		}
	}
}

// sweep reconciles today and the following days and records the outcome.
func (p *Poller) sweep() {
	p.setStatus(func(s *SweepStatus) { s.State = SweepRunning })

	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	from := p.sweeper.Today()
	results := p.sweeper.Sweep(ctx, from, p.days)

	var failures int
	var lastErr error
	for _, r := range results {
		if r.Err != nil || len(r.Failed) > 0 || len(r.Untracked) > 0 {
			failures++
			if r.Err != nil {
				lastErr = r.Err
			}
		}
	}

	logger.InfoLog(ctx, "swept %d dates from %s, %d with failures", len(results), from, failures)

	p.setStatus(func(s *SweepStatus) {
		s.Dates = len(results)
		s.Failures = failures
		s.Error = lastErr
		s.LastSweep = time.Now()
		if failures > 0 {
			s.State = SweepError
		} else {
			s.State = SweepIdle
		}
	})
}

func (p *Poller) setStatus(update func(*SweepStatus)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	update(&p.status)
}
