// Package scheduler holds at most one pending timer choosing the next
// heartbeat instant, adapting the interval to whether any shell is busy
// and coalescing redundant wakeup requests into the single pending timer.
package scheduler

import (
	"sync"
	"time"

	"github.com/ianremillard/wrangler/internal/agentlog"
)

var log = agentlog.For("scheduler")

// BusyCheck reports whether any managed shell is currently live — the
// Scheduler asks this to pick busy vs. idle interval.
type BusyCheck func() bool

// Scheduler fires fn at an adaptive interval: busyInterval while BusyCheck
// reports true, idleInterval otherwise. If fn reports that it executed a
// command, the next fire is instead scheduled after commandResponseDelay,
// overriding the busy/idle interval for that one reschedule.
type Scheduler struct {
	busyInterval         time.Duration
	idleInterval         time.Duration
	backoffInterval      time.Duration
	commandResponseDelay time.Duration
	isBusy               BusyCheck
	fn                   func() (commandExecuted bool)

	mu    sync.Mutex
	timer *time.Timer
}

// New builds a Scheduler. fn is invoked on every fire and reports whether it
// executed a command (shortening the next fire to commandResponseDelay);
// isBusy decides the busy/idle interval otherwise.
func New(busyInterval, idleInterval, backoffInterval, commandResponseDelay time.Duration, isBusy BusyCheck, fn func() bool) *Scheduler {
	return &Scheduler{
		busyInterval:         busyInterval,
		idleInterval:         idleInterval,
		backoffInterval:      backoffInterval,
		commandResponseDelay: commandResponseDelay,
		isBusy:               isBusy,
		fn:                   fn,
	}
}

// Start schedules the first fire at the idle interval.
func (s *Scheduler) Start() {
	s.schedule(s.idleInterval)
}

// Stop cancels the pending timer, if any.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Nudge reschedules the pending timer to fire after the backoff interval,
// used when an event (spawn, write, kill, exit) means there is work worth
// shipping sooner than the currently scheduled wakeup.
func (s *Scheduler) Nudge() {
	s.schedule(s.backoffInterval)
}

// ScheduleAfter reschedules the pending timer to fire after delay,
// overriding whatever interval was previously pending.
func (s *Scheduler) ScheduleAfter(delay time.Duration) {
	s.schedule(delay)
}

func (s *Scheduler) schedule(delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(delay, s.fire)
}

func (s *Scheduler) fire() {
	commandExecuted := s.fn()

	next := s.idleInterval
	if s.isBusy != nil && s.isBusy() {
		next = s.busyInterval
	}
	if commandExecuted {
		next = s.commandResponseDelay
	}
	log.Debug().Dur("next", next).Msg("rescheduling heartbeat")
	s.schedule(next)
}
