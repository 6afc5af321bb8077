package scheduler

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartFiresAtIdleInterval(t *testing.T) {
	var fired int32
	var wg sync.WaitGroup
	wg.Add(1)

	s := New(10*time.Millisecond, 20*time.Millisecond, 5*time.Millisecond, time.Hour, func() bool { return false }, func() bool {
		if atomic.AddInt32(&fired, 1) == 1 {
			wg.Done()
		}
		return false
	})
	s.Start()
	defer s.Stop()

	wg.Wait()
	assert.GreaterOrEqual(t, atomic.LoadInt32(&fired), int32(1))
}

func TestNudgeReschedulesSooner(t *testing.T) {
	var fireCount int32
	fired := make(chan struct{}, 1)

	s := New(time.Hour, time.Hour, 5*time.Millisecond, time.Hour, func() bool { return false }, func() bool {
		atomic.AddInt32(&fireCount, 1)
		select {
		case fired <- struct{}{}:
		default:
		}
		return false
	})
	s.Start()
	defer s.Stop()

	s.Nudge()

	select {
	case <-fired:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("nudge did not cause a fire within backoff window")
	}
	assert.GreaterOrEqual(t, atomic.LoadInt32(&fireCount), int32(1))
}

func TestScheduleAfterOverridesPending(t *testing.T) {
	fired := make(chan time.Time, 1)
	start := time.Now()

	s := New(time.Hour, time.Hour, time.Hour, time.Hour, func() bool { return false }, func() bool {
		select {
		case fired <- time.Now():
		default:
		}
		return false
	})
	s.ScheduleAfter(10 * time.Millisecond)
	defer s.Stop()

	select {
	case at := <-fired:
		assert.Less(t, at.Sub(start), 500*time.Millisecond)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("scheduled fire did not happen in time")
	}
}

func TestStopPreventsFurtherFires(t *testing.T) {
	var fireCount int32
	s := New(5*time.Millisecond, 5*time.Millisecond, 5*time.Millisecond, time.Hour, func() bool { return false }, func() bool {
		atomic.AddInt32(&fireCount, 1)
		return false
	})
	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.Stop()
	countAtStop := atomic.LoadInt32(&fireCount)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, countAtStop, atomic.LoadInt32(&fireCount))
}

func TestBusyIntervalUsedWhenBusy(t *testing.T) {
	var mu sync.Mutex
	var fireTimes []time.Time
	busy := true

	s := New(10*time.Millisecond, time.Hour, time.Hour, time.Hour, func() bool { return busy }, func() bool {
		mu.Lock()
		fireTimes = append(fireTimes, time.Now())
		mu.Unlock()
		return false
	})
	s.ScheduleAfter(time.Millisecond)
	defer s.Stop()

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, len(fireTimes), 2, "busy interval should allow multiple fires within the sleep window")
}

// TestCommandExecutedShortensNextFire reproduces the literal scenario "a
// command write during one heartbeat cycle must cause the next heartbeat
// within the command-response delay, not the ordinary busy/idle interval."
// fn reports commandExecuted=true on its first call only; with a long
// busy/idle interval and a short commandResponseDelay, the second fire must
// land within the delay window, not the hour-long interval.
func TestCommandExecutedShortensNextFire(t *testing.T) {
	var mu sync.Mutex
	var fireTimes []time.Time
	var calls int32

	s := New(time.Hour, time.Hour, time.Hour, 20*time.Millisecond, func() bool { return false }, func() bool {
		mu.Lock()
		fireTimes = append(fireTimes, time.Now())
		mu.Unlock()
		return atomic.AddInt32(&calls, 1) == 1
	})
	s.ScheduleAfter(time.Millisecond)
	defer s.Stop()

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require := assert.New(t)
	require.GreaterOrEqual(len(fireTimes), 2, "command-executed fire must be followed by a second fire within the response delay")
	if len(fireTimes) >= 2 {
		require.Less(fireTimes[1].Sub(fireTimes[0]), 200*time.Millisecond)
	}
}
