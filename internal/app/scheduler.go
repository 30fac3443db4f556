package app

import "time"

// Timer is a pending deferred call.
type Timer interface {
	Stop() bool
}

// Scheduler defers a call. The production implementation is time.AfterFunc;
// tests substitute a manual clock.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemScheduler runs deferred calls on real timers.
var SystemScheduler Scheduler = systemScheduler{}

// roomTask is a room's self-rescheduling tick. A queued tick that finds the
// task disarmed does nothing.
type roomTask struct {
	armed bool
	timer Timer
}

func (t *roomTask) disarm() {
	t.armed = false
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
