package ui

import "time"

// Timer is a pending delayed task.
type Timer interface {
	// Stop cancels the task. It reports false if the task already ran or
	// was already stopped.
	Stop() bool
}

// Scheduler runs a task after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type loopTimer struct {
	t       *time.Timer
	stopped bool
	fired   bool
}

func (lt *loopTimer) Stop() bool {
	if lt.stopped || lt.fired {
		return false
	}
	lt.stopped = true
	lt.t.Stop()
	return true
}

// AfterFunc schedules fn to run on the loop after d. The returned Timer must
// be stopped from the loop goroutine; a timer stopped after it expired but
// before its task was drained does not run fn.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	lt := &loopTimer{}
	lt.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if lt.stopped {
				return
			}
			lt.fired = true
			fn()
		})
	})
	return lt
}
