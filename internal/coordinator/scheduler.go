package coordinator

import "time"

// Timer is a pending scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. Callbacks run on the scheduler's goroutine;
// the coordinator re-posts them onto its own queue.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Clock schedules with the runtime timer.
type Clock struct{}

func (Clock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
