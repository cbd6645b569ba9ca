package game

import "time"

// Scheduler runs narration pacing steps after a delay. The returned func
// cancels the step if it has not run yet.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) (cancel func())
}

// Immediate runs every step inline, ignoring the delay.
type Immediate struct{}

func (Immediate) Schedule(_ time.Duration, fn func()) func() {
	fn()
	return func() {}
}

// TimerScheduler runs steps on timer goroutines.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(d time.Duration, fn func()) func() {
	if d <= 0 {
		d = time.Nanosecond
	}
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

type Pacing struct {
	Welcome time.Duration
	Reveal  time.Duration
}

func DefaultPacing() Pacing {
	return Pacing{
		Welcome: 1500 * time.Millisecond,
		Reveal:  500 * time.Millisecond,
	}
}
