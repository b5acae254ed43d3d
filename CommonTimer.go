package kbox2d

import "time"

/// Timer measures wall time for the step profile.
type Timer struct {
	start time.Time
}

func MakeTimer() Timer {
	return Timer{start: time.Now()}
}

/// Reset restarts the timer.
func (t *Timer) Reset() {
	t.start = time.Now()
}

/// Milliseconds returns the time elapsed since the last reset.
func (t Timer) Milliseconds() float64 {
	return float64(time.Since(t.start)) / float64(time.Millisecond)
}
