package srs

import "time"

// Clock supplies the current instant to a Scheduler.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// FixedClock returns a Clock that always reports t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}
