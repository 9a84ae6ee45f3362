package lending

import "time"

// Clock supplies the current time to components that must not read the wall clock themselves.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock returns the wall clock in UTC.
type SystemClock struct{}

// Now returns time.Now in UTC.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant. Tests advance it by building a new one.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}
