// Package clock lets engine code read the current time without calling
// time.Now directly, so transitions and status derivation can be pinned in tests.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock in UTC. Only cmd/* should construct it.
type Real struct{}

// Now returns the current system time.
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always returns the same instant.
type Fixed struct {
	T time.Time
}

// Now returns the fixed time.
func (c Fixed) Now() time.Time {
	return c.T
}

// Func adapts a function to Clock.
type Func func() time.Time

// Now calls the wrapped function.
func (f Func) Now() time.Time {
	return f()
}

// NewReal returns the system clock.
func NewReal() Clock {
	return Real{}
}

// NewFixed returns a clock frozen at t.
func NewFixed(t time.Time) Clock {
	return Fixed{T: t}
}

// OrReal returns c, or the system clock when c is nil.
func OrReal(c Clock) Clock {
	if c == nil {
		return Real{}
	}
	return c
}
