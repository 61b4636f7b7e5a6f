package reservation

import "time"

// Clock abstracts time so hold expiry can be driven by tests.  All
// returned times are UTC.
type Clock interface {
    Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by the wall clock.
func SystemClock() Clock { return realClock{} }
