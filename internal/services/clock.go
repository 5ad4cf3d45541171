package services

import "time"

// Clock supplies the current time to the engine. Scheduling decisions never
// read the wall clock directly, so tests can drive time deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// NewSystemClock returns a Clock backed by time.Now
func NewSystemClock() Clock {
	return systemClock{}
}
