package services

import "time"

// Clock abstracts wall-clock reads so the engines are deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns the wall clock.
func SystemClock() Clock {
	return systemClock{}
}

// CivilDate truncates t to its UTC calendar date at midnight, the form every
// date_effective value is stored in.
func CivilDate(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
