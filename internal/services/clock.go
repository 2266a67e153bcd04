package services

import "time"

// Clock supplies the current time for expiry computations. Injectable so
// tests can move time past a public link's expiry without sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock is the production clock.
var SystemClock Clock = systemClock{}
