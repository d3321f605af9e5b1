package utils

import "time"

// Clock abstracts the wall clock so period arithmetic stays deterministic in
// tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the configured instant.
type FixedClock struct {
	Instant time.Time
}

func (c *FixedClock) Now() time.Time {
	return c.Instant
}

func (c *FixedClock) Set(t time.Time) {
	c.Instant = t
}
