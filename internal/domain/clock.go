package domain

import (
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze time via SetClock.
// Production code uses the real clock; tests inject a fake for deterministic output.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for report stamps. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// newID generates report IDs.
var newID = uuid.NewString

// SetIDGenerator swaps the report ID source. Pass nil to reset to random UUIDs.
func SetIDGenerator(fn func() string) {
	if fn == nil {
		newID = uuid.NewString
		return
	}
	newID = fn
}
