package clock

import "time"

// Clock supplies the opaque monotonic "now" read once at the start of every
// invocation. Values are unix seconds.
type Clock interface {
	Now() int64
}

// System reads the wall clock.
type System struct{}

func (System) Now() int64 {
	return time.Now().Unix()
}

// Manual is a hand-driven clock for tests and the simulator. It never moves
// on its own.
type Manual struct {
	now int64
}

func NewManual(start int64) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() int64 {
	return m.now
}

// Advance moves the clock forward by d seconds.
func (m *Manual) Advance(d int64) {
	m.now += d
}

func (m *Manual) Set(now int64) {
	m.now = now
}
