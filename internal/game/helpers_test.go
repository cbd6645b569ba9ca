package game

import (
	"testing"
	"time"
)

// scriptedRand replays fixed draws. Float64 defaults to 0.99 (no event, failed
// investment) and Intn to 0 once the script runs out.
type scriptedRand struct {
	floats []float64
	ints   []int
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.99
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *scriptedRand) Intn(n int) int {
	if len(r.ints) == 0 || n <= 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

// manualScheduler queues steps until run is called.
type manualScheduler struct {
	steps []func()
}

func (m *manualScheduler) Schedule(_ time.Duration, fn func()) func() {
	m.steps = append(m.steps, fn)
	return func() {}
}

func (m *manualScheduler) run() {
	for len(m.steps) > 0 {
		fn := m.steps[0]
		m.steps = m.steps[1:]
		fn()
	}
}

func startedEngine(t testing.TB, r Rand, opts ...EngineOption) *Engine {
	opts = append([]EngineOption{WithScheduler(Immediate{}), WithRand(r)}, opts...)
	e := NewEngine(nil, opts...)
	t.Helper()
	if err := e.Start("student", "Ana"); err != nil {
		t.Fatalf("start: %v", err)
	}
	return e
}
