package system

import (
	"fmt"
	"time"
)

// Runner keeps systems bucketed by phase. Systems sharing a phase run in
// registration order.
type Runner struct {
	phases [phaseCount][]System
}

func NewRunner() *Runner {
	return &Runner{}
}

// Register adds s to the bucket of its phase. An unknown phase is a
// programming error.
func (r *Runner) Register(s System) {
	p := s.Phase()
	if p < 0 || p >= phaseCount {
		panic(fmt.Sprintf("system: register %T with %v", s, p))
	}
	r.phases[p] = append(r.phases[p], s)
}

// Tick runs every phase in order.
func (r *Runner) Tick(dt time.Duration) {
	for p := Phase(0); p < phaseCount; p++ {
		r.run(p, dt)
	}
}

// TickPhases runs only the listed phases, in the order given.
func (r *Runner) TickPhases(dt time.Duration, phases ...Phase) {
	for _, p := range phases {
		if p >= 0 && p < phaseCount {
			r.run(p, dt)
		}
	}
}

// Len returns the number of registered systems.
func (r *Runner) Len() int {
	n := 0
	for _, b := range r.phases {
		n += len(b)
	}
	return n
}

func (r *Runner) run(p Phase, dt time.Duration) {
	for _, s := range r.phases[p] {
		s.Update(dt)
	}
}
