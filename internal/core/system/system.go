// Package system orders the steps of one event-loop iteration.
package system

import (
	"fmt"
	"time"
)

// Phase is the position of a step within a loop iteration.
type Phase int

const (
	PhaseInput  Phase = iota // drain host input
	PhaseStream              // stream playback envelopes
	PhaseTimer               // due timers

	phaseCount
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseStream:
		return "stream"
	case PhaseTimer:
		return "timer"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// System is one step of a loop iteration.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
