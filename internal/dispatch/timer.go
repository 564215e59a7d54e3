package dispatch

import (
	"sync/atomic"

	"github.com/yagago/host/internal/core/event"
)

// Timer raises TimerTick envelopes on its receiver at a fixed frequency.
// A timer without a receiver ticks silently.
type Timer struct {
	frequency float64
	receiver  event.Receiver
	nextDue   float64
	since     float64
	installed atomic.Bool
}

// NewTimer creates an uninstalled timer. The frequency is checked by
// InstallTimer.
func NewTimer(hz float64, recv event.Receiver) *Timer {
	return &Timer{frequency: hz, receiver: recv}
}

func (t *Timer) Frequency() float64 { return t.frequency }

func (t *Timer) Receiver() event.Receiver { return t.receiver }

// PeriodMs is the tick period in milliseconds.
func (t *Timer) PeriodMs() float64 {
	return 1000 / t.frequency
}

// NextDue is the clock reading at which the timer fires next.
func (t *Timer) NextDue() float64 { return t.nextDue }

func (t *Timer) Installed() bool { return t.installed.Load() }
