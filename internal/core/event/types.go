// Package event defines the envelopes delivered by the dispatch loop and the
// registry of receivers that want them.
package event

import (
	"errors"
	"fmt"

	"github.com/yagago/host/internal/playback"
)

// Class is an event-class bit. Receivers subscribe with a mask of classes.
type Class uint32

const (
	ClassRenderTarget Class = 1 << iota
	ClassMouse
	ClassKeyboard
	ClassGamepad
	ClassTimer
	ClassEventStream
)

// AnimationEvent is the reserved registration value for receivers that are
// driven only by their stream playback. It sits above every mask value.
const AnimationEvent = 15500

// maxMask is the largest plain interest mask Register accepts.
const maxMask = 10000

// Type identifies the event within its class.
type Type int

// Render-target events.
const (
	RTClose      Type = 1
	RTModeToggle Type = 2
	RTActivated  Type = 3
)

// Input events (mouse, keyboard, gamepad).
const (
	AxisPosX   Type = 1
	AxisPosY   Type = 2
	ButtonDown Type = 3
	ButtonUp   Type = 4
)

// Timer and stream events.
const (
	TimerTick    Type = 1
	StreamUpdate Type = 0
)

// Result is returned by Raise. It is informational except on the stream path.
type Result int

const (
	Handled    Result = 1
	NotHandled Result = 2
)

var (
	// ErrMisuse marks invalid registration parameters.
	ErrMisuse = errors.New("event: misuse")
	// ErrNotRegistered is returned when removing something that is not
	// registered.
	ErrNotRegistered = fmt.Errorf("%w: not registered", ErrMisuse)
)

// Envelope is one event delivered to receivers. It is built fresh for every
// dispatch and never stored.
type Envelope struct {
	Class           Class
	Type            Type
	Value           float64
	SourceDeviceID  int
	TargetElementID int

	// Stream is set on ClassEventStream envelopes.
	Stream *playback.Cursor
}

// Receiver is anything registered with the dispatch loop.
type Receiver interface {
	Raise(ev Envelope) Result
}

// Func adapts a function to a Receiver. Register the returned pointer;
// its identity is what Unregister matches.
type Func struct {
	fn func(Envelope) Result
}

func NewFunc(fn func(Envelope) Result) *Func {
	return &Func{fn: fn}
}

func (f *Func) Raise(ev Envelope) Result {
	return f.fn(ev)
}
