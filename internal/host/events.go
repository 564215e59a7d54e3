// Package host is the boundary to the native engine: raw input polling and
// the window title setter. Rendering, audio and decoding stay on the other
// side of it.
package host

import "fmt"

// EventType tags a raw host event.
type EventType int

const (
	EventQuit EventType = iota
	EventMouseMotion
	EventMouseButtonDown
	EventMouseButtonUp
	EventKeyDown
	EventKeyUp
	EventWindowFocus
)

var eventNames = map[EventType]string{
	EventQuit:            "quit",
	EventMouseMotion:     "mouse_motion",
	EventMouseButtonDown: "mouse_button_down",
	EventMouseButtonUp:   "mouse_button_up",
	EventKeyDown:         "key_down",
	EventKeyUp:           "key_up",
	EventWindowFocus:     "window_focus",
}

func (t EventType) String() string {
	if s, ok := eventNames[t]; ok {
		return s
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// RawEvent is one queued host event. Only the fields of its type are set.
type RawEvent struct {
	Type   EventType
	X, Y   int
	Button int // button bit, 1 << button index
	Code   int // key code: ASCII for printable keys, Key* above
	Focus  bool
}

// Poller is the non-blocking raw input source.
type Poller interface {
	// PollEvent returns the next queued event, or false when none is queued.
	PollEvent() (RawEvent, bool)
}

// Key codes for non-printable keys. Printable keys use their ASCII code.
const (
	KeyFirst  = 0x100
	KeyEscape = KeyFirst + iota - 1
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyBackspace
	KeyTab
	KeyEnter
	KeyShift
	KeyControl
	KeyAlt
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
)

// KeyNames maps key names, as used in feeds and scripts, to codes.
var KeyNames = map[string]int{
	"escape":    KeyEscape,
	"f1":        KeyF1,
	"f2":        KeyF2,
	"f3":        KeyF3,
	"f4":        KeyF4,
	"f5":        KeyF5,
	"f6":        KeyF6,
	"f7":        KeyF7,
	"f8":        KeyF8,
	"f9":        KeyF9,
	"f10":       KeyF10,
	"f11":       KeyF11,
	"f12":       KeyF12,
	"backspace": KeyBackspace,
	"tab":       KeyTab,
	"enter":     KeyEnter,
	"shift":     KeyShift,
	"control":   KeyControl,
	"alt":       KeyAlt,
	"up":        KeyUp,
	"down":      KeyDown,
	"left":      KeyLeft,
	"right":     KeyRight,
	"space":     ' ',
}
