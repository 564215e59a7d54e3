package host

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// feedEntry is one line of a feed file.
type feedEntry struct {
	At     float64 `yaml:"at"` // milliseconds since the feed started
	Type   string  `yaml:"type"`
	X      int     `yaml:"x"`
	Y      int     `yaml:"y"`
	Button int     `yaml:"button"` // button index, 1 = left
	Key    string  `yaml:"key"`    // name from KeyNames or a single character
	Code   int     `yaml:"code"`
	Focus  bool    `yaml:"focus"`
}

type feedFile struct {
	Events []feedEntry `yaml:"events"`
}

type timedEvent struct {
	at float64
	ev RawEvent
}

// Feed is a Poller replaying scripted raw events. An event becomes
// pollable once the clock reaches its time.
type Feed struct {
	now    func() float64
	start  float64
	events []timedEvent
	next   int
}

// LoadFeed reads a YAML feed file.
func LoadFeed(path string, now func() float64) (*Feed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feed %s: %w", path, err)
	}
	f, err := ParseFeed(raw, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ParseFeed builds a feed. Times are relative to the clock reading at parse
// time; entries are replayed in time order, file order breaking ties.
func ParseFeed(raw []byte, now func() float64) (*Feed, error) {
	var file feedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	f := &Feed{now: now, start: now(), events: make([]timedEvent, 0, len(file.Events))}
	for i, e := range file.Events {
		ev, err := e.raw()
		if err != nil {
			return nil, fmt.Errorf("feed event %d: %w", i, err)
		}
		f.events = append(f.events, timedEvent{at: e.At, ev: ev})
	}
	sort.SliceStable(f.events, func(i, j int) bool {
		return f.events[i].at < f.events[j].at
	})
	return f, nil
}

func (e feedEntry) raw() (RawEvent, error) {
	var ev RawEvent
	typ := strings.ToLower(e.Type)
	switch typ {
	case "quit":
		ev.Type = EventQuit
	case "mouse_motion":
		ev.Type = EventMouseMotion
		ev.X, ev.Y = e.X, e.Y
	case "mouse_button_down", "mouse_button_up":
		ev.Type = EventMouseButtonDown
		if strings.HasSuffix(typ, "_up") {
			ev.Type = EventMouseButtonUp
		}
		button := e.Button
		if button == 0 {
			button = 1
		}
		ev.Button = 1 << button
	case "key_down", "key_up":
		ev.Type = EventKeyDown
		if strings.HasSuffix(typ, "_up") {
			ev.Type = EventKeyUp
		}
		code, err := e.keyCode()
		if err != nil {
			return ev, err
		}
		ev.Code = code
	case "window_focus":
		ev.Type = EventWindowFocus
		ev.Focus = e.Focus
	default:
		return ev, fmt.Errorf("unknown event type %q", e.Type)
	}
	return ev, nil
}

func (e feedEntry) keyCode() (int, error) {
	if e.Key == "" {
		if e.Code == 0 {
			return 0, fmt.Errorf("key event without key or code")
		}
		return e.Code, nil
	}
	if code, ok := KeyNames[strings.ToLower(e.Key)]; ok {
		return code, nil
	}
	if len(e.Key) == 1 {
		return int(strings.ToLower(e.Key)[0]), nil
	}
	return 0, fmt.Errorf("unknown key %q", e.Key)
}

func (f *Feed) PollEvent() (RawEvent, bool) {
	if f.next >= len(f.events) {
		return RawEvent{}, false
	}
	te := f.events[f.next]
	if f.now()-f.start < te.at {
		return RawEvent{}, false
	}
	f.next++
	return te.ev, true
}

// Pending returns the number of events not yet polled.
func (f *Feed) Pending() int {
	return len(f.events) - f.next
}
