package dispatch

import (
	"time"

	"github.com/yagago/host/internal/core/event"
	coresys "github.com/yagago/host/internal/core/system"
	"github.com/yagago/host/internal/host"
	"go.uber.org/zap"
)

// inputSystem drains every queued host event without blocking and fans
// each one out before polling the next.
type inputSystem struct {
	m *Manager
}

func (s *inputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *inputSystem) Update(_ time.Duration) {
	for {
		raw, ok := s.m.poller.PollEvent()
		if !ok {
			return
		}
		s.dispatch(raw)
	}
}

func (s *inputSystem) dispatch(raw host.RawEvent) {
	reg := s.m.registry
	switch raw.Type {
	case host.EventQuit:
		reg.Deliver(event.ClassRenderTarget, event.Envelope{
			Class: event.ClassRenderTarget,
			Type:  event.RTClose,
		})
	case host.EventMouseMotion:
		// X then Y to each receiver before the next receiver.
		reg.Deliver(event.ClassMouse,
			event.Envelope{Class: event.ClassMouse, Type: event.AxisPosX, Value: float64(raw.X)},
			event.Envelope{Class: event.ClassMouse, Type: event.AxisPosY, Value: float64(raw.Y)},
		)
	case host.EventMouseButtonDown, host.EventMouseButtonUp:
		typ := event.ButtonDown
		if raw.Type == host.EventMouseButtonUp {
			typ = event.ButtonUp
		}
		reg.Deliver(event.ClassMouse, event.Envelope{
			Class:           event.ClassMouse,
			Type:            typ,
			TargetElementID: raw.Button,
		})
	case host.EventKeyDown, host.EventKeyUp:
		typ := event.ButtonDown
		if raw.Type == host.EventKeyUp {
			typ = event.ButtonUp
		}
		reg.Deliver(event.ClassKeyboard, event.Envelope{
			Class:           event.ClassKeyboard,
			Type:            typ,
			TargetElementID: raw.Code,
		})
	case host.EventWindowFocus:
		var focus float64
		if raw.Focus {
			focus = 1
		}
		reg.Deliver(event.ClassRenderTarget, event.Envelope{
			Class: event.ClassRenderTarget,
			Type:  event.RTActivated,
			Value: focus,
		})
	default:
		s.m.log.Debug("ignoring raw host event", zap.Stringer("type", raw.Type))
	}
}

// streamSystem raises one stream envelope per iteration on every receiver
// with a playback. The receiver maps playback time to records itself.
type streamSystem struct {
	m *Manager
}

func (s *streamSystem) Phase() coresys.Phase { return coresys.PhaseStream }

func (s *streamSystem) Update(_ time.Duration) {
	for _, reg := range s.m.registry.Snapshot() {
		cursor := reg.Playback()
		if cursor == nil || !reg.Active() {
			continue
		}
		res := reg.Receiver.Raise(event.Envelope{
			Class:          event.ClassEventStream,
			Type:           event.StreamUpdate,
			SourceDeviceID: int(cursor.ID()),
			Stream:         cursor,
		})
		if res == event.NotHandled {
			s.m.log.Debug("stream envelope not handled",
				zap.Uint32("playback", cursor.ID()),
				zap.Float64("elapsed_ms", cursor.Elapsed()),
			)
		}
	}
}

// timerSystem fires every due timer once, carrying the time since the
// timer was last scheduled, then reschedules it one period after now.
// Missed ticks coalesce into that single delivery.
type timerSystem struct {
	m *Manager
}

func (s *timerSystem) Phase() coresys.Phase { return coresys.PhaseTimer }

func (s *timerSystem) Update(_ time.Duration) {
	now := s.m.clock.NowMs()
	for _, t := range s.m.Timers() {
		if !t.Installed() || t.nextDue > now {
			continue
		}
		period := t.PeriodMs()
		diff := now - (t.nextDue - period)
		if t.receiver != nil {
			t.receiver.Raise(event.Envelope{
				Class: event.ClassTimer,
				Type:  event.TimerTick,
				Value: diff,
			})
		} else {
			s.m.log.Debug("timer tick without receiver", zap.Float64("diff_ms", diff))
		}
		t.nextDue = now + period
	}
}
