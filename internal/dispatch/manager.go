// Package dispatch runs the event loop: it polls host input, raises stream
// envelopes for playback-driven receivers and services timers, all on one
// goroutine at a fixed polling cadence.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yagago/host/internal/core/event"
	coresys "github.com/yagago/host/internal/core/system"
	"github.com/yagago/host/internal/evb"
	"github.com/yagago/host/internal/host"
	"github.com/yagago/host/internal/playback"
	"go.uber.org/zap"
)

// DefaultPollInterval is the sleep between loop iterations. It is the
// polling granularity, not a timer rate.
const DefaultPollInterval = 50 * time.Millisecond

// State of the loop. Stopped is terminal.
type State int32

const (
	StateRunning State = iota
	StateStopped
)

func (s State) String() string {
	if s == StateStopped {
		return "stopped"
	}
	return "running"
}

// Manager owns the receiver registry, the timers and the loop. Receivers
// run synchronously on the loop goroutine; a slow receiver delays every
// other delivery and every timer.
type Manager struct {
	poller   host.Poller
	clock    Clock
	interval time.Duration
	registry *event.Registry
	runner   *coresys.Runner
	log      *zap.Logger

	timerMu sync.Mutex // only protects timer list replacement
	timers  atomic.Pointer[[]*Timer]

	state       atomic.Int32
	suspended   bool
	suspendedAt float64
	seq         atomic.Uint32
}

// NewManager creates a loop polling poller every interval. A non-positive
// interval selects DefaultPollInterval.
func NewManager(poller host.Poller, clock Clock, interval time.Duration, log *zap.Logger) *Manager {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	m := &Manager{
		poller:   poller,
		clock:    clock,
		interval: interval,
		registry: event.NewRegistry(log),
		runner:   coresys.NewRunner(),
		log:      log,
	}
	empty := make([]*Timer, 0)
	m.timers.Store(&empty)

	m.runner.Register(&inputSystem{m: m})
	m.runner.Register(&streamSystem{m: m})
	m.runner.Register(&timerSystem{m: m})
	return m
}

func (m *Manager) Registry() *event.Registry { return m.registry }

func (m *Manager) Clock() Clock { return m.clock }

// Register adds recv with the given interest mask; see event.Registry.
func (m *Manager) Register(mask int, recv event.Receiver, opts ...event.Option) error {
	return m.registry.Register(mask, recv, opts...)
}

// Unregister removes recv. Removing an absent receiver returns
// event.ErrNotRegistered.
func (m *Manager) Unregister(recv event.Receiver) error {
	return m.registry.Unregister(recv)
}

// NewPlayback opens a cursor on track with a fresh sequence id. The id
// becomes the SourceDeviceID of the stream envelopes for that cursor.
func (m *Manager) NewPlayback(track *evb.Track) *playback.Cursor {
	return playback.OpenWithID(m.seq.Add(1), track)
}

// InstallTimer schedules t to first fire one period from now.
func (m *Manager) InstallTimer(t *Timer) error {
	if t == nil {
		return fmt.Errorf("%w: nil timer", event.ErrMisuse)
	}
	if !(t.frequency > 0) {
		return fmt.Errorf("%w: timer frequency %v must be positive", event.ErrMisuse, t.frequency)
	}
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	if t.installed.Load() {
		return fmt.Errorf("%w: timer already installed", event.ErrMisuse)
	}
	t.since = m.clock.NowMs()
	t.nextDue = t.since + t.PeriodMs()
	t.installed.Store(true)
	old := *m.timers.Load()
	next := make([]*Timer, 0, len(old)+1)
	next = append(next, old...)
	next = append(next, t)
	m.timers.Store(&next)
	m.log.Debug("timer installed", zap.Float64("hz", t.frequency), zap.Float64("due_ms", t.nextDue))
	return nil
}

// UninstallTimer removes t. Safe to call from inside the timer's own tick.
func (m *Manager) UninstallTimer(t *Timer) error {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	old := *m.timers.Load()
	for i, o := range old {
		if o != t {
			continue
		}
		t.installed.Store(false)
		next := make([]*Timer, 0, len(old)-1)
		next = append(next, old[:i]...)
		next = append(next, old[i+1:]...)
		m.timers.Store(&next)
		return nil
	}
	return fmt.Errorf("uninstall timer: %w", event.ErrNotRegistered)
}

// Timers returns the installed timers. The slice must not be modified.
func (m *Manager) Timers() []*Timer {
	return *m.timers.Load()
}

// SuspendLocalTime stops timer servicing until ResumeLocalTime. Input and
// stream envelopes keep flowing.
func (m *Manager) SuspendLocalTime() {
	if m.suspended {
		return
	}
	m.suspended = true
	m.suspendedAt = m.clock.NowMs()
}

// ResumeLocalTime restarts timers, pushing each due time forward by the part
// of the suspended span the timer was installed for, so no tick is owed for it.
func (m *Manager) ResumeLocalTime() {
	if !m.suspended {
		return
	}
	m.suspended = false
	now := m.clock.NowMs()
	for _, t := range m.Timers() {
		t.nextDue += now - max(m.suspendedAt, t.since)
	}
}

func (m *Manager) State() State {
	return State(m.state.Load())
}

// Stop requests the loop to end. It takes effect at the top of the next
// iteration; the iteration in progress completes.
func (m *Manager) Stop() {
	if m.state.Swap(int32(StateStopped)) != int32(StateStopped) {
		m.log.Debug("event loop stop requested")
	}
}

// Iterate runs one loop iteration without sleeping.
func (m *Manager) Iterate() {
	if m.suspended {
		m.runner.TickPhases(m.interval, coresys.PhaseInput, coresys.PhaseStream)
		return
	}
	m.runner.Tick(m.interval)
}

// Run iterates until Stop is called or ctx is done, sleeping the polling
// interval between iterations. Both are observed only at iteration
// boundaries. Cancelling ctx counts as a stop request.
func (m *Manager) Run(ctx context.Context) error {
	m.log.Info("event loop started",
		zap.Duration("poll_interval", m.interval),
		zap.Int("receivers", m.registry.Len()),
		zap.Int("timers", len(m.Timers())),
	)
	defer m.log.Info("event loop stopped")
	for {
		if ctx.Err() != nil {
			m.Stop()
		}
		if m.State() == StateStopped {
			return nil
		}
		m.Iterate()
		// A cancelled sleep is picked up at the top of the loop.
		_ = m.clock.Sleep(ctx, m.interval)
	}
}
