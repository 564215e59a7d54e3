package event

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/yagago/host/internal/playback"
	"go.uber.org/zap"
)

// Registration is one registered receiver.
type Registration struct {
	Receiver Receiver
	Mask     Class
	// Animation is set for receivers registered with AnimationEvent. Their
	// mask is zero: they only see stream envelopes.
	Animation bool

	playback atomic.Pointer[playback.Cursor]
	removed  atomic.Bool
}

// Active reports whether the registration is still registered.
func (r *Registration) Active() bool {
	return !r.removed.Load()
}

// Playback returns the stream playback associated with the receiver, if any.
func (r *Registration) Playback() *playback.Cursor {
	return r.playback.Load()
}

// Wants reports whether an envelope of class c passes the interest mask.
func (r *Registration) Wants(c Class) bool {
	return r.Mask&c != 0
}

// Option configures a registration.
type Option func(*Registration)

// WithPlayback associates a stream playback with the receiver, so the loop
// raises one stream envelope for it every iteration.
func WithPlayback(c *playback.Cursor) Option {
	return func(r *Registration) {
		r.playback.Store(c)
	}
}

// Registry maps receivers to interest masks. The list is copy-on-write:
// fan-out iterates a snapshot, and Unregister marks the registration so the
// rest of an in-flight fan-out skips it.
type Registry struct {
	mu   sync.Mutex // only protects list replacement
	regs atomic.Pointer[[]*Registration]
	log  *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	r := &Registry{log: log}
	empty := make([]*Registration, 0)
	r.regs.Store(&empty)
	return r
}

// Register stores recv with the given interest mask. A mask above 10000 is
// accepted only if it equals AnimationEvent. Registering a receiver again
// replaces its mask and options in place, keeping its fan-out position.
func (r *Registry) Register(mask int, recv Receiver, opts ...Option) error {
	if recv == nil {
		return fmt.Errorf("%w: nil receiver", ErrMisuse)
	}
	if !reflect.TypeOf(recv).Comparable() {
		return fmt.Errorf("%w: receiver %T is not comparable", ErrMisuse, recv)
	}
	reg := &Registration{Receiver: recv}
	switch {
	case mask == AnimationEvent:
		reg.Animation = true
	case mask < 0 || mask > maxMask:
		return fmt.Errorf("%w: interest mask %d out of range", ErrMisuse, mask)
	default:
		reg.Mask = Class(mask)
	}
	for _, opt := range opts {
		opt(reg)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	old := *r.regs.Load()
	next := make([]*Registration, 0, len(old)+1)
	replaced := false
	for _, o := range old {
		if o.Receiver == recv {
			o.removed.Store(true)
			next = append(next, reg)
			replaced = true
			continue
		}
		next = append(next, o)
	}
	if !replaced {
		next = append(next, reg)
	}
	r.regs.Store(&next)

	r.log.Debug("receiver registered",
		zap.String("receiver", fmt.Sprintf("%T", recv)),
		zap.Uint32("mask", uint32(reg.Mask)),
		zap.Bool("animation", reg.Animation),
		zap.Bool("playback", reg.Playback() != nil),
	)
	return nil
}

// Unregister removes recv by identity. It is safe to call from inside a
// Raise during fan-out; the removed receiver gets nothing further, even
// from the fan-out in progress. Removing an absent receiver returns
// ErrNotRegistered.
func (r *Registry) Unregister(recv Receiver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := *r.regs.Load()
	for i, o := range old {
		if o.Receiver != recv {
			continue
		}
		o.removed.Store(true)
		next := make([]*Registration, 0, len(old)-1)
		next = append(next, old[:i]...)
		next = append(next, old[i+1:]...)
		r.regs.Store(&next)
		r.log.Debug("receiver unregistered", zap.String("receiver", fmt.Sprintf("%T", recv)))
		return nil
	}
	return fmt.Errorf("unregister %T: %w", recv, ErrNotRegistered)
}

// SetPlayback attaches (or with nil, detaches) a stream playback to an
// already registered receiver.
func (r *Registry) SetPlayback(recv Receiver, c *playback.Cursor) error {
	for _, o := range r.Snapshot() {
		if o.Receiver == recv {
			o.playback.Store(c)
			return nil
		}
	}
	return fmt.Errorf("set playback on %T: %w", recv, ErrNotRegistered)
}

// Snapshot returns the current registrations in registration order. The
// slice must not be modified.
func (r *Registry) Snapshot() []*Registration {
	return *r.regs.Load()
}

func (r *Registry) Len() int {
	return len(r.Snapshot())
}

// Deliver raises every envelope, in order, on each active receiver whose
// mask contains class, finishing one receiver before moving to the next.
// It returns how many envelopes were raised.
func (r *Registry) Deliver(class Class, envs ...Envelope) int {
	n := 0
	for _, reg := range r.Snapshot() {
		if !reg.Wants(class) {
			continue
		}
		for _, ev := range envs {
			if !reg.Active() {
				break
			}
			reg.Receiver.Raise(ev)
			n++
		}
	}
	return n
}
