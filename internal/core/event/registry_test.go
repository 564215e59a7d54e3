package event

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yagago/host/internal/playback"
)

type recorder struct {
	got []Envelope
	on  func(Envelope)
}

func (r *recorder) Raise(ev Envelope) Result {
	r.got = append(r.got, ev)
	if r.on != nil {
		r.on(ev)
	}
	return Handled
}

func TestRegister_MaskValidation(t *testing.T) {
	reg := NewRegistry(zap.NewNop())

	assert.NoError(t, reg.Register(int(ClassMouse|ClassKeyboard), &recorder{}))
	assert.NoError(t, reg.Register(maxMask, &recorder{}))
	assert.NoError(t, reg.Register(AnimationEvent, &recorder{}))

	assert.ErrorIs(t, reg.Register(maxMask+1, &recorder{}), ErrMisuse)
	assert.ErrorIs(t, reg.Register(15501, &recorder{}), ErrMisuse)
	assert.ErrorIs(t, reg.Register(-1, &recorder{}), ErrMisuse)
	assert.ErrorIs(t, reg.Register(1, nil), ErrMisuse)
	assert.Equal(t, 3, reg.Len())
}

func TestRegister_AnimationHasNoMask(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	r := &recorder{}
	require.NoError(t, reg.Register(AnimationEvent, r))

	got := reg.Snapshot()[0]
	assert.True(t, got.Animation)
	assert.Equal(t, Class(0), got.Mask)
	assert.Zero(t, reg.Deliver(ClassMouse, Envelope{Class: ClassMouse}))
}

func TestRegister_NonComparableReceiver(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	assert.ErrorIs(t, reg.Register(1, funcRecv(nil)), ErrMisuse)
	assert.ErrorIs(t, reg.Unregister(funcRecv(nil)), ErrNotRegistered)
}

type funcRecv []func()

func (funcRecv) Raise(Envelope) Result { return Handled }

func TestRegister_ReplacesExisting(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	r := &recorder{}
	require.NoError(t, reg.Register(int(ClassMouse), r))
	require.NoError(t, reg.Register(int(ClassKeyboard), r))

	assert.Equal(t, 1, reg.Len())
	reg.Deliver(ClassMouse, Envelope{Class: ClassMouse})
	reg.Deliver(ClassKeyboard, Envelope{Class: ClassKeyboard})
	require.Len(t, r.got, 1)
	assert.Equal(t, ClassKeyboard, r.got[0].Class)
}

func TestRegister_ReplaceKeepsOrder(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	var order []string
	a := &recorder{on: func(Envelope) { order = append(order, "a") }}
	b := &recorder{on: func(Envelope) { order = append(order, "b") }}
	require.NoError(t, reg.Register(int(ClassMouse), a))
	require.NoError(t, reg.Register(int(ClassMouse), b))
	require.NoError(t, reg.Register(int(ClassMouse|ClassKeyboard), a))

	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, ClassMouse|ClassKeyboard, reg.Snapshot()[0].Mask)
	reg.Deliver(ClassMouse,
		Envelope{Class: ClassMouse, Type: AxisPosX},
		Envelope{Class: ClassMouse, Type: AxisPosY},
	)
	assert.Equal(t, []string{"a", "a", "b", "b"}, order)
}

func TestDeliver_MaskIsTheOnlyFilter(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	mouse := &recorder{}
	keys := &recorder{}
	both := &recorder{}
	require.NoError(t, reg.Register(int(ClassMouse), mouse))
	require.NoError(t, reg.Register(int(ClassKeyboard), keys))
	require.NoError(t, reg.Register(int(ClassMouse|ClassKeyboard), both))

	n := reg.Deliver(ClassMouse,
		Envelope{Class: ClassMouse, Type: AxisPosX, Value: 10},
		Envelope{Class: ClassMouse, Type: AxisPosY, Value: 20},
	)
	assert.Equal(t, 4, n)
	require.Len(t, mouse.got, 2)
	assert.Equal(t, AxisPosX, mouse.got[0].Type)
	assert.Equal(t, AxisPosY, mouse.got[1].Type)
	assert.Empty(t, keys.got)
	assert.Len(t, both.got, 2)
}

func TestUnregister_AbsentIsAnError(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	r := &recorder{}

	err := reg.Unregister(r)
	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.ErrorIs(t, err, ErrMisuse)

	require.NoError(t, reg.Register(1, r))
	require.NoError(t, reg.Unregister(r))
	assert.ErrorIs(t, reg.Unregister(r), ErrNotRegistered)
}

func TestUnregister_SelfDuringFanOut(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	const n = 5
	recs := make([]*recorder, n)
	for i := range recs {
		recs[i] = &recorder{}
		require.NoError(t, reg.Register(int(ClassMouse), recs[i]))
	}
	self := recs[2]
	self.on = func(ev Envelope) {
		if ev.Type == AxisPosX {
			require.NoError(t, reg.Unregister(self))
		}
	}

	x := Envelope{Class: ClassMouse, Type: AxisPosX}
	y := Envelope{Class: ClassMouse, Type: AxisPosY}
	reg.Deliver(ClassMouse, x, y)

	// The unregistering receiver saw X but not the Y of the same pair.
	assert.Len(t, self.got, 1)
	for i, r := range recs {
		if i != 2 {
			assert.Len(t, r.got, 2, "receiver %d", i)
		}
	}

	reg.Deliver(ClassMouse, x, y)
	assert.Len(t, self.got, 1)
	assert.Len(t, recs[4].got, 4)
}

func TestUnregister_OtherDuringFanOut(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	first := &recorder{}
	second := &recorder{}
	first.on = func(Envelope) { _ = reg.Unregister(second) }
	require.NoError(t, reg.Register(int(ClassTimer), first))
	require.NoError(t, reg.Register(int(ClassTimer), second))

	reg.Deliver(ClassTimer, Envelope{Class: ClassTimer})
	assert.Len(t, first.got, 1)
	assert.Empty(t, second.got)
}

func TestRegistry_ConcurrentUnregister(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	recs := make([]*recorder, 64)
	for i := range recs {
		recs[i] = &recorder{}
		require.NoError(t, reg.Register(int(ClassGamepad), recs[i]))
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, r := range recs {
			_ = reg.Unregister(r)
		}
	}()
	for i := 0; i < 100; i++ {
		for _, r := range reg.Snapshot() {
			_ = r.Active()
			_ = r.Wants(ClassGamepad)
		}
	}
	wg.Wait()
	assert.Zero(t, reg.Len())
}

func TestSetPlayback(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	r := &recorder{}
	c := playback.Open(nil)

	assert.ErrorIs(t, reg.SetPlayback(r, c), ErrNotRegistered)
	require.NoError(t, reg.Register(AnimationEvent, r))
	require.NoError(t, reg.SetPlayback(r, c))
	assert.Same(t, c, reg.Snapshot()[0].Playback())

	other := &recorder{}
	require.NoError(t, reg.Register(0, other, WithPlayback(c)))
	assert.Same(t, c, reg.Snapshot()[1].Playback())
}

func TestFunc(t *testing.T) {
	calls := 0
	f := NewFunc(func(Envelope) Result { calls++; return NotHandled })
	reg := NewRegistry(zap.NewNop())
	require.NoError(t, reg.Register(int(ClassTimer), f))
	reg.Deliver(ClassTimer, Envelope{})
	assert.Equal(t, 1, calls)
	require.NoError(t, reg.Unregister(f))
}
