package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/yagago/host/internal/core/event"
	"github.com/yagago/host/internal/dispatch"
)

var constants = map[string]int{
	"RENDER_TARGET":   int(event.ClassRenderTarget),
	"MOUSE":           int(event.ClassMouse),
	"KEYBOARD":        int(event.ClassKeyboard),
	"GAMEPAD":         int(event.ClassGamepad),
	"TIMER":           int(event.ClassTimer),
	"EVENT_STREAM":    int(event.ClassEventStream),
	"ANIMATION_EVENT": event.AnimationEvent,

	"RT_CLOSE":       int(event.RTClose),
	"RT_MODE_TOGGLE": int(event.RTModeToggle),
	"RT_ACTIVATED":   int(event.RTActivated),
	"AXIS_POS_X":     int(event.AxisPosX),
	"AXIS_POS_Y":     int(event.AxisPosY),
	"BUTTON_DOWN":    int(event.ButtonDown),
	"BUTTON_UP":      int(event.ButtonUp),
	"TIMER_TICK":     int(event.TimerTick),
	"STREAM_UPDATE":  int(event.StreamUpdate),
}

func (e *Engine) module() *lua.LTable {
	mod := e.vm.SetFuncs(e.vm.NewTable(), map[string]lua.LGFunction{
		"register":        e.luaRegister,
		"unregister":      e.luaUnregister,
		"install_timer":   e.luaInstallTimer,
		"uninstall_timer": e.luaUninstallTimer,
		"stop":            e.luaStop,
		"log":             e.luaLog,
		"set_title":       e.luaSetTitle,
	})
	for name, v := range constants {
		mod.RawSetString(name, lua.LNumber(v))
	}
	return mod
}

// yaga.register(mask, fn [, track]) -> id | nil, err
func (e *Engine) luaRegister(L *lua.LState) int {
	mask := L.CheckInt(1)
	fn := L.CheckFunction(2)
	trackName := L.OptString(3, "")

	r := &luaReceiver{e: e, fn: fn}
	var opts []event.Option
	if trackName != "" {
		track, err := e.tracks.LoadTrack(trackName)
		if err != nil {
			return fail(L, err)
		}
		cur := e.disp.NewPlayback(track)
		r.stream = e.streamTable(cur)
		opts = append(opts, event.WithPlayback(cur))
	}
	if err := e.disp.Register(mask, r, opts...); err != nil {
		return fail(L, err)
	}
	e.nextID++
	e.receivers[e.nextID] = r
	L.Push(lua.LNumber(e.nextID))
	return 1
}

// yaga.unregister(id) -> true | nil, err
func (e *Engine) luaUnregister(L *lua.LState) int {
	id := L.CheckInt(1)
	r, ok := e.receivers[id]
	if !ok {
		return fail(L, fmt.Errorf("handler %d: %w", id, event.ErrNotRegistered))
	}
	delete(e.receivers, id)
	if err := e.disp.Unregister(r); err != nil {
		return fail(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

// yaga.install_timer(hz, fn) -> id | nil, err
func (e *Engine) luaInstallTimer(L *lua.LState) int {
	hz := float64(L.CheckNumber(1))
	fn := L.CheckFunction(2)
	t := dispatch.NewTimer(hz, &luaReceiver{e: e, fn: fn})
	if err := e.disp.InstallTimer(t); err != nil {
		return fail(L, err)
	}
	e.nextID++
	e.timers[e.nextID] = t
	L.Push(lua.LNumber(e.nextID))
	return 1
}

// yaga.uninstall_timer(id) -> true | nil, err
func (e *Engine) luaUninstallTimer(L *lua.LState) int {
	id := L.CheckInt(1)
	t, ok := e.timers[id]
	if !ok {
		return fail(L, fmt.Errorf("timer %d: %w", id, event.ErrNotRegistered))
	}
	delete(e.timers, id)
	if err := e.disp.UninstallTimer(t); err != nil {
		return fail(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

func (e *Engine) luaStop(L *lua.LState) int {
	e.disp.Stop()
	return 0
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("script", zap.String("msg", L.CheckString(1)))
	return 0
}

func (e *Engine) luaSetTitle(L *lua.LState) int {
	title := L.CheckString(1)
	if e.window != nil {
		e.window.SetTitle(title)
	}
	return 0
}
