// Package scripting hosts the Lua game scripts. Scripts register event
// handlers and timers through the global "yaga" table; each handler becomes
// a receiver on the dispatch loop.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/yagago/host/internal/core/event"
	"github.com/yagago/host/internal/dispatch"
	"github.com/yagago/host/internal/evb"
	"github.com/yagago/host/internal/playback"
)

// Dispatcher is the part of the dispatch loop scripts can reach.
type Dispatcher interface {
	Register(mask int, recv event.Receiver, opts ...event.Option) error
	Unregister(recv event.Receiver) error
	NewPlayback(track *evb.Track) *playback.Cursor
	InstallTimer(t *dispatch.Timer) error
	UninstallTimer(t *dispatch.Timer) error
	Stop()
}

// TrackLoader resolves an event track by asset name.
type TrackLoader interface {
	LoadTrack(name string) (*evb.Track, error)
}

// TitleSetter changes the window title.
type TitleSetter interface {
	SetTitle(title string)
}

// Engine wraps a single gopher-lua VM. It is only touched from the loop
// goroutine: at load time, from Start, and from inside Raise.
type Engine struct {
	vm     *lua.LState
	disp   Dispatcher
	tracks TrackLoader
	window TitleSetter
	log    *zap.Logger

	nextID    int
	receivers map[int]*luaReceiver
	timers    map[int]*dispatch.Timer
}

// NewEngine creates the VM, installs the yaga module and loads every .lua
// file under scriptsDir/lib and then scriptsDir itself.
func NewEngine(scriptsDir string, disp Dispatcher, tracks TrackLoader, window TitleSetter, log *zap.Logger) (*Engine, error) {
	e := &Engine{
		vm:        lua.NewState(),
		disp:      disp,
		tracks:    tracks,
		window:    window,
		log:       log,
		receivers: make(map[int]*luaReceiver),
		timers:    make(map[int]*dispatch.Timer),
	}
	e.vm.SetGlobal("API_VERSION", lua.LNumber(1))
	e.vm.SetGlobal("yaga", e.module())

	for _, dir := range []string{filepath.Join(scriptsDir, "lib"), scriptsDir} {
		if err := e.loadDir(dir); err != nil {
			e.vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Start calls the global on_start function if a script defined one.
func (e *Engine) Start() error {
	fn := e.vm.GetGlobal("on_start")
	if fn == lua.LNil {
		return nil
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
		return fmt.Errorf("on_start: %w", err)
	}
	return nil
}

// Receivers returns the number of live script handlers.
func (e *Engine) Receivers() int { return len(e.receivers) }

// Timers returns the number of live script timers.
func (e *Engine) Timers() int { return len(e.timers) }

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// luaReceiver forwards envelopes to a Lua function.
type luaReceiver struct {
	e      *Engine
	fn     *lua.LFunction
	stream *lua.LTable // nil without a playback
}

func (r *luaReceiver) Raise(ev event.Envelope) event.Result {
	L := r.e.vm
	t := L.NewTable()
	t.RawSetString("class", lua.LNumber(ev.Class))
	t.RawSetString("type", lua.LNumber(ev.Type))
	t.RawSetString("value", lua.LNumber(ev.Value))
	t.RawSetString("device", lua.LNumber(ev.SourceDeviceID))
	t.RawSetString("element", lua.LNumber(ev.TargetElementID))
	if r.stream != nil && ev.Stream != nil {
		t.RawSetString("stream", r.stream)
	}

	if err := L.CallByParam(lua.P{Fn: r.fn, NRet: 1, Protect: true}, t); err != nil {
		r.e.log.Error("lua handler error",
			zap.Uint32("class", uint32(ev.Class)),
			zap.Int("type", int(ev.Type)),
			zap.Error(err),
		)
		return event.NotHandled
	}
	ret := L.Get(-1)
	L.Pop(1)
	if ret == lua.LFalse {
		return event.NotHandled
	}
	return event.Handled
}

// fail pushes the (nil, message) pair Lua callers check for.
func fail(L *lua.LState, err error) int {
	L.Push(lua.LNil)
	L.Push(lua.LString(err.Error()))
	return 2
}
