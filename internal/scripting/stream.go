package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/yagago/host/internal/evb"
	"github.com/yagago/host/internal/playback"
)

// streamTable exposes a playback cursor to Lua. Record indices are 0-based,
// as in the track file. The functions accept both stream.f() and stream:f().
func (e *Engine) streamTable(cur *playback.Cursor) *lua.LTable {
	L := e.vm
	t := L.NewTable()
	L.SetFuncs(t, map[string]lua.LGFunction{
		"id": func(L *lua.LState) int {
			L.Push(lua.LNumber(cur.ID()))
			return 1
		},
		"elapsed": func(L *lua.LState) int {
			L.Push(lua.LNumber(cur.Elapsed()))
			return 1
		},
		"seek": func(L *lua.LState) int {
			cur.Seek(float64(L.CheckNumber(argBase(L))))
			return 0
		},
		"run": func(L *lua.LState) int {
			cur.Run()
			return 0
		},
		"len": func(L *lua.LState) int {
			L.Push(lua.LNumber(cur.Track().Len()))
			return 1
		},
		"timestamp": func(L *lua.LState) int {
			r, ok := cur.Track().Record(L.CheckInt(argBase(L)))
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LNumber(r.Timestamp))
			return 1
		},
		"mask": func(L *lua.LState) int {
			m, err := cur.FetchMask(L.CheckInt(argBase(L)))
			if err != nil {
				return fail(L, err)
			}
			mt := L.NewTable()
			mt.RawSetString("bitmask", lua.LNumber(m.Bitmask))
			mt.RawSetString("aux", lua.LNumber(m.Aux))
			L.Push(mt)
			return 1
		},
		"scripted": func(L *lua.LState) int {
			s, err := cur.FetchScripted(L.CheckInt(argBase(L)))
			if err != nil {
				return fail(L, err)
			}
			L.Push(scriptedTable(L, s))
			return 1
		},
	})
	return t
}

// argBase skips the self argument of a method-style call.
func argBase(L *lua.LState) int {
	if _, ok := L.Get(1).(*lua.LTable); ok {
		return 2
	}
	return 1
}

// scriptedTable converts a scripted payload to
// {flag, type, elements = {{name, attrs = {[name] = value}, order = {names}}}}.
func scriptedTable(L *lua.LState, s *evb.Scripted) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("flag", lua.LNumber(s.Flag))
	t.RawSetString("type", lua.LString(s.Type()))
	elems := L.NewTable()
	for _, el := range s.Elements {
		et := L.NewTable()
		et.RawSetString("name", lua.LString(el.NameText()))
		attrs := L.NewTable()
		order := L.NewTable()
		for _, a := range el.Attributes {
			name := a.NameText()
			// First occurrence wins, as in Element.Attr.
			if attrs.RawGetString(name) == lua.LNil {
				attrs.RawSetString(name, lua.LString(a.ValueText()))
			}
			order.Append(lua.LString(name))
		}
		et.RawSetString("attrs", attrs)
		et.RawSetString("order", order)
		elems.Append(et)
	}
	t.RawSetString("elements", elems)
	return t
}
