package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/pdabridge/internal/content"
)

// registerModules installs the "pda" table into L:
//
//	pda.nick()              our current nick
//	pda.normalize(s)        s as the game would render it
//	pda.is_actor_line(s)    whether s carries actor framing
//	pda.split_actor_line(s) author, faction, body (nil on malformed input)
func (h *Highlighter) registerModules(L *lua.LState) {
	pda := L.NewTable()
	L.SetFuncs(pda, map[string]lua.LGFunction{
		"nick": func(L *lua.LState) int {
			nick := ""
			if h.Nick != nil {
				nick = h.Nick()
			}
			L.Push(lua.LString(nick))
			return 1
		},
		"normalize": func(L *lua.LState) int {
			L.Push(lua.LString(content.Normalize(L.CheckString(1))))
			return 1
		},
		"is_actor_line": func(L *lua.LState) int {
			L.Push(lua.LBool(content.IsActorLine(L.CheckString(1))))
			return 1
		},
		"split_actor_line": func(L *lua.LState) int {
			author, faction, body, err := content.SplitActorLine(L.CheckString(1))
			if err != nil {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LString(author))
			L.Push(lua.LString(faction))
			L.Push(lua.LString(body))
			return 3
		},
	})
	L.SetGlobal("pda", pda)
}
