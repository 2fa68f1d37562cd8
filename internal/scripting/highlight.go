package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// HookName is the Lua global consulted for every channel line.
const HookName = "highlight"

// Highlighter calls a user-defined Lua highlight(author, target, content)
// hook. The hook returns true or false to decide, or nil to fall back to
// the default rule.
//
// Highlighter is safe for concurrent use; calls are serialized on one VM.
type Highlighter struct {
	mu     sync.Mutex
	L      *lua.LState
	limit  int
	logger *zap.Logger

	// Nick backs pda.nick(). Injected after construction; nil yields "".
	Nick func() string
}

// LoadHighlighter creates a sandboxed VM, registers the pda.* module, then
// executes every *.lua file in dir in lexicographic order.
//
// Precondition: dir must be a readable directory; logger must be non-nil.
// Postcondition: Returns a ready Highlighter or an error on any load failure.
func LoadHighlighter(dir string, limit int, logger *zap.Logger) (*Highlighter, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	h := &Highlighter{L: NewSandboxedState(), limit: limit, logger: logger}
	h.registerModules(h.L)
	for _, path := range files {
		err := withBudget(h.L, limit, func() error { return h.L.DoFile(path) })
		if err != nil {
			h.L.Close()
			return nil, fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}
	logger.Info("highlight scripts loaded", zap.Int("files", len(files)))
	return h, nil
}

// Highlight runs the hook for one channel line.
//
// Postcondition: ok is false when no hook is defined, the hook returned
// nil or a non-boolean, or the hook failed. Failures are logged at Warn.
func (h *Highlighter) Highlight(author, target, content string) (highlight, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	fn := h.L.GetGlobal(HookName)
	if fn.Type() != lua.LTFunction {
		return false, false
	}
	err := withBudget(h.L, h.limit, func() error {
		return h.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true},
			lua.LString(author), lua.LString(target), lua.LString(content))
	})
	if err != nil {
		h.logger.Warn("scripting: highlight hook failed", zap.Error(err))
		return false, false
	}
	ret := h.L.Get(-1)
	h.L.Pop(1)
	b, isBool := ret.(lua.LBool)
	if !isBool {
		if ret != lua.LNil {
			h.logger.Warn("scripting: highlight hook returned a non-boolean", zap.String("type", ret.Type().String()))
		}
		return false, false
	}
	return bool(b), true
}

// Close releases the VM.
func (h *Highlighter) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.L.Close()
}
