package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/fray/internal/game/dice"
)

// vm is one loaded script set. Its LState is single-threaded.
type vm struct {
	mu     sync.Mutex
	L      *lua.LState
	cancel func()
	limit  int
}

// Manager owns one sandboxed LState per script set and dispatches hooks.
// All methods are safe for concurrent use.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	roller *dice.Roller
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	return &Manager{
		vms:    make(map[string]*vm),
		roller: roller,
		logger: logger,
	}
}

// Load creates a sandboxed VM under key, registers the engine module, then
// executes every *.lua file in dir in lexicographic order. Loading a key
// again replaces its VM.
//
// Postcondition: returns an error on a read or Lua load failure, leaving any
// previous VM for key in place.
func (m *Manager) Load(key, dir string, instLimit int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", dir, key, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	src := make([]string, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("scripting: reading %q: %w", path, err)
		}
		src = append(src, string(data))
	}
	return m.load(key, files, src, instLimit)
}

// LoadString is Load for a single in-memory chunk.
func (m *Manager) LoadString(key, chunk string, instLimit int) error {
	return m.load(key, []string{key}, []string{chunk}, instLimit)
}

func (m *Manager) load(key string, names, chunks []string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)
	for i, chunk := range chunks {
		if err := L.DoString(chunk); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", names[i], key, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.vms[key]; ok {
		old.mu.Lock()
		old.cancel()
		old.L.Close()
		old.mu.Unlock()
	}
	m.vms[key] = &vm{L: L, cancel: cancel, limit: instLimit}
	return nil
}

// HasHook reports whether key's VM defines a global function named hook.
func (m *Manager) HasHook(key, hook string) bool {
	m.mu.RLock()
	v, ok := m.vms[key]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	_, isFn := v.L.GetGlobal(hook).(*lua.LFunction)
	return isFn
}

// CallHook calls the named Lua global function in key's VM with a fresh
// instruction budget. Returns LNil if the VM or hook is missing. Lua runtime
// errors, budget exhaustion included, are logged at Warn and return LNil.
//
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(key, hook string, args ...lua.LValue) lua.LValue {
	m.mu.RLock()
	v, ok := m.vms[key]
	m.mu.RUnlock()
	if !ok {
		m.logger.Debug("scripting: no VM",
			zap.String("key", key),
			zap.String("hook", hook),
		)
		return lua.LNil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	fn, isFn := v.L.GetGlobal(hook).(*lua.LFunction)
	if !isFn {
		return lua.LNil
	}
	v.cancel()
	v.cancel = Budget(v.L, v.limit)
	if err := v.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("key", key),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil
	}
	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret
}

// NewTable builds a Lua table of string fields and integer fields inside
// key's VM for passing to CallHook. Returns nil if key has no VM.
func (m *Manager) NewTable(key string, strs map[string]string, ints map[string]int) *lua.LTable {
	m.mu.RLock()
	v, ok := m.vms[key]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	t := v.L.NewTable()
	for k, s := range strs {
		t.RawSetString(k, lua.LString(s))
	}
	for k, n := range ints {
		t.RawSetString(k, lua.LNumber(n))
	}
	return t
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, v := range m.vms {
		v.mu.Lock()
		v.cancel()
		v.L.Close()
		v.mu.Unlock()
		delete(m.vms, key)
	}
}
