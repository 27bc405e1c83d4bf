package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules installs the engine table into L:
//
//	engine.roll(expr)        -> total of a dice expression such as "2d6+1", or 0 on a bad expression
//	engine.between(lo, hi)   -> uniform integer in [lo, hi]
//	engine.log(msg)          -> Debug log line
//
// Precondition: L must be from NewSandboxedState.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "roll", L.NewFunction(func(L *lua.LState) int {
		expr := L.CheckString(1)
		res, err := m.roller.Roll(expr)
		if err != nil {
			m.logger.Warn("scripting: bad dice expression", zap.String("expr", expr), zap.Error(err))
			L.Push(lua.LNumber(0))
			return 1
		}
		L.Push(lua.LNumber(res.Total()))
		return 1
	}))
	L.SetField(engine, "between", L.NewFunction(func(L *lua.LState) int {
		lo := L.CheckInt(1)
		hi := L.CheckInt(2)
		L.Push(lua.LNumber(m.roller.Between(lo, hi)))
		return 1
	}))
	L.SetField(engine, "log", L.NewFunction(func(L *lua.LState) int {
		m.logger.Debug("lua", zap.String("msg", L.CheckString(1)))
		return 0
	}))
	L.SetGlobal("engine", engine)
}
