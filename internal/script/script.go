// Package script drives the key pad from a Lua script that is called once
// per frame.
//
// A script can define a global function frame(n) that is called with the
// frame number before the frame executes. The following functions are
// available to it:
//
//	press(k)    presses pad key k, an index 0-15 or a host key name like "q"
//	release(k)  releases pad key k
//	reg(x)      returns the value of register VX
//	pc()        returns the program counter
//	stop()      ends the run after the current call
package script

import (
	"context"
	"fmt"

	"github.com/retroenv/chip8vm/internal/keymap"
	"github.com/retroenv/chip8vm/internal/machine"
	lua "github.com/yuin/gopher-lua"
)

const frameFunction = "frame"

// Target is the machine that the script controls.
type Target interface {
	SetKey(index int, pressed bool)
	Register(x int) uint8
	PC() uint16
}

// Script is a loaded Lua script bound to a target.
type Script struct {
	state   *lua.LState
	target  Target
	stopped bool
}

// New runs the script source once to register its functions.
func New(source string, target Target) (*Script, error) {
	s := newScript(target)
	if err := s.state.DoString(source); err != nil {
		s.Close()
		return nil, fmt.Errorf("running script: %w", err)
	}
	return s, nil
}

// Load reads and runs the named script file.
func Load(path string, target Target) (*Script, error) {
	s := newScript(target)
	if err := s.state.DoFile(path); err != nil {
		s.Close()
		return nil, fmt.Errorf("running script '%s': %w", path, err)
	}
	return s, nil
}

func newScript(target Target) *Script {
	s := &Script{
		state:  lua.NewState(),
		target: target,
	}

	functions := map[string]lua.LGFunction{
		"press":   s.press,
		"release": s.release,
		"reg":     s.register,
		"pc":      s.pc,
		"stop":    s.stop,
	}
	for name, fn := range functions {
		s.state.SetGlobal(name, s.state.NewFunction(fn))
	}
	return s
}

// Frame calls the frame function of the script if it defines one. It
// returns true if the script requested the run to stop.
func (s *Script) Frame(ctx context.Context, frame int) (bool, error) {
	fn := s.state.GetGlobal(frameFunction)
	if fn.Type() != lua.LTFunction {
		return s.stopped, nil
	}

	s.state.SetContext(ctx)
	err := s.state.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, lua.LNumber(frame))
	s.state.RemoveContext()
	if err != nil {
		return false, fmt.Errorf("calling %s(%d): %w", frameFunction, frame, err)
	}
	return s.stopped, nil
}

// Close releases the Lua state.
func (s *Script) Close() {
	s.state.Close()
}

func (s *Script) press(L *lua.LState) int {
	s.target.SetKey(checkKey(L), true)
	return 0
}

func (s *Script) release(L *lua.LState) int {
	s.target.SetKey(checkKey(L), false)
	return 0
}

func (s *Script) register(L *lua.LState) int {
	x := L.CheckInt(1)
	if x < 0 || x >= machine.NumRegisters {
		L.ArgError(1, fmt.Sprintf("register %d out of range", x))
		return 0
	}
	L.Push(lua.LNumber(s.target.Register(x)))
	return 1
}

func (s *Script) pc(L *lua.LState) int {
	L.Push(lua.LNumber(s.target.PC()))
	return 1
}

func (s *Script) stop(_ *lua.LState) int {
	s.stopped = true
	return 0
}

// checkKey returns the pad key index of the first argument.
func checkKey(L *lua.LState) int {
	switch v := L.Get(1).(type) {
	case lua.LNumber:
		key := int(v)
		if key >= 0 && key < machine.NumKeys && lua.LNumber(key) == v {
			return key
		}
	case lua.LString:
		if key, ok := keymap.Lookup(string(v)); ok {
			return key
		}
	}
	L.ArgError(1, fmt.Sprintf("invalid key %s", L.Get(1).String()))
	return 0
}
