// Package chatcmd recognises slash-prefixed chat commands and produces
// a sender-only reply, per spec.md §4.9's "central chat system" hook:
// "(a) recognise a command (slash-prefixed) and return one or more
// response lines directed back only to the sender." Grounded on the
// teacher's internal/scripting.Engine: one gopher-lua VM, scripts
// loaded from a directory at startup, named global functions invoked
// with a table argument and read back from the return table. The
// teacher's engine bridges combat/potion/PK formulas that have no
// analogue in a ranch/racing game; this engine keeps the same
// single-VM, load-directory, call-by-name mechanism and points it at
// chat commands instead.
package chatcmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM holding one global function per
// recognised command, named cmd_<name>. Single-goroutine access only —
// callers must invoke it from the owning chat director's tick.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine loads every .lua file in scriptsDir (each defining one or
// more cmd_* globals) into a fresh VM.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	e := &Engine{vm: vm, log: log}

	entries, err := os.ReadDir(scriptsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return e, nil
		}
		vm.Close()
		return nil, fmt.Errorf("read chat command scripts: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(scriptsDir, entry.Name())
		if err := vm.DoFile(path); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded chat command script", zap.String("file", path))
	}
	return e, nil
}

// Dispatch recognises a slash-prefixed message and returns the reply
// lines to send back to the sender alone. handled is false for any
// message not starting with "/" or naming an unrecognised command, in
// which case the caller should treat the message as ordinary chat.
func (e *Engine) Dispatch(senderName, message string) (reply string, handled bool) {
	if !strings.HasPrefix(message, "/") {
		return "", false
	}
	fields := strings.Fields(message[1:])
	if len(fields) == 0 {
		return "", false
	}
	name, args := fields[0], fields[1:]

	fn := e.vm.GetGlobal("cmd_" + name)
	if fn == lua.LNil {
		return "", false
	}

	argsTbl := e.vm.NewTable()
	for i, a := range args {
		argsTbl.RawSetInt(i+1, lua.LString(a))
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LString(senderName), argsTbl); err != nil {
		e.log.Warn("chat command error", zap.String("command", name), zap.Error(err))
		return fmt.Sprintf("command /%s failed", name), true
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return lua.LVAsString(result), true
}

// Close shuts down the Lua VM.
func (e *Engine) Close() { e.vm.Close() }
