package chatcmd

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
		t.Fatalf("write script %s: %v", name, err)
	}
}

// TestDispatchHandledCommand proves a registered cmd_<name> global is
// invoked with the sender name and parsed arguments, and its return
// value becomes the reply.
func TestDispatchHandledCommand(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "greet.lua", `
function cmd_greet(sender, args)
  return "hello " .. sender .. " " .. args[1]
end
`)

	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer e.Close()

	reply, handled := e.Dispatch("rider1", "/greet world")
	if !handled {
		t.Fatalf("Dispatch handled = false, want true")
	}
	if want := "hello rider1 world"; reply != want {
		t.Fatalf("Dispatch reply = %q, want %q", reply, want)
	}
}

// TestDispatchUnknownCommand proves a message naming no registered
// command is reported unhandled rather than erroring.
func TestDispatchUnknownCommand(t *testing.T) {
	e, err := NewEngine(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer e.Close()

	if _, handled := e.Dispatch("rider1", "/nosuch arg"); handled {
		t.Fatalf("Dispatch handled = true for an unregistered command")
	}
}

// TestDispatchNonCommandMessage proves ordinary chat (no leading '/')
// is never routed into the Lua engine.
func TestDispatchNonCommandMessage(t *testing.T) {
	e, err := NewEngine(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer e.Close()

	if _, handled := e.Dispatch("rider1", "hello everyone"); handled {
		t.Fatalf("Dispatch handled = true for a non-slash message")
	}
}

// TestDispatchScriptError proves a Lua runtime error surfaces as a
// handled reply rather than panicking or bubbling the error out.
func TestDispatchScriptError(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "broken.lua", `
function cmd_broken(sender, args)
  error("boom")
end
`)

	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer e.Close()

	reply, handled := e.Dispatch("rider1", "/broken")
	if !handled {
		t.Fatalf("Dispatch handled = false for a script that errors, want true")
	}
	if reply == "" {
		t.Fatalf("Dispatch reply empty for a script that errors")
	}
}

// TestNewEngineMissingDir proves a nonexistent scripts directory is
// not an error: the engine just starts with no commands registered.
func TestNewEngineMissingDir(t *testing.T) {
	e, err := NewEngine(filepath.Join(t.TempDir(), "does-not-exist"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine with missing dir: %v", err)
	}
	defer e.Close()

	if _, handled := e.Dispatch("rider1", "/anything"); handled {
		t.Fatalf("Dispatch handled = true with no scripts loaded")
	}
}
