package chatsys

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/alicia-server/server/internal/chatcmd"
	"github.com/alicia-server/server/internal/store"
)

type fakeInfractions struct {
	byLogin map[string][]store.Infraction
}

func (f *fakeInfractions) Active(_ context.Context, loginID string, _ time.Time) ([]store.Infraction, error) {
	return f.byLogin[loginID], nil
}

func newEngine(t *testing.T) *chatcmd.Engine {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ping.lua"), []byte(`
function cmd_ping(sender, args)
  return "pong"
end
`), 0644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	e, err := chatcmd.NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

// TestRouteMutedSuppressesEverything proves an active mute infraction
// blocks broadcast and returns a sender-only reply, even for a message
// that would otherwise be a recognized slash command.
func TestRouteMutedSuppressesEverything(t *testing.T) {
	engine := newEngine(t)
	defer engine.Close()

	infractions := &fakeInfractions{byLogin: map[string][]store.Infraction{
		"rider1": {{LoginID: "rider1", Kind: store.InfractionMute, Reason: "spam"}},
	}}
	sys := New(infractions, engine)

	verdict := sys.Route(context.Background(), "rider1", "Rider One", "/ping")
	if !verdict.Muted {
		t.Fatalf("Route Muted = false, want true")
	}
	if verdict.CommandHandled {
		t.Fatalf("Route CommandHandled = true for a muted sender, want false")
	}
	if verdict.Reply == "" {
		t.Fatalf("Route Reply empty for a muted sender")
	}
}

// TestRouteCommandHandled proves an unmuted sender's slash command is
// recognized and its reply carried back without broadcasting.
func TestRouteCommandHandled(t *testing.T) {
	engine := newEngine(t)
	defer engine.Close()

	sys := New(&fakeInfractions{}, engine)

	verdict := sys.Route(context.Background(), "rider1", "Rider One", "/ping")
	if verdict.Muted {
		t.Fatalf("Route Muted = true, want false")
	}
	if !verdict.CommandHandled {
		t.Fatalf("Route CommandHandled = false, want true")
	}
	if verdict.Reply != "pong" {
		t.Fatalf("Route Reply = %q, want %q", verdict.Reply, "pong")
	}
}

// TestRouteOrdinaryMessagePassesThrough proves a plain chat message
// from an unmuted sender is neither muted nor command-handled, so
// callers know to broadcast it.
func TestRouteOrdinaryMessagePassesThrough(t *testing.T) {
	engine := newEngine(t)
	defer engine.Close()

	sys := New(&fakeInfractions{}, engine)

	verdict := sys.Route(context.Background(), "rider1", "Rider One", "hello everyone")
	if verdict.Muted || verdict.CommandHandled {
		t.Fatalf("Route = %+v, want both false for an ordinary message", verdict)
	}
}

// TestRouteNilCommandEngine proves Route tolerates a nil command
// engine (e.g. no chat commands configured) by treating every message
// as ordinary.
func TestRouteNilCommandEngine(t *testing.T) {
	sys := New(&fakeInfractions{}, nil)

	verdict := sys.Route(context.Background(), "rider1", "Rider One", "/ping")
	if verdict.CommandHandled {
		t.Fatalf("Route CommandHandled = true with a nil command engine")
	}
}
