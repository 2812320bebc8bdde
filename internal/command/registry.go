// Package command implements the per-subserver command dispatch table
// described in spec.md §4.4: a map from commandId to a type-erased
// handler closure, built at registration time from a typed Register
// call so individual handlers never touch the raw byte stream.
package command

import (
	"fmt"

	"go.uber.org/zap"

	netpkg "github.com/alicia-server/server/internal/net"
	"github.com/alicia-server/server/internal/wire"
)

// Readable is implemented by a command payload that can populate
// itself from a descrambled frame. It is the Go analogue of the
// original's "static Read(T&, SourceStream&)" — here a method on the
// payload's pointer receiver plays that role.
type Readable interface {
	CommandID() uint16
	ReadFrom(r *wire.Reader) error
}

// Writable is implemented by a command payload that can serialise
// itself into an outbound frame.
type Writable interface {
	CommandID() uint16
	WriteTo(w *wire.Writer)
}

// rawHandler is the type-erased entry stored in the dispatch table:
// decode the payload and invoke the typed handler.
type rawHandler func(clientID uint64, payload []byte) error

// Registry is one subserver's commandId → handler table (spec.md
// §8 invariant 5: at most one handler per commandId; re-registration
// replaces atomically).
type Registry struct {
	handlers map[uint16]rawHandler
	log      *zap.Logger
}

// NewRegistry returns an empty dispatch table.
func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[uint16]rawHandler),
		log:      log,
	}
}

// Register binds commandId (read from a zero value of T via
// CommandID()) to a typed handler. Registering the same commandId
// again replaces the previous handler.
func Register[T Readable](reg *Registry, newT func() T, handler func(clientID uint64, cmd T)) {
	id := newT().CommandID()
	reg.handlers[id] = func(clientID uint64, payload []byte) error {
		cmd := newT()
		if err := cmd.ReadFrom(wire.NewReader(payload)); err != nil {
			return err
		}
		handler(clientID, cmd)
		return nil
	}
}

// Dispatch looks up the handler for id and invokes it with the
// descrambled payload. Unknown IDs are logged at debug level and the
// frame is discarded with a nil error; payload decode errors are
// returned to the caller.
func (reg *Registry) Dispatch(clientID uint64, id uint16, payload []byte) error {
	h, ok := reg.handlers[id]
	if !ok {
		reg.log.Debug("unknown command id, discarding frame",
			zap.Uint64("client", clientID), zap.Uint16("id", id))
		return nil
	}
	if err := h(clientID, payload); err != nil {
		return fmt.Errorf("command %d: %w", id, err)
	}
	return nil
}

// Send serialises cmd and queues it on sess, following spec.md §4.4's
// QueueCommand pipeline (write payload, compute length, set magic,
// scramble, commit) — all of which Session.Send/FrameCodec.Encode
// already perform once handed the id and payload bytes.
func Send(sess *netpkg.Session, cmd Writable) {
	w := wire.NewWriter()
	cmd.WriteTo(w)
	sess.Send(cmd.CommandID(), w.Bytes())
}
