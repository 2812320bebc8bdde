// Package chatsys implements the chat message hook shared by the ranch
// chat path and the all-chat/private-chat directors (spec.md §4.7: "chat messages
// pass through the chat system for command detection and mute
// enforcement before broadcast"; §4.9: "chat system hooks"). It is the
// single place that decides whether an outgoing chat line is
// suppressed, answered privately, or allowed to broadcast.
package chatsys

import (
	"context"
	"time"

	"github.com/alicia-server/server/internal/chatcmd"
	"github.com/alicia-server/server/internal/store"
)

// infractionLister is the slice of persist.InfractionRepo that Route
// needs; narrowed to an interface so tests can fake it without a
// database.
type infractionLister interface {
	Active(ctx context.Context, loginID string, now time.Time) ([]store.Infraction, error)
}

// System gates chat messages through mute enforcement then slash
// command recognition, in that order — a muted user's slash commands
// are suppressed along with everything else (spec.md §4.9 S6).
type System struct {
	infractions infractionLister
	commands    *chatcmd.Engine
}

func New(infractions infractionLister, commands *chatcmd.Engine) *System {
	return &System{infractions: infractions, commands: commands}
}

// Verdict is the outcome of routing one chat message through the
// system (spec.md §4.9).
type Verdict struct {
	// Muted is true if the sender has an active mute infraction; the
	// message must not broadcast, and Reply (if non-empty) goes back to
	// the sender alone.
	Muted bool
	// CommandHandled is true if the message was a recognised slash
	// command; Reply carries its response, and the message must not
	// broadcast either way.
	CommandHandled bool
	// Reply is a sender-only response line, set for either Muted or
	// CommandHandled outcomes.
	Reply string
}

// Route decides what to do with a chat message from loginID/senderName
// before it would otherwise broadcast.
func (s *System) Route(ctx context.Context, loginID, senderName, message string) Verdict {
	infs, err := s.infractions.Active(ctx, loginID, time.Now())
	if err == nil {
		for _, inf := range infs {
			if inf.Kind == store.InfractionMute {
				return Verdict{Muted: true, Reply: "you are muted: " + inf.Reason}
			}
		}
	}

	if s.commands != nil {
		if reply, handled := s.commands.Dispatch(senderName, message); handled {
			return Verdict{CommandHandled: true, Reply: reply}
		}
	}

	return Verdict{}
}
