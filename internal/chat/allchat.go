// Package chat implements the three chat subservers (spec.md §4.9):
// all-chat (global broadcast), private-chat (two-party conversations),
// and messenger (presence + mail). All three ride the fixed-key chat
// wire scheme (internal/chatwire) rather than the rolling one; all-chat
// and private-chat route chat messages through internal/chatsys for
// mute enforcement and slash-command recognition before broadcast (the
// messenger carries no chat messages). Grounded
// on internal/lobby.Director's tick/dispatch shape.
package chat

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/alicia-server/server/internal/chatsys"
	"github.com/alicia-server/server/internal/command"
	"github.com/alicia-server/server/internal/config"
	netpkg "github.com/alicia-server/server/internal/net"
	"github.com/alicia-server/server/internal/otp"
	"github.com/alicia-server/server/internal/persist"
)

type allChatClient struct {
	session      *netpkg.Session
	characterUid uint32
	loginID      string
	name         string
	joined       bool
}

// AllChatDirector runs the global chat channel: every joined client
// sees every other client's messages (spec.md §4.9 S5).
type AllChatDirector struct {
	server   *netpkg.Server
	registry *command.Registry
	otp      *otp.Registry
	chat     *chatsys.System
	cfg      *config.Config
	log      *zap.Logger

	characterRepo *persist.CharacterRepo

	sessions map[uint64]*allChatClient
}

func NewAllChatDirector(
	server *netpkg.Server,
	otpReg *otp.Registry,
	chat *chatsys.System,
	cfg *config.Config,
	db *persist.DB,
	log *zap.Logger,
) *AllChatDirector {
	d := &AllChatDirector{
		server:        server,
		otp:           otpReg,
		chat:          chat,
		cfg:           cfg,
		log:           log,
		characterRepo: persist.NewCharacterRepo(db),
		sessions:      make(map[uint64]*allChatClient),
	}

	d.registry = command.NewRegistry(log)
	command.Register(d.registry, func() *command.ChatEnterRoomCmd { return &command.ChatEnterRoomCmd{} }, d.handleEnter)
	command.Register(d.registry, func() *command.ChatCmd { return &command.ChatCmd{} }, d.handleChat)

	return d
}

func (d *AllChatDirector) Run(ctx context.Context) error { return runTick(ctx, d.cfg, d.tick) }

func (d *AllChatDirector) tick() {
	for {
		select {
		case sess := <-d.server.NewSessions():
			d.sessions[sess.ID] = &allChatClient{session: sess}
			continue
		default:
		}
		break
	}
	for {
		select {
		case id := <-d.server.DeadSessions():
			delete(d.sessions, id)
			continue
		default:
		}
		break
	}
	for id, cl := range d.sessions {
		for {
			select {
			case frame := <-cl.session.InQueue:
				if err := d.registry.Dispatch(id, frame.ID, frame.Payload); err != nil {
					d.log.Warn("dispatch error", zap.Uint64("session", id), zap.Error(err))
				}
				continue
			default:
			}
			break
		}
	}
}

// handleEnter authorizes the all-chat OTP (granted by the lobby/
// messenger handoff) and admits the client to the global channel
// (spec.md §4.9: "OTP'd EnterRoom").
func (d *AllChatDirector) handleEnter(clientID uint64, cmd *command.ChatEnterRoomCmd) {
	cl, ok := d.sessions[clientID]
	if !ok {
		return
	}
	if !d.otp.AuthorizeCode(otp.Hash(cmd.CharacterUid, otp.DestinationAllChat), cmd.Code) {
		command.Send(cl.session, &command.ChatEnterRoomAckCancelCmd{})
		return
	}

	cl.characterUid = cmd.CharacterUid
	cl.name = cmd.CharacterName
	cl.joined = true

	char, err := d.characterRepo.Load(context.Background(), cmd.CharacterUid)
	if err == nil {
		cl.loginID = char.OwnerLoginID
	}

	var ack command.ChatEnterRoomAckOkCmd
	ack.Participants[0] = command.ChatParticipant{CharacterUid: cl.characterUid, CharacterName: cl.name}
	command.Send(cl.session, &ack)
}

// handleChat routes the message through the shared chat system then
// broadcasts it to every other joined client.
func (d *AllChatDirector) handleChat(clientID uint64, cmd *command.ChatCmd) {
	cl, ok := d.sessions[clientID]
	if !ok || !cl.joined {
		return
	}

	verdict := d.chat.Route(context.Background(), cl.loginID, cl.name, cmd.Message)
	if verdict.Muted || verdict.CommandHandled {
		if verdict.Reply != "" {
			command.Send(cl.session, &command.ChatSystemMessageCmd{Message: verdict.Reply})
		}
		return
	}

	for id, other := range d.sessions {
		if id != clientID && other.joined {
			command.Send(other.session, &command.ChatCmd{Message: cmd.Message, Role: cmd.Role})
		}
	}
}

// runTick is the 50Hz-scheduling shape shared by all three chat
// directors (spec.md §5, §9).
func runTick(ctx context.Context, cfg *config.Config, fn func()) error {
	tick := cfg.Network.TickRate
	if tick <= 0 {
		tick = 20 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn()
		}
	}
}
