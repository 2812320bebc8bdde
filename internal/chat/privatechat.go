package chat

import (
	"context"

	"go.uber.org/zap"

	"github.com/alicia-server/server/internal/chatsys"
	"github.com/alicia-server/server/internal/command"
	"github.com/alicia-server/server/internal/config"
	netpkg "github.com/alicia-server/server/internal/net"
	"github.com/alicia-server/server/internal/persist"
)

type privateChatClient struct {
	session      *netpkg.Session
	characterUid uint32
	loginID      string
	name         string
	partnerUid   uint32 // target character UID named in ChatEnterRoomCmd.Code
}

// PrivateChatDirector pairs two characters into a conversation keyed by
// the target character UID the invoker names in ChatEnterRoomCmd.Code —
// no OTP gate, since both parties already know each other's UID from
// whatever in-game context (ranch, race, guild) prompted the chat
// (spec.md §4.9 S5: "private-chat two-party conversation context keyed
// by the code field"). Entry acks immediately off a characterRepo
// lookup of the named target, independent of whether that target is
// presently connected (ground truth:
// PrivateChatDirector::HandleChatterEnterRoom acks on the invoker's own
// EnterRoom, it never waits on the other side).
type PrivateChatDirector struct {
	server   *netpkg.Server
	registry *command.Registry
	chat     *chatsys.System
	cfg      *config.Config
	log      *zap.Logger

	characterRepo *persist.CharacterRepo

	sessions    map[uint64]*privateChatClient
	byCharacter map[uint32]uint64 // characterUid -> clientID, for relaying to a connected partner
}

func NewPrivateChatDirector(
	server *netpkg.Server,
	chat *chatsys.System,
	cfg *config.Config,
	db *persist.DB,
	log *zap.Logger,
) *PrivateChatDirector {
	d := &PrivateChatDirector{
		server:        server,
		chat:          chat,
		cfg:           cfg,
		log:           log,
		characterRepo: persist.NewCharacterRepo(db),
		sessions:      make(map[uint64]*privateChatClient),
		byCharacter:   make(map[uint32]uint64),
	}

	d.registry = command.NewRegistry(log)
	command.Register(d.registry, func() *command.ChatEnterRoomCmd { return &command.ChatEnterRoomCmd{} }, d.handleEnter)
	command.Register(d.registry, func() *command.ChatCmd { return &command.ChatCmd{} }, d.handleChat)

	return d
}

func (d *PrivateChatDirector) Run(ctx context.Context) error { return runTick(ctx, d.cfg, d.tick) }

func (d *PrivateChatDirector) tick() {
	for {
		select {
		case sess := <-d.server.NewSessions():
			d.sessions[sess.ID] = &privateChatClient{session: sess}
			continue
		default:
		}
		break
	}
	for {
		select {
		case id := <-d.server.DeadSessions():
			d.depart(id)
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

func (d *PrivateChatDirector) depart(clientID uint64) {
	cl, ok := d.sessions[clientID]
	if !ok {
		return
	}
	if cl.characterUid != 0 && d.byCharacter[cl.characterUid] == clientID {
		delete(d.byCharacter, cl.characterUid)
	}
	delete(d.sessions, clientID)
}

// handleEnter acks the invoker immediately off a characterRepo lookup
// of the named target, never waiting on the target's own session
// (ground truth: PrivateChatDirector::HandleChatterEnterRoom acks on
// the invoker's EnterRoom alone).
func (d *PrivateChatDirector) handleEnter(clientID uint64, cmd *command.ChatEnterRoomCmd) {
	cl, ok := d.sessions[clientID]
	if !ok {
		return
	}
	cl.characterUid = cmd.CharacterUid
	cl.name = cmd.CharacterName
	cl.partnerUid = cmd.Code
	if char, err := d.characterRepo.Load(context.Background(), cmd.CharacterUid); err == nil {
		cl.loginID = char.OwnerLoginID
	}
	d.byCharacter[cl.characterUid] = clientID

	target, err := d.characterRepo.Load(context.Background(), cmd.Code)
	if err != nil {
		command.Send(cl.session, &command.ChatEnterRoomAckCancelCmd{})
		return
	}

	ack := command.ChatEnterRoomAckOkCmd{Participants: [2]command.ChatParticipant{
		{CharacterUid: cl.characterUid, CharacterName: cl.name},
		{CharacterUid: target.Uid, CharacterName: target.Name},
	}}
	command.Send(cl.session, &ack)
}

// handleChat routes the message through the shared chat system then
// echoes it back to the sender and relays it to the partner named in
// handleEnter, if that partner is currently connected (spec.md §4.9
// S5, ground truth PrivateChatDirector::HandleChatterChat: both sides
// receive ChatTrs{unk0=invoker, message}).
func (d *PrivateChatDirector) handleChat(clientID uint64, cmd *command.ChatCmd) {
	cl, ok := d.sessions[clientID]
	if !ok {
		return
	}

	verdict := d.chat.Route(context.Background(), cl.loginID, cl.name, cmd.Message)
	if verdict.Muted || verdict.CommandHandled {
		if verdict.Reply != "" {
			command.Send(cl.session, &command.ChatSystemMessageCmd{Message: verdict.Reply})
		}
		return
	}

	trs := command.ChatTrsCmd{Unk0: cl.characterUid, Message: cmd.Message}
	command.Send(cl.session, &trs)

	if partnerID, ok := d.byCharacter[cl.partnerUid]; ok {
		if partner, ok := d.sessions[partnerID]; ok {
			command.Send(partner.session, &trs)
		}
	}
}
