package chat

import (
	"context"

	"go.uber.org/zap"

	"github.com/alicia-server/server/internal/command"
	"github.com/alicia-server/server/internal/config"
	netpkg "github.com/alicia-server/server/internal/net"
	"github.com/alicia-server/server/internal/otp"
	"github.com/alicia-server/server/internal/persist"
	"github.com/alicia-server/server/internal/store"
)

type messengerClient struct {
	session      *netpkg.Session
	characterUid uint32
	loginID      string
}

// MessengerDirector handles presence login and the letter (mail)
// mailbox, plus handing out the all-chat channel's advertised endpoint
// (spec.md §4.9: "messenger presence + LetterList/LetterSend/LetterRead
// /LetterDelete via persist.MailRepo").
type MessengerDirector struct {
	server   *netpkg.Server
	registry *command.Registry
	otp      *otp.Registry
	cfg      *config.Config
	log      *zap.Logger

	characterRepo *persist.CharacterRepo
	mailRepo      *persist.MailRepo

	sessions map[uint64]*messengerClient
}

func NewMessengerDirector(
	server *netpkg.Server,
	otpReg *otp.Registry,
	cfg *config.Config,
	db *persist.DB,
	log *zap.Logger,
) *MessengerDirector {
	d := &MessengerDirector{
		server:        server,
		otp:           otpReg,
		cfg:           cfg,
		log:           log,
		characterRepo: persist.NewCharacterRepo(db),
		mailRepo:      persist.NewMailRepo(db),
		sessions:      make(map[uint64]*messengerClient),
	}

	d.registry = command.NewRegistry(log)
	command.Register(d.registry, func() *command.MessengerLoginCmd { return &command.MessengerLoginCmd{} }, d.handleLogin)
	command.Register(d.registry, func() *command.LetterListCmd { return &command.LetterListCmd{} }, d.handleLetterList)
	command.Register(d.registry, func() *command.LetterSendCmd { return &command.LetterSendCmd{} }, d.handleLetterSend)
	command.Register(d.registry, func() *command.LetterReadCmd { return &command.LetterReadCmd{} }, d.handleLetterRead)
	command.Register(d.registry, func() *command.LetterDeleteCmd { return &command.LetterDeleteCmd{} }, d.handleLetterDelete)

	return d
}

func (d *MessengerDirector) Run(ctx context.Context) error { return runTick(ctx, d.cfg, d.tick) }

func (d *MessengerDirector) tick() {
	for {
		select {
		case sess := <-d.server.NewSessions():
			d.sessions[sess.ID] = &messengerClient{session: sess}
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

// handleLogin establishes the caller's messenger identity, then hands
// back the advertised all-chat endpoint plus a fresh all-chat OTP
// (spec.md §6's handoff tuple, §4.5's OTP grant).
func (d *MessengerDirector) handleLogin(clientID uint64, cmd *command.MessengerLoginCmd) {
	cl, ok := d.sessions[clientID]
	if !ok {
		return
	}
	char, err := d.characterRepo.Load(context.Background(), cmd.CharacterUid)
	if err != nil {
		return
	}
	cl.characterUid = char.Uid
	cl.loginID = char.OwnerLoginID

	d.otp.GrantCode(otp.Hash(char.Uid, otp.DestinationAllChat))

	command.Send(cl.session, &command.ChannelInfoCmd{
		AllChatAddress: 0,
		AllChatPort:    d.cfg.AllChat.Listen.Port,
	})
}

func (d *MessengerDirector) handleLetterList(clientID uint64, cmd *command.LetterListCmd) {
	cl, ok := d.sessions[clientID]
	if !ok || cl.loginID == "" {
		return
	}
	mails, err := d.mailRepo.ListByRecipient(context.Background(), cl.loginID)
	if err != nil {
		return
	}

	out := make([]command.LetterSummary, 0, cmd.Count)
	for _, m := range mails {
		if cmd.LastMailUid != 0 && m.Uid >= cmd.LastMailUid {
			continue
		}
		if uint16(len(out)) >= cmd.Count && cmd.Count != 0 {
			break
		}
		out = append(out, command.LetterSummary{Uid: m.Uid, SenderName: m.SenderName, Subject: m.Subject, Read: m.Read})
	}
	command.Send(cl.session, &command.LetterListOKCmd{Folder: cmd.Folder, Letters: out})
}

func (d *MessengerDirector) handleLetterSend(clientID uint64, cmd *command.LetterSendCmd) {
	cl, ok := d.sessions[clientID]
	if !ok || cl.loginID == "" {
		return
	}
	ctx := context.Background()
	recipient, err := d.characterRepo.LoadByName(ctx, cmd.RecipientName)
	if err != nil {
		return
	}

	var senderName string
	if char, err := d.characterRepo.Load(ctx, cl.characterUid); err == nil {
		senderName = char.Name
	}

	d.mailRepo.Send(ctx, store.Mail{
		SenderName:     senderName,
		RecipientLogin: recipient.OwnerLoginID,
		Subject:        cmd.Subject,
		Body:           cmd.Body,
	})
}

func (d *MessengerDirector) handleLetterRead(clientID uint64, cmd *command.LetterReadCmd) {
	cl, ok := d.sessions[clientID]
	if !ok {
		return
	}
	_ = cl
	ctx := context.Background()
	m, err := d.mailRepo.Load(ctx, cmd.Uid)
	if err != nil {
		return
	}
	m.Read = true
	d.mailRepo.Save(ctx, cmd.Uid, m)
}

func (d *MessengerDirector) handleLetterDelete(clientID uint64, cmd *command.LetterDeleteCmd) {
	if _, ok := d.sessions[clientID]; !ok {
		return
	}
	d.mailRepo.Delete(context.Background(), cmd.Uid)
}
