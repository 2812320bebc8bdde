// Package ranch implements the ranch subserver (spec.md §4.7): OTP'd
// entry into a character's ranch, presence bookkeeping, horse/housing
// snapshot relay, and ranch chat. Grounded on the lobby director's
// shape (internal/lobby) and on the original's RanchDirector.cpp /
// RanchInstance's member-index presence model.
package ranch

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
	"github.com/alicia-server/server/internal/store"
)

// Member is one character currently present in a ranch.
type Member struct {
	CharacterUid uint32
	Name         string
	RanchIndex   uint16
	Session      *netpkg.Session
	Busy         command.BusyState
}

// Ranch is one character's ranch and its currently-present visitors
// (owner included once they enter their own ranch).
type Ranch struct {
	RancherUid  uint32
	RancherName string
	RanchName   string

	nextIndex uint16
	members   map[uint32]*Member // characterUid -> member
}

func newRanch(rancherUid uint32, rancherName string) *Ranch {
	return &Ranch{
		RancherUid:  rancherUid,
		RancherName: rancherName,
		RanchName:   rancherName + "'s Ranch",
		members:     make(map[uint32]*Member),
	}
}

func (r *Ranch) add(characterUid uint32, name string, sess *netpkg.Session) *Member {
	r.nextIndex++
	m := &Member{CharacterUid: characterUid, Name: name, RanchIndex: r.nextIndex, Session: sess}
	r.members[characterUid] = m
	return m
}

func (r *Ranch) remove(characterUid uint32) {
	delete(r.members, characterUid)
}

func (r *Ranch) others(except uint32) []*Member {
	out := make([]*Member, 0, len(r.members))
	for uid, m := range r.members {
		if uid != except {
			out = append(out, m)
		}
	}
	return out
}

// Registry owns every ranch that currently has at least one visitor.
// Ranches with no visitors are not retained; the owning character's
// persisted horses/housing are the durable state, not the Ranch value.
type Registry struct {
	ranches map[uint32]*Ranch
}

func NewRegistry() *Registry {
	return &Registry{ranches: make(map[uint32]*Ranch)}
}

func (reg *Registry) getOrCreate(rancherUid uint32, rancherName string) *Ranch {
	r, ok := reg.ranches[rancherUid]
	if !ok {
		r = newRanch(rancherUid, rancherName)
		reg.ranches[rancherUid] = r
	}
	return r
}

type clientState struct {
	session      *netpkg.Session
	characterUid uint32
	loginID      string
	rancherUid   uint32 // which ranch this client is currently present in, 0 if none
}

// Director drives the ranch subserver's 50Hz tick, mirroring
// internal/lobby.Director's shape.
type Director struct {
	server   *netpkg.Server
	registry *command.Registry
	otp      *otp.Registry
	ranches  *Registry
	chat     *chatsys.System
	cfg      *config.Config
	log      *zap.Logger

	characters *store.Store[store.CharacterUid, store.Character]

	characterRepo *persist.CharacterRepo
	horseRepo     *persist.HorseRepo

	sessions map[uint64]*clientState
}

func NewDirector(
	server *netpkg.Server,
	otpReg *otp.Registry,
	chat *chatsys.System,
	cfg *config.Config,
	db *persist.DB,
	log *zap.Logger,
) *Director {
	characterRepo := persist.NewCharacterRepo(db)
	horseRepo := persist.NewHorseRepo(db)

	d := &Director{
		server:        server,
		otp:           otpReg,
		ranches:       NewRegistry(),
		chat:          chat,
		cfg:           cfg,
		log:           log,
		characterRepo: characterRepo,
		horseRepo:     horseRepo,
		sessions:      make(map[uint64]*clientState),
	}
	d.characters = store.New(characterRepo.Load, characterRepo.Save)

	d.registry = command.NewRegistry(log)
	command.Register(d.registry, func() *command.RanchEnter { return &command.RanchEnter{} }, d.handleEnter)
	command.Register(d.registry, func() *command.RanchLeaveRanchCmd { return &command.RanchLeaveRanchCmd{} }, d.handleLeave)
	command.Register(d.registry, func() *command.RanchSnapshotCmd { return &command.RanchSnapshotCmd{} }, d.handleSnapshot)
	command.Register(d.registry, func() *command.RanchChatCmd { return &command.RanchChatCmd{} }, d.handleChat)
	command.Register(d.registry, func() *command.UpdateBusyStateCmd { return &command.UpdateBusyStateCmd{} }, d.handleBusyState)
	command.Register(d.registry, func() *command.UpdateEquipmentNotifyCmd { return &command.UpdateEquipmentNotifyCmd{} }, d.handleEquipment)

	return d
}

// Run drives the tick loop until ctx is cancelled (spec.md §5, §9:
// fixed-rate scheduling, same shape as every other director here).
func (d *Director) Run(ctx context.Context) error {
	tick := d.cfg.Network.TickRate
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
			d.tick()
		}
	}
}

func (d *Director) tick() {
	for {
		select {
		case sess := <-d.server.NewSessions():
			d.sessions[sess.ID] = &clientState{session: sess}
			continue
		default:
		}
		break
	}

	for {
		select {
		case id := <-d.server.DeadSessions():
			if cs, ok := d.sessions[id]; ok {
				d.departRanch(cs)
				delete(d.sessions, id)
			}
			continue
		default:
		}
		break
	}

	for id, cs := range d.sessions {
		for {
			select {
			case frame := <-cs.session.InQueue:
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

func (d *Director) clientOf(clientID uint64) *clientState { return d.sessions[clientID] }

// handleEnter authorizes the ranch-entry OTP, admits the character into
// the target ranch, and replies with a full snapshot of who/what is
// already present (spec.md §4.7 S1).
func (d *Director) handleEnter(clientID uint64, cmd *command.RanchEnter) {
	cs := d.clientOf(clientID)
	if cs == nil {
		return
	}

	if !d.otp.AuthorizeCode(otp.Hash(cmd.CharacterUid, otp.DestinationRanch), cmd.Otp) {
		command.Send(cs.session, &command.RanchEnterCancel{})
		return
	}

	ctx := context.Background()
	char, err := d.characterRepo.Load(ctx, cmd.CharacterUid)
	if err != nil {
		command.Send(cs.session, &command.RanchEnterCancel{})
		return
	}
	rancher, err := d.characterRepo.Load(ctx, cmd.RancherUid)
	if err != nil {
		command.Send(cs.session, &command.RanchEnterCancel{})
		return
	}
	if rancher.RanchLocked && rancher.Uid != char.Uid {
		command.Send(cs.session, &command.RanchEnterCancel{})
		return
	}

	cs.session.ResetRollingCode()
	cs.characterUid = char.Uid
	cs.loginID = char.OwnerLoginID
	cs.rancherUid = rancher.Uid

	r := d.ranches.getOrCreate(rancher.Uid, rancher.Name)
	d.add(r, char.Uid, char.Name, cs.session)

	horses, err := d.horseRepo.LoadByOwner(ctx, rancher.Uid)
	if err != nil {
		horses = nil
	}
	outHorses := make([]command.RanchHorse, len(horses))
	for i, h := range horses {
		outHorses[i] = command.RanchHorse{Uid: h.Uid, Tid: h.Tid, Name: h.Name}
	}

	outChars := make([]command.RanchCharacter, 0, len(r.members))
	for _, m := range r.members {
		outChars = append(outChars, command.RanchCharacter{Uid: m.CharacterUid, Name: m.Name, RanchIndex: m.RanchIndex})
	}

	command.Send(cs.session, &command.RanchEnterOK{
		RancherUid:  r.RancherUid,
		RancherName: r.RancherName,
		RanchName:   r.RanchName,
		Horses:      outHorses,
		Characters:  outChars,
	})
}

// add admits characterUid into r and announces its arrival to every
// other present member.
func (d *Director) add(r *Ranch, characterUid uint32, name string, sess *netpkg.Session) {
	m := r.add(characterUid, name, sess)
	notify := &command.RanchEnterNotifyCmd{RanchIndex: m.RanchIndex, CharacterUid: characterUid, Name: name}
	for _, other := range r.others(characterUid) {
		command.Send(other.Session, notify)
	}
}

// handleLeave removes the caller from its current ranch, notifying the
// remaining members (spec.md §4.7).
func (d *Director) handleLeave(clientID uint64, _ *command.RanchLeaveRanchCmd) {
	cs := d.clientOf(clientID)
	if cs == nil {
		return
	}
	d.departRanch(cs)
	command.Send(cs.session, &command.RanchLeaveRanchOKCmd{})
}

func (d *Director) departRanch(cs *clientState) {
	if cs.rancherUid == 0 {
		return
	}
	r, ok := d.ranches.ranches[cs.rancherUid]
	if !ok {
		return
	}
	m, present := r.members[cs.characterUid]
	if !present {
		cs.rancherUid = 0
		return
	}
	r.remove(cs.characterUid)
	for _, other := range r.others(cs.characterUid) {
		command.Send(other.Session, &command.RanchLeaveRanchNotifyCmd{RanchIndex: m.RanchIndex})
	}
	if len(r.members) == 0 {
		delete(d.ranches.ranches, cs.rancherUid)
	}
	cs.rancherUid = 0
}

// handleSnapshot relays the caller's position/velocity/matrix blob to
// every other present member verbatim, tagged with the caller's ranch
// index (spec.md §4.7: hot path, no allocation beyond the outbound
// buffer, no blocking I/O).
func (d *Director) handleSnapshot(clientID uint64, cmd *command.RanchSnapshotCmd) {
	cs := d.clientOf(clientID)
	if cs == nil || cs.rancherUid == 0 {
		return
	}
	r, ok := d.ranches.ranches[cs.rancherUid]
	if !ok {
		return
	}
	m, ok := r.members[cs.characterUid]
	if !ok {
		return
	}
	notify := &command.RanchSnapshotNotifyCmd{RanchIndex: m.RanchIndex, Variant: cmd.Variant, Blob: cmd.Blob}
	for _, other := range r.others(cs.characterUid) {
		command.Send(other.Session, notify)
	}
}

// handleChat routes the message through the shared chat system before
// broadcasting (spec.md §4.7: "chat messages pass through the chat
// system for command detection and mute enforcement before
// broadcast").
func (d *Director) handleChat(clientID uint64, cmd *command.RanchChatCmd) {
	cs := d.clientOf(clientID)
	if cs == nil || cs.rancherUid == 0 {
		return
	}
	r, ok := d.ranches.ranches[cs.rancherUid]
	if !ok {
		return
	}
	m, ok := r.members[cs.characterUid]
	if !ok {
		return
	}

	verdict := d.chat.Route(context.Background(), cs.loginID, m.Name, cmd.Message)
	if verdict.Muted || verdict.CommandHandled {
		if verdict.Reply != "" {
			command.Send(cs.session, &command.ChatSystemMessageCmd{Message: verdict.Reply})
		}
		return
	}

	notify := &command.RanchChatNotifyCmd{RanchIndex: m.RanchIndex, Message: cmd.Message}
	for _, other := range r.others(cs.characterUid) {
		command.Send(other.Session, notify)
	}
}

// handleBusyState updates the caller's presence state and notifies the
// rest of the ranch (spec.md §4.7).
func (d *Director) handleBusyState(clientID uint64, cmd *command.UpdateBusyStateCmd) {
	cs := d.clientOf(clientID)
	if cs == nil || cs.rancherUid == 0 {
		return
	}
	r, ok := d.ranches.ranches[cs.rancherUid]
	if !ok {
		return
	}
	m, ok := r.members[cs.characterUid]
	if !ok {
		return
	}
	m.Busy = cmd.State

	notify := &command.UpdateBusyStateNotifyCmd{RanchIndex: m.RanchIndex, State: cmd.State}
	for _, other := range r.others(cs.characterUid) {
		command.Send(other.Session, notify)
	}
}

// handleEquipment fans the caller's equipped-item set out to the rest
// of the ranch verbatim (spec.md §4.7).
func (d *Director) handleEquipment(clientID uint64, cmd *command.UpdateEquipmentNotifyCmd) {
	cs := d.clientOf(clientID)
	if cs == nil || cs.rancherUid == 0 {
		return
	}
	r, ok := d.ranches.ranches[cs.rancherUid]
	if !ok {
		return
	}
	m, ok := r.members[cs.characterUid]
	if !ok {
		return
	}

	notify := &command.UpdateEquipmentNotifyCmd{RanchIndex: m.RanchIndex, EquippedUids: cmd.EquippedUids}
	for _, other := range r.others(cs.characterUid) {
		command.Send(other.Session, notify)
	}
}
