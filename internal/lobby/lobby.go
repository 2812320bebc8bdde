// Package lobby implements the login and handoff state machine
// (spec.md §4.6): authentication, character creation, inventory
// listing, room creation/entry, and OTP-backed handoff to the ranch,
// race, and chat subservers.
package lobby

import (
	"context"
	"encoding/binary"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/alicia-server/server/internal/command"
	"github.com/alicia-server/server/internal/config"
	netpkg "github.com/alicia-server/server/internal/net"
	"github.com/alicia-server/server/internal/otp"
	"github.com/alicia-server/server/internal/persist"
	"github.com/alicia-server/server/internal/room"
	"github.com/alicia-server/server/internal/store"
)

// State enumerates a connected lobby client's place in the login state
// machine (spec.md §4.6).
type State int

const (
	stateConnected State = iota
	stateAwaitingAuth
	stateAuthenticated
	stateAwaitingCharacterCreate
)

// clientState is the lobby's per-session data, attached via
// Session.SetData and retrieved on every dispatched command.
type clientState struct {
	session *netpkg.Session
	state   State
	loginID string
	uid     store.CharacterUid
}

// Director owns the lobby's session set and dispatches every inbound
// command on its own 50Hz tick (spec.md §5: single-threaded world
// state), mirroring the original's RunDirectorTaskLoop<LobbyDirector>.
type Director struct {
	server   *netpkg.Server
	registry *command.Registry
	otp      *otp.Registry
	rooms    *room.Registry
	cfg      *config.Config
	log      *zap.Logger

	users      *store.Store[store.UserUid, store.User]
	characters *store.Store[store.CharacterUid, store.Character]
	horses     *store.Store[store.HorseUid, store.Horse]
	items      *store.Store[store.ItemUid, store.Item]

	userRepo      *persist.UserRepo
	characterRepo *persist.CharacterRepo
	horseRepo     *persist.HorseRepo
	itemRepo      *persist.ItemRepo

	sessions map[uint64]*clientState
}

// NewDirector wires a lobby Director against its backing stores and
// repos. Credentials are validated by the UserRepo built from db (see
// handleLogin).
func NewDirector(
	server *netpkg.Server,
	otpReg *otp.Registry,
	rooms *room.Registry,
	cfg *config.Config,
	db *persist.DB,
	log *zap.Logger,
) *Director {
	userRepo := persist.NewUserRepo(db)
	characterRepo := persist.NewCharacterRepo(db)
	horseRepo := persist.NewHorseRepo(db)
	itemRepo := persist.NewItemRepo(db)

	d := &Director{
		server:        server,
		otp:           otpReg,
		rooms:         rooms,
		cfg:           cfg,
		log:           log,
		userRepo:      userRepo,
		characterRepo: characterRepo,
		horseRepo:     horseRepo,
		itemRepo:      itemRepo,
		sessions:      make(map[uint64]*clientState),
	}

	d.users = store.New(userRepo.Load, userRepo.Save)
	d.characters = store.New(characterRepo.Load, characterRepo.Save)
	d.horses = store.New(horseRepo.Load, horseRepo.Save)
	d.items = store.New(itemRepo.Load, itemRepo.Save)

	d.registry = command.NewRegistry(log)
	command.Register(d.registry, func() *command.Login { return &command.Login{} }, d.handleLogin)
	command.Register(d.registry, func() *command.CreateNickname { return &command.CreateNickname{} }, d.handleCreateNickname)
	command.Register(d.registry, func() *command.ShowInventory { return &command.ShowInventory{} }, d.handleShowInventory)
	command.Register(d.registry, func() *command.MakeRoom { return &command.MakeRoom{} }, d.handleMakeRoom)
	command.Register(d.registry, func() *command.EnterRoom { return &command.EnterRoom{} }, d.handleEnterRoom)

	return d
}

// Run drives the 50Hz tick loop until ctx is cancelled, matching the
// original's RunDirectorTaskLoop's fixed-rate scheduling.
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

// tick drains new/dead sessions and every live session's inbound
// frame queue exactly once. No network I/O, and no step here blocks.
func (d *Director) tick() {
	for {
		select {
		case sess := <-d.server.NewSessions():
			d.sessions[sess.ID] = &clientState{session: sess, state: stateConnected}
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

func (d *Director) clientOf(clientID uint64) *clientState {
	return d.sessions[clientID]
}

// handleLogin implements spec.md §4.6's Connected→AwaitingAuth→...
// transition in one pass (the auth "service" here is UserRepo itself;
// there is no separate network hop in this deployment).
func (d *Director) handleLogin(clientID uint64, cmd *command.Login) {
	cs := d.clientOf(clientID)
	if cs == nil {
		return
	}

	// Duplicate login: an already-authenticated session with this
	// login ID is never torn down by a new attempt (spec.md §4.6).
	for id, other := range d.sessions {
		if id != clientID && other.state != stateConnected && other.loginID == cmd.LoginID {
			command.Send(cs.session, &command.LoginCancel{Reason: command.RejectDuplicated})
			return
		}
	}

	cs.state = stateAwaitingAuth
	cs.loginID = cmd.LoginID

	ctx := context.Background()
	user, err := d.userRepo.Load(ctx, cmd.LoginID)
	if err != nil || !d.userRepo.ValidatePassword(user.PasswordHash, cmd.AuthToken) {
		command.Send(cs.session, &command.LoginCancel{Reason: command.RejectInvalidLoginID})
		cs.session.Close()
		return
	}
	d.users.Put(cmd.LoginID, user)

	if user.CharacterUid == 0 {
		command.Send(cs.session, &command.LoginOK{Uid: 0, Name: cmd.LoginID})
		cs.session.ResetRollingCode()
		command.Send(cs.session, &command.CreateNicknameNotify{})
		cs.state = stateAwaitingCharacterCreate
		return
	}

	char, err := d.characterRepo.Load(ctx, user.CharacterUid)
	if err != nil {
		command.Send(cs.session, &command.LoginCancel{Reason: command.RejectSystemError})
		cs.session.Close()
		return
	}
	d.characters.Put(char.Uid, char)
	cs.uid = char.Uid
	cs.state = stateAuthenticated

	command.Send(cs.session, &command.LoginOK{
		Uid:          char.Uid,
		Name:         char.Name,
		RanchAddress: addrToUint32(d.cfg.Lobby.Advertisement.Ranch.Address),
		RanchPort:    d.cfg.Lobby.Advertisement.Ranch.Port,
	})
	// The rolling code resets only after LoginOK itself is sent — that
	// frame is still scrambled with the pre-login code (spec.md S1).
	cs.session.ResetRollingCode()
}

// handleCreateNickname implements the AwaitingCharacterCreate branch
// (spec.md §4.6 S2): create character and newborn horse, assign to
// the user, move to Authenticated. Re-sending LoginOK afterwards is
// harmless by construction since Login already ran once per session.
func (d *Director) handleCreateNickname(clientID uint64, cmd *command.CreateNickname) {
	cs := d.clientOf(clientID)
	if cs == nil || cs.state != stateAwaitingCharacterCreate {
		return
	}

	ctx := context.Background()
	char, err := d.characterRepo.Create(ctx, cs.loginID, cmd.Nickname)
	if err != nil {
		return
	}
	horse, err := d.horseRepo.Create(ctx, cmd.RequestedHorseTid, cmd.Nickname+"'s horse", char.Uid)
	if err != nil {
		return
	}
	char.MountedHorse = horse.Uid
	if err := d.characterRepo.Save(ctx, char.Uid, char); err != nil {
		return
	}

	d.users.Mutable(ctx, cs.loginID, func(u store.User) store.User {
		u.CharacterUid = char.Uid
		return u
	})
	d.characters.Put(char.Uid, char)
	d.horses.Put(horse.Uid, horse)

	cs.uid = char.Uid
	cs.state = stateAuthenticated

	command.Send(cs.session, &command.CreateNicknameOK{CharacterUid: char.Uid, HorseUid: horse.Uid})
}

// handleShowInventory answers with the authenticated character's item
// list (spec.md §8 S1).
func (d *Director) handleShowInventory(clientID uint64, _ *command.ShowInventory) {
	cs := d.clientOf(clientID)
	if cs == nil || cs.state != stateAuthenticated {
		return
	}

	items, err := d.itemRepo.LoadByOwner(context.Background(), cs.uid)
	if err != nil {
		return
	}

	out := make([]command.InventoryItem, len(items))
	for i, it := range items {
		out[i] = command.InventoryItem{Uid: it.Uid, Tid: it.Tid, Count: it.Count}
	}
	command.Send(cs.session, &command.ShowInventoryOK{Items: out})
}

// handleMakeRoom creates a race room with the caller as master, grants
// a race-entry OTP, and replies with the advertised race endpoint
// (spec.md §4.6: "Room creation and entry").
func (d *Director) handleMakeRoom(clientID uint64, cmd *command.MakeRoom) {
	cs := d.clientOf(clientID)
	if cs == nil || cs.state != stateAuthenticated {
		return
	}

	r := d.rooms.Create(cmd.Name, cmd.Password, cmd.PlayerCount, cmd.GameMode, cmd.TeamMode, cmd.MissionID, cmd.BettingEnabled, cs.uid)
	code := d.otp.GrantCode(otp.Hash(cs.uid, otp.DestinationRace))

	command.Send(cs.session, &command.MakeRoomOK{
		RoomUid:           r.Uid,
		OneTimePassword:   code,
		RaceServerAddress: addrToUint32(d.cfg.Lobby.Advertisement.Race.Address),
		RaceServerPort:    d.cfg.Lobby.Advertisement.Race.Port,
	})
}

// handleEnterRoom validates and enqueues an entrant into an existing
// room, granting its race-entry OTP on success (spec.md §4.6).
func (d *Director) handleEnterRoom(clientID uint64, cmd *command.EnterRoom) {
	cs := d.clientOf(clientID)
	if cs == nil || cs.state != stateAuthenticated {
		return
	}

	r := d.rooms.Get(cmd.RoomUid)
	if r == nil {
		command.Send(cs.session, &command.EnterRoomCancel{Reason: command.RoomRejectInvalidRoom})
		return
	}

	result := r.Join(cs.uid, cmd.Password, func(entrant uint32) {
		d.log.Info("room entry deadline expired", zap.Uint32("room", r.Uid), zap.Uint32("entrant", entrant))
	})

	switch result {
	case room.JoinBadPassword:
		command.Send(cs.session, &command.EnterRoomCancel{Reason: command.RoomRejectBadPassword})
		return
	case room.JoinCrowded:
		command.Send(cs.session, &command.EnterRoomCancel{Reason: command.RoomRejectCrowded})
		return
	}

	code := d.otp.GrantCode(otp.Hash(cs.uid, otp.DestinationRace))
	command.Send(cs.session, &command.EnterRoomOK{
		RoomUid:           r.Uid,
		OneTimePassword:   code,
		RaceServerAddress: addrToUint32(d.cfg.Lobby.Advertisement.Race.Address),
		RaceServerPort:    d.cfg.Lobby.Advertisement.Race.Port,
	})
}

// addrToUint32 encodes a dotted IPv4 address as a little-endian uint32,
// the shape the client expects for RanchAddress/RaceServerAddress
// fields (spec.md §4.6's handoff tuple).
func addrToUint32(addr string) uint32 {
	ip := net.ParseIP(addr)
	if ip == nil {
		return 0
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(ip4)
}
