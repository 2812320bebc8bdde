// Package race implements the race subserver (spec.md §4.8): a room
// state machine (Waiting -> Countdown -> Racing -> Awards). Every
// handler runs on the director's 50Hz tick goroutine. Countdown ->
// Racing is made by the tick itself once the countdown deadline
// passes; the other transitions are made directly by the handlers
// (handleCountdown, handleCountdownCancel, handleRaceFinal,
// handleAwardEnd). Grounded on internal/lobby.Director's
// tick shape and internal/room's roster/master-transfer bookkeeping.
package race

import (
	"context"
	"sort"
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

// CountdownDuration is how long StartTimestamp is set ahead of the
// countdown trigger, giving clients time to show the on-screen timer.
const CountdownDuration = 5 * time.Second

// Phase enumerates a race room's state machine (spec.md §4.8).
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseCountdown
	PhaseRacing
	PhaseAwards
)

// racer is one room member's race-specific runtime state.
type racer struct {
	characterUid uint32
	name         string
	session      *netpkg.Session
	ready        bool
	finishMillis uint32
	finished     bool
	awardAcked   bool
}

// raceRoom is the race-local runtime state for one lobby-created room,
// keyed by the room's Uid.
type raceRoom struct {
	room          *room.Room
	phase         Phase
	countdownEnds time.Time
	racers        map[uint32]*racer // characterUid -> racer
}

func newRaceRoom(r *room.Room) *raceRoom {
	return &raceRoom{room: r, racers: make(map[uint32]*racer)}
}

func (rr *raceRoom) roster() []*racer {
	out := make([]*racer, 0, len(rr.racers))
	for _, rc := range rr.racers {
		out = append(out, rc)
	}
	return out
}

func (rr *raceRoom) allReady() bool {
	if len(rr.racers) == 0 {
		return false
	}
	for _, rc := range rr.racers {
		if !rc.ready {
			return false
		}
	}
	return true
}

func (rr *raceRoom) allFinished() bool {
	for _, rc := range rr.racers {
		if !rc.finished {
			return false
		}
	}
	return true
}

func (rr *raceRoom) allAwarded() bool {
	if len(rr.racers) == 0 {
		return false
	}
	for _, rc := range rr.racers {
		if !rc.awardAcked {
			return false
		}
	}
	return true
}

type clientState struct {
	session      *netpkg.Session
	characterUid uint32
	roomUid      uint32
}

// Director drives every race room's tick in one place (spec.md §4.8:
// "avoid nested re-entrancy" — exactly one goroutine ever advances room
// state).
type Director struct {
	server   *netpkg.Server
	registry *command.Registry
	otp      *otp.Registry
	rooms    *room.Registry
	cfg      *config.Config
	log      *zap.Logger

	characters *store.Store[store.CharacterUid, store.Character]
	characterRepo *persist.CharacterRepo

	sessions   map[uint64]*clientState
	raceRooms  map[uint32]*raceRoom // roomUid -> raceRoom
}

func NewDirector(
	server *netpkg.Server,
	otpReg *otp.Registry,
	rooms *room.Registry,
	cfg *config.Config,
	db *persist.DB,
	log *zap.Logger,
) *Director {
	characterRepo := persist.NewCharacterRepo(db)

	d := &Director{
		server:        server,
		otp:           otpReg,
		rooms:         rooms,
		cfg:           cfg,
		log:           log,
		characterRepo: characterRepo,
		sessions:      make(map[uint64]*clientState),
		raceRooms:     make(map[uint32]*raceRoom),
	}
	d.characters = store.New(characterRepo.Load, characterRepo.Save)

	d.registry = command.NewRegistry(log)
	command.Register(d.registry, func() *command.RaceEnterRoomCmd { return &command.RaceEnterRoomCmd{} }, d.handleEnterRoom)
	command.Register(d.registry, func() *command.ReadyCmd { return &command.ReadyCmd{} }, d.handleReady)
	command.Register(d.registry, func() *command.ChangeRoomOptionsCmd { return &command.ChangeRoomOptionsCmd{} }, d.handleChangeOptions)
	command.Register(d.registry, func() *command.RoomCountdownCmd { return &command.RoomCountdownCmd{} }, d.handleCountdown)
	command.Register(d.registry, func() *command.RoomCountdownCancelCmd { return &command.RoomCountdownCancelCmd{} }, d.handleCountdownCancel)
	command.Register(d.registry, func() *command.LoadingCompleteCmd { return &command.LoadingCompleteCmd{} }, d.handleLoadingComplete)
	command.Register(d.registry, func() *command.UserRaceTimerCmd { return &command.UserRaceTimerCmd{} }, d.handleRaceTimer)
	command.Register(d.registry, func() *command.UserRaceFinalCmd { return &command.UserRaceFinalCmd{} }, d.handleRaceFinal)
	command.Register(d.registry, func() *command.AwardEndCmd { return &command.AwardEndCmd{} }, d.handleAwardEnd)

	return d
}

// Run drives the 50Hz tick loop until ctx is cancelled.
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
				d.departRoom(cs)
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

	now := time.Now()
	for _, rr := range d.raceRooms {
		if rr.phase == PhaseCountdown && !now.Before(rr.countdownEnds) {
			d.startRace(rr)
		}
	}
}

func (d *Director) clientOf(clientID uint64) *clientState { return d.sessions[clientID] }

// handleEnterRoom authorizes the race-entry OTP, cancels the room's
// join-deadline timer for this entrant, and seats them in the race
// roster (spec.md §4.8 S3).
func (d *Director) handleEnterRoom(clientID uint64, cmd *command.RaceEnterRoomCmd) {
	cs := d.clientOf(clientID)
	if cs == nil {
		return
	}

	if !d.otp.AuthorizeCode(otp.Hash(cmd.CharacterUid, otp.DestinationRace), cmd.OneTimePassword) {
		return
	}

	r := d.rooms.Get(cmd.RoomUid)
	if r == nil {
		return
	}
	r.Arrive(cmd.CharacterUid)

	ctx := context.Background()
	char, err := d.characterRepo.Load(ctx, cmd.CharacterUid)
	if err != nil {
		return
	}

	cs.characterUid = char.Uid
	cs.roomUid = cmd.RoomUid

	rr, ok := d.raceRooms[cmd.RoomUid]
	if !ok {
		rr = newRaceRoom(r)
		d.raceRooms[cmd.RoomUid] = rr
	}
	rr.racers[char.Uid] = &racer{characterUid: char.Uid, name: char.Name, session: cs.session}

	master := r.Master()
	racers := make([]command.Racer, 0, len(rr.racers))
	for _, rc := range rr.racers {
		racers = append(racers, command.Racer{CharacterUid: rc.characterUid, Name: rc.name, IsMaster: rc.characterUid == master})
	}
	command.Send(cs.session, &command.RaceEnterRoomOKCmd{Racers: racers})
}

func (d *Director) departRoom(cs *clientState) {
	if cs.roomUid == 0 {
		return
	}
	rr, ok := d.raceRooms[cs.roomUid]
	if !ok {
		cs.roomUid = 0
		return
	}
	delete(rr.racers, cs.characterUid)

	newMaster, changed := rr.room.Leave(cs.characterUid)
	if changed {
		notify := &command.ChangeMasterNotifyCmd{NewMasterUid: newMaster}
		for _, rc := range rr.roster() {
			command.Send(rc.session, notify)
		}
	}
	if len(rr.racers) == 0 {
		d.rooms.Remove(cs.roomUid)
		delete(d.raceRooms, cs.roomUid)
	}
	cs.roomUid = 0
}

func (d *Director) raceRoomOf(cs *clientState) *raceRoom {
	if cs == nil || cs.roomUid == 0 {
		return nil
	}
	return d.raceRooms[cs.roomUid]
}

// handleReady toggles the caller's ready flag and notifies the room
// (spec.md §4.8).
func (d *Director) handleReady(clientID uint64, cmd *command.ReadyCmd) {
	cs := d.clientOf(clientID)
	rr := d.raceRoomOf(cs)
	if rr == nil || rr.phase != PhaseWaiting {
		return
	}
	rc, ok := rr.racers[cs.characterUid]
	if !ok {
		return
	}
	rc.ready = cmd.Ready

	notify := &command.ReadyNotifyCmd{CharacterUid: cs.characterUid, Ready: cmd.Ready}
	for _, other := range rr.roster() {
		command.Send(other.session, notify)
	}
}

// handleChangeOptions lets the room master retune mission/betting
// before countdown starts.
func (d *Director) handleChangeOptions(clientID uint64, cmd *command.ChangeRoomOptionsCmd) {
	cs := d.clientOf(clientID)
	rr := d.raceRoomOf(cs)
	if rr == nil || rr.phase != PhaseWaiting || rr.room.Master() != cs.characterUid {
		return
	}
	rr.room.SetOptions(cmd.MissionID, cmd.BettingEnabled)
}

// handleCountdown starts the pre-race countdown once the master
// requests it and everyone is ready (spec.md §4.8).
func (d *Director) handleCountdown(clientID uint64, _ *command.RoomCountdownCmd) {
	cs := d.clientOf(clientID)
	rr := d.raceRoomOf(cs)
	if rr == nil || rr.phase != PhaseWaiting || rr.room.Master() != cs.characterUid || !rr.allReady() {
		return
	}
	rr.phase = PhaseCountdown
	rr.countdownEnds = time.Now().Add(CountdownDuration)

	notify := &command.RoomCountdownCmd{StartTimestamp: uint64(rr.countdownEnds.UnixMilli())}
	for _, rc := range rr.roster() {
		command.Send(rc.session, notify)
	}
}

// handleCountdownCancel lets the master abort a running countdown.
func (d *Director) handleCountdownCancel(clientID uint64, _ *command.RoomCountdownCancelCmd) {
	cs := d.clientOf(clientID)
	rr := d.raceRoomOf(cs)
	if rr == nil || rr.phase != PhaseCountdown || rr.room.Master() != cs.characterUid {
		return
	}
	rr.phase = PhaseWaiting

	notify := &command.RoomCountdownCancelCmd{}
	for _, rc := range rr.roster() {
		command.Send(rc.session, notify)
	}
}

// startRace transitions a room from Countdown to Racing once the tick
// observes the deadline has passed — the only place phase advances
// this way, avoiding re-entrancy from a handler (spec.md §4.8).
func (d *Director) startRace(rr *raceRoom) {
	rr.phase = PhaseRacing
	missionID, betting := rr.room.Options()
	_ = betting

	master := rr.room.Master()
	racers := make([]command.Racer, 0, len(rr.racers))
	for _, rc := range rr.racers {
		racers = append(racers, command.Racer{CharacterUid: rc.characterUid, Name: rc.name, IsMaster: rc.characterUid == master})
	}

	notify := &command.StartRaceNotifyCmd{Racers: racers, MissionID: missionID}
	for _, rc := range rr.roster() {
		command.Send(rc.session, notify)
	}
}

// handleLoadingComplete announces that a racer finished loading the
// course so others can unblock a local countdown-to-start UI.
func (d *Director) handleLoadingComplete(clientID uint64, _ *command.LoadingCompleteCmd) {
	cs := d.clientOf(clientID)
	rr := d.raceRoomOf(cs)
	if rr == nil {
		return
	}
	notify := &command.LoadingCompleteNotifyCmd{CharacterUid: cs.characterUid}
	for _, rc := range rr.roster() {
		if rc.characterUid != cs.characterUid {
			command.Send(rc.session, notify)
		}
	}
}

// handleRaceTimer answers a client's clock-sync ping with the server's
// own timestamp (spec.md §4.8).
func (d *Director) handleRaceTimer(clientID uint64, cmd *command.UserRaceTimerCmd) {
	cs := d.clientOf(clientID)
	if cs == nil {
		return
	}
	command.Send(cs.session, &command.UserRaceTimerOKCmd{ServerTimestamp: uint64(time.Now().UnixMilli())})
}

// handleRaceFinal records a racer's finish time; once everyone in the
// room has finished, computes placements and awards (spec.md §4.8).
func (d *Director) handleRaceFinal(clientID uint64, cmd *command.UserRaceFinalCmd) {
	cs := d.clientOf(clientID)
	rr := d.raceRoomOf(cs)
	if rr == nil || rr.phase != PhaseRacing {
		return
	}
	rc, ok := rr.racers[cs.characterUid]
	if !ok {
		return
	}
	rc.finishMillis = cmd.FinishTimeMillis
	rc.finished = true

	if rr.allFinished() {
		d.award(rr)
	}
}

// award computes per-racer standings and experience/carrot payouts,
// persists them, and announces the results (spec.md §4.8).
func (d *Director) award(rr *raceRoom) {
	rr.phase = PhaseAwards

	ranked := rr.roster()
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].finishMillis < ranked[j].finishMillis })

	ctx := context.Background()
	awards := make([]command.AwardEntry, len(ranked))
	for i, rc := range ranked {
		placing := uint8(i + 1)
		exp := uint32(100 / placing)
		carrots := uint32(50 / placing)

		d.characters.Mutable(ctx, rc.characterUid, func(c store.Character) store.Character {
			c.Experience += exp
			c.Carrots += carrots
			return c
		})

		awards[i] = command.AwardEntry{CharacterUid: rc.characterUid, Placing: placing, Experience: exp, Carrots: carrots}
	}

	notify := &command.AwardNotifyCmd{Awards: awards}
	end := &command.AwardEndCmd{}
	for _, rc := range ranked {
		command.Send(rc.session, notify)
		command.Send(rc.session, end)
	}
}

// handleAwardEnd collects each client's acknowledgement of the awards
// screen; once every racer still in the room has acked, the room is
// torn down and its members' presence returns to the lobby (spec.md
// §4.8: "collect AwardEnd from each client; on all-done, tear the race
// down, return presence to lobby").
func (d *Director) handleAwardEnd(clientID uint64, _ *command.AwardEndCmd) {
	cs := d.clientOf(clientID)
	rr := d.raceRoomOf(cs)
	if rr == nil || rr.phase != PhaseAwards {
		return
	}
	rc, ok := rr.racers[cs.characterUid]
	if !ok {
		return
	}
	rc.awardAcked = true

	if rr.allAwarded() {
		d.teardownRoom(rr)
	}
}

// teardownRoom removes a finished race room and releases every member
// back to lobby presence (their roomUid is cleared; the lobby/ranch
// directors resume owning their presence from there).
func (d *Director) teardownRoom(rr *raceRoom) {
	roomUid := rr.room.Uid
	for _, cs := range d.sessions {
		if cs.roomUid == roomUid {
			cs.roomUid = 0
		}
	}
	d.rooms.Remove(roomUid)
	delete(d.raceRooms, roomUid)
}
