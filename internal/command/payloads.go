package command

import "github.com/alicia-server/server/internal/wire"

// The payload types below are representative per spec.md's framing:
// "the hundreds of individual command struct serializers... are
// mechanical per-wire-layout glue." Field names and shapes are
// grounded on RanchMessageDefinitions.hpp, RaceMessageDefinitions.hpp,
// and ChatterMessageDefinitions.hpp; fields the original keeps for
// bookkeeping the gameplay simulation does not need (housing arrays,
// incubator slots, egg inventories, etc.) are trimmed, matching
// spec.md's stated scope of "the representative command shapes the
// core must implement."

// --- Lobby: login (spec.md §4.6, S1/S2) ---

type Login struct {
	LoginID   string
	AuthToken string
	Constant0 uint32
	Constant1 uint32
}

func (Login) CommandID() uint16 { return LobbyLogin }

func (c *Login) ReadFrom(r *wire.Reader) error {
	var err error
	if c.LoginID, err = r.ReadString(); err != nil {
		return err
	}
	if c.AuthToken, err = r.ReadString(); err != nil {
		return err
	}
	if c.Constant0, err = r.ReadU32(); err != nil {
		return err
	}
	c.Constant1, err = r.ReadU32()
	return err
}

func (c *Login) WriteTo(w *wire.Writer) {
	w.WriteString(c.LoginID)
	w.WriteString(c.AuthToken)
	w.WriteU32(c.Constant0)
	w.WriteU32(c.Constant1)
}

// LoginRejectReason enumerates LoginCancel's reason field.
type LoginRejectReason uint8

const (
	RejectInvalidLoginID LoginRejectReason = iota
	RejectDuplicated
	RejectSystemError
)

type LoginOK struct {
	Uid              uint32
	Name             string
	RanchAddress     uint32
	RanchPort        uint16
	ScramblingConstant uint32
}

func (LoginOK) CommandID() uint16 { return LobbyLoginOK }

func (c *LoginOK) ReadFrom(r *wire.Reader) error {
	var err error
	if c.Uid, err = r.ReadU32(); err != nil {
		return err
	}
	if c.Name, err = r.ReadString(); err != nil {
		return err
	}
	if c.RanchAddress, err = r.ReadU32(); err != nil {
		return err
	}
	if c.RanchPort, err = r.ReadU16(); err != nil {
		return err
	}
	c.ScramblingConstant, err = r.ReadU32()
	return err
}

func (c *LoginOK) WriteTo(w *wire.Writer) {
	w.WriteU32(c.Uid)
	w.WriteString(c.Name)
	w.WriteU32(c.RanchAddress)
	w.WriteU16(c.RanchPort)
	w.WriteU32(c.ScramblingConstant)
}

type LoginCancel struct {
	Reason LoginRejectReason
}

func (LoginCancel) CommandID() uint16 { return LobbyLoginCancel }

func (c *LoginCancel) ReadFrom(r *wire.Reader) error {
	v, err := r.ReadByte()
	c.Reason = LoginRejectReason(v)
	return err
}

func (c *LoginCancel) WriteTo(w *wire.Writer) { w.WriteByte(byte(c.Reason)) }

// --- Lobby: character creation (spec.md §4.6, S2) ---

type CreateNicknameNotify struct{}

func (CreateNicknameNotify) CommandID() uint16            { return LobbyCreateNicknameNotify }
func (*CreateNicknameNotify) ReadFrom(r *wire.Reader) error { return nil }
func (*CreateNicknameNotify) WriteTo(w *wire.Writer)        {}

type CreateNickname struct {
	Nickname          string
	RequestedHorseTid uint32
}

func (CreateNickname) CommandID() uint16 { return LobbyCreateNickname }

func (c *CreateNickname) ReadFrom(r *wire.Reader) error {
	var err error
	if c.Nickname, err = r.ReadString(); err != nil {
		return err
	}
	c.RequestedHorseTid, err = r.ReadU32()
	return err
}

func (c *CreateNickname) WriteTo(w *wire.Writer) {
	w.WriteString(c.Nickname)
	w.WriteU32(c.RequestedHorseTid)
}

type CreateNicknameOK struct {
	CharacterUid uint32
	HorseUid     uint32
}

func (CreateNicknameOK) CommandID() uint16 { return LobbyCreateNicknameOK }

func (c *CreateNicknameOK) ReadFrom(r *wire.Reader) error {
	var err error
	if c.CharacterUid, err = r.ReadU32(); err != nil {
		return err
	}
	c.HorseUid, err = r.ReadU32()
	return err
}

func (c *CreateNicknameOK) WriteTo(w *wire.Writer) {
	w.WriteU32(c.CharacterUid)
	w.WriteU32(c.HorseUid)
}

// --- Lobby: inventory (spec.md §8 S1) ---

type ShowInventory struct{}

func (ShowInventory) CommandID() uint16            { return LobbyShowInventory }
func (*ShowInventory) ReadFrom(r *wire.Reader) error { return nil }
func (*ShowInventory) WriteTo(w *wire.Writer)        {}

type InventoryItem struct {
	Uid   uint32
	Tid   uint32
	Count uint32
}

type ShowInventoryOK struct {
	Items []InventoryItem
}

func (ShowInventoryOK) CommandID() uint16 { return LobbyShowInventoryOK }

func (c *ShowInventoryOK) ReadFrom(r *wire.Reader) error {
	count, err := r.ReadU16()
	if err != nil {
		return err
	}
	c.Items = make([]InventoryItem, count)
	for i := range c.Items {
		if c.Items[i].Uid, err = r.ReadU32(); err != nil {
			return err
		}
		if c.Items[i].Tid, err = r.ReadU32(); err != nil {
			return err
		}
		if c.Items[i].Count, err = r.ReadU32(); err != nil {
			return err
		}
	}
	return nil
}

func (c *ShowInventoryOK) WriteTo(w *wire.Writer) {
	w.WriteU16(uint16(len(c.Items)))
	for _, it := range c.Items {
		w.WriteU32(it.Uid)
		w.WriteU32(it.Tid)
		w.WriteU32(it.Count)
	}
}

// --- Lobby: room creation/entry and race handoff (spec.md §4.6, S3/S4) ---

// GameMode and TeamMode mirror the original's room option enums.
type GameMode uint8
type TeamMode uint8

const (
	GameModeSpeed GameMode = iota
	GameModeMagic
)

const (
	TeamModeFFA TeamMode = iota
	TeamModeTeam
)

type MakeRoom struct {
	Name           string
	Password       string
	PlayerCount    uint8
	GameMode       GameMode
	TeamMode       TeamMode
	MissionID      uint32
	BettingEnabled bool
}

func (MakeRoom) CommandID() uint16 { return LobbyMakeRoom }

func (c *MakeRoom) ReadFrom(r *wire.Reader) error {
	var err error
	if c.Name, err = r.ReadString(); err != nil {
		return err
	}
	if c.Password, err = r.ReadString(); err != nil {
		return err
	}
	var b byte
	if b, err = r.ReadByte(); err != nil {
		return err
	}
	c.PlayerCount = b
	if b, err = r.ReadByte(); err != nil {
		return err
	}
	c.GameMode = GameMode(b)
	if b, err = r.ReadByte(); err != nil {
		return err
	}
	c.TeamMode = TeamMode(b)
	if c.MissionID, err = r.ReadU32(); err != nil {
		return err
	}
	c.BettingEnabled, err = r.ReadBool()
	return err
}

func (c *MakeRoom) WriteTo(w *wire.Writer) {
	w.WriteString(c.Name)
	w.WriteString(c.Password)
	w.WriteByte(c.PlayerCount)
	w.WriteByte(byte(c.GameMode))
	w.WriteByte(byte(c.TeamMode))
	w.WriteU32(c.MissionID)
	w.WriteBool(c.BettingEnabled)
}

// RoomRejectReason enumerates MakeRoomCancel/EnterRoomCancel's reason.
type RoomRejectReason uint8

const (
	RoomRejectInvalidRoom RoomRejectReason = iota
	RoomRejectBadPassword
	RoomRejectCrowded
)

type MakeRoomOK struct {
	RoomUid           uint32
	OneTimePassword   uint32
	RaceServerAddress uint32
	RaceServerPort    uint16
}

func (MakeRoomOK) CommandID() uint16 { return LobbyMakeRoomOK }

func (c *MakeRoomOK) ReadFrom(r *wire.Reader) error {
	var err error
	if c.RoomUid, err = r.ReadU32(); err != nil {
		return err
	}
	if c.OneTimePassword, err = r.ReadU32(); err != nil {
		return err
	}
	if c.RaceServerAddress, err = r.ReadU32(); err != nil {
		return err
	}
	c.RaceServerPort, err = r.ReadU16()
	return err
}

func (c *MakeRoomOK) WriteTo(w *wire.Writer) {
	w.WriteU32(c.RoomUid)
	w.WriteU32(c.OneTimePassword)
	w.WriteU32(c.RaceServerAddress)
	w.WriteU16(c.RaceServerPort)
}

type EnterRoom struct {
	RoomUid  uint32
	Password string
}

func (EnterRoom) CommandID() uint16 { return LobbyEnterRoom }

func (c *EnterRoom) ReadFrom(r *wire.Reader) error {
	var err error
	if c.RoomUid, err = r.ReadU32(); err != nil {
		return err
	}
	c.Password, err = r.ReadString()
	return err
}

func (c *EnterRoom) WriteTo(w *wire.Writer) {
	w.WriteU32(c.RoomUid)
	w.WriteString(c.Password)
}

type EnterRoomOK struct {
	RoomUid           uint32
	OneTimePassword   uint32
	RaceServerAddress uint32
	RaceServerPort    uint16
}

func (EnterRoomOK) CommandID() uint16 { return LobbyEnterRoomOK }

func (c *EnterRoomOK) ReadFrom(r *wire.Reader) error {
	var err error
	if c.RoomUid, err = r.ReadU32(); err != nil {
		return err
	}
	if c.OneTimePassword, err = r.ReadU32(); err != nil {
		return err
	}
	if c.RaceServerAddress, err = r.ReadU32(); err != nil {
		return err
	}
	c.RaceServerPort, err = r.ReadU16()
	return err
}

func (c *EnterRoomOK) WriteTo(w *wire.Writer) {
	w.WriteU32(c.RoomUid)
	w.WriteU32(c.OneTimePassword)
	w.WriteU32(c.RaceServerAddress)
	w.WriteU16(c.RaceServerPort)
}

type EnterRoomCancel struct {
	Reason RoomRejectReason
}

func (EnterRoomCancel) CommandID() uint16 { return LobbyEnterRoomCancel }

func (c *EnterRoomCancel) ReadFrom(r *wire.Reader) error {
	v, err := r.ReadByte()
	c.Reason = RoomRejectReason(v)
	return err
}

func (c *EnterRoomCancel) WriteTo(w *wire.Writer) { w.WriteByte(byte(c.Reason)) }

// --- Ranch (spec.md §4.7) ---

type RanchEnter struct {
	CharacterUid uint32
	Otp          uint32
	RancherUid   uint32
}

func (RanchEnter) CommandID() uint16 { return RanchEnterRanch }

func (c *RanchEnter) ReadFrom(r *wire.Reader) error {
	var err error
	if c.CharacterUid, err = r.ReadU32(); err != nil {
		return err
	}
	if c.Otp, err = r.ReadU32(); err != nil {
		return err
	}
	c.RancherUid, err = r.ReadU32()
	return err
}

func (c *RanchEnter) WriteTo(w *wire.Writer) {
	w.WriteU32(c.CharacterUid)
	w.WriteU32(c.Otp)
	w.WriteU32(c.RancherUid)
}

type RanchHorse struct {
	Uid  uint32
	Tid  uint32
	Name string
}

type RanchCharacter struct {
	Uid       uint32
	Name      string
	RanchIndex uint16
}

type RanchEnterOK struct {
	RancherUid uint32
	RancherName string
	RanchName   string
	Horses      []RanchHorse
	Characters  []RanchCharacter
	ScramblingConstant uint32
}

func (RanchEnterOK) CommandID() uint16 { return RanchEnterRanchOK }

func (c *RanchEnterOK) ReadFrom(r *wire.Reader) error {
	var err error
	if c.RancherUid, err = r.ReadU32(); err != nil {
		return err
	}
	if c.RancherName, err = r.ReadString(); err != nil {
		return err
	}
	if c.RanchName, err = r.ReadString(); err != nil {
		return err
	}
	var n uint16
	if n, err = r.ReadU16(); err != nil {
		return err
	}
	c.Horses = make([]RanchHorse, n)
	for i := range c.Horses {
		if c.Horses[i].Uid, err = r.ReadU32(); err != nil {
			return err
		}
		if c.Horses[i].Tid, err = r.ReadU32(); err != nil {
			return err
		}
		if c.Horses[i].Name, err = r.ReadString(); err != nil {
			return err
		}
	}
	if n, err = r.ReadU16(); err != nil {
		return err
	}
	c.Characters = make([]RanchCharacter, n)
	for i := range c.Characters {
		if c.Characters[i].Uid, err = r.ReadU32(); err != nil {
			return err
		}
		if c.Characters[i].Name, err = r.ReadString(); err != nil {
			return err
		}
		if c.Characters[i].RanchIndex, err = r.ReadU16(); err != nil {
			return err
		}
	}
	c.ScramblingConstant, err = r.ReadU32()
	return err
}

func (c *RanchEnterOK) WriteTo(w *wire.Writer) {
	w.WriteU32(c.RancherUid)
	w.WriteString(c.RancherName)
	w.WriteString(c.RanchName)
	w.WriteU16(uint16(len(c.Horses)))
	for _, h := range c.Horses {
		w.WriteU32(h.Uid)
		w.WriteU32(h.Tid)
		w.WriteString(h.Name)
	}
	w.WriteU16(uint16(len(c.Characters)))
	for _, ch := range c.Characters {
		w.WriteU32(ch.Uid)
		w.WriteString(ch.Name)
		w.WriteU16(ch.RanchIndex)
	}
	w.WriteU32(c.ScramblingConstant)
}

type RanchEnterCancel struct{}

func (RanchEnterCancel) CommandID() uint16            { return RanchEnterRanchCancel }
func (*RanchEnterCancel) ReadFrom(r *wire.Reader) error { return nil }
func (*RanchEnterCancel) WriteTo(w *wire.Writer)        {}

// SnapshotVariant distinguishes Full (position+velocity+matrix) from
// Partial (position+matrix) ranch snapshot frames (spec.md §4.7).
type SnapshotVariant uint8

const (
	SnapshotFull SnapshotVariant = iota
	SnapshotPartial
)

type RanchSnapshotCmd struct {
	Variant SnapshotVariant
	Blob    []byte // position/velocity/matrix payload, opaque to the server
}

func (RanchSnapshotCmd) CommandID() uint16 { return RanchSnapshot }

func (c *RanchSnapshotCmd) ReadFrom(r *wire.Reader) error {
	v, err := r.ReadByte()
	if err != nil {
		return err
	}
	c.Variant = SnapshotVariant(v)
	c.Blob, err = r.ReadBytes(r.Remaining())
	return err
}

func (c *RanchSnapshotCmd) WriteTo(w *wire.Writer) {
	w.WriteByte(byte(c.Variant))
	w.WriteBytes(c.Blob)
}

type RanchSnapshotNotifyCmd struct {
	RanchIndex uint16
	Variant    SnapshotVariant
	Blob       []byte
}

func (RanchSnapshotNotifyCmd) CommandID() uint16 { return RanchSnapshotNotify }

func (c *RanchSnapshotNotifyCmd) ReadFrom(r *wire.Reader) error {
	var err error
	if c.RanchIndex, err = r.ReadU16(); err != nil {
		return err
	}
	v, err := r.ReadByte()
	if err != nil {
		return err
	}
	c.Variant = SnapshotVariant(v)
	c.Blob, err = r.ReadBytes(r.Remaining())
	return err
}

func (c *RanchSnapshotNotifyCmd) WriteTo(w *wire.Writer) {
	w.WriteU16(c.RanchIndex)
	w.WriteByte(byte(c.Variant))
	w.WriteBytes(c.Blob)
}

type RanchChatCmd struct {
	Message string
}

func (RanchChatCmd) CommandID() uint16 { return RanchChat }

func (c *RanchChatCmd) ReadFrom(r *wire.Reader) error {
	var err error
	c.Message, err = r.ReadString()
	return err
}

func (c *RanchChatCmd) WriteTo(w *wire.Writer) { w.WriteString(c.Message) }

type RanchChatNotifyCmd struct {
	RanchIndex uint16
	Message    string
}

func (RanchChatNotifyCmd) CommandID() uint16 { return RanchChatNotify }

func (c *RanchChatNotifyCmd) ReadFrom(r *wire.Reader) error {
	var err error
	if c.RanchIndex, err = r.ReadU16(); err != nil {
		return err
	}
	c.Message, err = r.ReadString()
	return err
}

func (c *RanchChatNotifyCmd) WriteTo(w *wire.Writer) {
	w.WriteU16(c.RanchIndex)
	w.WriteString(c.Message)
}

type RanchLeaveRanchCmd struct{}

func (RanchLeaveRanchCmd) CommandID() uint16            { return RanchLeaveRanch }
func (*RanchLeaveRanchCmd) ReadFrom(r *wire.Reader) error { return nil }
func (*RanchLeaveRanchCmd) WriteTo(w *wire.Writer)        {}

type RanchLeaveRanchOKCmd struct{}

func (RanchLeaveRanchOKCmd) CommandID() uint16            { return RanchLeaveRanchOK }
func (*RanchLeaveRanchOKCmd) ReadFrom(r *wire.Reader) error { return nil }
func (*RanchLeaveRanchOKCmd) WriteTo(w *wire.Writer)        {}

// RanchEnterNotifyCmd announces a new visitor to every member already
// present in the ranch (spec.md §4.7).
type RanchEnterNotifyCmd struct {
	RanchIndex   uint16
	CharacterUid uint32
	Name         string
}

func (RanchEnterNotifyCmd) CommandID() uint16 { return RanchEnterRanchNotify }

func (c *RanchEnterNotifyCmd) ReadFrom(r *wire.Reader) error {
	var err error
	if c.RanchIndex, err = r.ReadU16(); err != nil {
		return err
	}
	if c.CharacterUid, err = r.ReadU32(); err != nil {
		return err
	}
	c.Name, err = r.ReadString()
	return err
}

func (c *RanchEnterNotifyCmd) WriteTo(w *wire.Writer) {
	w.WriteU16(c.RanchIndex)
	w.WriteU32(c.CharacterUid)
	w.WriteString(c.Name)
}

type RanchLeaveRanchNotifyCmd struct {
	RanchIndex uint16
}

func (RanchLeaveRanchNotifyCmd) CommandID() uint16 { return RanchLeaveRanchNotify }

func (c *RanchLeaveRanchNotifyCmd) ReadFrom(r *wire.Reader) error {
	var err error
	c.RanchIndex, err = r.ReadU16()
	return err
}

func (c *RanchLeaveRanchNotifyCmd) WriteTo(w *wire.Writer) { w.WriteU16(c.RanchIndex) }

// BusyState mirrors the original's ECommonCharacterStateByte values the
// ranch director tracks for presence ("busy doing X") display.
type BusyState uint8

const (
	BusyStateIdle BusyState = iota
	BusyStateBusy
)

type UpdateBusyStateCmd struct {
	State BusyState
}

func (UpdateBusyStateCmd) CommandID() uint16 { return RanchUpdateBusyState }

func (c *UpdateBusyStateCmd) ReadFrom(r *wire.Reader) error {
	v, err := r.ReadByte()
	c.State = BusyState(v)
	return err
}

func (c *UpdateBusyStateCmd) WriteTo(w *wire.Writer) { w.WriteByte(byte(c.State)) }

type UpdateBusyStateNotifyCmd struct {
	RanchIndex uint16
	State      BusyState
}

func (UpdateBusyStateNotifyCmd) CommandID() uint16 { return RanchUpdateBusyStateNotify }

func (c *UpdateBusyStateNotifyCmd) ReadFrom(r *wire.Reader) error {
	var err error
	if c.RanchIndex, err = r.ReadU16(); err != nil {
		return err
	}
	v, err := r.ReadByte()
	c.State = BusyState(v)
	return err
}

func (c *UpdateBusyStateNotifyCmd) WriteTo(w *wire.Writer) {
	w.WriteU16(c.RanchIndex)
	w.WriteByte(byte(c.State))
}

// UpdateEquipmentNotifyCmd mirrors RanchCommandUpdateEquipmentNotify:
// the client pushes its own equipped-item set and the ranch director
// fans it out to the rest of the present set verbatim (spec.md §4.7).
type UpdateEquipmentNotifyCmd struct {
	RanchIndex   uint16
	EquippedUids []uint32
}

func (UpdateEquipmentNotifyCmd) CommandID() uint16 { return RanchUpdateEquipmentNotify }

func (c *UpdateEquipmentNotifyCmd) ReadFrom(r *wire.Reader) error {
	var err error
	if c.RanchIndex, err = r.ReadU16(); err != nil {
		return err
	}
	n, err := r.ReadU16()
	if err != nil {
		return err
	}
	c.EquippedUids = make([]uint32, n)
	for i := range c.EquippedUids {
		if c.EquippedUids[i], err = r.ReadU32(); err != nil {
			return err
		}
	}
	return nil
}

func (c *UpdateEquipmentNotifyCmd) WriteTo(w *wire.Writer) {
	w.WriteU16(c.RanchIndex)
	w.WriteU16(uint16(len(c.EquippedUids)))
	for _, uid := range c.EquippedUids {
		w.WriteU32(uid)
	}
}

// --- Race (spec.md §4.8, S3) ---

// ChangeRoomOptionsCmd lets the room master retune betting/mission
// settings before countdown starts (spec.md §4.8).
type ChangeRoomOptionsCmd struct {
	MissionID      uint32
	BettingEnabled bool
}

func (ChangeRoomOptionsCmd) CommandID() uint16 { return RaceChangeRoomOptions }

func (c *ChangeRoomOptionsCmd) ReadFrom(r *wire.Reader) error {
	var err error
	if c.MissionID, err = r.ReadU32(); err != nil {
		return err
	}
	c.BettingEnabled, err = r.ReadBool()
	return err
}

func (c *ChangeRoomOptionsCmd) WriteTo(w *wire.Writer) {
	w.WriteU32(c.MissionID)
	w.WriteBool(c.BettingEnabled)
}

type RaceEnterRoomCmd struct {
	CharacterUid    uint32
	OneTimePassword uint32
	RoomUid         uint32
}

func (RaceEnterRoomCmd) CommandID() uint16 { return RaceEnterRoom }

func (c *RaceEnterRoomCmd) ReadFrom(r *wire.Reader) error {
	var err error
	if c.CharacterUid, err = r.ReadU32(); err != nil {
		return err
	}
	if c.OneTimePassword, err = r.ReadU32(); err != nil {
		return err
	}
	c.RoomUid, err = r.ReadU32()
	return err
}

func (c *RaceEnterRoomCmd) WriteTo(w *wire.Writer) {
	w.WriteU32(c.CharacterUid)
	w.WriteU32(c.OneTimePassword)
	w.WriteU32(c.RoomUid)
}

type Racer struct {
	CharacterUid uint32
	Name         string
	IsMaster     bool
}

type RaceEnterRoomOKCmd struct {
	Racers []Racer
}

func (RaceEnterRoomOKCmd) CommandID() uint16 { return RaceEnterRoomOK }

func (c *RaceEnterRoomOKCmd) ReadFrom(r *wire.Reader) error {
	n, err := r.ReadU16()
	if err != nil {
		return err
	}
	c.Racers = make([]Racer, n)
	for i := range c.Racers {
		if c.Racers[i].CharacterUid, err = r.ReadU32(); err != nil {
			return err
		}
		if c.Racers[i].Name, err = r.ReadString(); err != nil {
			return err
		}
		if c.Racers[i].IsMaster, err = r.ReadBool(); err != nil {
			return err
		}
	}
	return nil
}

func (c *RaceEnterRoomOKCmd) WriteTo(w *wire.Writer) {
	w.WriteU16(uint16(len(c.Racers)))
	for _, r := range c.Racers {
		w.WriteU32(r.CharacterUid)
		w.WriteString(r.Name)
		w.WriteBool(r.IsMaster)
	}
}

type RoomCountdownCmd struct {
	StartTimestamp uint64
}

func (RoomCountdownCmd) CommandID() uint16 { return RaceRoomCountdown }

func (c *RoomCountdownCmd) ReadFrom(r *wire.Reader) error {
	var err error
	c.StartTimestamp, err = r.ReadU64()
	return err
}

func (c *RoomCountdownCmd) WriteTo(w *wire.Writer) { w.WriteU64(c.StartTimestamp) }

type RoomCountdownCancelCmd struct{}

func (RoomCountdownCancelCmd) CommandID() uint16            { return RaceRoomCountdownCancel }
func (*RoomCountdownCancelCmd) ReadFrom(r *wire.Reader) error { return nil }
func (*RoomCountdownCancelCmd) WriteTo(w *wire.Writer)        {}

type StartRaceNotifyCmd struct {
	Racers        []Racer
	MapID         uint32
	MissionID     uint32
	RelayAddress  uint32
	RelayPort     uint16
}

func (StartRaceNotifyCmd) CommandID() uint16 { return RaceStartRaceNotify }

func (c *StartRaceNotifyCmd) ReadFrom(r *wire.Reader) error {
	n, err := r.ReadU16()
	if err != nil {
		return err
	}
	c.Racers = make([]Racer, n)
	for i := range c.Racers {
		if c.Racers[i].CharacterUid, err = r.ReadU32(); err != nil {
			return err
		}
		if c.Racers[i].Name, err = r.ReadString(); err != nil {
			return err
		}
		if c.Racers[i].IsMaster, err = r.ReadBool(); err != nil {
			return err
		}
	}
	if c.MapID, err = r.ReadU32(); err != nil {
		return err
	}
	if c.MissionID, err = r.ReadU32(); err != nil {
		return err
	}
	if c.RelayAddress, err = r.ReadU32(); err != nil {
		return err
	}
	c.RelayPort, err = r.ReadU16()
	return err
}

func (c *StartRaceNotifyCmd) WriteTo(w *wire.Writer) {
	w.WriteU16(uint16(len(c.Racers)))
	for _, r := range c.Racers {
		w.WriteU32(r.CharacterUid)
		w.WriteString(r.Name)
		w.WriteBool(r.IsMaster)
	}
	w.WriteU32(c.MapID)
	w.WriteU32(c.MissionID)
	w.WriteU32(c.RelayAddress)
	w.WriteU16(c.RelayPort)
}

type LoadingCompleteCmd struct{}

func (LoadingCompleteCmd) CommandID() uint16            { return RaceLoadingComplete }
func (*LoadingCompleteCmd) ReadFrom(r *wire.Reader) error { return nil }
func (*LoadingCompleteCmd) WriteTo(w *wire.Writer)        {}

type LoadingCompleteNotifyCmd struct {
	CharacterUid uint32
}

func (LoadingCompleteNotifyCmd) CommandID() uint16 { return RaceLoadingCompleteNotify }

func (c *LoadingCompleteNotifyCmd) ReadFrom(r *wire.Reader) error {
	var err error
	c.CharacterUid, err = r.ReadU32()
	return err
}

func (c *LoadingCompleteNotifyCmd) WriteTo(w *wire.Writer) { w.WriteU32(c.CharacterUid) }

type UserRaceTimerCmd struct {
	ClientTimestamp uint64
}

func (UserRaceTimerCmd) CommandID() uint16 { return RaceUserRaceTimer }

func (c *UserRaceTimerCmd) ReadFrom(r *wire.Reader) error {
	var err error
	c.ClientTimestamp, err = r.ReadU64()
	return err
}

func (c *UserRaceTimerCmd) WriteTo(w *wire.Writer) { w.WriteU64(c.ClientTimestamp) }

type UserRaceTimerOKCmd struct {
	ServerTimestamp uint64
}

func (UserRaceTimerOKCmd) CommandID() uint16 { return RaceUserRaceTimerOK }

func (c *UserRaceTimerOKCmd) ReadFrom(r *wire.Reader) error {
	var err error
	c.ServerTimestamp, err = r.ReadU64()
	return err
}

func (c *UserRaceTimerOKCmd) WriteTo(w *wire.Writer) { w.WriteU64(c.ServerTimestamp) }

type UserRaceFinalCmd struct {
	FinishTimeMillis uint32
}

func (UserRaceFinalCmd) CommandID() uint16 { return RaceUserRaceFinal }

func (c *UserRaceFinalCmd) ReadFrom(r *wire.Reader) error {
	var err error
	c.FinishTimeMillis, err = r.ReadU32()
	return err
}

func (c *UserRaceFinalCmd) WriteTo(w *wire.Writer) { w.WriteU32(c.FinishTimeMillis) }

type AwardEntry struct {
	CharacterUid uint32
	Placing      uint8
	Experience   uint32
	Carrots      uint32
	Bonus        uint32
}

type AwardNotifyCmd struct {
	Awards []AwardEntry
}

func (AwardNotifyCmd) CommandID() uint16 { return RaceAwardNotify }

func (c *AwardNotifyCmd) ReadFrom(r *wire.Reader) error {
	n, err := r.ReadU16()
	if err != nil {
		return err
	}
	c.Awards = make([]AwardEntry, n)
	for i := range c.Awards {
		a := &c.Awards[i]
		if a.CharacterUid, err = r.ReadU32(); err != nil {
			return err
		}
		if a.Placing, err = r.ReadByte(); err != nil {
			return err
		}
		if a.Experience, err = r.ReadU32(); err != nil {
			return err
		}
		if a.Carrots, err = r.ReadU32(); err != nil {
			return err
		}
		if a.Bonus, err = r.ReadU32(); err != nil {
			return err
		}
	}
	return nil
}

func (c *AwardNotifyCmd) WriteTo(w *wire.Writer) {
	w.WriteU16(uint16(len(c.Awards)))
	for _, a := range c.Awards {
		w.WriteU32(a.CharacterUid)
		w.WriteByte(a.Placing)
		w.WriteU32(a.Experience)
		w.WriteU32(a.Carrots)
		w.WriteU32(a.Bonus)
	}
}

type AwardEndCmd struct{}

func (AwardEndCmd) CommandID() uint16            { return RaceAwardEnd }
func (*AwardEndCmd) ReadFrom(r *wire.Reader) error { return nil }
func (*AwardEndCmd) WriteTo(w *wire.Writer)        {}

// ReadyCmd toggles the sender's ready flag while a room sits in the
// Waiting state (spec.md §4.8).
type ReadyCmd struct {
	Ready bool
}

func (ReadyCmd) CommandID() uint16 { return RaceReady }

func (c *ReadyCmd) ReadFrom(r *wire.Reader) error {
	var err error
	c.Ready, err = r.ReadBool()
	return err
}

func (c *ReadyCmd) WriteTo(w *wire.Writer) { w.WriteBool(c.Ready) }

type ReadyNotifyCmd struct {
	CharacterUid uint32
	Ready        bool
}

func (ReadyNotifyCmd) CommandID() uint16 { return RaceReadyNotify }

func (c *ReadyNotifyCmd) ReadFrom(r *wire.Reader) error {
	var err error
	if c.CharacterUid, err = r.ReadU32(); err != nil {
		return err
	}
	c.Ready, err = r.ReadBool()
	return err
}

func (c *ReadyNotifyCmd) WriteTo(w *wire.Writer) {
	w.WriteU32(c.CharacterUid)
	w.WriteBool(c.Ready)
}

type ChangeMasterNotifyCmd struct {
	NewMasterUid uint32
}

func (ChangeMasterNotifyCmd) CommandID() uint16 { return RaceChangeMasterNotify }

func (c *ChangeMasterNotifyCmd) ReadFrom(r *wire.Reader) error {
	var err error
	c.NewMasterUid, err = r.ReadU32()
	return err
}

func (c *ChangeMasterNotifyCmd) WriteTo(w *wire.Writer) { w.WriteU32(c.NewMasterUid) }

// --- Chat (spec.md §4.9, S5/S6). These ride the chatwire scheme, not
// the rolling one, but share the same Readable/Writable shape so
// command.Registry and command.Send work uniformly across subservers.

// ChatRole mirrors ChatCmdChat::Role from ChatterMessageDefinitions.hpp.
type ChatRole uint8

const (
	ChatRoleUser ChatRole = iota
	ChatRoleOp
	ChatRoleGameMaster
)

type ChatEnterRoomCmd struct {
	Code          uint32 // private-chat: target character UID
	CharacterUid  uint32
	CharacterName string
	GuildUid      uint32
}

func (ChatEnterRoomCmd) CommandID() uint16 { return 0x4000 }

func (c *ChatEnterRoomCmd) ReadFrom(r *wire.Reader) error {
	var err error
	if c.Code, err = r.ReadU32(); err != nil {
		return err
	}
	if c.CharacterUid, err = r.ReadU32(); err != nil {
		return err
	}
	if c.CharacterName, err = r.ReadString(); err != nil {
		return err
	}
	c.GuildUid, err = r.ReadU32()
	return err
}

func (c *ChatEnterRoomCmd) WriteTo(w *wire.Writer) {
	w.WriteU32(c.Code)
	w.WriteU32(c.CharacterUid)
	w.WriteString(c.CharacterName)
	w.WriteU32(c.GuildUid)
}

type ChatParticipant struct {
	CharacterUid  uint32
	CharacterName string
}

type ChatEnterRoomAckOkCmd struct {
	Participants [2]ChatParticipant
}

func (ChatEnterRoomAckOkCmd) CommandID() uint16 { return 0x4001 }

func (c *ChatEnterRoomAckOkCmd) ReadFrom(r *wire.Reader) error {
	for i := range c.Participants {
		var err error
		if c.Participants[i].CharacterUid, err = r.ReadU32(); err != nil {
			return err
		}
		if c.Participants[i].CharacterName, err = r.ReadString(); err != nil {
			return err
		}
	}
	return nil
}

func (c *ChatEnterRoomAckOkCmd) WriteTo(w *wire.Writer) {
	for _, p := range c.Participants {
		w.WriteU32(p.CharacterUid)
		w.WriteString(p.CharacterName)
	}
}

type ChatEnterRoomAckCancelCmd struct{}

func (ChatEnterRoomAckCancelCmd) CommandID() uint16            { return 0x4002 }
func (*ChatEnterRoomAckCancelCmd) ReadFrom(r *wire.Reader) error { return nil }
func (*ChatEnterRoomAckCancelCmd) WriteTo(w *wire.Writer)        {}

type ChatCmd struct {
	Message string
	Role    ChatRole
}

func (ChatCmd) CommandID() uint16 { return 0x4003 }

func (c *ChatCmd) ReadFrom(r *wire.Reader) error {
	var err error
	if c.Message, err = r.ReadString(); err != nil {
		return err
	}
	v, err := r.ReadByte()
	c.Role = ChatRole(v)
	return err
}

func (c *ChatCmd) WriteTo(w *wire.Writer) {
	w.WriteString(c.Message)
	w.WriteByte(byte(c.Role))
}

type ChatTrsCmd struct {
	Unk0    uint32
	Message string
}

func (ChatTrsCmd) CommandID() uint16 { return 0x4004 }

func (c *ChatTrsCmd) ReadFrom(r *wire.Reader) error {
	var err error
	if c.Unk0, err = r.ReadU32(); err != nil {
		return err
	}
	c.Message, err = r.ReadString()
	return err
}

func (c *ChatTrsCmd) WriteTo(w *wire.Writer) {
	w.WriteU32(c.Unk0)
	w.WriteString(c.Message)
}

// ChatSystemMessageCmd delivers a single server-originated line back
// to the sender only (spec.md §4.9: mute enforcement, slash-command
// replies).
type ChatSystemMessageCmd struct {
	Message string
}

func (ChatSystemMessageCmd) CommandID() uint16 { return ChatSystemMessage }

func (c *ChatSystemMessageCmd) ReadFrom(r *wire.Reader) error {
	var err error
	c.Message, err = r.ReadString()
	return err
}

func (c *ChatSystemMessageCmd) WriteTo(w *wire.Writer) { w.WriteString(c.Message) }

// --- Messenger (spec.md §4.9) ---

type MessengerLoginCmd struct {
	CharacterUid uint32
}

func (MessengerLoginCmd) CommandID() uint16 { return 0x5000 }

func (c *MessengerLoginCmd) ReadFrom(r *wire.Reader) error {
	var err error
	c.CharacterUid, err = r.ReadU32()
	return err
}

func (c *MessengerLoginCmd) WriteTo(w *wire.Writer) { w.WriteU32(c.CharacterUid) }

type MailFolder uint8

const (
	MailFolderInbox MailFolder = iota
	MailFolderSent
)

type LetterListCmd struct {
	Folder      MailFolder
	LastMailUid uint32
	Count       uint16
}

func (LetterListCmd) CommandID() uint16 { return 0x5001 }

func (c *LetterListCmd) ReadFrom(r *wire.Reader) error {
	v, err := r.ReadByte()
	if err != nil {
		return err
	}
	c.Folder = MailFolder(v)
	if c.LastMailUid, err = r.ReadU32(); err != nil {
		return err
	}
	c.Count, err = r.ReadU16()
	return err
}

func (c *LetterListCmd) WriteTo(w *wire.Writer) {
	w.WriteByte(byte(c.Folder))
	w.WriteU32(c.LastMailUid)
	w.WriteU16(c.Count)
}

type LetterSummary struct {
	Uid        uint32
	SenderName string
	Subject    string
	Read       bool
}

type LetterListOKCmd struct {
	Folder  MailFolder
	Letters []LetterSummary
}

func (LetterListOKCmd) CommandID() uint16 { return 0x5002 }

func (c *LetterListOKCmd) ReadFrom(r *wire.Reader) error {
	v, err := r.ReadByte()
	if err != nil {
		return err
	}
	c.Folder = MailFolder(v)
	n, err := r.ReadU16()
	if err != nil {
		return err
	}
	c.Letters = make([]LetterSummary, n)
	for i := range c.Letters {
		l := &c.Letters[i]
		if l.Uid, err = r.ReadU32(); err != nil {
			return err
		}
		if l.SenderName, err = r.ReadString(); err != nil {
			return err
		}
		if l.Subject, err = r.ReadString(); err != nil {
			return err
		}
		if l.Read, err = r.ReadBool(); err != nil {
			return err
		}
	}
	return nil
}

func (c *LetterListOKCmd) WriteTo(w *wire.Writer) {
	w.WriteByte(byte(c.Folder))
	w.WriteU16(uint16(len(c.Letters)))
	for _, l := range c.Letters {
		w.WriteU32(l.Uid)
		w.WriteString(l.SenderName)
		w.WriteString(l.Subject)
		w.WriteBool(l.Read)
	}
}

type LetterSendCmd struct {
	RecipientName string
	Subject       string
	Body          string
}

func (LetterSendCmd) CommandID() uint16 { return 0x5003 }

func (c *LetterSendCmd) ReadFrom(r *wire.Reader) error {
	var err error
	if c.RecipientName, err = r.ReadString(); err != nil {
		return err
	}
	if c.Subject, err = r.ReadString(); err != nil {
		return err
	}
	c.Body, err = r.ReadString()
	return err
}

func (c *LetterSendCmd) WriteTo(w *wire.Writer) {
	w.WriteString(c.RecipientName)
	w.WriteString(c.Subject)
	w.WriteString(c.Body)
}

type LetterReadCmd struct {
	Uid uint32
}

func (LetterReadCmd) CommandID() uint16 { return 0x5004 }

func (c *LetterReadCmd) ReadFrom(r *wire.Reader) error {
	var err error
	c.Uid, err = r.ReadU32()
	return err
}

func (c *LetterReadCmd) WriteTo(w *wire.Writer) { w.WriteU32(c.Uid) }

type LetterDeleteCmd struct {
	Uid uint32
}

func (LetterDeleteCmd) CommandID() uint16 { return 0x5005 }

func (c *LetterDeleteCmd) ReadFrom(r *wire.Reader) error {
	var err error
	c.Uid, err = r.ReadU32()
	return err
}

func (c *LetterDeleteCmd) WriteTo(w *wire.Writer) { w.WriteU32(c.Uid) }

type ChannelInfoCmd struct {
	AllChatAddress uint32
	AllChatPort    uint16
}

func (ChannelInfoCmd) CommandID() uint16 { return 0x5006 }

func (c *ChannelInfoCmd) ReadFrom(r *wire.Reader) error {
	var err error
	if c.AllChatAddress, err = r.ReadU32(); err != nil {
		return err
	}
	c.AllChatPort, err = r.ReadU16()
	return err
}

func (c *ChannelInfoCmd) WriteTo(w *wire.Writer) {
	w.WriteU32(c.AllChatAddress)
	w.WriteU16(c.AllChatPort)
}
