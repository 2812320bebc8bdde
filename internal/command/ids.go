package command

// Command IDs for the lobby/ranch/race subservers. The lobby login
// triad's numeric values (0x0007-0x0009) and the inventory triad
// (0x007e-0x0080) are pinned exactly from the original client's
// CommandProtocol.hpp enum. That header's remaining entries are
// merge-conflicted (spec.md §9); per the resolution recorded in
// DESIGN.md, the HEAD branch (achievement/quest/league/daily-quest
// IDs) is kept and the other branch dropped. IDs beyond that excerpt
// are not present in the retrieved source; this implementation assigns
// them sequential placeholders in the same family's numeric range,
// named after the struct each command corresponds to
// (RanchMessageDefinitions.hpp / RaceMessageDefinitions.hpp /
// ChatterMessageDefinitions.hpp).
const (
	LobbyLogin       uint16 = 0x0007
	LobbyLoginOK     uint16 = 0x0008
	LobbyLoginCancel uint16 = 0x0009

	LobbyShowInventory       uint16 = 0x007e
	LobbyShowInventoryOK     uint16 = 0x007f
	LobbyShowInventoryCancel uint16 = 0x0080

	LobbyAchievementCompleteList       uint16 = 0x00e5
	LobbyAchievementCompleteListOK     uint16 = 0x00e6
	LobbyAchievementCompleteListCancel uint16 = 0x00e7

	LobbyRequestDailyQuestList   uint16 = 0x0356
	LobbyRequestDailyQuestListOK uint16 = 0x0357

	LobbyRequestLeagueInfo       uint16 = 0x0376
	LobbyRequestLeagueInfoOK     uint16 = 0x0377
	LobbyRequestLeagueInfoCancel uint16 = 0x0378

	LobbyRequestQuestList       uint16 = 0x03f8
	LobbyRequestQuestListOK     uint16 = 0x03f9
	LobbyRequestQuestListCancel uint16 = 0x03fa

	// Character creation and handoff. Placeholders in the 0x00a0-0x00cf
	// range, adjacent to the confirmed inventory triad.
	LobbyCreateNicknameNotify uint16 = 0x00a0
	LobbyCreateNickname       uint16 = 0x00a1
	LobbyCreateNicknameOK     uint16 = 0x00a2
	LobbyCreateNicknameCancel uint16 = 0x00a3

	LobbyHeartbeat uint16 = 0x00b0

	LobbyMakeRoom       uint16 = 0x00c0
	LobbyMakeRoomOK     uint16 = 0x00c1
	LobbyMakeRoomCancel uint16 = 0x00c2

	LobbyEnterRoom       uint16 = 0x00c3
	LobbyEnterRoomOK     uint16 = 0x00c4
	LobbyEnterRoomCancel uint16 = 0x00c5

	LobbyEnterRanch       uint16 = 0x00c6
	LobbyEnterRanchOK     uint16 = 0x00c7
	LobbyEnterRanchCancel uint16 = 0x00c8

	LobbyGetMessengerInfo   uint16 = 0x00c9
	LobbyGetMessengerInfoOK uint16 = 0x00ca

	LobbyGoodsShopList       uint16 = 0x00cb
	LobbyInquiryTreecash     uint16 = 0x00cc
	LobbyGuildPartyList      uint16 = 0x00cd
	LobbySpecialEventList    uint16 = 0x00ce

	// Ranch subserver. Exact names confirmed against
	// RanchMessageDefinitions.hpp; numeric values are this
	// implementation's own assignment (Command's backing enum was not
	// in the retrieved excerpt).
	RanchHeartbeat            uint16 = 0x1000
	RanchEnterRanch           uint16 = 0x1001
	RanchEnterRanchOK         uint16 = 0x1002
	RanchEnterRanchCancel     uint16 = 0x1003
	RanchEnterRanchNotify     uint16 = 0x1004
	RanchLeaveRanch           uint16 = 0x1005
	RanchLeaveRanchOK         uint16 = 0x1006
	RanchLeaveRanchNotify     uint16 = 0x1007
	RanchChat                 uint16 = 0x1008
	RanchChatNotify           uint16 = 0x1009
	RanchSnapshot             uint16 = 0x100a
	RanchSnapshotNotify       uint16 = 0x100b
	RanchUpdateBusyState      uint16 = 0x100c
	RanchUpdateBusyStateNotify uint16 = 0x100d
	RanchUpdateEquipmentNotify uint16 = 0x100e

	// Race subserver.
	RaceEnterRoom        uint16 = 0x2000
	RaceEnterRoomOK      uint16 = 0x2001
	RaceEnterRoomNotify  uint16 = 0x2002
	RaceChangeRoomOptions uint16 = 0x2003
	RaceRoomCountdown     uint16 = 0x2004
	RaceRoomCountdownCancel uint16 = 0x2005
	RaceStartRaceNotify   uint16 = 0x2006
	RaceLoadingComplete   uint16 = 0x2007
	RaceLoadingCompleteNotify uint16 = 0x2008
	RaceUserRaceTimer     uint16 = 0x2009
	RaceUserRaceTimerOK   uint16 = 0x200a
	RaceUserRaceFinal     uint16 = 0x200b
	RaceAwardNotify       uint16 = 0x200c
	RaceAwardEnd          uint16 = 0x200d
	RaceChangeMasterNotify uint16 = 0x200e
	RaceReady              uint16 = 0x200f
	RaceReadyNotify        uint16 = 0x2010

	// Mute enforcement system message, shared by the chat directors.
	ChatSystemMessage uint16 = 0x3000
)
