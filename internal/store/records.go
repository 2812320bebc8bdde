package store

import "time"

// Record kinds per spec.md §3 and §6. These are opaque persistent
// entities the core reads/mutates only through Immutable/Mutable
// closures; fields here cover what the directors in this repo
// actually touch, not every field the client protocol exposes.

type UserUid = string // account login ID; see LobbyLogin
type CharacterUid = uint32
type HorseUid = uint32
type ItemUid = uint32
type MailUid = uint32
type GuildUid = uint32
type StallionUid = uint32

// User is the account record (spec.md §6 "users" kind).
type User struct {
	LoginID       string
	PasswordHash  string
	AccessLevel   int16
	CharacterUid  CharacterUid // 0 until a character exists (S2)
	Banned        bool
	Online        bool
	CreatedAt     time.Time
	LastActive    time.Time
}

// Character is the "characters" record kind.
type Character struct {
	Uid          CharacterUid
	OwnerLoginID string
	Name         string
	MountedHorse HorseUid
	Level        uint32
	Experience   uint32
	Carrots      uint32
	RanchLocked  bool // spec.md §4.7: non-owner entry to a locked ranch is refused
}

// Horse is the "horses" record kind.
type Horse struct {
	Uid   HorseUid
	Tid   uint32 // content table ID, see internal/content
	Name  string
	Owner CharacterUid
}

// Item is the "items" record kind — an inventory entry.
type Item struct {
	Uid    ItemUid
	Tid    uint32
	Owner  CharacterUid
	Count  uint32
}

// Mail is the "mails" record kind.
type Mail struct {
	Uid            MailUid
	SenderName     string
	RecipientLogin string
	Subject        string
	Body           string
	Read           bool
	SentAt         time.Time
}

// Guild is the "guilds" record kind.
type Guild struct {
	Uid     GuildUid
	Name    string
	Members []CharacterUid
}

// Stallion is the "stallions" record kind — a breeding-market
// listing (grounded on BreedingMarket.hpp's registration flow).
type Stallion struct {
	Uid       StallionUid
	HorseUid  HorseUid
	Owner     CharacterUid
	ExpiresAt time.Time
}

// Settings is the "settings" record kind — per-character client
// preferences, opaque to the server beyond storage.
type Settings struct {
	CharacterUid CharacterUid
	Blob         []byte
}

// InfractionKind enumerates punishment types (spec.md §4.9, S6: an
// active Mute infraction suppresses chat broadcast).
type InfractionKind uint8

const (
	InfractionMute InfractionKind = iota
	InfractionBan
)

// Infraction is the "infractions" record kind.
type Infraction struct {
	LoginID   string
	Kind      InfractionKind
	Reason    string
	ExpiresAt time.Time
}

// Active reports whether the infraction is still in effect.
func (i Infraction) Active(now time.Time) bool {
	return i.ExpiresAt.IsZero() || now.Before(i.ExpiresAt)
}
