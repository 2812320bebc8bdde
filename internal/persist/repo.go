package persist

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/alicia-server/server/internal/store"
)

// UserRepo backs a store.Store[store.UserUid, store.User] (spec.md §6
// "users" kind), grounded on the teacher's AccountRepo: same
// Load/Create shape, same bcrypt password handling.
type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Load(ctx context.Context, loginID store.UserUid) (store.User, error) {
	var u store.User
	var lastActive *time.Time
	err := r.db.Pool.QueryRow(ctx,
		`SELECT login_id, password_hash, access_level, character_uid, banned, online, created_at, last_active
		 FROM users WHERE login_id = $1`, loginID,
	).Scan(&u.LoginID, &u.PasswordHash, &u.AccessLevel, &u.CharacterUid, &u.Banned, &u.Online, &u.CreatedAt, &lastActive)
	if err != nil {
		return store.User{}, err
	}
	if lastActive != nil {
		u.LastActive = *lastActive
	}
	return u, nil
}

func (r *UserRepo) Save(ctx context.Context, loginID store.UserUid, u store.User) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, access_level = $3, character_uid = $4,
		                  banned = $5, online = $6, last_active = $7
		 WHERE login_id = $1`,
		loginID, u.PasswordHash, u.AccessLevel, u.CharacterUid, u.Banned, u.Online, u.LastActive,
	)
	return err
}

// Create registers a new account with a bcrypt-hashed password,
// mirroring AccountRepo.Create.
func (r *UserRepo) Create(ctx context.Context, loginID, rawPassword string) (store.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(rawPassword), bcrypt.DefaultCost)
	if err != nil {
		return store.User{}, err
	}
	now := time.Now()
	u := store.User{
		LoginID:      loginID,
		PasswordHash: string(hash),
		CreatedAt:    now,
		LastActive:   now,
	}
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO users (login_id, password_hash, last_active) VALUES ($1, $2, $3)`,
		u.LoginID, u.PasswordHash, u.LastActive,
	)
	if err != nil {
		return store.User{}, err
	}
	return u, nil
}

// ValidatePassword reports whether rawPassword matches hash
// (spec.md §4.6, I1: "login requires a valid credential pair").
func (r *UserRepo) ValidatePassword(hash, rawPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawPassword)) == nil
}

// CharacterRepo backs store.Store[store.CharacterUid, store.Character].
type CharacterRepo struct {
	db *DB
}

func NewCharacterRepo(db *DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

func (r *CharacterRepo) Load(ctx context.Context, uid store.CharacterUid) (store.Character, error) {
	var c store.Character
	err := r.db.Pool.QueryRow(ctx,
		`SELECT uid, owner_login_id, name, mounted_horse, level, experience, carrots, ranch_locked
		 FROM characters WHERE uid = $1`, uid,
	).Scan(&c.Uid, &c.OwnerLoginID, &c.Name, &c.MountedHorse, &c.Level, &c.Experience, &c.Carrots, &c.RanchLocked)
	return c, err
}

func (r *CharacterRepo) Save(ctx context.Context, uid store.CharacterUid, c store.Character) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE characters SET name = $2, mounted_horse = $3, level = $4, experience = $5, carrots = $6, ranch_locked = $7
		 WHERE uid = $1`,
		uid, c.Name, c.MountedHorse, c.Level, c.Experience, c.Carrots, c.RanchLocked,
	)
	return err
}

// Create inserts a new character row, returning it with its assigned
// uid — spec.md §4.6 S2's "character creation on first login."
func (r *CharacterRepo) Create(ctx context.Context, ownerLoginID, name string) (store.Character, error) {
	c := store.Character{OwnerLoginID: ownerLoginID, Name: name, Level: 1}
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO characters (owner_login_id, name) VALUES ($1, $2) RETURNING uid`,
		ownerLoginID, name,
	).Scan(&c.Uid)
	return c, err
}

func (r *CharacterRepo) NameExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM characters WHERE name = $1)`, name,
	).Scan(&exists)
	return exists, err
}

// LoadByName resolves a character by its unique display name, used by
// the messenger's letter-send flow to turn a recipient name into an
// owning login ID (spec.md §4.9 S7).
func (r *CharacterRepo) LoadByName(ctx context.Context, name string) (store.Character, error) {
	var c store.Character
	err := r.db.Pool.QueryRow(ctx,
		`SELECT uid, owner_login_id, name, mounted_horse, level, experience, carrots, ranch_locked
		 FROM characters WHERE name = $1`, name,
	).Scan(&c.Uid, &c.OwnerLoginID, &c.Name, &c.MountedHorse, &c.Level, &c.Experience, &c.Carrots, &c.RanchLocked)
	return c, err
}

// HorseRepo backs store.Store[store.HorseUid, store.Horse].
type HorseRepo struct {
	db *DB
}

func NewHorseRepo(db *DB) *HorseRepo { return &HorseRepo{db: db} }

func (r *HorseRepo) Load(ctx context.Context, uid store.HorseUid) (store.Horse, error) {
	var h store.Horse
	err := r.db.Pool.QueryRow(ctx,
		`SELECT uid, tid, name, owner FROM horses WHERE uid = $1`, uid,
	).Scan(&h.Uid, &h.Tid, &h.Name, &h.Owner)
	return h, err
}

func (r *HorseRepo) Save(ctx context.Context, uid store.HorseUid, h store.Horse) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE horses SET tid = $2, name = $3, owner = $4 WHERE uid = $1`,
		uid, h.Tid, h.Name, h.Owner,
	)
	return err
}

func (r *HorseRepo) Create(ctx context.Context, tid uint32, name string, owner store.CharacterUid) (store.Horse, error) {
	h := store.Horse{Tid: tid, Name: name, Owner: owner}
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO horses (tid, name, owner) VALUES ($1, $2, $3) RETURNING uid`,
		h.Tid, h.Name, h.Owner,
	).Scan(&h.Uid)
	return h, err
}

// LoadByOwner returns every horse a character owns, used to build the
// ranch snapshot (spec.md §4.7 S1).
func (r *HorseRepo) LoadByOwner(ctx context.Context, owner store.CharacterUid) ([]store.Horse, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT uid, tid, name, owner FROM horses WHERE owner = $1`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Horse
	for rows.Next() {
		var h store.Horse
		if err := rows.Scan(&h.Uid, &h.Tid, &h.Name, &h.Owner); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ItemRepo backs store.Store[store.ItemUid, store.Item].
type ItemRepo struct {
	db *DB
}

func NewItemRepo(db *DB) *ItemRepo { return &ItemRepo{db: db} }

func (r *ItemRepo) Load(ctx context.Context, uid store.ItemUid) (store.Item, error) {
	var it store.Item
	err := r.db.Pool.QueryRow(ctx,
		`SELECT uid, tid, owner, count FROM items WHERE uid = $1`, uid,
	).Scan(&it.Uid, &it.Tid, &it.Owner, &it.Count)
	return it, err
}

func (r *ItemRepo) Save(ctx context.Context, uid store.ItemUid, it store.Item) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE items SET tid = $2, owner = $3, count = $4 WHERE uid = $1`,
		uid, it.Tid, it.Owner, it.Count,
	)
	return err
}

// LoadByOwner returns a character's inventory, grounded on the
// teacher's ItemRepo.LoadByCharID (spec.md §4.6's ShowInventory).
func (r *ItemRepo) LoadByOwner(ctx context.Context, owner store.CharacterUid) ([]store.Item, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT uid, tid, owner, count FROM items WHERE owner = $1`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Item
	for rows.Next() {
		var it store.Item
		if err := rows.Scan(&it.Uid, &it.Tid, &it.Owner, &it.Count); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// MailRepo backs store.Store[store.MailUid, store.Mail].
type MailRepo struct {
	db *DB
}

func NewMailRepo(db *DB) *MailRepo { return &MailRepo{db: db} }

func (r *MailRepo) Load(ctx context.Context, uid store.MailUid) (store.Mail, error) {
	var m store.Mail
	err := r.db.Pool.QueryRow(ctx,
		`SELECT uid, sender_name, recipient_login, subject, body, read, sent_at FROM mails WHERE uid = $1`, uid,
	).Scan(&m.Uid, &m.SenderName, &m.RecipientLogin, &m.Subject, &m.Body, &m.Read, &m.SentAt)
	return m, err
}

func (r *MailRepo) Save(ctx context.Context, uid store.MailUid, m store.Mail) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE mails SET read = $2 WHERE uid = $1`, uid, m.Read)
	return err
}

// Send inserts a new mail — spec.md §4.9's messenger letter flow.
func (r *MailRepo) Send(ctx context.Context, m store.Mail) (store.Mail, error) {
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO mails (sender_name, recipient_login, subject, body) VALUES ($1, $2, $3, $4) RETURNING uid, sent_at`,
		m.SenderName, m.RecipientLogin, m.Subject, m.Body,
	).Scan(&m.Uid, &m.SentAt)
	return m, err
}

func (r *MailRepo) Delete(ctx context.Context, uid store.MailUid) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM mails WHERE uid = $1`, uid)
	return err
}

// ListByRecipient returns a recipient's mail, newest first, for the
// letter-list command (spec.md §4.9 S7).
func (r *MailRepo) ListByRecipient(ctx context.Context, recipientLogin string) ([]store.Mail, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT uid, sender_name, recipient_login, subject, body, read, sent_at
		 FROM mails WHERE recipient_login = $1 ORDER BY sent_at DESC`, recipientLogin,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Mail
	for rows.Next() {
		var m store.Mail
		if err := rows.Scan(&m.Uid, &m.SenderName, &m.RecipientLogin, &m.Subject, &m.Body, &m.Read, &m.SentAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GuildRepo backs store.Store[store.GuildUid, store.Guild], grounded
// on the teacher's ClanRepo transaction shape.
type GuildRepo struct {
	db *DB
}

func NewGuildRepo(db *DB) *GuildRepo { return &GuildRepo{db: db} }

func (r *GuildRepo) Load(ctx context.Context, uid store.GuildUid) (store.Guild, error) {
	var g store.Guild
	if err := r.db.Pool.QueryRow(ctx, `SELECT uid, name FROM guilds WHERE uid = $1`, uid).Scan(&g.Uid, &g.Name); err != nil {
		return store.Guild{}, err
	}
	rows, err := r.db.Pool.Query(ctx, `SELECT character_uid FROM guild_members WHERE guild_uid = $1`, uid)
	if err != nil {
		return store.Guild{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var m store.CharacterUid
		if err := rows.Scan(&m); err != nil {
			return store.Guild{}, err
		}
		g.Members = append(g.Members, m)
	}
	return g, rows.Err()
}

func (r *GuildRepo) Save(ctx context.Context, uid store.GuildUid, g store.Guild) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE guilds SET name = $2 WHERE uid = $1`, uid, g.Name)
	return err
}

// Create forms a new guild with the founder as its first member, in
// one transaction (grounded on ClanRepo.CreateClan).
func (r *GuildRepo) Create(ctx context.Context, name string, founder store.CharacterUid) (store.Guild, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return store.Guild{}, err
	}
	defer tx.Rollback(ctx)

	g := store.Guild{Name: name, Members: []store.CharacterUid{founder}}
	if err := tx.QueryRow(ctx, `INSERT INTO guilds (name) VALUES ($1) RETURNING uid`, name).Scan(&g.Uid); err != nil {
		return store.Guild{}, err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO guild_members (guild_uid, character_uid) VALUES ($1, $2)`, g.Uid, founder); err != nil {
		return store.Guild{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return store.Guild{}, err
	}
	return g, nil
}

// StallionRepo backs store.Store[store.StallionUid, store.Stallion]
// (the breeding-market listing kind).
type StallionRepo struct {
	db *DB
}

func NewStallionRepo(db *DB) *StallionRepo { return &StallionRepo{db: db} }

func (r *StallionRepo) Load(ctx context.Context, uid store.StallionUid) (store.Stallion, error) {
	var s store.Stallion
	err := r.db.Pool.QueryRow(ctx,
		`SELECT uid, horse_uid, owner, expires_at FROM stallions WHERE uid = $1`, uid,
	).Scan(&s.Uid, &s.HorseUid, &s.Owner, &s.ExpiresAt)
	return s, err
}

func (r *StallionRepo) Save(ctx context.Context, uid store.StallionUid, s store.Stallion) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE stallions SET expires_at = $2 WHERE uid = $1`, uid, s.ExpiresAt)
	return err
}

func (r *StallionRepo) List(ctx context.Context, now time.Time) ([]store.Stallion, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT uid, horse_uid, owner, expires_at FROM stallions WHERE expires_at > $1`, now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Stallion
	for rows.Next() {
		var s store.Stallion
		if err := rows.Scan(&s.Uid, &s.HorseUid, &s.Owner, &s.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SettingsRepo backs store.Store[store.CharacterUid, store.Settings].
type SettingsRepo struct {
	db *DB
}

func NewSettingsRepo(db *DB) *SettingsRepo { return &SettingsRepo{db: db} }

func (r *SettingsRepo) Load(ctx context.Context, uid store.CharacterUid) (store.Settings, error) {
	var s store.Settings
	s.CharacterUid = uid
	err := r.db.Pool.QueryRow(ctx, `SELECT blob FROM settings WHERE character_uid = $1`, uid).Scan(&s.Blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, nil
	}
	return s, err
}

func (r *SettingsRepo) Save(ctx context.Context, uid store.CharacterUid, s store.Settings) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO settings (character_uid, blob) VALUES ($1, $2)
		 ON CONFLICT (character_uid) DO UPDATE SET blob = $2`,
		uid, s.Blob,
	)
	return err
}

// InfractionRepo lists active mutes/bans (spec.md §4.9 S6).
type InfractionRepo struct {
	db *DB
}

func NewInfractionRepo(db *DB) *InfractionRepo { return &InfractionRepo{db: db} }

func (r *InfractionRepo) Active(ctx context.Context, loginID string, now time.Time) ([]store.Infraction, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT login_id, kind, reason, expires_at FROM infractions
		 WHERE login_id = $1 AND (expires_at IS NULL OR expires_at > $2)`, loginID, now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Infraction
	for rows.Next() {
		var inf store.Infraction
		var expires *time.Time
		if err := rows.Scan(&inf.LoginID, &inf.Kind, &inf.Reason, &expires); err != nil {
			return nil, err
		}
		if expires != nil {
			inf.ExpiresAt = *expires
		}
		out = append(out, inf)
	}
	return out, rows.Err()
}

func (r *InfractionRepo) Record(ctx context.Context, inf store.Infraction) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO infractions (login_id, kind, reason, expires_at) VALUES ($1, $2, $3, $4)`,
		inf.LoginID, inf.Kind, inf.Reason, inf.ExpiresAt,
	)
	return err
}
