// Package room implements the lobby's room registry: MakeRoom/EnterRoom
// bookkeeping, the pending-entrant queue, master handoff on departure,
// and the join-deadline timeout (spec.md §4.6, §8 invariants 7-9).
package room

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/alicia-server/server/internal/command"
)

// JoinDeadline is how long an entrant may sit in a room's pending
// queue before being dequeued for never connecting to the race server
// (spec.md §4.6: "implementation: ~7 s").
const JoinDeadline = 7 * time.Second

// Room is one lobby-created race room. Every exported method takes the
// room's own lock; callers never see partial state.
type Room struct {
	Uid  uint32
	Name string

	mu             sync.Mutex
	password       string
	maxPlayers     uint8
	gameMode       command.GameMode
	teamMode       command.TeamMode
	missionID      uint32
	bettingEnabled bool
	master         uint32
	queue          []uint32 // pending entrants (characterUid), in join order
	timers         map[uint32]*time.Timer
}

// Registry owns every live room, keyed by Uid.
type Registry struct {
	mu      sync.Mutex
	rooms   map[uint32]*Room
	nextUid atomic.Uint32
	log     *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{rooms: make(map[uint32]*Room), log: log}
}

// Create forms a new room with master as its first pending entrant
// (spec.md §4.6: "create room with master = requesting character,
// queue master as the first pending entrant").
func (reg *Registry) Create(name, password string, maxPlayers uint8, gameMode command.GameMode, teamMode command.TeamMode, missionID uint32, betting bool, master uint32) *Room {
	if maxPlayers < 1 {
		maxPlayers = 1
	}
	if maxPlayers > 8 {
		maxPlayers = 8
	}

	r := &Room{
		Uid:            reg.nextUid.Add(1),
		Name:           name,
		password:       password,
		maxPlayers:     maxPlayers,
		gameMode:       gameMode,
		teamMode:       teamMode,
		missionID:      missionID,
		bettingEnabled: betting,
		master:         master,
		queue:          []uint32{master},
		timers:         make(map[uint32]*time.Timer),
	}

	reg.mu.Lock()
	reg.rooms[r.Uid] = r
	reg.mu.Unlock()

	return r
}

// Get returns the room for uid, or nil if it doesn't exist.
func (reg *Registry) Get(uid uint32) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.rooms[uid]
}

// Remove deletes a room from the registry, e.g. once it empties.
func (reg *Registry) Remove(uid uint32) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, uid)
}

// JoinResult enumerates EnterRoom's outcomes (spec.md §4.6).
type JoinResult int

const (
	JoinOK JoinResult = iota
	JoinInvalidRoom
	JoinBadPassword
	JoinCrowded
)

// Join validates and enqueues entrant, scheduling its join-deadline
// timeout. onExpire is invoked (on its own goroutine) if the entrant
// is still queued when the deadline passes.
func (r *Room) Join(entrant uint32, password string, onExpire func(entrant uint32)) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.password != "" && password != r.password {
		return JoinBadPassword
	}
	if len(r.queue) >= int(r.maxPlayers) {
		return JoinCrowded
	}

	r.queue = append(r.queue, entrant)
	r.timers[entrant] = time.AfterFunc(JoinDeadline, func() {
		if r.dequeueIfPending(entrant) {
			onExpire(entrant)
		}
	})
	return JoinOK
}

// dequeueIfPending removes entrant from the queue if it is still
// there, reporting whether it did. Used by the join-deadline timer;
// Arrive stops that timer instead, so an entrant that connects before
// the deadline stays queued.
func (r *Room) dequeueIfPending(entrant uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeFromQueueLocked(entrant)
}

func (r *Room) removeFromQueueLocked(entrant uint32) bool {
	for i, e := range r.queue {
		if e == entrant {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			return true
		}
	}
	return false
}

// Arrive marks an entrant as having connected to the race server
// (its RaceEnterRoom OTP was authorized), cancelling its join-deadline
// timer. The entrant stays in the room roster.
func (r *Room) Arrive(entrant uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[entrant]; ok {
		t.Stop()
		delete(r.timers, entrant)
	}
}

// Leave removes a member from the room roster (and its pending queue,
// if still there), transferring mastery to the next queued member if
// the departing member was master. Returns the new master (0 if the
// room is now empty) and whether mastery changed.
func (r *Room) Leave(member uint32) (newMaster uint32, changed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.timers[member]; ok {
		t.Stop()
		delete(r.timers, member)
	}
	r.removeFromQueueLocked(member)

	if r.master != member {
		return r.master, false
	}
	if len(r.queue) == 0 {
		r.master = 0
		return 0, true
	}
	r.master = r.queue[0]
	return r.master, true
}

// Master returns the current room master.
func (r *Room) Master() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.master
}

// Members returns a snapshot of the current queue/roster.
func (r *Room) Members() []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint32, len(r.queue))
	copy(out, r.queue)
	return out
}

// Options returns the room's current mission/betting settings.
func (r *Room) Options() (missionID uint32, betting bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.missionID, r.bettingEnabled
}

// SetOptions updates the room's mission/betting settings. Callers must
// verify the requester is the current master first (spec.md §4.8).
func (r *Room) SetOptions(missionID uint32, betting bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.missionID = missionID
	r.bettingEnabled = betting
}
