package room

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/alicia-server/server/internal/command"
)

func newTestRoom(t *testing.T, maxPlayers uint8) (*Registry, *Room) {
	t.Helper()
	reg := NewRegistry(zap.NewNop())
	r := reg.Create("test room", "", maxPlayers, command.GameModeSpeed, command.TeamModeFFA, 1, false, 100)
	return reg, r
}

// TestJoinCrowdedAndBadPassword proves Join rejects entrants once the
// room is full or the password doesn't match, without enqueuing them.
func TestJoinCrowdedAndBadPassword(t *testing.T) {
	_, r := newTestRoom(t, 1) // master already occupies the one slot

	if got := r.Join(200, "", func(uint32) {}); got != JoinCrowded {
		t.Fatalf("Join on full room = %v, want JoinCrowded", got)
	}

	reg := NewRegistry(zap.NewNop())
	locked := reg.Create("locked", "secret", 4, command.GameModeSpeed, command.TeamModeFFA, 1, false, 1)
	if got := locked.Join(2, "wrong", func(uint32) {}); got != JoinBadPassword {
		t.Fatalf("Join with wrong password = %v, want JoinBadPassword", got)
	}
	if got := locked.Join(2, "secret", func(uint32) {}); got != JoinOK {
		t.Fatalf("Join with correct password = %v, want JoinOK", got)
	}
}

// TestArriveCancelsJoinDeadline proves an entrant that Arrives before
// the join deadline never triggers onExpire.
func TestArriveCancelsJoinDeadline(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	r := reg.Create("room", "", 4, command.GameModeSpeed, command.TeamModeFFA, 1, false, 1)

	expired := make(chan uint32, 1)
	if got := r.Join(2, "", func(e uint32) { expired <- e }); got != JoinOK {
		t.Fatalf("Join = %v, want JoinOK", got)
	}
	r.Arrive(2)

	select {
	case e := <-expired:
		t.Fatalf("onExpire fired for entrant %d after Arrive", e)
	case <-time.After(JoinDeadline + 50*time.Millisecond):
	}
}

// TestLeaveTransfersMastery proves the departing master hands mastery
// to the next queued member, and clears mastery once the room empties.
func TestLeaveTransfersMastery(t *testing.T) {
	_, r := newTestRoom(t, 4)
	if got := r.Join(2, "", func(uint32) {}); got != JoinOK {
		t.Fatalf("Join = %v, want JoinOK", got)
	}

	newMaster, changed := r.Leave(100)
	if !changed || newMaster != 2 {
		t.Fatalf("Leave(master) = (%d, %v), want (2, true)", newMaster, changed)
	}

	newMaster, changed = r.Leave(2)
	if !changed || newMaster != 0 {
		t.Fatalf("Leave(last member) = (%d, %v), want (0, true)", newMaster, changed)
	}
}

// TestLeaveNonMasterDoesNotChangeMastery proves a non-master departure
// leaves the current master untouched.
func TestLeaveNonMasterDoesNotChangeMastery(t *testing.T) {
	_, r := newTestRoom(t, 4)
	r.Join(2, "", func(uint32) {})

	newMaster, changed := r.Leave(2)
	if changed || newMaster != 100 {
		t.Fatalf("Leave(non-master) = (%d, %v), want (100, false)", newMaster, changed)
	}
}

// TestSetOptionsRoundTrip proves Options reflects the most recent
// SetOptions call.
func TestSetOptionsRoundTrip(t *testing.T) {
	_, r := newTestRoom(t, 4)
	r.SetOptions(42, true)

	missionID, betting := r.Options()
	if missionID != 42 || !betting {
		t.Fatalf("Options() = (%d, %v), want (42, true)", missionID, betting)
	}
}

// TestRegistryRemove proves a removed room is no longer reachable via
// Get.
func TestRegistryRemove(t *testing.T) {
	reg, r := newTestRoom(t, 4)
	reg.Remove(r.Uid)
	if got := reg.Get(r.Uid); got != nil {
		t.Fatalf("Get after Remove = %v, want nil", got)
	}
}
