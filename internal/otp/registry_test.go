package otp

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

// TestAuthorizeCodeSingleUse proves spec.md §8 invariant 6: a grant
// authorizes at most once, even when presented with the right code
// twice.
func TestAuthorizeCodeSingleUse(t *testing.T) {
	r := New(time.Minute, zap.NewNop())
	key := Hash(42, DestinationRanch)
	code := r.GrantCode(key)

	if !r.AuthorizeCode(key, code) {
		t.Fatalf("first AuthorizeCode(%d) = false, want true", code)
	}
	if r.AuthorizeCode(key, code) {
		t.Fatalf("second AuthorizeCode(%d) = true, want false (single-use)", code)
	}
}

// TestAuthorizeCodeWrongCode proves a mismatched code never authorizes
// and leaves the grant intact for a subsequent legitimate attempt
// (spec.md §4.5: the grant is removed "on success", not on any
// attempt).
func TestAuthorizeCodeWrongCode(t *testing.T) {
	r := New(time.Minute, zap.NewNop())
	key := Hash(7, DestinationRace)
	code := r.GrantCode(key)

	if r.AuthorizeCode(key, code+1) {
		t.Fatalf("AuthorizeCode with wrong code succeeded")
	}
	if !r.AuthorizeCode(key, code) {
		t.Fatalf("AuthorizeCode with the correct code failed after a prior wrong-code attempt")
	}
}

// TestAuthorizeCodeExpired proves an expired grant never authorizes.
func TestAuthorizeCodeExpired(t *testing.T) {
	r := New(time.Millisecond, zap.NewNop())
	key := Hash(1, DestinationMessenger)
	code := r.GrantCode(key)

	time.Sleep(5 * time.Millisecond)

	if r.AuthorizeCode(key, code) {
		t.Fatalf("AuthorizeCode succeeded on an expired grant")
	}
}

// TestHashDistinguishesDestination proves two destinations for the
// same character UID hash to different keys, so a grant for one
// destination never authorizes against another.
func TestHashDistinguishesDestination(t *testing.T) {
	if Hash(5, DestinationRanch) == Hash(5, DestinationRace) {
		t.Fatalf("Hash collided across destinations for the same character UID")
	}
}

// TestAuthorizeCodeUnknownKey proves authorizing against a key with no
// grant fails cleanly rather than panicking.
func TestAuthorizeCodeUnknownKey(t *testing.T) {
	r := New(time.Minute, zap.NewNop())
	if r.AuthorizeCode(Hash(99, DestinationAllChat), 1) {
		t.Fatalf("AuthorizeCode succeeded against an ungranted key")
	}
}
