// Package otp implements the one-time-password registry used to
// authorise cross-subserver handoffs (spec.md §4.5). Grounded on
// OtpSystem.hpp: GrantCode(key)/AuthorizeCode(key, code), a live
// record removed on first successful authorisation or after expiry.
package otp

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultExpiry is the grant lifetime. Spec.md §4.5 suggests "~30 s is
// appropriate"; the original does not hardcode a value in the excerpt.
const DefaultExpiry = 30 * time.Second

// Destination constants hash alongside a character UID to form the
// identity hash a grant is bound to (spec.md §4.5). Mismatched
// constants fail authorisation by construction since the hash differs.
const (
	DestinationRanch uint64 = iota + 1
	DestinationRace
	DestinationAllChat
	DestinationPrivateChat
	DestinationMessenger
)

type grant struct {
	code   uint32
	expiry time.Time
}

// Registry is a thread-safe OTP grant/authorize table (spec.md §5:
// "OTP registry is thread-safe").
type Registry struct {
	mu     sync.Mutex
	grants map[uint64]grant
	expiry time.Duration
	log    *zap.Logger
}

// New returns an empty registry using the given grant lifetime.
func New(expiry time.Duration, log *zap.Logger) *Registry {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Registry{
		grants: make(map[uint64]grant),
		expiry: expiry,
		log:    log,
	}
}

// Hash combines a character UID and destination constant into the
// identity hash GrantCode/AuthorizeCode key on (spec.md §4.5).
func Hash(characterUid uint32, destination uint64) uint64 {
	return uint64(characterUid)<<32 | destination
}

// GrantCode issues a fresh non-zero code for key, valid until the
// registry's configured expiry. A new grant for the same key replaces
// any existing one.
func (r *Registry) GrantCode(key uint64) uint32 {
	code := randomNonZero()

	r.mu.Lock()
	r.grants[key] = grant{code: code, expiry: time.Now().Add(r.expiry)}
	r.mu.Unlock()

	return code
}

// AuthorizeCode reports whether a live, matching grant exists for key
// and code. On success the grant is consumed (spec.md §8 invariant 6:
// single-use). Expired grants never authorise, regardless of code.
func (r *Registry) AuthorizeCode(key uint64, code uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.grants[key]
	if !ok {
		return false
	}
	if g.code != code || time.Now().After(g.expiry) {
		return false
	}
	delete(r.grants, key)
	return true
}

// sweep removes expired grants nobody ever redeemed, bounding the
// registry's memory use.
func (r *Registry) sweep() {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, g := range r.grants {
		if now.After(g.expiry) {
			delete(r.grants, k)
		}
	}
}

// Run periodically sweeps expired grants until ctx is cancelled. It is
// meant to be launched under an errgroup alongside a subserver's other
// background goroutines.
func (r *Registry) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.expiry)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.sweep()
		}
	}
}

// StartSweep launches Run on an errgroup derived from ctx, returning a
// function that waits for it to exit.
func StartSweep(ctx context.Context, r *Registry) func() error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.Run(gctx) })
	return g.Wait
}

func randomNonZero() uint32 {
	var b [4]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			return 0x1 // crypto/rand failure: still non-zero, never guessable-by-construction beyond this fallback
		}
		v := binary.LittleEndian.Uint32(b[:])
		if v != 0 {
			return v
		}
	}
}
