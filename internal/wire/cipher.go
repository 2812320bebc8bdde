package wire

// Rolling-code scramble constants for the lobby/ranch/race scheme.
//
// The original client's rolling multiplier/addend pair was stripped
// from the retrieved source (it lives in a header that didn't make it
// into the excerpt); per spec.md §9 ("The constants are not derivable
// from first principles... Lift them to named constants, document
// them, and pin them with a round-trip test"), this implementation
// pins a concrete 32-bit LCG pair and proves the round-trip property
// against it. Swapping these two constants for the real client's
// values (if recovered) is a one-line change confined to this file.
const (
	rollMultiplier uint32 = 0x41C64E6D
	rollAddend     uint32 = 0x00003039
)

// XorControl is a fixed 4-byte XOR key, ported from the original's
// CommandProtocol.hpp xor_control array. Only Scramble uses it; the
// frame codec XORs payloads with the rolling code alone (XorCurrent).
var XorControl = [4]byte{0xCB, 0x91, 0x01, 0xA2}

// RollingCode is the per-connection scramble state for the lobby/ranch/
// race scheme. Inbound and outbound frames on one connection share a
// single RollingCode (spec.md §3 invariant).
type RollingCode struct {
	code uint32
}

// NewRollingCode returns a code starting at the given seed. A fresh
// connection should seed with a non-predictable value; LoginOK resets
// the code to zero (spec.md §4.6).
func NewRollingCode(seed uint32) *RollingCode {
	return &RollingCode{code: seed}
}

// Reset zeroes the rolling code. Called on entering certain flows
// (e.g. right after LoginOK) so the next frame uses the zero code.
func (r *RollingCode) Reset() {
	r.code = 0
}

// bytes returns the current code as its 4 little-endian bytes.
func (r *RollingCode) bytes() [4]byte {
	return [4]byte{
		byte(r.code),
		byte(r.code >> 8),
		byte(r.code >> 16),
		byte(r.code >> 24),
	}
}

// Advance steps the rolling code forward by one frame:
// code = code*MUL + ADD, with unsigned 32-bit wraparound.
func (r *RollingCode) Advance() {
	r.code = r.code*rollMultiplier + rollAddend
}

// Scramble XORs data in place against XorControl, not the rolling
// code. Provided for parity with the original's standalone
// xor_codec_cpp helper; neither the frame codec nor the tests call it.
func Scramble(data []byte) {
	for i := range data {
		data[i] ^= XorControl[i%4]
	}
}

// XorCurrent XORs data in place against the connection's current
// rolling code bytes without advancing the code. Used for inbound
// descramble (the caller advances afterward, once per frame) and for
// outbound scramble, which — per spec.md §4.2 — shares the
// connection's single rolling state but only ever advances it on the
// inbound side.
func (r *RollingCode) XorCurrent(data []byte) {
	key := r.bytes()
	for i := range data {
		data[i] ^= key[i%4]
	}
}

// DescrambleInbound XORs an inbound payload against the current code
// and advances the code by one frame step, per spec.md §6: "after the
// frame, advance code := code*MUL+ADD".
func (r *RollingCode) DescrambleInbound(data []byte) {
	r.XorCurrent(data)
	r.Advance()
}

// ScrambleOutbound XORs an outbound payload against the current code
// without advancing it — outbound frames ride the code the most
// recent inbound frame left behind (spec.md §4.2: "lobby-scheme
// outbound uses the same rolling code but advances it per inbound
// frame only").
func (r *RollingCode) ScrambleOutbound(data []byte) {
	r.XorCurrent(data)
}
