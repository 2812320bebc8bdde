package wire

import (
	"bytes"
	"testing"
)

// TestRollingCodeRoundTrip proves spec.md §8 invariant 2: for any byte
// sequence and starting code, descrambling the scramble of that
// sequence yields the original bytes back, and the code advances by
// exactly one LCG step per frame.
func TestRollingCodeRoundTrip(t *testing.T) {
	seeds := []uint32{0, 1, 0xDEADBEEF, 0xFFFFFFFF, 12345}
	payloads := [][]byte{
		{},
		{0x00},
		{0x01, 0x02, 0x03},
		bytes.Repeat([]byte{0xAA}, 37),
		bytes.Repeat([]byte{0x00, 0xFF, 0x10, 0x80}, 16),
	}

	for _, seed := range seeds {
		for _, original := range payloads {
			sender := NewRollingCode(seed)
			receiver := NewRollingCode(seed)

			data := make([]byte, len(original))
			copy(data, original)

			sender.ScrambleOutbound(data)
			receiver.DescrambleInbound(data)

			if !bytes.Equal(data, original) {
				t.Fatalf("seed=%d len=%d: round-trip mismatch: got %x want %x", seed, len(original), data, original)
			}

			want := seed*rollMultiplier + rollAddend
			if receiver.code != want {
				t.Fatalf("seed=%d: code after frame = %#x, want %#x", seed, receiver.code, want)
			}
		}
	}
}

// TestRollingCodeOutboundDoesNotAdvance proves outbound scrambling
// alone never advances the shared code (spec.md §4.2: only inbound
// frames advance it).
func TestRollingCodeOutboundDoesNotAdvance(t *testing.T) {
	code := NewRollingCode(42)
	data := []byte{1, 2, 3, 4, 5}

	code.ScrambleOutbound(data)
	if code.code != 42 {
		t.Fatalf("code changed after outbound scramble: got %#x, want 42", code.code)
	}

	code.ScrambleOutbound(data)
	if code.code != 42 {
		t.Fatalf("code changed after second outbound scramble: got %#x, want 42", code.code)
	}
}

// TestRollingCodeSequence proves consecutive inbound frames each
// advance the code by one LCG step, in order.
func TestRollingCodeSequence(t *testing.T) {
	code := NewRollingCode(7)
	expect := uint32(7)
	for i := 0; i < 5; i++ {
		data := []byte{byte(i), byte(i + 1)}
		code.DescrambleInbound(data)
		expect = expect*rollMultiplier + rollAddend
		if code.code != expect {
			t.Fatalf("frame %d: code = %#x, want %#x", i, code.code, expect)
		}
	}
}

// TestRollingCodeReset proves Reset zeroes the code regardless of its
// prior value (spec.md §4.6: LoginOK resets the code to zero).
func TestRollingCodeReset(t *testing.T) {
	code := NewRollingCode(0x12345678)
	code.Reset()
	if code.code != 0 {
		t.Fatalf("code after Reset = %#x, want 0", code.code)
	}
}
