package chatwire

import (
	"bytes"
	"testing"
)

// TestFrameRoundTrip proves spec.md §8 invariant 3 for the chat
// scheme: encoding then decoding a frame with the fixed key yields the
// original command id and payload back.
func TestFrameRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		{0x01},
		bytes.Repeat([]byte{0x55}, 300),
	}

	for _, payload := range payloads {
		encoded := EncodeFrame(9, payload)

		dec := NewDecoder()
		dec.Feed(encoded)

		frame, ok, err := dec.Next()
		if err != nil {
			t.Fatalf("len=%d: unexpected error: %v", len(payload), err)
		}
		if !ok {
			t.Fatalf("len=%d: expected a complete frame", len(payload))
		}
		if frame.CommandID != 9 {
			t.Fatalf("len=%d: CommandID = %d, want 9", len(payload), frame.CommandID)
		}
		if !bytes.Equal(frame.Payload, payload) {
			t.Fatalf("len=%d: payload mismatch: got %x want %x", len(payload), frame.Payload, payload)
		}
		if dec.Pending() {
			t.Fatalf("len=%d: decoder should have no bytes left", len(payload))
		}
	}
}

// TestFrameSplitAcrossFeeds proves a chat frame split arbitrarily
// across Feed calls still decodes to the same single frame.
func TestFrameSplitAcrossFeeds(t *testing.T) {
	payload := bytes.Repeat([]byte{0x10, 0x20, 0x30}, 40)
	encoded := EncodeFrame(5, payload)

	for split := 0; split <= len(encoded); split++ {
		dec := NewDecoder()

		dec.Feed(encoded[:split])
		if split < len(encoded) {
			_, ok, err := dec.Next()
			if err != nil {
				t.Fatalf("split=%d: unexpected error before full frame: %v", split, err)
			}
			if ok {
				t.Fatalf("split=%d: got a complete frame before all bytes arrived", split)
			}
		}

		dec.Feed(encoded[split:])
		frame, ok, err := dec.Next()
		if err != nil {
			t.Fatalf("split=%d: unexpected error: %v", split, err)
		}
		if !ok {
			t.Fatalf("split=%d: expected a complete frame after feeding remainder", split)
		}
		if frame.CommandID != 5 || !bytes.Equal(frame.Payload, payload) {
			t.Fatalf("split=%d: frame mismatch: got id=%d payload=%x", split, frame.CommandID, frame.Payload)
		}
	}
}

// TestFrameDoesNotRoll proves the chat key never changes across
// frames: encoding the same payload twice produces identical bytes.
func TestFrameDoesNotRoll(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5}
	a := EncodeFrame(3, payload)
	b := EncodeFrame(3, payload)
	if !bytes.Equal(a, b) {
		t.Fatalf("encoding the same frame twice produced different bytes: %x vs %x", a, b)
	}
}

// TestFrameInvalidLengthRejected proves a frame whose decoded length
// underflows the header size is a fatal framing error.
func TestFrameInvalidLengthRejected(t *testing.T) {
	length := uint16(2) ^ headerLengthXor
	commandID := uint16(1) ^ headerCommandXor
	buf := []byte{byte(length), byte(length >> 8), byte(commandID), byte(commandID >> 8)}

	dec := NewDecoder()
	dec.Feed(buf)

	_, ok, err := dec.Next()
	if ok {
		t.Fatal("expected no complete frame for an undersized length")
	}
	if err != ErrInvalidFrame {
		t.Fatalf("err = %v, want ErrInvalidFrame", err)
	}
}
