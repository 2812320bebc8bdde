package wire

import (
	"bytes"
	"testing"
)

// TestFrameRoundTrip proves a single encoded frame decodes back to its
// original id/payload when encoder and decoder start from the same
// rolling code.
func TestFrameRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		{0x01},
		bytes.Repeat([]byte{0x42}, 200),
	}

	for _, payload := range payloads {
		senderCode := NewRollingCode(99)
		receiverCode := NewRollingCode(99)

		encoded := EncodeFrame(senderCode, 7, payload)

		dec := NewDecoder(receiverCode)
		dec.Feed(encoded)

		frame, ok, err := dec.Next()
		if err != nil {
			t.Fatalf("len=%d: unexpected error: %v", len(payload), err)
		}
		if !ok {
			t.Fatalf("len=%d: expected a complete frame", len(payload))
		}
		if frame.ID != 7 {
			t.Fatalf("len=%d: frame.ID = %d, want 7", len(payload), frame.ID)
		}
		if !bytes.Equal(frame.Payload, payload) {
			t.Fatalf("len=%d: payload mismatch: got %x want %x", len(payload), frame.Payload, payload)
		}
		if dec.Pending() {
			t.Fatalf("len=%d: decoder should have no bytes left", len(payload))
		}
	}
}

// TestFrameSplitAcrossFeeds proves invariant 4: a frame split
// arbitrarily across Feed calls yields the same single frame, never
// duplicating or losing bytes, regardless of where the split falls.
func TestFrameSplitAcrossFeeds(t *testing.T) {
	code := NewRollingCode(555)
	payload := bytes.Repeat([]byte{0x01, 0x02, 0x03, 0x04}, 50)
	encoded := EncodeFrame(code, 42, payload)

	for split := 0; split <= len(encoded); split++ {
		dec := NewDecoder(NewRollingCode(555))

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
		if frame.ID != 42 || !bytes.Equal(frame.Payload, payload) {
			t.Fatalf("split=%d: frame mismatch: got id=%d payload=%x", split, frame.ID, frame.Payload)
		}
		if dec.Pending() {
			t.Fatalf("split=%d: decoder should be empty after full frame consumed", split)
		}
	}
}

// TestFrameMultipleInOneFeed proves back-to-back frames delivered in a
// single read are each extracted in order without loss.
func TestFrameMultipleInOneFeed(t *testing.T) {
	senderCode := NewRollingCode(1)
	var buf []byte
	want := [][]byte{{0xAA}, {0xBB, 0xCC}, {}}
	for i, p := range want {
		buf = append(buf, EncodeFrame(senderCode, uint16(i+1), p)...)
		senderCode.Advance() // the sending side steps its code once per frame, as the decoder does
	}

	dec := NewDecoder(NewRollingCode(1))
	dec.Feed(buf)

	for i, p := range want {
		frame, ok, err := dec.Next()
		if err != nil {
			t.Fatalf("frame %d: unexpected error: %v", i, err)
		}
		if !ok {
			t.Fatalf("frame %d: expected a complete frame", i)
		}
		if frame.ID != uint16(i+1) || !bytes.Equal(frame.Payload, p) {
			t.Fatalf("frame %d: got id=%d payload=%x, want id=%d payload=%x", i, frame.ID, frame.Payload, i+1, p)
		}
	}

	if dec.Pending() {
		t.Fatal("decoder should be empty after all frames consumed")
	}
	if _, ok, err := dec.Next(); ok || err != nil {
		t.Fatalf("expected no more frames, got ok=%v err=%v", ok, err)
	}
}

// TestFrameInvalidLengthRejected proves a frame whose decoded length
// underflows the header size is rejected as a fatal framing error
// rather than silently accepted or hung.
func TestFrameInvalidLengthRejected(t *testing.T) {
	magic := EncodeMessageMagic(MessageMagic{ID: 1, Length: 2})
	buf := []byte{byte(magic), byte(magic >> 8), byte(magic >> 16), byte(magic >> 24)}

	dec := NewDecoder(NewRollingCode(0))
	dec.Feed(buf)

	_, ok, err := dec.Next()
	if ok {
		t.Fatal("expected no complete frame for an undersized length")
	}
	if err != ErrInvalidFrame {
		t.Fatalf("err = %v, want ErrInvalidFrame", err)
	}
}
