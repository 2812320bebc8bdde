package wire

import "testing"

// TestMagicFixture pins the original client's own round-trip fixture
// (tests/src/TestMagic.cpp): id=7, length=29 must encode to
// 0x8D06CD01.
func TestMagicFixture(t *testing.T) {
	magic := MessageMagic{ID: 7, Length: 29}

	encoded := EncodeMessageMagic(magic)
	if encoded != 0x8D06CD01 {
		t.Fatalf("encode(%+v) = 0x%08X, want 0x8D06CD01", magic, encoded)
	}

	decoded := DecodeMessageMagic(encoded)
	if decoded != magic {
		t.Fatalf("decode(0x%08X) = %+v, want %+v", encoded, decoded, magic)
	}
}

// TestMagicRoundTrip proves spec.md §8 invariant 1 across the full
// domain of valid (id, length) pairs.
func TestMagicRoundTrip(t *testing.T) {
	lengths := []uint16{4, 5, 16, 255, 1000, 4092}
	ids := []uint16{0, 1, 7, 100, 0x1FFF, (1 << 14) - 1}

	for _, id := range ids {
		for _, length := range lengths {
			magic := MessageMagic{ID: id, Length: length}
			encoded := EncodeMessageMagic(magic)
			decoded := DecodeMessageMagic(encoded)
			if decoded != magic {
				t.Fatalf("round-trip(id=%d, length=%d) = %+v", id, length, decoded)
			}
		}
	}
}
