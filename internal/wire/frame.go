package wire

import "errors"

// ErrInvalidFrame is returned when a frame's decoded length is out of
// the bounds spec.md §3 allows. It is fatal for the connection that
// produced it (spec.md §7: framing errors desynchronize scramble state
// and cannot be recovered from).
var ErrInvalidFrame = errors.New("wire: invalid frame")

// Frame is one decoded, descrambled inbound message.
type Frame struct {
	ID      uint16
	Payload []byte
}

// Decoder incrementally assembles frames out of a byte stream that may
// arrive split across arbitrary read boundaries (spec.md §4.2,
// invariant 4). It owns the connection's RollingCode, since inbound
// descramble advances it.
type Decoder struct {
	code *RollingCode
	buf  []byte
}

// NewDecoder creates a Decoder sharing the given rolling code with the
// connection's encoder (spec.md §3: "inbound and outbound streams of
// one connection share the same rolling code").
func NewDecoder(code *RollingCode) *Decoder {
	return &Decoder{code: code}
}

// Feed appends newly-read bytes to the decoder's internal buffer.
func (d *Decoder) Feed(b []byte) {
	d.buf = append(d.buf, b...)
}

// Next extracts the next complete frame from the buffered bytes, if
// any. It returns ok=false (with a nil error) when more bytes are
// needed; it never duplicates or skips a byte across calls in either
// case (spec.md §4.2 steps 1-6, invariant 4).
func (d *Decoder) Next() (frame Frame, ok bool, err error) {
	if len(d.buf) < 4 {
		return Frame{}, false, nil
	}

	magicValue := uint32(d.buf[0]) | uint32(d.buf[1])<<8 | uint32(d.buf[2])<<16 | uint32(d.buf[3])<<24
	magic := DecodeMessageMagic(magicValue)

	if magic.Length < 4 || int(magic.Length) > MaxJumboPayloadLen+4 {
		return Frame{}, false, ErrInvalidFrame
	}

	if len(d.buf) < int(magic.Length) {
		// Not enough data yet; do not advance the cursor.
		return Frame{}, false, nil
	}

	payload := make([]byte, magic.Length-4)
	copy(payload, d.buf[4:magic.Length])
	d.buf = d.buf[magic.Length:]

	d.code.DescrambleInbound(payload)

	return Frame{ID: magic.ID, Payload: payload}, true, nil
}

// Pending reports whether there are any unconsumed bytes buffered.
func (d *Decoder) Pending() bool { return len(d.buf) > 0 }

// EncodeFrame builds one outbound frame: magic header followed by the
// scrambled payload (spec.md §4.2 outbound pipeline). It does NOT
// advance the connection's rolling code — outbound frames ride
// whatever code the most recent inbound frame left behind (spec.md
// §4.2, §6).
func EncodeFrame(code *RollingCode, id uint16, payload []byte) []byte {
	scrambled := make([]byte, len(payload))
	copy(scrambled, payload)
	code.ScrambleOutbound(scrambled)

	length := uint16(4 + len(scrambled))
	magic := EncodeMessageMagic(MessageMagic{ID: id, Length: length})

	out := make([]byte, 4, length)
	out[0] = byte(magic)
	out[1] = byte(magic >> 8)
	out[2] = byte(magic >> 16)
	out[3] = byte(magic >> 24)
	out = append(out, scrambled...)
	return out
}
