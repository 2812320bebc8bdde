// Package chatwire implements the chat-subserver wire scheme: a
// 4-byte plaintext-XORed header (length, commandId) followed by a
// payload scrambled with the same fixed, non-rolling 4-byte key.
// Ported from the original's ChatterServer.cpp.
package chatwire

import "errors"

// Key is the fixed 4-byte XOR key used for the chat scheme. Unlike the
// lobby/ranch/race scheme, it never rolls (spec.md §3, §6).
var Key = [4]byte{0x2B, 0xFE, 0xB8, 0x02}

// headerLengthXor and headerCommandXor are Key reinterpreted as two
// little-endian uint16s, applied to the header's two fields
// individually (spec.md §6).
const (
	headerLengthXor  uint16 = 0xFE2B
	headerCommandXor uint16 = 0x02B8
)

// HeaderSize is the size of the chat frame header in bytes.
const HeaderSize = 4

// MaxPayloadLen bounds a chat frame's payload so that the whole frame,
// header included, is at most 4092 bytes.
const MaxPayloadLen = 4092 - HeaderSize

// ErrInvalidFrame is fatal for the chat connection that produced it.
var ErrInvalidFrame = errors.New("chatwire: invalid frame")

// Frame is one decoded, descrambled inbound chat message.
type Frame struct {
	CommandID uint16
	Payload   []byte
}

// Decoder incrementally assembles chat frames from a byte stream that
// may arrive split across read boundaries.
type Decoder struct {
	buf []byte
}

// NewDecoder returns an empty chat frame decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends newly-read bytes.
func (d *Decoder) Feed(b []byte) {
	d.buf = append(d.buf, b...)
}

// Next extracts the next complete frame, if any.
func (d *Decoder) Next() (frame Frame, ok bool, err error) {
	if len(d.buf) < HeaderSize {
		return Frame{}, false, nil
	}

	rawLength := uint16(d.buf[0]) | uint16(d.buf[1])<<8
	rawCommand := uint16(d.buf[2]) | uint16(d.buf[3])<<8

	length := rawLength ^ headerLengthXor
	commandID := rawCommand ^ headerCommandXor

	if length < HeaderSize || int(length) > HeaderSize+MaxPayloadLen {
		return Frame{}, false, ErrInvalidFrame
	}

	if len(d.buf) < int(length) {
		return Frame{}, false, nil
	}

	payload := make([]byte, length-HeaderSize)
	copy(payload, d.buf[HeaderSize:length])
	d.buf = d.buf[length:]

	for i := range payload {
		payload[i] ^= Key[i%4]
	}

	return Frame{CommandID: commandID, Payload: payload}, true, nil
}

// Pending reports whether there are unconsumed bytes buffered.
func (d *Decoder) Pending() bool { return len(d.buf) > 0 }

// EncodeFrame builds one outbound chat frame.
func EncodeFrame(commandID uint16, payload []byte) []byte {
	scrambled := make([]byte, len(payload))
	copy(scrambled, payload)
	for i := range scrambled {
		scrambled[i] ^= Key[i%4]
	}

	length := uint16(HeaderSize + len(scrambled))
	out := make([]byte, HeaderSize, length)
	lenXor := length ^ headerLengthXor
	cmdXor := commandID ^ headerCommandXor
	out[0] = byte(lenXor)
	out[1] = byte(lenXor >> 8)
	out[2] = byte(cmdXor)
	out[3] = byte(cmdXor >> 8)
	out = append(out, scrambled...)
	return out
}
