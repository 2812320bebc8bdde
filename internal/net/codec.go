package net

import (
	"github.com/alicia-server/server/internal/chatwire"
	"github.com/alicia-server/server/internal/wire"
)

// FrameCodec abstracts the two wire schemes (spec.md §4.2) behind one
// interface so Session/Server need not care which subserver they are
// hosting. Lobby, ranch, and race connections use the rolling scheme;
// the three chat subservers use the fixed-key scheme.
type FrameCodec interface {
	Feed(b []byte)
	Next() (id uint16, payload []byte, ok bool, err error)
	Encode(id uint16, payload []byte) []byte
}

// rollingCodec adapts wire.Decoder/EncodeFrame (the lobby/ranch/race
// scheme) to FrameCodec.
type rollingCodec struct {
	code *wire.RollingCode
	dec  *wire.Decoder
}

// NewRollingCodec returns a FrameCodec for the lobby/ranch/race scheme,
// seeded with the given starting rolling code.
func NewRollingCodec(seed uint32) FrameCodec {
	code := wire.NewRollingCode(seed)
	return &rollingCodec{code: code, dec: wire.NewDecoder(code)}
}

func (c *rollingCodec) Feed(b []byte) { c.dec.Feed(b) }

func (c *rollingCodec) Next() (uint16, []byte, bool, error) {
	frame, ok, err := c.dec.Next()
	if !ok || err != nil {
		return 0, nil, ok, err
	}
	return frame.ID, frame.Payload, true, nil
}

func (c *rollingCodec) Encode(id uint16, payload []byte) []byte {
	return wire.EncodeFrame(c.code, id, payload)
}

// ResetCode zeroes the connection's rolling code, per spec.md §4.6:
// "reset this connection's scrambling code to zero" on LoginOK.
func (c *rollingCodec) ResetCode() { c.code.Reset() }

// chatCodec adapts chatwire.Decoder/EncodeFrame (the fixed-key chat
// scheme) to FrameCodec.
type chatCodec struct {
	dec *chatwire.Decoder
}

// NewChatCodec returns a FrameCodec for the chat subserver scheme.
func NewChatCodec() FrameCodec {
	return &chatCodec{dec: chatwire.NewDecoder()}
}

func (c *chatCodec) Feed(b []byte) { c.dec.Feed(b) }

func (c *chatCodec) Next() (uint16, []byte, bool, error) {
	frame, ok, err := c.dec.Next()
	if !ok || err != nil {
		return 0, nil, ok, err
	}
	return frame.CommandID, frame.Payload, true, nil
}

func (c *chatCodec) Encode(id uint16, payload []byte) []byte {
	return chatwire.EncodeFrame(id, payload)
}
