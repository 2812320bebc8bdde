package net

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Frame is one fully decoded inbound message handed to the owning
// subserver's dispatch layer.
type Frame struct {
	ID      uint16
	Payload []byte
}

// Session represents one connected client. Network I/O runs in
// dedicated goroutines; the owning director's single-threaded world
// state is only ever touched from InQueue consumption (spec.md §5).
type Session struct {
	ID     uint64
	conn   net.Conn
	server *Server

	codec FrameCodec

	InQueue  chan Frame  // director reads frames from here
	OutQueue chan []byte // writer goroutine reads pre-built frame bytes from here

	IP string

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	// data carries subserver-specific per-connection state (e.g. the
	// lobby's ClientLoginContext, the chat conversation context). The
	// owning director sets and type-asserts this; Session does not
	// interpret it.
	data atomic.Value

	log *zap.Logger
}

// NewSession wraps an accepted connection with the given codec. server
// may be nil (e.g. in tests); when set, Close notifies it so the
// owning director's dead-session drain can clean up room/ranch/race
// membership (spec.md §8 invariant 9: master transfer on departure).
func NewSession(conn net.Conn, id uint64, codec FrameCodec, inSize, outSize int, log *zap.Logger, server *Server) *Session {
	return &Session{
		ID:       id,
		conn:     conn,
		server:   server,
		codec:    codec,
		InQueue:  make(chan Frame, inSize),
		OutQueue: make(chan []byte, outSize),
		IP:       conn.RemoteAddr().String(),
		closeCh:  make(chan struct{}),
		log:      log.With(zap.Uint64("session", id)),
	}
}

// Data returns the director-attached per-connection state, or nil if
// none has been set yet.
func (s *Session) Data() any { return s.data.Load() }

// SetData attaches director-specific per-connection state.
func (s *Session) SetData(v any) { s.data.Store(v) }

// ResetRollingCode zeroes the connection's scrambling code. Valid only
// for rolling-scheme (lobby/ranch/race) sessions; a no-op otherwise.
// Called by the lobby director on LoginOK (spec.md §4.6).
func (s *Session) ResetRollingCode() {
	if rc, ok := s.codec.(*rollingCodec); ok {
		rc.ResetCode()
	}
}

// Start launches the reader and writer goroutines.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// Send encodes and queues an outbound command frame. Non-blocking: if
// OutQueue is full the session is dropped, per spec.md §4.2's
// back-pressure rule.
func (s *Session) Send(id uint16, payload []byte) {
	if s.closed.Load() {
		return
	}
	encoded := s.codec.Encode(id, payload)
	select {
	case s.OutQueue <- encoded:
	default:
		s.log.Warn("outbound queue full, dropping slow connection")
		s.Close()
	}
}

// Close gracefully shuts down the session. Safe to call more than
// once and from multiple goroutines.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		s.conn.Close()
		if s.server != nil {
			s.server.NotifyDead(s.ID)
		}
	})
}

// IsClosed reports whether the session has begun shutting down.
func (s *Session) IsClosed() bool { return s.closed.Load() }

// readLoop reads raw bytes off the socket, feeds them to the frame
// codec, and pushes each decoded frame onto InQueue for the director
// to consume on its own tick.
func (s *Session) readLoop() {
	defer s.Close()

	buf := make([]byte, 4096)
	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		n, err := s.conn.Read(buf)
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}

		s.codec.Feed(buf[:n])

		for {
			id, payload, ok, err := s.codec.Next()
			if err != nil {
				// Framing error: fatal for the connection, scrambling
				// state is now desynchronised (spec.md §7).
				s.log.Debug("framing error", zap.Error(err))
				return
			}
			if !ok {
				break
			}

			select {
			case s.InQueue <- Frame{ID: id, Payload: payload}:
			case <-s.closeCh:
				return
			}
		}
	}
}

// writeLoop drains OutQueue and writes each already-encoded frame to
// the socket in order (spec.md §5: "outbound frames are sent in the
// order queued").
func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case data := <-s.OutQueue:
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if _, err := s.conn.Write(data); err != nil {
				if !s.closed.Load() {
					s.log.Debug("write error", zap.Error(err))
				}
				return
			}
		case <-s.closeCh:
			return
		}
	}
}
