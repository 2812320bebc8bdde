package net

import (
	"crypto/rand"
	"encoding/binary"
	"net"
	"sync/atomic"

	"go.uber.org/zap"
)

// Scheme selects which wire scheme a Server's accepted connections
// speak (spec.md §9: "pick one scheme per subserver at connection
// accept time and never mix").
type Scheme int

const (
	// SchemeRolling is the lobby/ranch/race scheme.
	SchemeRolling Scheme = iota
	// SchemeChat is the fixed-key chat scheme.
	SchemeChat
)

// Server accepts TCP connections and wraps each as a Session using the
// configured wire scheme. New/dead sessions are surfaced to the owning
// director via channels so all game-state access stays on the
// director's single thread (spec.md §4.3, §5).
type Server struct {
	listener net.Listener
	scheme   Scheme
	nextID   atomic.Uint64
	newConns chan *Session
	deadCh   chan uint64
	inSize   int
	outSize  int
	log      *zap.Logger
	closeCh  chan struct{}
}

// NewServer binds bindAddr and returns a Server that will wrap
// accepted connections using the given scheme.
func NewServer(bindAddr string, scheme Scheme, inSize, outSize int, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: ln,
		scheme:   scheme,
		newConns: make(chan *Session, 64),
		deadCh:   make(chan uint64, 64),
		inSize:   inSize,
		outSize:  outSize,
		log:      log,
		closeCh:  make(chan struct{}),
	}, nil
}

// AcceptLoop runs in its own goroutine. It accepts connections, wraps
// each in a Session with a fresh codec, starts its I/O goroutines, and
// pushes it onto the newConns channel for the director to pick up.
func (s *Server) AcceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return
			default:
			}
			s.log.Error("accept failed", zap.Error(err))
			continue
		}

		id := s.nextID.Add(1)
		sess := NewSession(conn, id, s.newCodec(), s.inSize, s.outSize, s.log, s)
		sess.Start()

		s.log.Info("client connected", zap.Uint64("session", id), zap.String("ip", sess.IP))

		select {
		case s.newConns <- sess:
		default:
			s.log.Warn("new-connection queue full, rejecting client")
			sess.Close()
		}
	}
}

func (s *Server) newCodec() FrameCodec {
	switch s.scheme {
	case SchemeChat:
		return NewChatCodec()
	default:
		return NewRollingCodec(randomSeed())
	}
}

// randomSeed returns a non-zero starting rolling code for a new
// rolling-scheme connection (spec.md §6: "A new connection's code
// begins at the server-assigned roll").
func randomSeed() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0x9E3779B9
	}
	seed := binary.LittleEndian.Uint32(b[:])
	if seed == 0 {
		seed = 1
	}
	return seed
}

// NewSessions returns the channel of newly connected sessions.
func (s *Server) NewSessions() <-chan *Session { return s.newConns }

// NotifyDead reports a dead session ID to the owning director.
func (s *Server) NotifyDead(sessionID uint64) {
	select {
	case s.deadCh <- sessionID:
	default:
	}
}

// DeadSessions returns the channel of dead session IDs.
func (s *Server) DeadSessions() <-chan uint64 { return s.deadCh }

// Shutdown stops accepting new connections and closes the listener.
func (s *Server) Shutdown() {
	close(s.closeCh)
	s.listener.Close()
}

// Addr returns the listener's bound address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }
