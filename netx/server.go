package netx

import (
	"net"
	"sync"

	"jsrtgo/emitter"
	"jsrtgo/loop"
)

// ServerState mirrors spec.md §4.4's server lifecycle:
// NEW → LISTENING → CLOSING → CLOSED.
type ServerState int

const (
	ServerNew ServerState = iota
	ServerListening
	ServerClosing
	ServerClosed
)

// Server listens for incoming TCP connections and emits "connection" with a
// freshly accepted Socket for each, per spec.md §4.4's Server lifecycle.
type Server struct {
	em    emitter.Emitter
	loop  *loop.Loop
	mu    sync.Mutex
	ln    net.Listener
	state ServerState

	allowHalfOpen bool
}

// NewServer constructs an unbound Server attached to l.
func NewServer(l *loop.Loop, allowHalfOpen bool) *Server {
	return &Server{em: emitter.New(nil), loop: l, allowHalfOpen: allowHalfOpen}
}

func (s *Server) On(event string, l emitter.Listener)   { s.em.On(event, l) }
func (s *Server) Once(event string, l emitter.Listener) { s.em.Once(event, l) }
func (s *Server) Off(event string, l emitter.Listener)  { s.em.Off(event, l) }
func (s *Server) Emitter() emitter.Emitter               { return s.em }

// Listen binds and listens (backlog 128 conceptually — Go's net package
// manages backlog internally) and emits "listening"; if cb is non-nil it
// runs on the next loop turn via a zero-delay timer, never synchronously,
// per spec.md §4.4's listen() rule.
func (s *Server) Listen(network, host string, port int, cb func()) error {
	addr := net.JoinHostPort(host, portString(port))
	ln, err := net.Listen(network, addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.ln = ln
	s.state = ServerListening
	s.mu.Unlock()

	s.em.Emit("listening")
	if cb != nil {
		s.loop.TimerStart(0, false, cb)
	}

	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		s.mu.Lock()
		ln := s.ln
		state := s.state
		s.mu.Unlock()
		if ln == nil || state != ServerListening {
			return
		}

		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closing := s.state != ServerListening
			s.mu.Unlock()
			if closing {
				return
			}
			s.loop.Post(func() { s.em.Emit("error", err) })
			return
		}

		s.loop.Post(func() {
			sock := NewSocket(s.loop, conn, s.allowHalfOpen)
			sock.Emitter().Emit("connect")
			sock.Emitter().Emit("ready")
			sock.startReading()
			s.em.Emit("connection", sock)
		})
	}
}

// Close stops accepting new connections, emitting "close" once the
// listener has shut down.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.state != ServerListening {
		s.mu.Unlock()
		return nil
	}
	s.state = ServerClosing
	ln := s.ln
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	s.mu.Lock()
	s.state = ServerClosed
	s.mu.Unlock()
	s.em.Emit("close")
	return err
}

// Addr returns the listener's bound address, or nil if not listening.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

