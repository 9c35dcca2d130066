// Package netx implements the TCP socket and server primitives of spec.md
// §4.4: connect/listen/accept/read/write lifecycle, teardown, and
// setTimeout, wired onto Go's net package and driven from a loop.Loop.
// Teardown closes the net.Conn once and emits "close"; no close-count is
// kept (see loop.CloseHandle).
package netx

import (
	"net"
	"strconv"
	"sync"
	"time"

	"jsrtgo/loop"
	"jsrtgo/rterr"
	"jsrtgo/stream"
)

// State mirrors spec.md §4.4's socket lifecycle:
// NEW → CONNECTING → CONNECTED → (HALF_CLOSED | DESTROYED) → CLOSED.
type State int

const (
	StateNew State = iota
	StateConnecting
	StateConnected
	StateHalfClosed
	StateDestroyed
	StateClosed
)

// Socket wraps a net.Conn with the Duplex stream contract plus the
// connection-lifecycle events (connect, ready, data, end, error, close,
// timeout) of spec.md §4.4.
type Socket struct {
	*stream.Duplex

	mu            sync.Mutex
	conn          net.Conn
	state         State
	allowHalfOpen bool
	bytesRead     int64
	bytesWritten  int64
	loop          *loop.Loop

	timeoutID loop.HandleID
	hasTimer  bool
}

// NewSocket wraps an already-connected net.Conn (e.g. from Connect or from
// a Server's Accept) as a Socket in CONNECTED state, attached to l.
func NewSocket(l *loop.Loop, conn net.Conn, allowHalfOpen bool) *Socket {
	s := &Socket{conn: conn, state: StateConnected, allowHalfOpen: allowHalfOpen, loop: l}
	opts := stream.DefaultOptions()
	opts.AllowHalfOpen = allowHalfOpen

	s.Duplex = stream.NewDuplex(opts, func(size int) { s.pump(size) }, func(chunk []byte) error {
		return s.rawWrite(chunk)
	})
	s.wireHalfClose()
	return s
}

// wireHalfClose performs the actual TCP half-close when the writable side
// finishes, and closes the socket fully once both sides have ended,
// mirroring the "close" event real Node sockets emit once read and write
// both complete.
func (s *Socket) wireHalfClose() {
	s.Emitter().On("finish", func(...any) {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if tc, ok := conn.(*net.TCPConn); ok {
			tc.CloseWrite()
		}
		if s.Readable.Ended() {
			s.transitionClosed(false)
		}
	})
	s.Emitter().On("end", func(...any) {
		if s.Finished() {
			s.transitionClosed(false)
		}
	})
}

// Connect dials host:port asynchronously via the loop's worker pool (so
// the blocking net.Dial call never stalls the loop goroutine), then emits
// "connect" and "ready" and begins reading, per spec.md §4.4's connect()
// transition table. DNS resolution of non-literal hosts is delegated to
// Go's net.Dial, which already resolves before connecting.
func Connect(l *loop.Loop, network, host string, port int, allowHalfOpen bool) *Socket {
	s := &Socket{state: StateConnecting, allowHalfOpen: allowHalfOpen, loop: l}
	opts := stream.DefaultOptions()
	opts.AllowHalfOpen = allowHalfOpen
	s.Duplex = stream.NewDuplex(opts, func(size int) { s.pump(size) }, func(chunk []byte) error {
		return s.rawWrite(chunk)
	})
	s.wireHalfClose()

	addr := net.JoinHostPort(host, portString(port))
	l.QueueWork(func() any {
		conn, err := net.Dial(network, addr)
		if err != nil {
			return err
		}
		return conn
	}, func(result any) {
		if err, ok := result.(error); ok {
			s.Emitter().Emit("error", wrapConnErr(err, host))
			s.transitionClosed(true)
			return
		}
		conn := result.(net.Conn)
		s.mu.Lock()
		s.conn = conn
		s.state = StateConnected
		s.mu.Unlock()
		s.Emitter().Emit("connect")
		s.Emitter().Emit("ready")
		s.startReading()
	})
	return s
}

// startReading kicks off the first read regardless of flowing/paused state,
// matching spec.md §4.4's "On connect success: ... start reading" — the
// underlying socket read begins immediately; only event delivery depends on
// whether the consumer has put the stream into flowing mode.
func (s *Socket) startReading() {
	s.pump(stream.DefaultOptions().HighWaterMark)
}

func portString(p int) string {
	return strconv.Itoa(p)
}

func wrapConnErr(err error, hostname string) error {
	return rterr.New(rterr.SystemErr, err.Error()).Context("hostname", hostname)
}

// pump performs one blocking Read on the loop's worker pool and feeds the
// result back through Push; this is the Readable side's pull hook, so the
// next read is requested by the Readable (Push in flowing mode, or Read
// emptying the buffer), not by pump itself.
func (s *Socket) pump(size int) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}
	if size <= 0 {
		size = stream.DefaultOptions().HighWaterMark
	}

	s.loop.QueueWork(func() any {
		buf := make([]byte, size)
		n, err := conn.Read(buf)
		return readResult{buf[:n], err}
	}, func(result any) {
		r := result.(readResult)
		if r.n > 0 {
			s.mu.Lock()
			s.bytesRead += int64(len(r.n))
			s.mu.Unlock()
			s.Push(r.n)
		}
		if r.err != nil {
			s.onReadError(r.err)
		}
	})
}

type readResult struct {
	n   []byte
	err error
}

func (s *Socket) onReadError(err error) {
	if isEOF(err) {
		s.mu.Lock()
		half := s.allowHalfOpen
		s.mu.Unlock()
		s.Push(nil)
		if !half {
			s.End(nil, nil)
		}
		return
	}
	s.Emitter().Emit("error", err)
	s.transitionClosed(true)
}

func isEOF(err error) bool {
	return err.Error() == "EOF"
}

// rawWrite delivers one chunk to the underlying connection synchronously
// (the Writable side already serializes writes through its queue, so a
// blocking Write here does not reorder output; it does block the goroutine
// running flush(), which for sockets runs on the loop's own call stack —
// acceptable because spec.md §4.4 treats socket writes as submitted
// requests, not as requiring loop-thread concurrency).
func (s *Socket) rawWrite(chunk []byte) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return rterr.New(rterr.SystemErr, "socket not connected")
	}
	n, err := conn.Write(chunk)
	s.mu.Lock()
	s.bytesWritten += int64(n)
	s.mu.Unlock()
	return err
}

func (s *Socket) transitionClosed(hadError bool) {
	s.mu.Lock()
	if s.state == StateClosed || s.state == StateDestroyed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	s.Emitter().Emit("close", hadError)
}

// SetTimeout lazily allocates a one-shot timer that fires "timeout" without
// closing the socket (the listener decides), per spec.md §4.4. A duration
// of 0 disables the timer.
func (s *Socket) SetTimeout(d time.Duration) {
	s.mu.Lock()
	if s.hasTimer {
		s.loop.TimerStop(s.timeoutID)
		s.hasTimer = false
	}
	if d <= 0 {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	id := s.loop.TimerStart(d, false, func() {
		s.Emitter().Emit("timeout")
	})
	s.mu.Lock()
	s.timeoutID = id
	s.hasTimer = true
	s.mu.Unlock()
}

// BytesRead and BytesWritten report cumulative transfer counters.
func (s *Socket) BytesRead() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytesRead
}

func (s *Socket) BytesWritten() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytesWritten
}

// LocalAddr and RemoteAddr expose the underlying connection's endpoints
// (SPEC_FULL.md §4.4 supplement, grounded on original_source/src/node's
// net.c accessors).
func (s *Socket) LocalAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

func (s *Socket) RemoteAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.RemoteAddr()
}

// SetNoDelay and SetKeepAlive are best-effort: they apply only when the
// underlying conn is a *net.TCPConn, mirroring the C reference's libuv
// tcp_nodelay/tcp_keepalive calls.
func (s *Socket) SetNoDelay(v bool) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if tc, ok := conn.(*net.TCPConn); ok {
		return tc.SetNoDelay(v)
	}
	return nil
}

func (s *Socket) SetKeepAlive(v bool, d time.Duration) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	if err := tc.SetKeepAlive(v); err != nil {
		return err
	}
	if v && d > 0 {
		return tc.SetKeepAlivePeriod(d)
	}
	return nil
}

// Destroy tears the socket down, closing the underlying connection and
// emitting close(true) if err is non-nil (spec.md §4.4: "On error: emit
// error then close(true)").
func (s *Socket) Destroy(err error) {
	if err != nil {
		s.Emitter().Emit("error", err)
	}
	s.Duplex.Destroy(err)
	s.transitionClosed(err != nil)
}

