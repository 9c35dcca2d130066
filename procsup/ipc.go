package procsup

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"os"
	"sync"

	"jsrtgo/loop"
	"jsrtgo/rterr"
	"jsrtgo/rtlog"
)

// ipcFD is the well-known control-pipe descriptor a forked child inspects
// at startup, per spec.md §4.8's IPC section.
const ipcFD = 3

// IPC frames JSON messages to/from the fd-3 control pipe: a 4-byte
// little-endian length header followed by that many bytes of UTF-8 JSON,
// per spec.md §4.8. Grounded on the teacher's waitNotify select-loop idiom
// for the background read pump, adapted from signals to a byte stream.
type IPC struct {
	mu        sync.Mutex
	rw        io.ReadWriteCloser
	connected bool
}

// OpenIPC opens fd 3 as the control pipe if it exists, returning nil, nil
// when it does not (the common case for a non-forked process).
func OpenIPC() (*IPC, error) {
	f := os.NewFile(uintptr(ipcFD), "ipc")
	if f == nil {
		return nil, nil
	}
	if _, err := f.Stat(); err != nil {
		return nil, nil
	}
	return &IPC{rw: f, connected: true}, nil
}

// NewIPC wraps an already-open channel as the control pipe, for embedders
// that supply their own transport instead of the well-known fd 3.
func NewIPC(rw io.ReadWriteCloser) *IPC {
	return &IPC{rw: rw, connected: true}
}

// Connected reflects spec.md §4.8's `process.connected`.
func (i *IPC) Connected() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.connected
}

// Send serializes value to JSON and writes the framed length+payload, per
// spec.md §4.8's `process.send(value)`.
func (i *IPC) Send(value any) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.connected {
		return rterr.New(rterr.StreamErr, "IPC channel is disconnected")
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return rterr.New(rterr.TypeMismatch, "IPC payload is not JSON-serializable", err)
	}

	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(payload)))

	if _, err := i.rw.Write(header[:]); err != nil {
		return rterr.New(rterr.SystemErr, "IPC write failed", err)
	}
	if _, err := i.rw.Write(payload); err != nil {
		return rterr.New(rterr.SystemErr, "IPC write failed", err)
	}
	return nil
}

// Disconnect shuts down the pipe, per spec.md §4.8's `process.disconnect()`.
func (i *IPC) Disconnect() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.connected {
		return nil
	}
	i.connected = false
	return i.rw.Close()
}

// ipcFrame is either a decoded message or a read failure, the result type
// handed from the worker side of QueueWork to its loop-side callback.
type ipcFrame struct {
	value any
	err   error
}

// StartIPC wires the parent-connected Process to its IPC channel: each
// framed read runs on the worker pool via loop.QueueWork, exactly like
// netx.Socket.pump bridges a blocking conn.Read into the loop, and
// re-arms itself after every successful frame.
func (p *Process) StartIPC(l *loop.Loop, ipc *IPC) {
	if ipc == nil {
		return
	}
	p.mu.Lock()
	p.ipc = ipc
	p.connected = true
	p.mu.Unlock()

	p.pumpIPC(l, ipc)
}

func (p *Process) pumpIPC(l *loop.Loop, ipc *IPC) {
	l.QueueWork(
		func() any { return readFrame(ipc.rw) },
		func(result any) {
			frame := result.(ipcFrame)
			if frame.err != nil {
				p.log.Error("IPC read failed", rtlog.Fields{"error": frame.err.Error()})
				p.mu.Lock()
				p.connected = false
				p.mu.Unlock()
				p.em.Emit("disconnect")
				return
			}
			p.em.Emit("message", frame.value)
			p.pumpIPC(l, ipc)
		},
	)
}

func readFrame(r io.Reader) ipcFrame {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return ipcFrame{err: err}
	}
	n := binary.LittleEndian.Uint32(header[:])

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return ipcFrame{err: err}
	}

	var value any
	if err := json.NewDecoder(bytes.NewReader(payload)).Decode(&value); err != nil {
		return ipcFrame{err: err}
	}
	return ipcFrame{value: value}
}

// Connected reflects spec.md §4.8's `process.connected`.
func (p *Process) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Send delegates to the underlying IPC channel, if any.
func (p *Process) Send(value any) error {
	p.mu.Lock()
	ipc := p.ipc
	p.mu.Unlock()
	if ipc == nil {
		return rterr.New(rterr.StreamErr, "no IPC channel: process was not forked with a control pipe")
	}
	return ipc.Send(value)
}

// Disconnect shuts down the IPC channel and emits "disconnect".
func (p *Process) Disconnect() error {
	p.mu.Lock()
	ipc := p.ipc
	p.mu.Unlock()
	if ipc == nil {
		return nil
	}
	err := ipc.Disconnect()
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	p.em.Emit("disconnect")
	return err
}
