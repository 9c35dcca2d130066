// Package tty implements spec.md §4.9's boundary-only TTY surface:
// isatty, color-depth inference from environment variables, and the
// minimal ReadStream/WriteStream control surface Node exposes over a
// terminal fd. This is deliberately thin — §4.9 calls it "a boundary
// concern and not further specified".
package tty

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// IsATTY reports whether fd names a terminal handle.
func IsATTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// ColorDepth is the inferred terminal color depth in bits per pixel.
type ColorDepth int

const (
	Depth1 ColorDepth = 1
	Depth4 ColorDepth = 4
	Depth8 ColorDepth = 8
	Depth24 ColorDepth = 24
)

// GetColorDepth infers color depth from the environment, in the precedence
// order of spec.md §4.9: NO_COLOR/NODE_DISABLE_COLORS, FORCE_COLOR,
// COLORTERM, TERM's "256color", recognised xterm-family TERM, else 1 bit.
func GetColorDepth(env func(string) string) ColorDepth {
	if env == nil {
		env = os.Getenv
	}

	if env("NO_COLOR") != "" || env("NODE_DISABLE_COLORS") != "" {
		return Depth1
	}

	if fc := env("FORCE_COLOR"); fc != "" {
		switch fc {
		case "0":
			return Depth1
		case "1":
			return Depth4
		case "2":
			return Depth8
		case "3":
			return Depth24
		default:
			if n, err := strconv.Atoi(fc); err == nil {
				switch {
				case n <= 0:
					return Depth1
				case n == 1:
					return Depth4
				case n == 2:
					return Depth8
				default:
					return Depth24
				}
			}
		}
	}

	ct := strings.ToLower(env("COLORTERM"))
	if strings.Contains(ct, "truecolor") || strings.Contains(ct, "24bit") ||
		strings.Contains(ct, "direct") || strings.Contains(ct, "rgb") {
		return Depth24
	}

	term := env("TERM")
	if strings.Contains(term, "256color") {
		return Depth8
	}
	if isXtermFamily(term) {
		return Depth4
	}

	return Depth1
}

func isXtermFamily(term string) bool {
	switch {
	case strings.HasPrefix(term, "xterm"),
		strings.HasPrefix(term, "screen"),
		strings.HasPrefix(term, "vt100"),
		strings.HasPrefix(term, "rxvt"),
		strings.HasPrefix(term, "linux"),
		strings.Contains(term, "color"):
		return true
	default:
		return false
	}
}

// HasColors reports whether the inferred depth supports at least n colors,
// per spec.md §4.9's `hasColors(n)`.
func HasColors(n int) bool {
	depth := GetColorDepth(nil)
	return 1<<uint(depth) >= n
}

// ClearDirection names the `dir` argument of clearLine.
type ClearDirection int

const (
	ClearLeft ClearDirection = iota - 1
	ClearBoth
	ClearRight
)

// WriteStream is the `WriteStream(fd)` control surface of spec.md §4.9: a
// raw ANSI sink plus the terminal's reported dimensions.
type WriteStream struct {
	fd      uintptr
	out     *os.File
	Columns int
	Rows    int
}

// NewWriteStream queries fd's terminal size via term.GetSize and wraps fd
// as an ANSI control-sequence sink.
func NewWriteStream(fd uintptr, out *os.File) (*WriteStream, error) {
	w := &WriteStream{fd: fd, out: out}
	if IsATTY(fd) {
		cols, rows, err := term.GetSize(int(fd))
		if err == nil {
			w.Columns, w.Rows = cols, rows
		}
	}
	return w, nil
}

func (w *WriteStream) ClearLine(dir ClearDirection) {
	switch dir {
	case ClearLeft:
		fmt.Fprint(w.out, "\x1b[1K")
	case ClearRight:
		fmt.Fprint(w.out, "\x1b[0K")
	default:
		fmt.Fprint(w.out, "\x1b[2K")
	}
}

func (w *WriteStream) CursorTo(x, y int) {
	if y >= 0 {
		fmt.Fprintf(w.out, "\x1b[%d;%dH", y+1, x+1)
		return
	}
	fmt.Fprintf(w.out, "\x1b[%dG", x+1)
}

func (w *WriteStream) MoveCursor(dx, dy int) {
	if dy < 0 {
		fmt.Fprintf(w.out, "\x1b[%dA", -dy)
	} else if dy > 0 {
		fmt.Fprintf(w.out, "\x1b[%dB", dy)
	}
	if dx > 0 {
		fmt.Fprintf(w.out, "\x1b[%dC", dx)
	} else if dx < 0 {
		fmt.Fprintf(w.out, "\x1b[%dD", -dx)
	}
}

func (w *WriteStream) ClearScreenDown() {
	fmt.Fprint(w.out, "\x1b[0J")
}

func (w *WriteStream) GetColorDepth() ColorDepth { return GetColorDepth(nil) }
func (w *WriteStream) HasColors(n int) bool      { return HasColors(n) }

// ReadStream is the `ReadStream(fd)` control surface of spec.md §4.9: raw
// mode toggling over the terminal fd's file descriptor.
type ReadStream struct {
	fd    uintptr
	state *term.State
}

func NewReadStream(fd uintptr) *ReadStream {
	return &ReadStream{fd: fd}
}

// SetRawMode enables or restores the terminal's raw mode.
func (r *ReadStream) SetRawMode(enable bool) error {
	if enable {
		state, err := term.MakeRaw(int(r.fd))
		if err != nil {
			return err
		}
		r.state = state
		return nil
	}
	if r.state == nil {
		return nil
	}
	err := term.Restore(int(r.fd), r.state)
	r.state = nil
	return err
}
