package opentui

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mattn/go-runewidth"
	"golang.org/x/sys/unix"
)

// Presenter owns the terminal: front/back cell buffers, raw-mode
// acquisition, diff-based flushing, and negotiated Capabilities. It
// supersedes teacher `screen.go`'s Screen, generalized from that file's
// darwin-only TIOCGETA/TIOCSETA calls to the ioctlGetTermios/
// ioctlSetTermios constants resolved per-GOOS in termios_linux.go /
// termios_darwin.go, and carrying a Capabilities instead of assuming
// truecolor (spec §4.8).
type Presenter struct {
	front, back *Buffer
	writer      io.Writer
	fd          int

	width, height int

	origTermios *unix.Termios
	inRawMode   bool
	inlineMode  bool
	altScreen   bool

	caps Capabilities

	resizeChan chan Size
	sigChan    chan os.Signal

	lastStyle Style
	buf       bytes.Buffer

	closed bool // set after io-write exhausts its retries or the sink reports io-closed

	mu sync.Mutex
}

// writeOut writes b to the sink, retrying up to 3 times on a partial
// write before giving up and entering the stopped state (spec §7
// `io-write`/`io-closed` policies). Once closed, it is a silent no-op —
// present() calls after that point must not panic or block.
func (p *Presenter) writeOut(b []byte) error {
	if p.closed {
		return nil
	}
	remaining := b
	for attempt := 0; attempt < 3 && len(remaining) > 0; attempt++ {
		n, err := p.writer.Write(remaining)
		remaining = remaining[n:]
		if err == nil {
			return nil
		}
		if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
			p.closed = true
			return newError(KindIOClosed, "presenter.writeOut", err)
		}
	}
	if len(remaining) > 0 {
		p.closed = true
		return newError(KindIOWrite, "presenter.writeOut", io.ErrShortWrite)
	}
	return nil
}

// Size is terminal dimensions in cells.
type Size struct{ Width, Height int }

// NewPresenter creates a presenter writing to w (os.Stdout if nil),
// sized to the current terminal dimensions.
func NewPresenter(w io.Writer) (*Presenter, error) {
	if w == nil {
		w = os.Stdout
	}
	fd := int(os.Stdout.Fd())
	width, height, err := getTerminalSize(fd)
	if err != nil {
		width, height = 80, 24
	}
	return &Presenter{
		front:      NewBuffer(width, height),
		back:       NewBuffer(width, height),
		writer:     w,
		fd:         fd,
		width:      width,
		height:     height,
		resizeChan: make(chan Size, 1),
		sigChan:    make(chan os.Signal, 1),
		lastStyle:  DefaultStyle(),
		altScreen:  true,
	}, nil
}

// SetAltScreen controls whether EnterRawMode switches to the terminal's
// alternate screen buffer (spec §6 `--no-alt-screen`). Must be called
// before Acquire/EnterRawMode.
func (p *Presenter) SetAltScreen(on bool) { p.altScreen = on }

func getTerminalSize(fd int) (int, int, error) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, err
	}
	return int(ws.Col), int(ws.Row), nil
}

func (p *Presenter) Size() Size              { return Size{Width: p.width, Height: p.height} }
func (p *Presenter) Width() int              { return p.width }
func (p *Presenter) Height() int             { return p.height }
func (p *Presenter) Buffer() *Buffer         { return p.back }
func (p *Presenter) Capabilities() Capabilities { return p.caps }
func (p *Presenter) SetCapabilities(c Capabilities) { p.caps = c }
func (p *Presenter) ResizeChan() <-chan Size { return p.resizeChan }

// Acquire puts the terminal into raw mode and enters the alternate
// screen, returning a release func that restores both — guaranteed to
// run via the caller's defer on every exit path, including panics,
// which is the scoped-acquisition pattern teacher `screen.go` only
// offers as a pair of independently callable Enter/Exit methods (spec
// SPEC_FULL.md ambient-stack supplement: guaranteed restoration).
func (p *Presenter) Acquire() (release func(), err error) {
	if err := p.EnterRawMode(); err != nil {
		return func() {}, err
	}
	return func() { p.ExitRawMode() }, nil
}

// EnterRawMode puts the terminal into raw mode for TUI operation.
func (p *Presenter) EnterRawMode() error {
	if p.inRawMode {
		return nil
	}
	termios, err := unix.IoctlGetTermios(p.fd, ioctlGetTermios)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}
	p.origTermios = termios

	raw := *termios
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Cflag |= unix.CS8
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.ISIG | unix.IEXTEN
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(p.fd, ioctlSetTermios, &raw); err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	p.inRawMode = true

	signal.Notify(p.sigChan, syscall.SIGWINCH)
	go p.handleSignals()

	if p.altScreen {
		p.writeString("\x1b[?1049h")
	}
	p.writeString("\x1b[2J\x1b[H\x1b[?25l")
	if p.caps.BracketPaste {
		p.writeString("\x1b[?2004h")
	}
	if p.caps.FocusEvents {
		p.writeString("\x1b[?1004h")
	}
	if p.caps.Mouse {
		p.writeString("\x1b[?1000h\x1b[?1006h")
	}
	return nil
}

// ExitRawMode restores the terminal to its original state.
func (p *Presenter) ExitRawMode() error {
	if !p.inRawMode {
		return nil
	}
	if p.caps.Mouse {
		p.writeString("\x1b[?1006l\x1b[?1000l")
	}
	if p.caps.FocusEvents {
		p.writeString("\x1b[?1004l")
	}
	if p.caps.BracketPaste {
		p.writeString("\x1b[?2004l")
	}
	p.writeString("\x1b[?25h")
	if p.altScreen {
		p.writeString("\x1b[?1049l")
	}

	signal.Stop(p.sigChan)

	if p.origTermios != nil {
		if err := unix.IoctlSetTermios(p.fd, ioctlSetTermios, p.origTermios); err != nil {
			return fmt.Errorf("restore termios: %w", err)
		}
	}
	p.inRawMode = false
	return nil
}

// ReassertModes re-sends the mouse/paste/focus enable sequences (not
// the alt-screen switch) without touching termios, for when a focus-in event (spec
// §5 "on focus-in the presenter re-asserts these modes in case the
// terminal stripped them") arrives mid-session.
func (p *Presenter) ReassertModes() {
	if !p.inRawMode {
		return
	}
	if p.caps.BracketPaste {
		p.writeString("\x1b[?2004h")
	}
	if p.caps.FocusEvents {
		p.writeString("\x1b[?1004h")
	}
	if p.caps.Mouse {
		p.writeString("\x1b[?1000h\x1b[?1006h")
	}
}

func (p *Presenter) handleSignals() {
	for range p.sigChan {
		width, height, err := getTerminalSize(p.fd)
		if err != nil {
			continue
		}
		if width == p.width && height == p.height {
			continue
		}
		p.mu.Lock()
		p.width, p.height = width, height
		p.front.Resize(width, height)
		p.back.Resize(width, height)
		p.writeString("\x1b[2J")
		p.mu.Unlock()
		select {
		case p.resizeChan <- Size{Width: width, Height: height}:
		default:
		}
	}
}

// FlushStats reports how much of the last Flush actually touched the
// terminal, surfaced for diagnostics (spec §4.8).
type FlushStats struct {
	DirtyRows, ChangedRows int
}

// Flush renders the back buffer to the terminal using per-cell diffing
// against the front buffer, touching only rows Buffer.RowDirty reports
// and only cells that actually changed within them (spec §4.8 step 2).
func (p *Presenter) Flush() FlushStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buf.Reset()
	var stats FlushStats
	cursorX, cursorY := -1, -1

	for y := 0; y < p.height; y++ {
		if !p.back.RowDirty(y) {
			continue
		}
		stats.DirtyRows++
		rowChanged := false

		for x := 0; x < p.width; x++ {
			cell := p.back.Get(x, y)
			if cell == p.front.Get(x, y) {
				continue
			}
			if cell.Rune == 0 {
				p.front.setRaw(x, y, cell)
				continue
			}
			if !rowChanged {
				rowChanged = true
				stats.ChangedRows++
			}
			if cursorX != x || cursorY != y {
				p.buf.WriteString("\x1b[")
				writeIntToBuf(&p.buf, y+1)
				p.buf.WriteByte(';')
				writeIntToBuf(&p.buf, x+1)
				p.buf.WriteByte('H')
			}
			p.writeCell(cell)
			p.front.setRaw(x, y, cell)
			rw := runewidth.RuneWidth(cell.Rune)
			if rw == 0 {
				rw = 1
			}
			cursorX, cursorY = x+rw, y
		}
	}

	if stats.ChangedRows > 0 {
		p.buf.WriteString("\x1b[0m")
		p.lastStyle = DefaultStyle()
	}
	p.back.ClearDirty()
	p.writeOut(p.buf.Bytes())
	return stats
}

// FlushFull redraws the entire back buffer without diffing, used after a
// resize or palette change invalidates the front buffer's assumptions.
func (p *Presenter) FlushFull() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buf.Reset()
	p.buf.WriteString("\x1b[2J\x1b[H")
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			cell := p.back.Get(x, y)
			p.writeCell(cell)
			p.front.setRaw(x, y, cell)
		}
		if y < p.height-1 {
			p.buf.WriteString("\r\n")
		}
	}
	p.buf.WriteString("\x1b[0m")
	p.lastStyle = DefaultStyle()
	p.writeOut(p.buf.Bytes())
	p.back.ClearDirty()
}

// FlushInline renders height rows at the current cursor position without
// the alternate screen, for inline widgets (progress bars, prompts) that
// render in the normal terminal scroll flow. Returns lines actually
// rendered for ExitInline's cleanup.
func (p *Presenter) FlushInline(height int) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buf.Reset()
	rendered := 0
	for y := 0; y < height && y < p.height; y++ {
		p.buf.WriteString("\r\x1b[K")
		for x := 0; x < p.width; x++ {
			cell := p.back.Get(x, y)
			if cell.Rune == 0 {
				break
			}
			p.writeCell(cell)
			p.front.setRaw(x, y, cell)
		}
		rendered++
		if y < height-1 {
			p.buf.WriteString("\n")
		}
	}
	p.buf.WriteString("\x1b[0m")
	p.lastStyle = DefaultStyle()
	if rendered > 1 {
		fmt.Fprintf(&p.buf, "\x1b[%dA", rendered-1)
	}
	p.buf.WriteString("\r")
	p.writeOut(p.buf.Bytes())
	p.back.ClearDirty()
	return rendered
}

func (p *Presenter) writeCell(cell Cell) {
	style := p.caps.DowngradeStyle(cell.Style)
	if !style.Equal(p.lastStyle) {
		p.writeStyle(style)
		p.lastStyle = style
	}
	p.buf.WriteRune(cell.Rune)
}

func (p *Presenter) writeStyle(style Style) {
	p.buf.WriteString("\x1b[0")
	if style.Attr.Has(AttrBold) {
		p.buf.WriteString(";1")
	}
	if style.Attr.Has(AttrDim) {
		p.buf.WriteString(";2")
	}
	if style.Attr.Has(AttrItalic) {
		p.buf.WriteString(";3")
	}
	if style.Attr.Has(AttrUnderline) {
		p.buf.WriteString(";4")
	}
	if style.Attr.Has(AttrBlink) {
		p.buf.WriteString(";5")
	}
	if style.Attr.Has(AttrInverse) {
		p.buf.WriteString(";7")
	}
	if style.Attr.Has(AttrHidden) {
		p.buf.WriteString(";8")
	}
	if style.Attr.Has(AttrStrikethrough) {
		p.buf.WriteString(";9")
	}
	p.writeColor(style.FG, true)
	p.writeColor(style.BG, false)
	p.buf.WriteString("m")
	if style.Link != "" {
		fmt.Fprintf(&p.buf, "\x1b]8;;%s\x07", style.Link)
	} else if p.lastStyle.Link != "" {
		p.buf.WriteString("\x1b]8;;\x07")
	}
}

func (p *Presenter) writeColor(c Color, fg bool) {
	switch c.Mode {
	case ColorModeDefault:
		if fg {
			p.buf.WriteString(";39")
		} else {
			p.buf.WriteString(";49")
		}
	case ColorMode16:
		base := 30
		if !fg {
			base = 40
		}
		if c.Index >= 8 {
			p.buf.WriteByte(';')
			writeIntToBuf(&p.buf, base+60+int(c.Index-8))
		} else {
			p.buf.WriteByte(';')
			writeIntToBuf(&p.buf, base+int(c.Index))
		}
	case ColorMode256:
		if fg {
			p.buf.WriteString(";38;5;")
		} else {
			p.buf.WriteString(";48;5;")
		}
		writeIntToBuf(&p.buf, int(c.Index))
	case ColorModeRGB:
		r, g, b := c.RGB8()
		if fg {
			p.buf.WriteString(";38;2;")
		} else {
			p.buf.WriteString(";48;2;")
		}
		writeIntToBuf(&p.buf, int(r))
		p.buf.WriteByte(';')
		writeIntToBuf(&p.buf, int(g))
		p.buf.WriteByte(';')
		writeIntToBuf(&p.buf, int(b))
	}
}

func writeIntToBuf(buf *bytes.Buffer, n int) {
	if n == 0 {
		buf.WriteByte('0')
		return
	}
	if n < 0 {
		buf.WriteByte('-')
		n = -n
	}
	var scratch [10]byte
	i := len(scratch)
	for n > 0 {
		i--
		scratch[i] = byte('0' + n%10)
		n /= 10
	}
	buf.Write(scratch[i:])
}

func (p *Presenter) writeString(s string) { io.WriteString(p.writer, s) }

// Clear clears the back buffer to the default background.
func (p *Presenter) Clear() { p.back.Clear(DefaultColor()) }

func (p *Presenter) ShowCursor() { p.writeString("\x1b[?25h") }
func (p *Presenter) HideCursor() { p.writeString("\x1b[?25l") }

// MoveCursor positions the terminal cursor at 0-indexed (x,y).
func (p *Presenter) MoveCursor(x, y int) {
	fmt.Fprintf(p.writer, "\x1b[%d;%dH", y+1, x+1)
}

// CursorShape selects the terminal cursor's rendered shape (DECSCUSR).
type CursorShape int

const (
	CursorDefault        CursorShape = 0
	CursorBlockBlink     CursorShape = 1
	CursorBlock          CursorShape = 2
	CursorUnderlineBlink CursorShape = 3
	CursorUnderline      CursorShape = 4
	CursorBarBlink       CursorShape = 5
	CursorBar            CursorShape = 6
)

// BufferCursor queues cursor shape, position, and visibility into the
// same buffer Flush writes, so the frame loop can batch cursor updates
// with cell content in a single syscall.
func (p *Presenter) BufferCursor(x, y int, visible bool, shape CursorShape) {
	fmt.Fprintf(&p.buf, "\x1b[%d q", int(shape))
	fmt.Fprintf(&p.buf, "\x1b[%d;%dH", y+1, x+1)
	if visible {
		p.buf.WriteString("\x1b[?25h")
	} else {
		p.buf.WriteString("\x1b[?25l")
	}
}

// BufferCursorColor queues an OSC 12 cursor-color change.
func (p *Presenter) BufferCursorColor(c Color) {
	if c.Mode == ColorModeDefault {
		return
	}
	r, g, b := c.RGB8()
	fmt.Fprintf(&p.buf, "\x1b]12;#%02x%02x%02x\x07", r, g, b)
}

// FlushBuffer writes whatever BufferCursor/BufferCursorColor queued
// without a diff pass, for callers that only need cursor updates this
// frame.
func (p *Presenter) FlushBuffer() {
	if p.buf.Len() > 0 {
		p.writeOut(p.buf.Bytes())
		p.buf.Reset()
	}
}

// SetCursorShape changes the cursor shape immediately, outside the
// buffered path.
func (p *Presenter) SetCursorShape(shape CursorShape) {
	fmt.Fprintf(p.writer, "\x1b[%d q", int(shape))
}
