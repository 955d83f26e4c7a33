package opentui

import (
	"fmt"
	"io"
	"os"
	"time"
)

// FrameCallback is user code run once per tick, in registration order.
type FrameCallback func(dt time.Duration)

// FrameLoop is the single-threaded cooperative scheduler described in
// spec §4.11: drain input, run frame callbacks, and — if anything in the
// scene is dirty — run layout, composite, and present, then yield.
// Adapts teacher `app.go`'s App/render/run structure, replacing its
// riffkey.Router-based dispatch (see DESIGN.md) with this module's own
// Parser (C9) and EventBus (C10) against the Node scene graph (C7).
type FrameLoop struct {
	Root      *Node
	Presenter *Presenter
	Parser    *Parser
	Bus       *EventBus

	TargetFPS int

	reader io.Reader

	callbacks []FrameCallback
	stopped   bool

	lastTick    time.Time
	frameBudget time.Duration
}

// NewFrameLoop wires a scene graph, presenter, and input source together
// at the given steady frame rate.
func NewFrameLoop(root *Node, presenter *Presenter, reader io.Reader, targetFPS int) *FrameLoop {
	if targetFPS <= 0 {
		targetFPS = 60
	}
	return &FrameLoop{
		Root:        root,
		Presenter:   presenter,
		Parser:      NewParser(),
		Bus:         NewEventBus(root),
		TargetFPS:   targetFPS,
		reader:      reader,
		frameBudget: time.Second / time.Duration(targetFPS),
	}
}

// OnFrame registers a callback to run on every tick, in registration
// order.
func (fl *FrameLoop) OnFrame(cb FrameCallback) {
	fl.callbacks = append(fl.callbacks, cb)
}

// Run blocks, ticking at TargetFPS until Stop is called. release, from
// Presenter.Acquire, is deferred by the caller so terminal modes are
// restored on every exit path including a panic propagating out of a
// frame callback.
func (fl *FrameLoop) Run() error {
	fl.lastTick = time.Now()
	buf := make([]byte, 4096)

	for !fl.stopped {
		now := time.Now()
		wait := fl.lastTick.Add(fl.frameBudget).Sub(now)
		if wait > 0 {
			time.Sleep(wait)
			now = time.Now()
		}
		dt := now.Sub(fl.lastTick)
		fl.lastTick = now

		frameStart := now
		fl.drainInput(buf)

		for _, cb := range fl.callbacks {
			fl.runCallback(cb, dt)
		}

		if fl.sceneDirty() {
			if time.Now().Sub(frameStart) > fl.frameBudget {
				// Backpressure: composite exceeded budget already this
				// tick on input+callbacks alone; skip to the next tick
				// rather than queue more work (spec §5 backpressure).
				continue
			}
			if fl.layoutAndComposite() {
				fl.presentCursor()
				fl.Presenter.Flush()
			}
		}
	}
	return nil
}

// drainInput reads whatever is immediately available from the input
// source and dispatches every event it decodes; it does not block beyond
// whatever fl.reader.Read itself blocks for (spec §4.11 step 1).
func (fl *FrameLoop) drainInput(buf []byte) {
	n, err := fl.reader.Read(buf)
	if err != nil || n == 0 {
		return
	}
	for _, ev := range fl.Parser.Feed(buf[:n]) {
		switch ev.Kind {
		case InputMouse:
			fl.Bus.Dispatch(ev.Mouse.X, ev.Mouse.Y, ev.Mouse.Kind, ev.Mouse.Buttons)
		case InputFocus:
			if ev.Focused {
				fl.Presenter.ReassertModes()
			}
		}
	}
}

// layoutAndComposite runs layout and compositing with a panic recovered
// into a layout-failure error: the previous presenter buffer contents are
// left untouched and Flush is skipped for this tick rather than
// presenting a half-composited frame (errors.go's `layout-failure`
// policy).
func (fl *FrameLoop) layoutAndComposite() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			err := layoutFailure(fl.Root, fmt.Errorf("%v", r))
			fmt.Fprintf(os.Stderr, "%s\n", err)
			ok = false
		}
	}()
	Layout(fl.Root, fl.Presenter.Width(), fl.Presenter.Height())
	Composite(fl.Presenter.Buffer(), fl.Root, DefaultColor())
	return true
}

func (fl *FrameLoop) runCallback(cb FrameCallback, dt time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "frame callback panic: %v\n", r)
		}
	}()
	cb(dt)
}

func (fl *FrameLoop) sceneDirty() bool {
	return fl.Root.dirtyLayout || fl.Root.subtreeDirty || fl.Root.dirtyRender
}

func (fl *FrameLoop) presentCursor() {
	hint := fl.focusedCursorHint()
	if hint == nil {
		fl.Presenter.HideCursor()
		return
	}
	fl.Presenter.BufferCursor(hint.X, hint.Y, hint.Visible, CursorDefault)
}

// focusedCursorHint returns the first cursor hint found in a pre-order
// walk of the tree (a node's own hint before its children's),
// since only one node is meaningfully focused at a time in this module's
// scope (spec §4.11 presents the composited frame; focus-ring management
// beyond the cursor hint itself is out of scope per spec Non-goals).
func (fl *FrameLoop) focusedCursorHint() *CursorHint {
	return findCursorHint(fl.Root)
}

func findCursorHint(n *Node) *CursorHint {
	if n == nil {
		return nil
	}
	if n.cursorHint != nil {
		return n.cursorHint
	}
	for _, c := range n.children {
		if hint := findCursorHint(c); hint != nil {
			return hint
		}
	}
	return nil
}

// Stop sets the flag checked at the next tick boundary; idempotent (spec
// §4.11, §5 cancellation contract).
func (fl *FrameLoop) Stop() {
	fl.stopped = true
}
