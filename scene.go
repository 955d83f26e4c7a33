package opentui

// NodeKind is the closed set of scene node variants. Modeled as a tagged
// variant (spec §9 REDESIGN FLAGS "class inheritance → tagged variant
// over a fixed closed set") instead of a Renderable base class with
// per-type subclasses: a single Node struct carries common layout state,
// and Kind selects which payload in node.payload is active.
type NodeKind uint8

const (
	NodeBox NodeKind = iota
	NodeText
	NodeCode
	NodeGutter
	NodeScrollBox
	NodeTextTable
	NodeDiff
	NodeTextarea
	NodeBridge
)

// Capability is a bitset of behaviors a node exposes to the rest of the
// pipeline (spec §4.7 "capability set").
type Capability uint8

const (
	CapDrawable Capability = 1 << iota
	CapContainer
	CapMouseTarget
	CapSelectable
	CapLineInfoProvider
	CapFocusable
)

func (c Capability) Has(f Capability) bool { return c&f != 0 }

// Direction is the flexbox main axis.
type Direction uint8

const (
	DirectionColumn Direction = iota
	DirectionRow
)

// AlignItems is the flexbox cross-axis alignment.
type AlignItems uint8

const (
	AlignStart AlignItems = iota
	AlignCenter
	AlignEnd
	AlignStretch
)

// JustifyContent is the flexbox main-axis distribution.
type JustifyContent uint8

const (
	JustifyStart JustifyContent = iota
	JustifyCenter
	JustifyEnd
	JustifySpaceBetween
)

// PositionMode selects flow vs. absolute positioning.
type PositionMode uint8

const (
	PositionRelative PositionMode = iota
	PositionAbsolute
)

// Edges is a four-sided inset, used for both padding and margin.
type Edges struct{ Top, Right, Bottom, Left int }

// LayoutAttrs holds every flexbox-solver input a node carries (spec
// §4.7 "Layout attributes setters").
type LayoutAttrs struct {
	Direction Direction

	Width, Height                   int // 0 = auto
	MinWidth, MinHeight             int
	MaxWidth, MaxHeight             int // 0 = unbounded
	FlexGrow, FlexShrink            float32
	FlexBasis                       int // 0 = use measured/explicit size

	Padding, Margin Edges
	Gap             int

	Align   AlignItems
	Justify JustifyContent

	Position       PositionMode
	OffsetX, OffsetY int // relative to content box, when Position == PositionAbsolute
}

// HighlightSource is the contract a syntax-highlighting client (e.g. a
// tree-sitter client) implements to feed a Code node. The client itself
// is out of scope; only this seam is specified.
type HighlightSource interface {
	Highlights(visibleRow [2]int) []Highlight
}

// DiffHunk is one contiguous changed region a diff client reports.
type DiffHunk struct {
	OldStart, OldLines int
	NewStart, NewLines int
}

// DiffModel is the contract a diff-parser client implements to feed a
// Diff node. The parser itself is out of scope.
type DiffModel interface {
	Hunks() []DiffHunk
	OldText() *TextBuffer
	NewText() *TextBuffer
}

// BridgeState is the async-init state machine a Bridge node's foreign
// raster source moves through (spec §9 REDESIGN FLAGS "async
// initialization → explicit state machine").
type BridgeState uint8

const (
	BridgeUninitialized BridgeState = iota
	BridgeInitializing
	BridgeReady
	BridgeFailed
)

// RasterSource is the contract a foreign 2D/3D renderer (e.g. a WebGPU or
// Three.js bridge) implements so its output can be blitted into the cell
// buffer via C12's half-block encoder. Only this seam is specified; the
// renderer behind it is out of scope.
type RasterSource interface {
	Poll() BridgeState
	Raster() (pixels []RGBA, w, h int)
}

// Variant payloads. Exactly one is meaningful per node, selected by Kind.

type boxPayload struct{}

type textPayload struct {
	Buffer *TextBuffer
}

type codePayload struct {
	Buffer      *TextBuffer
	Highlighter HighlightSource
}

type gutterPayload struct {
	LineCount   func() int
	CurrentLine func() int
}

type scrollBoxPayload struct {
	ScrollX, ScrollY int
}

type textTablePayload struct {
	Rows      [][]string
	ColWidths []int
}

type diffPayload struct {
	Model DiffModel
}

type textareaPayload struct {
	Buffer          *TextBuffer
	CursorRow, CursorCol int
}

type bridgePayload struct {
	Source RasterSource
	state  BridgeState
}

// MouseEvent is the event type a node's mouse handler receives; its
// MouseEventKind and ButtonSet field types are defined in eventbus.go
// (C10).
type MouseEvent struct {
	X, Y    int
	Kind    MouseEventKind
	Buttons ButtonSet
	stopped bool
}

// StopPropagation halts bubbling for this event.
func (e *MouseEvent) StopPropagation() { e.stopped = true }

// Node is the single retained scene-graph type every variant shares
// (spec §4.7 "Scene node"). Capability and Kind determine which methods
// and payload fields are meaningful; there is no subclassing.
type Node struct {
	ID   string
	Kind NodeKind
	Capabilities Capability

	Layout  LayoutAttrs
	ZIndex  int
	Visible bool
	Style   Style

	parent   *Node
	children []*Node

	// Computed geometry, relative to the parent's content origin (spec
	// §4.7 invariant: absolute position = ancestors' origin + relative
	// position).
	X, Y, W, H int

	dirtyRender bool
	subtreeDirty bool
	dirtyLayout bool

	frameBuffer *Buffer // optional cached composite

	payload any

	lifecycleCallbacks []func(*Node)
	onMouse            func(*MouseEvent) bool
	measure            func(availW, availH int) (w, h int)
	cursorHint         *CursorHint
}

// CursorHint is what a focused node offers the presenter for cursor
// placement (spec §4.8 step 5).
type CursorHint struct {
	X, Y    int
	Visible bool
}

func newNode(id string, kind NodeKind, payload any) *Node {
	return &Node{ID: id, Kind: kind, Visible: true, Capabilities: CapDrawable, payload: payload}
}

// NewBox creates a plain container node.
func NewBox(id string) *Node {
	n := newNode(id, NodeBox, &boxPayload{})
	n.Capabilities |= CapContainer
	return n
}

// NewText creates a leaf text node backed by a TextBuffer.
func NewText(id string, buf *TextBuffer) *Node {
	n := newNode(id, NodeText, &textPayload{Buffer: buf})
	n.Capabilities |= CapSelectable | CapLineInfoProvider
	n.measure = func(availW, _ int) (int, int) { return measureTextBuffer(buf, availW) }
	return n
}

// NewCode creates a leaf code node backed by a TextBuffer and an external
// HighlightSource.
func NewCode(id string, buf *TextBuffer, hl HighlightSource) *Node {
	n := newNode(id, NodeCode, &codePayload{Buffer: buf, Highlighter: hl})
	n.Capabilities |= CapSelectable | CapLineInfoProvider
	n.measure = func(availW, _ int) (int, int) { return measureTextBuffer(buf, availW) }
	return n
}

// NewGutter creates a line-number gutter node.
func NewGutter(id string, lineCount, currentLine func() int) *Node {
	n := newNode(id, NodeGutter, &gutterPayload{LineCount: lineCount, CurrentLine: currentLine})
	n.Capabilities |= CapLineInfoProvider
	return n
}

// NewScrollBox creates a container node that is also a mouse target and,
// like any container, clips its children to its bounds. The payload's
// ScrollX/ScrollY offsets are not applied by the compositor, so the
// content is not scrolled.
func NewScrollBox(id string) *Node {
	n := newNode(id, NodeScrollBox, &scrollBoxPayload{})
	n.Capabilities |= CapContainer | CapMouseTarget
	return n
}

// NewTextTable creates a leaf tabular-data node.
func NewTextTable(id string, rows [][]string) *Node {
	n := newNode(id, NodeTextTable, &textTablePayload{Rows: rows})
	return n
}

// NewDiff creates a leaf node backed by an external DiffModel.
func NewDiff(id string, model DiffModel) *Node {
	n := newNode(id, NodeDiff, &diffPayload{Model: model})
	n.Capabilities |= CapSelectable | CapLineInfoProvider
	return n
}

// NewTextarea creates an editable text node.
func NewTextarea(id string, buf *TextBuffer) *Node {
	n := newNode(id, NodeTextarea, &textareaPayload{Buffer: buf})
	n.Capabilities |= CapSelectable | CapLineInfoProvider | CapFocusable | CapMouseTarget
	return n
}

// NewBridge creates a leaf node whose content comes from a foreign
// raster source (e.g. a 3D renderer), resolved to cells via C12.
func NewBridge(id string, source RasterSource) *Node {
	n := newNode(id, NodeBridge, &bridgePayload{Source: source, state: BridgeUninitialized})
	return n
}

// Parent returns the node's parent, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the node's children in insertion order.
func (n *Node) Children() []*Node { return n.children }

// Add appends child to n's children and marks layout dirty.
func (n *Node) Add(child *Node) {
	child.parent = n
	n.children = append(n.children, child)
	n.MarkLayoutDirty()
}

// Remove detaches the child with the given id, if present.
func (n *Node) Remove(id string) {
	for i, c := range n.children {
		if c.ID == id {
			c.parent = nil
			n.children = append(n.children[:i], n.children[i+1:]...)
			n.MarkLayoutDirty()
			return
		}
	}
}

// DestroyRecursively detaches this node and all descendants.
func (n *Node) DestroyRecursively() {
	for _, c := range n.children {
		c.DestroyRecursively()
	}
	n.children = nil
	if n.parent != nil {
		n.parent.Remove(n.ID)
	}
	n.parent = nil
}

// RequestRender marks n dirty for re-rendering and marks its ancestors
// subtree-dirty (stopping at the first that already is) so the frame
// loop sees the change. Ancestors' own render-dirty flags are not set,
// so a cached ancestor frame buffer can still be reused. It does not
// force a layout pass (spec §4.7 "requestRender").
func (n *Node) RequestRender() {
	n.dirtyRender = true
	for p := n.parent; p != nil; p = p.parent {
		if p.subtreeDirty {
			break
		}
		p.subtreeDirty = true
	}
}

// MarkLayoutDirty marks n and every ancestor up to the root as
// layout-dirty (spec §4.7 "markLayoutDirty").
func (n *Node) MarkLayoutDirty() {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.dirtyLayout {
			break
		}
		cur.dirtyLayout = true
	}
	n.RequestRender()
}

// OnLifecyclePass registers cb to run once before layout each frame.
func (n *Node) OnLifecyclePass(cb func(*Node)) {
	n.lifecycleCallbacks = append(n.lifecycleCallbacks, cb)
}

func (n *Node) runLifecyclePass() {
	for _, cb := range n.lifecycleCallbacks {
		cb(n)
	}
	for _, c := range n.children {
		c.runLifecyclePass()
	}
}

// OnMouse registers the node's mouse handler. The handler returns true
// if it handled the event, which the event bus treats as "stop
// propagation unless the handler already called StopPropagation".
func (n *Node) OnMouse(handler func(*MouseEvent) bool) { n.onMouse = handler }

// SetCursorHint records where this node wants the terminal cursor placed
// while it holds focus.
func (n *Node) SetCursorHint(x, y int, visible bool) {
	n.cursorHint = &CursorHint{X: x, Y: y, Visible: visible}
}

func measureTextBuffer(buf *TextBuffer, availW int) (int, int) {
	if buf == nil {
		return 0, 0
	}
	if availW > 0 {
		buf.WrapTo(availW, WrapWord, buf.tabWidth)
	}
	h := buf.VirtualLineCount()
	w := 0
	for i := 0; i < h; i++ {
		row, _ := buf.VisualLineToLogical(i)
		line, ok := buf.lines.At(row)
		if !ok {
			continue
		}
		if gw := graphemeCount(lineText(line)); gw > w {
			w = gw
		}
	}
	return w, h
}
