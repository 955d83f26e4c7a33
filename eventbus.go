package opentui

import (
	"io"

	osc52 "github.com/aymanbagabas/go-osc52/v2"
)

// MouseEventKind is the derived mouse event taxonomy (spec §4.9/§4.10).
// down/up/move/drag/drag-end/scroll are derived by the input parser (C9)
// from its own pressed-buttons tracking; over/out/drop are added here by
// the event bus, which is the first layer with scene-graph knowledge.
type MouseEventKind uint8

const (
	MouseDown MouseEventKind = iota
	MouseUp
	MouseMove
	MouseDrag
	MouseDragEnd
	MouseDrop
	MouseOver
	MouseOut
	MouseScroll
)

// ButtonSet is a bitset of currently pressed mouse buttons.
type ButtonSet uint8

const (
	ButtonLeft ButtonSet = 1 << iota
	ButtonMiddle
	ButtonRight
	ButtonScrollUp
	ButtonScrollDown
)

func (b ButtonSet) Has(btn ButtonSet) bool { return b&btn != 0 }

// EventBus owns hit-testing, hover tracking, drop-target resolution, and
// selection anchoring/extension over a scene graph rooted at Root. Down/
// up/move/drag/drag-end/scroll kinds arrive already derived by the input
// parser (C9); the bus adds over/out/drop, which need scene-graph
// knowledge C9 doesn't have, and dispatches into Node.onMouse handlers.
type EventBus struct {
	Root *Node

	pressNode   *Node // node that received the most recent down, until the matching up or drag end
	hoverNode   *Node
	dropTargets map[*Node]bool
}

// NewEventBus creates a bus dispatching into the tree rooted at root.
func NewEventBus(root *Node) *EventBus {
	return &EventBus{Root: root, dropTargets: make(map[*Node]bool)}
}

// RegisterDropTarget marks n as a valid target for a "drop" dispatch.
func (eb *EventBus) RegisterDropTarget(n *Node) { eb.dropTargets[n] = true }

// HitTest returns the deepest mouse-target node whose clipped absolute
// rectangle contains (x,y), or nil. Absolute bounds/clip are recomputed
// from the tree rather than cached, since the bus runs after layout.
func HitTest(root *Node, x, y int) *Node {
	return hitTestNode(root, 0, 0, Rect{X: 0, Y: 0, W: 1 << 30, H: 1 << 30}, x, y)
}

func hitTestNode(n *Node, absX, absY int, clip Rect, x, y int) *Node {
	if n == nil || !n.Visible {
		return nil
	}
	nx, ny := absX+n.X, absY+n.Y
	bounds := Rect{X: nx, Y: ny, W: n.W, H: n.H}
	nodeClip := bounds.Intersect(clip)

	ordered := append([]*Node(nil), n.children...)
	sortByZThenReverse(ordered)
	for _, c := range ordered {
		if hit := hitTestNode(c, nx, ny, nodeClip, x, y); hit != nil {
			return hit
		}
	}

	if n.Capabilities.Has(CapMouseTarget) && nodeClip.Contains(x, y) {
		return n
	}
	return nil
}

// sortByZThenReverse orders children highest-zIndex-drawn-last so hit
// testing, which wants topmost-first, walks them in reverse draw order.
func sortByZThenReverse(nodes []*Node) {
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	for i := 1; i < len(nodes); i++ {
		for k := i; k > 0 && nodes[k-1].ZIndex < nodes[k].ZIndex; k-- {
			nodes[k-1], nodes[k] = nodes[k], nodes[k-1]
		}
	}
}

// Dispatch feeds one already-derived mouse event through hit-testing and
// bubbling, additionally resolving hover transitions and drop targets
// and anchoring/extending a text selection on a selectable target (spec
// §4.10).
func (eb *EventBus) Dispatch(x, y int, kind MouseEventKind, buttons ButtonSet) {
	target := HitTest(eb.Root, x, y)

	switch kind {
	case MouseDown:
		eb.pressNode = target
		if target != nil && target.Capabilities.Has(CapSelectable) {
			lx, ly := localPoint(target, x, y)
			AnchorSelection(target, lx, ly)
		}
	case MouseMove, MouseDrag:
		if kind == MouseDrag && eb.pressNode != nil && eb.pressNode.Capabilities.Has(CapSelectable) {
			lx, ly := localPoint(eb.pressNode, x, y)
			ExtendSelection(eb.pressNode, lx, ly)
		}
		eb.updateHover(target, x, y)
	case MouseUp:
		eb.pressNode = nil
	case MouseDragEnd:
		eb.pressNode = nil
		eb.bubble(target, x, y, kind, buttons)
		if target != nil && eb.dropTargets[target] {
			eb.bubble(target, x, y, MouseDrop, buttons)
		}
		return
	}

	eb.bubble(target, x, y, kind, buttons)
}

// localPoint converts absolute screen coordinates to n's own local
// (content-relative) coordinates by walking n's ancestor chain.
func localPoint(n *Node, absX, absY int) (int, int) {
	x, y := absX, absY
	for cur := n; cur != nil; cur = cur.Parent() {
		x -= cur.X
		y -= cur.Y
	}
	return x, y
}

func (eb *EventBus) updateHover(target *Node, x, y int) {
	if target == eb.hoverNode {
		return
	}
	if eb.hoverNode != nil {
		eb.bubble(eb.hoverNode, x, y, MouseOut, 0)
	}
	if target != nil {
		eb.bubble(target, x, y, MouseOver, 0)
	}
	eb.hoverNode = target
}

// bubble dispatches ev starting at target and walking up through parents
// until a handler returns true or calls StopPropagation (spec §4.10).
func (eb *EventBus) bubble(target *Node, x, y int, kind MouseEventKind, buttons ButtonSet) {
	ev := &MouseEvent{X: x, Y: y, Kind: kind, Buttons: buttons}
	for n := target; n != nil; n = n.Parent() {
		if n.onMouse == nil {
			continue
		}
		handled := n.onMouse(ev)
		if handled || ev.stopped {
			return
		}
	}
}

// CopyToClipboard exports text to the system clipboard via OSC 52, the
// terminal-native path that needs no platform clipboard binary and works
// over SSH (spec §4.10 selection export).
func CopyToClipboard(w io.Writer, text string) {
	seq := osc52.New(text)
	w.Write([]byte(seq.String()))
}
