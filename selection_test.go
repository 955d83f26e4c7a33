package opentui

import "testing"

func newTestTextNode(id, text string) *Node {
	buf := NewTextBuffer(NewStyleTable())
	buf.SetText(text)
	n := NewText(id, buf)
	n.W, n.H = 20, 5
	return n
}

func TestSelection(t *testing.T) {
	t.Run("AnchorInsideContentStartsSelection", func(t *testing.T) {
		n := newTestTextNode("t", "hello world")
		AnchorSelection(n, 2, 0)
		buf := selectionBuffer(n)
		if !buf.HasSelection() {
			t.Fatal("expected a selection to start")
		}
	})

	t.Run("AnchorOutsideContentDoesNothing", func(t *testing.T) {
		n := newTestTextNode("t", "hello")
		AnchorSelection(n, -5, 0)
		buf := selectionBuffer(n)
		if buf.HasSelection() {
			t.Error("expected no selection for an out-of-range anchor")
		}
	})

	t.Run("ExtendWithoutAnchorIsNoop", func(t *testing.T) {
		n := newTestTextNode("t", "hello")
		ExtendSelection(n, 3, 0)
		buf := selectionBuffer(n)
		if buf.HasSelection() {
			t.Error("expected extend with no prior anchor to be a no-op")
		}
	})

	t.Run("AnchorThenExtendGrowsRange", func(t *testing.T) {
		n := newTestTextNode("t", "hello world")
		AnchorSelection(n, 0, 0)
		ExtendSelection(n, 5, 0)
		buf := selectionBuffer(n)
		if !buf.HasSelection() {
			t.Fatal("expected a selection")
		}
	})

	t.Run("NonSelectableNodeIgnoresAnchor", func(t *testing.T) {
		n := NewBox("box")
		n.W, n.H = 10, 10
		// selectionBuffer returns nil for a box payload, so Anchor is a
		// silent no-op rather than a panic.
		AnchorSelection(n, 1, 1)
	})

	t.Run("SelectionBufferResolvesEachVariant", func(t *testing.T) {
		textBuf := NewTextBuffer(nil)
		textNode := NewText("text", textBuf)
		if selectionBuffer(textNode) != textBuf {
			t.Error("expected text node to resolve its buffer")
		}

		areaBuf := NewTextBuffer(nil)
		areaNode := NewTextarea("area", areaBuf)
		if selectionBuffer(areaNode) != areaBuf {
			t.Error("expected textarea node to resolve its buffer")
		}

		box := NewBox("box")
		if selectionBuffer(box) != nil {
			t.Error("expected a box node to resolve no buffer")
		}
	})
}
