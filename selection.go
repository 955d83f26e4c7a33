package opentui

// selectionBuffer extracts the *TextBuffer backing a selectable node's
// payload, regardless of which variant owns it.
func selectionBuffer(n *Node) *TextBuffer {
	switch p := n.payload.(type) {
	case *textPayload:
		return p.Buffer
	case *codePayload:
		return p.Buffer
	case *textareaPayload:
		return p.Buffer
	}
	return nil
}

// shouldStartSelection reports whether a mousedown at node-local (x,y)
// anchors a text selection — true whenever the point falls inside the
// node's own content rectangle, which is all any variant here needs
// (spec §4.10 "shouldStartSelection").
func shouldStartSelection(n *Node, localX, localY int) bool {
	if !n.Capabilities.Has(CapSelectable) {
		return false
	}
	return localX >= 0 && localX < n.W && localY >= 0 && localY < n.H
}

// AnchorSelection starts a new selection on n at the visual position
// (localX,localY), resolving it to logical row/col via the node's text
// buffer's wrap cache.
func AnchorSelection(n *Node, localX, localY int) {
	buf := selectionBuffer(n)
	if buf == nil || !shouldStartSelection(n, localX, localY) {
		return
	}
	row, col := visualToLogicalPoint(buf, localX, localY)
	buf.SetSelection(row, col, row, col)
	n.RequestRender()
}

// ExtendSelection moves the active selection's focus end to (localX,
// localY), delegating the rectangular/columnar extraction convention to
// the anchor node's own buffer (spec §4.10).
func ExtendSelection(n *Node, localX, localY int) {
	buf := selectionBuffer(n)
	if buf == nil || !buf.HasSelection() {
		return
	}
	row, col := visualToLogicalPoint(buf, localX, localY)
	buf.SetSelection(buf.anchorRow, buf.anchorCol, row, col)
	n.RequestRender()
}

func visualToLogicalPoint(buf *TextBuffer, localX, localY int) (row, col int) {
	visualRow := localY
	if visualRow < 0 {
		visualRow = 0
	}
	row, lineStart := buf.VisualLineToLogical(visualRow)
	// lineStart is a byte offset; convert it to a grapheme column first
	startCol := lineStart
	if line, ok := buf.lines.At(row); ok {
		startCol = byteToCol(lineText(line), lineStart)
	}
	col = startCol + clampInt(localX, 0, 1<<30)
	return row, col
}
